package dataflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDataflowIdentifier(t *testing.T) {
	flow := DataFlow{
		ID:       "C21_T01_LGA",
		AgencyID: "ABS",
		Version:  "1.0.0",
	}

	assert.Equal(t, "ABS,C21_T01_LGA,1.0.0", FormatDataflowIdentifier(flow))
}

func TestFormatDataflowIdentifierEmptyComponents(t *testing.T) {
	// Components are joined positionally even when empty, so the consumer
	// can always split on commas.
	assert.Equal(t, ",,", FormatDataflowIdentifier(DataFlow{}))
}

func TestCacheAge(t *testing.T) {
	cache := &Cache{LastUpdated: time.Now().Add(-2 * time.Hour)}

	age := cache.Age()

	assert.GreaterOrEqual(t, age, 2*time.Hour)
	assert.Less(t, age, 2*time.Hour+time.Minute)
}
