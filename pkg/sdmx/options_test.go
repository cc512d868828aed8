package sdmx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAcceptHeader(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"csv with labels", FormatCSVWithLabels, "text/csv"},
		{"plain csv", FormatCSV, "text/csv"},
		{"json data", FormatJSONData, "application/vnd.sdmx.data+json"},
		{"structure specific", FormatStructureSpecificData, "application/vnd.sdmx.structurespecificdata+xml;version=2.1"},
		{"generic", FormatGenericData, "application/vnd.sdmx.genericdata+xml;version=2.1"},
		{"unknown falls back to generic", Format("whatever"), "application/vnd.sdmx.genericdata+xml;version=2.1"},
		{"empty falls back to generic", Format(""), "application/vnd.sdmx.genericdata+xml;version=2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.AcceptHeader())
		})
	}
}

func TestFormatIsCSV(t *testing.T) {
	assert.True(t, FormatCSV.IsCSV())
	assert.True(t, FormatCSVWithLabels.IsCSV())
	assert.False(t, FormatJSONData.IsCSV())
	assert.False(t, FormatGenericData.IsCSV())
}

func TestQueryParamsDefaultsFormat(t *testing.T) {
	var options *QueryOptions

	params := options.queryParams()

	assert.Equal(t, map[string]string{"format": "jsondata"}, params)
}

func TestQueryParamsForwardsRecognizedOptions(t *testing.T) {
	options := &QueryOptions{
		StartPeriod:            "2021-Q1",
		EndPeriod:              "2022-Q4",
		Format:                 FormatCSVWithLabels,
		Detail:                 DetailDataOnly,
		DimensionAtObservation: "AllDimensions",
	}

	params := options.queryParams()

	assert.Equal(t, map[string]string{
		"startPeriod":            "2021-Q1",
		"endPeriod":              "2022-Q4",
		"format":                 "csvfilewithlabels",
		"detail":                 "dataonly",
		"dimensionAtObservation": "AllDimensions",
	}, params)
}

func TestEffectiveFormat(t *testing.T) {
	assert.Equal(t, FormatJSONData, (*QueryOptions)(nil).EffectiveFormat())
	assert.Equal(t, FormatJSONData, (&QueryOptions{}).EffectiveFormat())
	assert.Equal(t, FormatCSV, (&QueryOptions{Format: FormatCSV}).EffectiveFormat())
}
