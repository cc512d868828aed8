package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statkit/absbridge/pkg/sdmx"
	"github.com/statkit/absbridge/pkg/services"
	"github.com/statkit/absbridge/pkg/storage"
)

// countingAPI implements services.DataAPI counting listing fetches
type countingAPI struct {
	mu        sync.Mutex
	listCalls int
}

func (c *countingAPI) ListDataflowStructures(ctx context.Context) (map[string]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listCalls++
	return map[string]interface{}{}, nil
}

func (c *countingAPI) ListStructures(ctx context.Context, structureType, agencyID string, detail sdmx.StructureDetail, references sdmx.References) (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func (c *countingAPI) GetObservationData(ctx context.Context, dataflowID, dataKey string, options *sdmx.QueryOptions) (interface{}, error) {
	return nil, nil
}

func (c *countingAPI) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls
}

func newTestService(api *countingAPI) *services.DataflowService {
	return services.NewDataflowService(api, storage.NewMemoryStore(), services.DataflowServiceOptions{})
}

func TestSchedulerRunsRefreshes(t *testing.T) {
	api := &countingAPI{}
	sched := New(newTestService(api), "@every 100ms", nil)

	require.NoError(t, sched.Start())
	defer sched.Stop()

	assert.Eventually(t, func() bool {
		return api.calls() >= 1
	}, 3*time.Second, 25*time.Millisecond, "scheduler never triggered a refresh")
}

func TestSchedulerInvalidSchedule(t *testing.T) {
	sched := New(newTestService(&countingAPI{}), "every day at noon", nil)

	err := sched.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid refresh schedule")
}

func TestSchedulerStopHaltsRefreshes(t *testing.T) {
	api := &countingAPI{}
	sched := New(newTestService(api), "@every 50ms", nil)

	require.NoError(t, sched.Start())
	assert.Eventually(t, func() bool {
		return api.calls() >= 1
	}, 3*time.Second, 10*time.Millisecond)

	sched.Stop()
	after := api.calls()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, api.calls(), "refreshes should stop after Stop")
}
