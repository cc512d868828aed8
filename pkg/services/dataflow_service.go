// Package services provides the application services of absbridge.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/statkit/absbridge/pkg/dataflow"
	"github.com/statkit/absbridge/pkg/logging"
	"github.com/statkit/absbridge/pkg/sdmx"
	"github.com/statkit/absbridge/pkg/storage"
)

// DefaultRefreshInterval is how long a cached dataflow listing stays fresh
const DefaultRefreshInterval = 24 * time.Hour

// DataAPI is the subset of the SDMX client the service depends on
type DataAPI interface {
	// ListDataflowStructures requests the dataflow structure listing
	ListDataflowStructures(ctx context.Context) (map[string]interface{}, error)

	// ListStructures requests structures of the given type for an agency
	ListStructures(ctx context.Context, structureType, agencyID string, detail sdmx.StructureDetail, references sdmx.References) (map[string]interface{}, error)

	// GetObservationData requests observation data for a dataflow
	GetObservationData(ctx context.Context, dataflowID, dataKey string, options *sdmx.QueryOptions) (interface{}, error)
}

// RefreshEvent describes a completed cache refresh
type RefreshEvent struct {
	// ID uniquely identifies the refresh
	ID string `json:"id"`

	// Timestamp is when the refresh completed
	Timestamp time.Time `json:"timestamp"`

	// FlowCount is the number of dataflows in the new snapshot
	FlowCount int `json:"flowCount"`

	// Forced indicates the refresh was requested explicitly rather than
	// triggered by staleness
	Forced bool `json:"forced"`
}

// DataflowServiceOptions contains optional settings for the service
type DataflowServiceOptions struct {
	// RefreshInterval is the cache time-to-live; DefaultRefreshInterval when zero
	RefreshInterval time.Duration

	// Logger for service events; a no-op logger when nil
	Logger logging.Logger
}

// DataflowService owns the authoritative view of which dataflows exist.
// The listing is refreshed from the remote API on a time-to-live policy,
// persisted through a CacheStore, and replaced wholesale on every refresh.
// The refresh-or-read sequence is mutex-guarded so concurrent requests
// cannot trigger duplicate refreshes or observe a partial update.
type DataflowService struct {
	client DataAPI
	store  storage.CacheStore
	ttl    time.Duration
	logger logging.Logger
	mu     sync.Mutex
	cache  *dataflow.Cache
	loaded bool
	subMu  sync.RWMutex
	subs   []func(RefreshEvent)
}

// NewDataflowService creates a new dataflow cache service
func NewDataflowService(client DataAPI, store storage.CacheStore, opts DataflowServiceOptions) *DataflowService {
	ttl := opts.RefreshInterval
	if ttl == 0 {
		ttl = DefaultRefreshInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &DataflowService{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// GetDataFlows returns the known dataflows, refreshing from the remote API
// when forced or when the cached listing has reached its refresh interval.
// A failed refresh leaves the previous cache authoritative in memory and
// in storage.
func (s *DataflowService) GetDataFlows(ctx context.Context, forceRefresh bool) ([]dataflow.DataFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Lazily load the persisted snapshot on first use. A missing snapshot
	// is not an error; anything else (unreadable file, malformed JSON)
	// propagates unchanged.
	if !s.loaded {
		cache, err := s.store.Load()
		if err != nil && !errors.Is(err, storage.ErrCacheNotFound) {
			return nil, err
		}
		s.cache = cache
		s.loaded = true
	}

	if forceRefresh || s.cache == nil || s.cache.Age() >= s.ttl {
		if err := s.refresh(ctx, forceRefresh); err != nil {
			return nil, err
		}
	}

	if s.cache == nil {
		return []dataflow.DataFlow{}, nil
	}

	flows := make([]dataflow.DataFlow, len(s.cache.Flows))
	copy(flows, s.cache.Flows)
	return flows, nil
}

// refresh fetches the dataflow listing, extracts the records, persists the
// new snapshot and only then replaces the in-memory one. Caller holds s.mu.
func (s *DataflowService) refresh(ctx context.Context, forced bool) error {
	tree, err := s.client.ListDataflowStructures(ctx)
	if err != nil {
		return err
	}

	next := &dataflow.Cache{
		LastUpdated: time.Now().UTC(),
		Flows:       dataflow.ExtractDataFlows(tree),
	}

	if err := s.store.Save(next); err != nil {
		return fmt.Errorf("failed to persist dataflow cache: %w", err)
	}
	s.cache = next

	event := RefreshEvent{
		ID:        uuid.New().String(),
		Timestamp: next.LastUpdated,
		FlowCount: len(next.Flows),
		Forced:    forced,
	}
	s.logger.Info("dataflow cache refreshed",
		logging.F("flow_count", event.FlowCount),
		logging.F("forced", event.Forced),
		logging.F("refresh_id", event.ID),
	)
	go s.publish(event)

	return nil
}

// GetFlowData retrieves observation data for a dataflow. Observation data
// is never cached; only the dataflow listing is.
func (s *DataflowService) GetFlowData(ctx context.Context, flowID, dataKey string, options *sdmx.QueryOptions) (interface{}, error) {
	return s.client.GetObservationData(ctx, flowID, dataKey, options)
}

// GetStructures retrieves structures of the given type for an agency
func (s *DataflowService) GetStructures(ctx context.Context, structureType, agencyID string, detail sdmx.StructureDetail, references sdmx.References) (map[string]interface{}, error) {
	return s.client.ListStructures(ctx, structureType, agencyID, detail, references)
}

// Subscribe registers a listener for refresh events. Listeners are invoked
// asynchronously after each successful refresh.
func (s *DataflowService) Subscribe(fn func(RefreshEvent)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *DataflowService) publish(event RefreshEvent) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, fn := range s.subs {
		fn(event)
	}
}
