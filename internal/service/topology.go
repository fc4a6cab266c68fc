package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"netinspect/internal/domain"
	"netinspect/internal/topology"
)

// CacheStatus describes the snapshot currently held by the cache
type CacheStatus struct {
	Enabled    bool      `json:"enabled"`
	SnapshotID string    `json:"snapshot_id,omitempty"`
	ComputedAt time.Time `json:"computed_at,omitempty"`
	Nodes      int       `json:"nodes"`
	Links      int       `json:"links"`
}

// TopologyService serves topology snapshots from the cache and announces
// every stored snapshot on the event bus
type TopologyService struct {
	cache    *topology.Cache
	eventBus *EventBus
	logger   zerolog.Logger
}

// NewTopologyService creates a new topology service
func NewTopologyService(cache *topology.Cache, eventBus *EventBus, logger zerolog.Logger) *TopologyService {
	s := &TopologyService{
		cache:    cache,
		eventBus: eventBus,
		logger:   logger,
	}
	cache.OnUpdate(s.publishUpdate)
	return s
}

// GetTopology returns the current topology snapshot
func (s *TopologyService) GetTopology(ctx context.Context) (*domain.Snapshot, error) {
	return s.cache.Get(ctx)
}

// Refresh forces a rebuild. With caching disabled it is a plain uncached build.
func (s *TopologyService) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	if !s.cache.Enabled() {
		return s.cache.Get(ctx)
	}
	return s.cache.Refresh(ctx)
}

// Status reports what the cache currently holds without triggering a build
func (s *TopologyService) Status() CacheStatus {
	status := CacheStatus{Enabled: s.cache.Enabled()}

	snap, at := s.cache.Current()
	if snap != nil {
		status.SnapshotID = snap.ID()
		status.ComputedAt = at
		status.Nodes = snap.NodeCount()
		status.Links = snap.LinkCount()
	}
	return status
}

func (s *TopologyService) publishUpdate(snap *domain.Snapshot) {
	s.eventBus.Publish(Event{
		Type: EventTopologyUpdated,
		Payload: TopologyUpdate{
			SnapshotID: snap.ID(),
			Nodes:      snap.NodeCount(),
			Links:      snap.LinkCount(),
			ComputedAt: snap.ComputedAt(),
		},
	})
	s.logger.Debug().Str("snapshot_id", snap.ID()).Msg("Published topology update")
}
