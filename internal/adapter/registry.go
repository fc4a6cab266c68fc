package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"netinspect/internal/domain"
)

// Router dispatches discovery to the discoverer registered for each device's
// collection protocol. It satisfies Discoverer itself.
type Router struct {
	mu          sync.RWMutex
	discoverers map[domain.Protocol]Discoverer
	logger      zerolog.Logger
}

// NewRouter creates an empty router
func NewRouter(logger zerolog.Logger) *Router {
	return &Router{
		discoverers: make(map[domain.Protocol]Discoverer),
		logger:      logger,
	}
}

// Register binds a discoverer to a protocol
func (r *Router) Register(protocol domain.Protocol, d Discoverer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.discoverers[protocol]; exists {
		return fmt.Errorf("discoverer for %s already registered", protocol)
	}

	r.discoverers[protocol] = d
	r.logger.Info().
		Str("protocol", string(protocol)).
		Str("discoverer", d.Name()).
		Msg("Registered discoverer")

	return nil
}

// Protocols returns the registered protocols in sorted order
func (r *Router) Protocols() []domain.Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()

	protocols := make([]domain.Protocol, 0, len(r.discoverers))
	for p := range r.discoverers {
		protocols = append(protocols, p)
	}
	sort.Slice(protocols, func(i, j int) bool { return protocols[i] < protocols[j] })
	return protocols
}

// Name returns the adapter identifier
func (r *Router) Name() string {
	return "router"
}

// DiscoverNeighbors forwards to the discoverer for device.EffectiveProtocol()
func (r *Router) DiscoverNeighbors(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error) {
	protocol := device.EffectiveProtocol()

	r.mu.RLock()
	d, ok := r.discoverers[protocol]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}

	return d.DiscoverNeighbors(ctx, device, cred)
}
