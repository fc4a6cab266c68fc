package adapter

import (
	"context"
	"errors"

	"netinspect/internal/domain"
)

var (
	// ErrMalformedResponse is returned when a neighbor source answers with an unexpected shape
	ErrMalformedResponse = errors.New("malformed neighbor response")
	// ErrUnsupportedProtocol is returned when no discoverer handles a device protocol
	ErrUnsupportedProtocol = errors.New("unsupported discovery protocol")
	// ErrCollectorStatus is returned when the collect service answers with a non-success status
	ErrCollectorStatus = errors.New("collector returned error status")
)

// Discoverer fetches the raw neighbor table of one device.
// Implementations must honor ctx cancellation so callers can bound each call.
type Discoverer interface {
	// Name returns the unique identifier for this discoverer
	Name() string

	// DiscoverNeighbors returns the neighbor records reported by device
	DiscoverNeighbors(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error)
}

// DiscovererFunc adapts a function to the Discoverer interface
type DiscovererFunc func(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error)

// Name returns the adapter identifier
func (f DiscovererFunc) Name() string {
	return "func"
}

// DiscoverNeighbors calls f
func (f DiscovererFunc) DiscoverNeighbors(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error) {
	return f(ctx, device, cred)
}
