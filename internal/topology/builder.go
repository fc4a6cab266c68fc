package topology

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"netinspect/internal/adapter"
	"netinspect/internal/domain"
	"netinspect/internal/repository"
)

// BuilderConfig holds the fan-out settings of a build
type BuilderConfig struct {
	// DiscoveryTimeout bounds each per-device discovery call
	DiscoveryTimeout time.Duration
	// Concurrency limits parallel discovery calls
	Concurrency int
}

// DefaultBuilderConfig returns sensible defaults
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		DiscoveryTimeout: 10 * time.Second,
		Concurrency:      8,
	}
}

// Builder produces topology snapshots from the directory and neighbor discovery
type Builder struct {
	directory  repository.Directory
	discoverer adapter.Discoverer
	config     BuilderConfig
	clock      clock.Clock
	logger     zerolog.Logger
	metrics    *Metrics
}

// BuilderOption customizes a Builder
type BuilderOption func(*Builder)

// WithBuilderClock sets the clock used to stamp snapshots
func WithBuilderClock(clk clock.Clock) BuilderOption {
	return func(b *Builder) { b.clock = clk }
}

// WithBuilderLogger sets the builder logger
func WithBuilderLogger(logger zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// WithBuilderMetrics sets the metrics sink
func WithBuilderMetrics(m *Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder creates a new topology builder
func NewBuilder(directory repository.Directory, discoverer adapter.Discoverer, config BuilderConfig, opts ...BuilderOption) *Builder {
	if config.DiscoveryTimeout <= 0 {
		config.DiscoveryTimeout = 10 * time.Second
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}

	b := &Builder{
		directory:  directory,
		discoverer: discoverer,
		config:     config,
		clock:      clock.New(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build computes a new snapshot. Per-device credential or discovery failures
// only remove that device's links; an error is returned only when the
// device list itself cannot be read.
func (b *Builder) Build(ctx context.Context) (*domain.Snapshot, error) {
	devices, err := b.directory.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return domain.EmptySnapshot(b.clock.Now()), nil
	}

	records := b.collect(ctx, devices)
	links := MergeLinks(records, devices)
	nodes := Layout(devices)

	return domain.NewSnapshot(nodes, links, b.clock.Now()), nil
}

// collect runs one discovery call per device and concatenates the results
// in device order
func (b *Builder) collect(ctx context.Context, devices []domain.Device) []domain.RawLinkRecord {
	perDevice := make([][]domain.RawLinkRecord, len(devices))

	var g errgroup.Group
	g.SetLimit(b.config.Concurrency)
	for i := range devices {
		device := devices[i]
		g.Go(func() error {
			perDevice[i] = b.discoverDevice(ctx, device)
			return nil
		})
	}
	_ = g.Wait()

	var records []domain.RawLinkRecord
	for _, recs := range perDevice {
		records = append(records, recs...)
	}
	return records
}

func (b *Builder) discoverDevice(ctx context.Context, device domain.Device) []domain.RawLinkRecord {
	cred, err := b.directory.GetCredential(ctx, device.ID)
	if err != nil || cred == nil {
		if err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
			b.logger.Debug().Err(err).Int64("device_id", device.ID).Str("device", device.Name).
				Msg("Credential lookup failed, skipping discovery")
		}
		b.metrics.deviceSkipped("credential")
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, b.config.DiscoveryTimeout)
	defer cancel()

	records, err := b.discoverWithin(callCtx, device, *cred)
	if err != nil {
		b.logger.Debug().Err(err).
			Int64("device_id", device.ID).
			Str("device", device.Name).
			Str("ip", device.IP).
			Msg("LLDP collection failed")
		b.metrics.deviceSkipped("discovery")
		return nil
	}
	return records
}

type discoveryResult struct {
	records []domain.RawLinkRecord
	err     error
}

// discoverWithin returns when the discoverer does or when ctx expires,
// whichever comes first, so a client that ignores ctx cannot stall the build
func (b *Builder) discoverWithin(ctx context.Context, device domain.Device, cred domain.Credential) ([]domain.RawLinkRecord, error) {
	done := make(chan discoveryResult, 1)
	go func() {
		records, err := b.discoverer.DiscoverNeighbors(ctx, device, cred)
		done <- discoveryResult{records: records, err: err}
	}()

	select {
	case res := <-done:
		return res.records, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("discovery timed out: %w", ctx.Err())
	}
}
