package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"netinspect/internal/domain"
	"netinspect/internal/repository"
)

// ImportResult summarizes an inventory import
type ImportResult struct {
	Created int
	Skipped int
}

// Import adds inventory devices to store. Devices whose IP is already present
// are left untouched.
func Import(ctx context.Context, store repository.DeviceStore, inv *Inventory, logger zerolog.Logger) (ImportResult, error) {
	var result ImportResult

	for _, entry := range inv.Entries {
		_, err := store.GetDeviceByIP(ctx, entry.Device.IP)
		if err == nil {
			result.Skipped++
			logger.Debug().Str("device", entry.Device.Name).Str("ip", entry.Device.IP).Msg("Device already in directory")
			continue
		}
		if !errors.Is(err, domain.ErrDeviceNotFound) {
			return result, fmt.Errorf("lookup %s: %w", entry.Device.IP, err)
		}

		device := entry.Device
		if err := store.CreateDevice(ctx, &device, entry.Password); err != nil {
			return result, fmt.Errorf("create %s: %w", device.Name, err)
		}
		result.Created++

		if entry.Password == "" {
			logger.Warn().Str("device", device.Name).Msg("Imported device has no password, it will be skipped during discovery")
		}
	}

	logger.Info().
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("Inventory import complete")

	return result, nil
}
