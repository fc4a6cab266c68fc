package repository

import (
	"context"

	"netinspect/internal/domain"
)

// Directory is the read side of the device inventory used by topology builds
type Directory interface {
	// ListDevices returns all devices in a stable order
	ListDevices(ctx context.Context) ([]domain.Device, error)

	// GetCredential returns the decrypted credential for a device, or
	// domain.ErrCredentialNotFound when it has none
	GetCredential(ctx context.Context, deviceID int64) (*domain.Credential, error)
}

// DeviceStore extends Directory with the writes needed to seed and maintain inventory
type DeviceStore interface {
	Directory

	GetDevice(ctx context.Context, id int64) (*domain.Device, error)
	GetDeviceByIP(ctx context.Context, ip string) (*domain.Device, error)
	CreateDevice(ctx context.Context, device *domain.Device, password string) error
	UpdateStatus(ctx context.Context, id int64, status domain.DeviceStatus) error

	// Close releases resources
	Close() error
}
