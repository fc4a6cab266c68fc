package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"netinspect/internal/domain"
	"netinspect/internal/secret"
)

// ============================================================================
// Test Helpers
// ============================================================================

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	key, err := secret.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	box, err := secret.NewBox(key)
	if err != nil {
		t.Fatalf("failed to create box: %v", err)
	}

	repo, err := New(":memory:", box)
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	repo.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}

	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

// mustCreate inserts a device or fails the test
func mustCreate(t *testing.T, repo *Repository, device domain.Device, password string) domain.Device {
	t.Helper()
	if err := repo.CreateDevice(context.Background(), &device, password); err != nil {
		t.Fatalf("failed to create device %s: %v", device.Name, err)
	}
	return device
}

// assertNoError fails the test if err is not nil
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// assertEqual fails the test if expected != actual
func assertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}

// ============================================================================
// Device Tests
// ============================================================================

func TestListDevicesEmpty(t *testing.T) {
	repo := newTestRepo(t)

	devices, err := repo.ListDevices(context.Background())
	assertNoError(t, err)
	if devices == nil {
		t.Fatal("expected empty slice, got nil")
	}
	assertEqual(t, 0, len(devices))
}

func TestCreateAndListDevices(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	group := int64(4)
	core := mustCreate(t, repo, domain.Device{
		Name: "core-sw1", IP: "10.0.0.1", Vendor: "huawei", Model: "S5735", Username: "admin", GroupID: &group,
	}, "Huawei@123")
	access := mustCreate(t, repo, domain.Device{
		Name: "access-sw1", IP: "10.0.0.2", Vendor: "cisco", Protocol: domain.ProtocolSNMP,
	}, "public")

	if core.ID == 0 || access.ID <= core.ID {
		t.Fatalf("expected increasing ids, got %d and %d", core.ID, access.ID)
	}

	devices, err := repo.ListDevices(ctx)
	assertNoError(t, err)
	assertEqual(t, 2, len(devices))

	got := devices[0]
	assertEqual(t, core.ID, got.ID)
	assertEqual(t, "core-sw1", got.Name)
	assertEqual(t, "10.0.0.1", got.IP)
	assertEqual(t, "huawei", got.Vendor)
	assertEqual(t, "S5735", got.Model)
	assertEqual(t, domain.ProtocolSSH, got.Protocol)
	assertEqual(t, "admin", got.Username)
	assertEqual(t, domain.DeviceStatusOffline, got.Status)
	if got.GroupID == nil || *got.GroupID != 4 {
		t.Fatalf("expected group 4, got %v", got.GroupID)
	}
	if !got.CreatedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created_at %v", got.CreatedAt)
	}

	assertEqual(t, access.ID, devices[1].ID)
	assertEqual(t, domain.ProtocolSNMP, devices[1].Protocol)
	if devices[1].GroupID != nil {
		t.Fatalf("expected nil group, got %v", *devices[1].GroupID)
	}
}

func TestCreateDeviceValidation(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CreateDevice(context.Background(), &domain.Device{IP: "10.0.0.1"}, "")
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestCreateDeviceDuplicateIP(t *testing.T) {
	repo := newTestRepo(t)
	mustCreate(t, repo, domain.Device{Name: "a", IP: "10.0.0.1"}, "")

	err := repo.CreateDevice(context.Background(), &domain.Device{Name: "b", IP: "10.0.0.1"}, "")
	if err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestGetDevice(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := mustCreate(t, repo, domain.Device{Name: "core-sw1", IP: "10.0.0.1"}, "")

	byID, err := repo.GetDevice(ctx, created.ID)
	assertNoError(t, err)
	assertEqual(t, "core-sw1", byID.Name)

	byIP, err := repo.GetDeviceByIP(ctx, "10.0.0.1")
	assertNoError(t, err)
	assertEqual(t, created.ID, byIP.ID)

	_, err = repo.GetDevice(ctx, 999)
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	_, err = repo.GetDeviceByIP(ctx, "10.9.9.9")
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

// ============================================================================
// Credential Tests
// ============================================================================

func TestGetCredential(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	device := mustCreate(t, repo, domain.Device{Name: "core-sw1", IP: "10.0.0.1", Username: "admin"}, "Huawei@123")

	cred, err := repo.GetCredential(ctx, device.ID)
	assertNoError(t, err)
	assertEqual(t, "admin", cred.Username)
	assertEqual(t, "Huawei@123", cred.Secret)

	// stored value is sealed
	var stored string
	assertNoError(t, repo.db.QueryRow(`SELECT password FROM devices WHERE id = ?`, device.ID).Scan(&stored))
	if stored == "Huawei@123" {
		t.Fatal("password stored in plaintext")
	}
}

func TestGetCredentialNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	noPassword := mustCreate(t, repo, domain.Device{Name: "core-sw1", IP: "10.0.0.1", Username: "admin"}, "")

	_, err := repo.GetCredential(ctx, noPassword.ID)
	if !errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}

	_, err = repo.GetCredential(ctx, 999)
	if !errors.Is(err, domain.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound for unknown device, got %v", err)
	}
}

func TestGetCredentialUndecryptable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	device := mustCreate(t, repo, domain.Device{Name: "core-sw1", IP: "10.0.0.1"}, "pw")

	_, err := repo.db.Exec(`UPDATE devices SET password = 'garbage' WHERE id = ?`, device.ID)
	assertNoError(t, err)

	_, err = repo.GetCredential(ctx, device.ID)
	if !errors.Is(err, secret.ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

// ============================================================================
// Status Tests
// ============================================================================

func TestUpdateStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	device := mustCreate(t, repo, domain.Device{Name: "core-sw1", IP: "10.0.0.1"}, "")

	assertNoError(t, repo.UpdateStatus(ctx, device.ID, domain.DeviceStatusOnline))

	got, err := repo.GetDevice(ctx, device.ID)
	assertNoError(t, err)
	assertEqual(t, domain.DeviceStatusOnline, got.Status)

	err = repo.UpdateStatus(ctx, 999, domain.DeviceStatusOnline)
	if !errors.Is(err, domain.ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)

	assertNoError(t, repo.migrate())
	assertNoError(t, repo.migrate())
}
