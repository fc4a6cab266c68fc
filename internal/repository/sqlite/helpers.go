package sqlite

import (
	"database/sql"
	"time"

	"netinspect/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullToInt64Ptr safely converts sql.NullInt64 to *int64
func nullToInt64Ptr(ni sql.NullInt64) *int64 {
	if ni.Valid {
		v := ni.Int64
		return &v
	}
	return nil
}

// int64PtrToNull safely converts *int64 to sql.NullInt64
func int64PtrToNull(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to the devices table:
// 1. Add field to deviceRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update deviceColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Device
// 5. Update deviceInsertArgs() if column should be writable
// 6. Add migration in sqlite.go migrate() using addColumnIfNotExists()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - deviceColumns constant
// - scanArgs() return slice
// - All SELECT queries using deviceColumns

// ============================================================================
// Device Row Scanner
// ============================================================================

// deviceRow holds all columns from a device query for scanning
type deviceRow struct {
	ID        int64
	Name      string
	IP        string
	Vendor    sql.NullString
	Model     sql.NullString
	Protocol  sql.NullString
	Username  sql.NullString
	GroupID   sql.NullInt64
	Status    sql.NullString
	CreatedAt time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match deviceColumns order exactly:
// id, name, ip, vendor, model, protocol, username, group_id, status, created_at
func (r *deviceRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,        // 1
		&r.Name,      // 2
		&r.IP,        // 3
		&r.Vendor,    // 4
		&r.Model,     // 5
		&r.Protocol,  // 6
		&r.Username,  // 7
		&r.GroupID,   // 8
		&r.Status,    // 9
		&r.CreatedAt, // 10
	}
}

// toDomain converts the scanned row to a domain.Device
func (r *deviceRow) toDomain() domain.Device {
	device := domain.Device{
		ID:        r.ID,
		Name:      r.Name,
		IP:        r.IP,
		Vendor:    nullToString(r.Vendor),
		Model:     nullToString(r.Model),
		Protocol:  domain.Protocol(nullToString(r.Protocol)),
		Username:  nullToString(r.Username),
		GroupID:   nullToInt64Ptr(r.GroupID),
		Status:    domain.DeviceStatus(nullToString(r.Status)),
		CreatedAt: r.CreatedAt,
	}

	// Default status if empty
	if device.Status == "" {
		device.Status = domain.DeviceStatusOffline
	}

	return device
}

// deviceColumns returns the SELECT column list for device queries
const deviceColumns = `id, name, ip, vendor, model, protocol, username, group_id, status, created_at`

// ============================================================================
// Device Write Helpers
// ============================================================================

// deviceInsertArgs prepares arguments for device INSERT
// Returns: name, ip, vendor, model, protocol, username, password, group_id, status, created_at, updated_at
func deviceInsertArgs(device *domain.Device, sealedPassword string) []interface{} {
	return []interface{}{
		device.Name,
		device.IP,
		stringToNull(device.Vendor),
		stringToNull(device.Model),
		string(device.EffectiveProtocol()),
		stringToNull(device.Username),
		stringToNull(sealedPassword),
		int64PtrToNull(device.GroupID),
		string(device.Status),
		device.CreatedAt,
		device.CreatedAt,
	}
}
