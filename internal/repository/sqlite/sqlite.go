package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"netinspect/internal/domain"
)

// Sealer encrypts device passwords at rest
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// Repository implements repository.DeviceStore using SQLite
type Repository struct {
	db     *sql.DB
	sealer Sealer
	now    func() time.Time
}

// New creates a new SQLite repository
func New(dbPath string, sealer Sealer) (*Repository, error) {
	if sealer == nil {
		return nil, errors.New("sqlite repository needs a sealer")
	}

	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db, sealer: sealer, now: time.Now}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		ip TEXT NOT NULL UNIQUE,
		vendor TEXT,
		model TEXT,
		protocol TEXT NOT NULL DEFAULT 'ssh',
		username TEXT,
		password TEXT,
		group_id INTEGER,
		status TEXT NOT NULL DEFAULT 'offline',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_devices_group ON devices(group_id);
	`

	if _, err := r.db.Exec(schema); err != nil {
		return err
	}

	return r.addColumnIfNotExists("devices", "last_seen", "DATETIME")
}

// addColumnIfNotExists adds a column for databases created before it existed
func (r *Repository) addColumnIfNotExists(table, column, definition string) error {
	rows, err := r.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notnull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = r.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

// ListDevices returns every device ordered by id
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	devices := []domain.Device{}
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, row.toDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating devices: %w", err)
	}

	return devices, nil
}

// GetDevice retrieves a device by id
func (r *Repository) GetDevice(ctx context.Context, id int64) (*domain.Device, error) {
	return r.getDeviceWhere(ctx, "id = ?", id)
}

// GetDeviceByIP retrieves a device by management address
func (r *Repository) GetDeviceByIP(ctx context.Context, ip string) (*domain.Device, error) {
	return r.getDeviceWhere(ctx, "ip = ?", ip)
}

func (r *Repository) getDeviceWhere(ctx context.Context, where string, arg interface{}) (*domain.Device, error) {
	var row deviceRow
	err := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE `+where, arg).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, domain.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query device: %w", err)
	}

	device := row.toDomain()
	return &device, nil
}

// GetCredential decrypts the stored password of a device. SNMP devices may
// carry only a community, so the username is optional.
func (r *Repository) GetCredential(ctx context.Context, deviceID int64) (*domain.Credential, error) {
	var username, sealed sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password FROM devices WHERE id = ?`, deviceID,
	).Scan(&username, &sealed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("device %d: %w", deviceID, domain.ErrCredentialNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	if nullToString(sealed) == "" {
		return nil, fmt.Errorf("device %d: %w", deviceID, domain.ErrCredentialNotFound)
	}

	password, err := r.sealer.Open(sealed.String)
	if err != nil {
		return nil, fmt.Errorf("device %d: %w", deviceID, err)
	}

	return &domain.Credential{
		Username: nullToString(username),
		Secret:   password,
	}, nil
}

// CreateDevice inserts a device and seals its password. device.ID and
// device.CreatedAt are filled in on success.
func (r *Repository) CreateDevice(ctx context.Context, device *domain.Device, password string) error {
	if device.Name == "" || device.IP == "" {
		return fmt.Errorf("device name and ip are required")
	}

	var sealed string
	if password != "" {
		var err error
		if sealed, err = r.sealer.Seal(password); err != nil {
			return fmt.Errorf("failed to seal password: %w", err)
		}
	}

	if device.Protocol == "" {
		device.Protocol = domain.ProtocolSSH
	}
	if device.Status == "" {
		device.Status = domain.DeviceStatusOffline
	}
	device.CreatedAt = r.now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO devices (name, ip, vendor, model, protocol, username, password, group_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, deviceInsertArgs(device, sealed)...)
	if err != nil {
		return fmt.Errorf("failed to insert device: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read device id: %w", err)
	}
	device.ID = id

	return nil
}

// UpdateStatus records the reachability state of a device
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.DeviceStatus) error {
	now := r.now().UTC()
	var lastSeen interface{}
	if status == domain.DeviceStatusOnline {
		lastSeen = now
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE devices SET status = ?, updated_at = ?, last_seen = COALESCE(?, last_seen) WHERE id = ?
	`, string(status), now, lastSeen, id)
	if err != nil {
		return fmt.Errorf("failed to update device status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDeviceNotFound
	}

	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
