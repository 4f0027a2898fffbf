package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"glowlink/pkg/storage/memorydriver"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Connection pool defaults for server-backed databases.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 5
	DefaultConnMaxLifetime = 5 * time.Minute
)

// Config selects and tunes the SQL backend.
type Config struct {
	Driver string
	// Path is the JSON snapshot file for the memory driver or the database file for sqlite.
	// Empty keeps the memory driver volatile and opens sqlite in memory.
	Path            string
	DSN             string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps *sql.DB with the dialect knowledge repositories need.
type DB struct {
	*sql.DB
	driver string
}

// Open connects to the configured backend and ensures the schema exists.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("storage")

	var (
		db      *sql.DB
		cleanup = func() {}
		err     error
	)
	switch cfg.Driver {
	case DriverMemory, "":
		cfg.Driver = DriverMemory
		var closeStore func()
		db, closeStore, err = memorydriver.Open(cfg.Path)
		if err != nil {
			return nil, func() {}, fmt.Errorf("unable to open memory store: %w", err)
		}
		cleanup = closeStore
	case DriverSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(cfg.Path))
		if err != nil {
			return nil, func() {}, fmt.Errorf("unable to open sqlite database: %w", err)
		}
		// SQLite serializes writers anyway; one connection also keeps :memory: databases shared.
		db.SetMaxOpenConns(1)
	case DriverPostgres:
		db, err = sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, func() {}, fmt.Errorf("unable to open postgres database: %w", err)
		}
		maxOpen := cfg.MaxOpenConns
		if maxOpen <= 0 {
			maxOpen = DefaultMaxOpenConns
		}
		lifetime := cfg.ConnMaxLifetime
		if lifetime <= 0 {
			lifetime = DefaultConnMaxLifetime
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(DefaultMaxIdleConns)
		db.SetConnMaxLifetime(lifetime)
	default:
		return nil, func() {}, fmt.Errorf("unsupported db driver %s", cfg.Driver)
	}

	wrapped := &DB{DB: db, driver: cfg.Driver}
	closeAll := func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing database failed", zap.Error(err))
		}
		cleanup()
	}

	if err := wrapped.EnsureSchema(ctx); err != nil {
		closeAll()
		return nil, func() {}, fmt.Errorf("unable to ensure schema: %w", err)
	}
	logger.Info("storage ready", zap.String("driver", cfg.Driver), zap.String("path", cfg.Path))
	return wrapped, closeAll, nil
}

// Driver reports the backend name.
func (d *DB) Driver() string { return d.driver }

// Rebind rewrites ? placeholders into $n for PostgreSQL.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// InsertReturningID runs an INSERT and reports the generated id, using RETURNING where
// the driver does not implement LastInsertId.
func (d *DB) InsertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if d.driver == DriverPostgres {
		var id int64
		if err := d.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	result, err := d.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// HealthCheck pings the backend within the given timeout.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := d.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed within %v: %w", timeout, err)
	}
	return nil
}

// EnsureSchema executes CREATE TABLE statements so external databases get the right layout.
func (d *DB) EnsureSchema(ctx context.Context) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id ` + idColumn + `,
			reference TEXT NOT NULL,
			kind TEXT NOT NULL,
			item_id TEXT NOT NULL,
			item_name TEXT NOT NULL,
			unit_price_cents BIGINT NOT NULL,
			quantity INTEGER NOT NULL,
			delivery_method TEXT NOT NULL,
			delivery_fee_cents BIGINT NOT NULL,
			total_cents BIGINT NOT NULL,
			appointment_date TEXT NOT NULL DEFAULT '',
			appointment_slot TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS catalog_items (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			price_cents BIGINT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image_url TEXT NOT NULL DEFAULT '',
			duration TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range statements {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func sqliteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return ":memory:"
	}
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
