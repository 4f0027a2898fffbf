package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "SELECT ?", lite.Rebind("SELECT ?"))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:", sqliteDSN(""))
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "file:/tmp/g.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("/tmp/g.db"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]Config{
		"memory":          {},
		"memory snapshot": {Driver: DriverMemory, Path: filepath.Join(dir, "snapshot.json")},
		"sqlite":          {Driver: DriverSQLite},
		"sqlite file":     {Driver: DriverSQLite, Path: filepath.Join(dir, "glowlink.db")},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			db, closeDB, err := Open(ctx, cfg, nil)
			require.NoError(t, err)
			defer closeDB()

			require.NoError(t, db.HealthCheck(ctx, time.Second))
			// schema creation is idempotent
			require.NoError(t, db.EnsureSchema(ctx))

			id, err := db.InsertReturningID(ctx,
				"INSERT INTO orders (reference, kind, item_id, item_name, unit_price_cents, quantity, delivery_method, delivery_fee_cents, total_cents, appointment_date, appointment_slot, name, phone, email, address, notes, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
				"ref-1", "product", "1", "Ankara Tote Bag", int64(4500), 1, "pickup", int64(0), int64(4500), "", "", "Ada", "555", "ada@example.com", "", "", time.Now().UTC().Format(time.RFC3339Nano))
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
		})
	}
}
