package order

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"glowlink/pkg/booking"
	"glowlink/pkg/catalog"
	"glowlink/pkg/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openStorage(t *testing.T, cfg storage.Config) *storage.DB {
	t.Helper()
	db, closeDB, err := storage.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(closeDB)
	return db
}

func backends(t *testing.T) map[string]storage.Config {
	return map[string]storage.Config{
		"memory": {Driver: storage.DriverMemory},
		"sqlite": {Driver: storage.DriverSQLite, Path: filepath.Join(t.TempDir(), "glowlink.db")},
	}
}

func samplePayload() booking.Payload {
	return booking.Payload{
		Mode:             booking.ModeProduct,
		Item:             catalog.Item{ID: "1", Kind: catalog.KindProduct, Name: "Ankara Tote Bag", PriceCents: 4500},
		Quantity:         2,
		DeliveryMethod:   booking.DeliveryMethodDelivery,
		Contact:          booking.Contact{Name: "Ada", Phone: "555", Email: "ada@example.com", Address: "1 Main St"},
		DeliveryFeeCents: 1000,
		TotalCents:       10000,
		SubmittedAt:      time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
}

func TestServiceStoresAndLists(t *testing.T) {
	for name, cfg := range backends(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(NewRepository(openStorage(t, cfg)), nil)
			defer svc.Close()
			ctx := context.Background()

			first, err := svc.Submit(ctx, FromPayload(samplePayload()))
			require.NoError(t, err)
			assert.NotZero(t, first.ID)
			assert.NotEmpty(t, first.Reference)

			service := FromPayload(booking.Payload{
				Mode:        booking.ModeService,
				Item:        catalog.Item{ID: "s1", Kind: catalog.KindService, Name: "Braiding", PriceCents: 6000},
				Quantity:    1,
				Contact:     booking.Contact{Name: "Bo", Phone: "1", Email: "bo@example.com"},
				Appointment: &booking.Appointment{Date: "2026-10-20", Slot: "09:00 AM"},
				TotalCents:  6000,
			})
			second, err := svc.Submit(ctx, service)
			require.NoError(t, err)
			assert.Greater(t, second.ID, first.ID)
			assert.False(t, second.CreatedAt.IsZero())

			orders, err := svc.List(ctx)
			require.NoError(t, err)
			require.Len(t, orders, 2)
			if diff := cmp.Diff(second, orders[0], cmpopts.EquateApproxTime(time.Microsecond)); diff != "" {
				t.Errorf("newest order mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(first, orders[1]); diff != "" {
				t.Errorf("oldest order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestServiceRejectsInconsistentOrders(t *testing.T) {
	svc := NewService(NewRepository(openStorage(t, storage.Config{Driver: storage.DriverMemory})), nil)
	defer svc.Close()

	cases := map[string]func(*Order){
		"bad total":    func(o *Order) { o.TotalCents = 1 },
		"no contact":   func(o *Order) { o.Email = " " },
		"quantity":     func(o *Order) { o.Quantity = 11 },
		"unknown kind": func(o *Order) { o.Kind = "gift" },
		"no item":      func(o *Order) { o.ItemID = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := FromPayload(samplePayload())
			mutate(&o)
			_, err := svc.Submit(context.Background(), o)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestSinkReturnsReceipt(t *testing.T) {
	svc := NewService(NewRepository(openStorage(t, storage.Config{Driver: storage.DriverMemory})), nil)
	defer svc.Close()

	receipt, err := NewSink(svc).Deliver(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.NotEmpty(t, receipt.Reference)
	assert.Equal(t, int64(1), receipt.OrderID)
	assert.Equal(t, samplePayload().SubmittedAt, receipt.AcceptedAt)
}

func TestMemorySnapshotSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	ctx := context.Background()

	db, closeDB, err := storage.Open(ctx, storage.Config{Driver: storage.DriverMemory, Path: path}, nil)
	require.NoError(t, err)
	svc := NewService(NewRepository(db), nil)
	stored, err := svc.Submit(ctx, FromPayload(samplePayload()))
	require.NoError(t, err)
	svc.Close()
	closeDB()

	reopened := openStorage(t, storage.Config{Driver: storage.DriverMemory, Path: path})
	orders, err := NewRepository(reopened).List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stored.Reference, orders[0].Reference)
}
