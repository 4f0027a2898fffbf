package order

import (
	"context"
	"fmt"
	"time"

	"glowlink/pkg/storage"
)

// Repository coordinates the persistence of orders through database/sql so the service stays storage-agnostic.
type Repository struct {
	db *storage.DB
}

// NewRepository wires the database handle so calls can be fanned out from background goroutines.
func NewRepository(db *storage.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a new order and fills in the generated id.
func (r *Repository) Save(ctx context.Context, order Order) (Order, error) {
	query := `INSERT INTO orders (reference, kind, item_id, item_name, unit_price_cents, quantity, delivery_method,
		delivery_fee_cents, total_cents, appointment_date, appointment_slot, name, phone, email, address, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	id, err := r.db.InsertReturningID(ctx, query,
		order.Reference, order.Kind, order.ItemID, order.ItemName, order.UnitPriceCents, int64(order.Quantity),
		order.DeliveryMethod, order.DeliveryFeeCents, order.TotalCents, order.AppointmentDate, order.AppointmentSlot,
		order.Name, order.Phone, order.Email, order.Address, order.Notes, order.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return Order{}, err
	}
	order.ID = id
	return order, nil
}

// List fetches all orders, newest first.
func (r *Repository) List(ctx context.Context) ([]Order, error) {
	query := `SELECT id, reference, kind, item_id, item_name, unit_price_cents, quantity, delivery_method,
		delivery_fee_cents, total_cents, appointment_date, appointment_slot, name, phone, email, address, notes, created_at
		FROM orders ORDER BY id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var (
			order     Order
			quantity  int64
			createdAt string
		)
		if err := rows.Scan(&order.ID, &order.Reference, &order.Kind, &order.ItemID, &order.ItemName,
			&order.UnitPriceCents, &quantity, &order.DeliveryMethod, &order.DeliveryFeeCents, &order.TotalCents,
			&order.AppointmentDate, &order.AppointmentSlot, &order.Name, &order.Phone, &order.Email,
			&order.Address, &order.Notes, &createdAt); err != nil {
			return nil, err
		}
		order.Quantity = int(quantity)
		order.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("order %d: bad created_at %q: %w", order.ID, createdAt, err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
