package catalog

import (
	"context"

	"glowlink/pkg/storage"
)

// Repository persists catalog items through database/sql so storage backends stay swappable.
type Repository struct {
	db *storage.DB
}

func NewRepository(db *storage.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts a new item with its caller-chosen id.
func (r *Repository) Save(ctx context.Context, item Item) (Item, error) {
	query := "INSERT INTO catalog_items (id, kind, name, price_cents, description, image_url, duration, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		item.ID, string(item.Kind), item.Name, item.PriceCents, item.Description, item.ImageURL, item.Duration, item.Position)
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// List returns the items of one kind ordered by position, or every item when kind is empty.
func (r *Repository) List(ctx context.Context, kind Kind) ([]Item, error) {
	query := "SELECT id, kind, name, price_cents, description, image_url, duration, position FROM catalog_items"
	var args []any
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY position, id"

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item     Item
			kindText string
			position int64
		)
		if err := rows.Scan(&item.ID, &kindText, &item.Name, &item.PriceCents, &item.Description, &item.ImageURL, &item.Duration, &position); err != nil {
			return nil, err
		}
		item.Kind = Kind(kindText)
		item.Position = int(position)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update rewrites the descriptive fields and price of an existing item.
func (r *Repository) Update(ctx context.Context, item Item) error {
	query := "UPDATE catalog_items SET name = ?, price_cents = ?, description = ?, image_url = ?, duration = ? WHERE id = ?"
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), item.Name, item.PriceCents, item.Description, item.ImageURL, item.Duration, item.ID)
	if err != nil {
		return err
	}
	return requireAffected(result.RowsAffected())
}

// Delete removes an item entirely.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM catalog_items WHERE id = ?"), id)
	if err != nil {
		return err
	}
	return requireAffected(result.RowsAffected())
}

func requireAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
