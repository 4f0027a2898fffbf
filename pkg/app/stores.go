package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"glowlink/pkg/catalog"
	"glowlink/pkg/order"
	"glowlink/pkg/settings"
	"glowlink/pkg/storage"
)

// stores are the persistence-backed services every command needs.
type stores struct {
	db      *storage.DB
	catalog *catalog.Service
	orders  *order.Service
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStores opens the database, starts the catalog and order services and
// seeds an empty catalog.
func (c *cli) openStores(ctx context.Context) (*stores, error) {
	db, closeDB, err := storage.Open(ctx, c.cfg.Storage(), c.logger)
	if err != nil {
		return nil, err
	}
	s := &stores{db: db, closers: []func(){closeDB}}

	s.catalog = catalog.NewService(catalog.NewRepository(db), c.logger)
	s.closers = append(s.closers, s.catalog.Close)
	s.orders = order.NewService(order.NewRepository(db), c.logger)
	s.closers = append(s.closers, s.orders.Close)

	seed, source, err := c.seedItems()
	if err != nil {
		s.close()
		return nil, err
	}
	n, err := s.catalog.Seed(ctx, seed)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("unable to seed catalog: %w", err)
	}
	if n > 0 {
		c.logger.Info("catalog seeded", zap.Int("items", n), zap.String("source", source))
	}
	return s, nil
}

func (c *cli) seedItems() ([]catalog.Item, string, error) {
	path := c.cfg.Catalog.File
	if path == "" {
		return catalog.Defaults(), "defaults", nil
	}
	items, err := catalog.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("catalog file missing, using defaults", zap.String("path", path))
			return catalog.Defaults(), "defaults", nil
		}
		return nil, "", err
	}
	return items, path, nil
}

// contactSource picks redis when enabled and the config file otherwise. The
// returned closer releases the redis client.
func (c *cli) contactSource(ctx context.Context) (settings.Source, func(), error) {
	if !c.cfg.Redis.Enabled {
		return settings.StaticSource(c.cfg.ContactMethods()), func() {}, nil
	}
	client, err := settings.NewRedisClient(ctx, c.cfg.RedisSettings())
	if err != nil {
		return nil, func() {}, err
	}
	return settings.NewStore(client), func() { _ = client.Close() }, nil
}
