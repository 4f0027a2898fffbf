package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is the connection part of the application config.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	PoolSize int
}

// NewRedisClient connects and pings once so a bad address fails at startup.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Store keeps the contact methods as a JSON document under ContactMethodsKey.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore wraps an open client.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client, key: ContactMethodsKey}
}

// ContactMethods reads the stored document; a missing key yields empty methods.
func (s *Store) ContactMethods(ctx context.Context) (ContactMethods, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ContactMethods{}, nil
	}
	if err != nil {
		return ContactMethods{}, fmt.Errorf("read %s: %w", s.key, err)
	}
	var methods ContactMethods
	if err := json.Unmarshal(raw, &methods); err != nil {
		return ContactMethods{}, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return methods, nil
}

// SaveContactMethods overwrites the stored document.
func (s *Store) SaveContactMethods(ctx context.Context, methods ContactMethods) error {
	raw, err := json.Marshal(methods)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}
