package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"glowlink/pkg/booking"
	"glowlink/pkg/settings"
	"glowlink/pkg/storage"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Booking    BookingConfig    `yaml:"booking"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Contact    ContactConfig    `yaml:"contact"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
	// Domain switches on TLS with a self-signed certificate and a :80 redirect.
	Domain string `yaml:"domain"`
}

type DatabaseConfig struct {
	Driver          string         `yaml:"driver"`
	Path            string         `yaml:"path"`
	Postgres        PostgresConfig `yaml:"postgres"`
	ConnMaxLifetime time.Duration  `yaml:"conn_max_lifetime"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// DSN builds a libpq style connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BookingConfig struct {
	DeliveryFeeCents int64           `yaml:"delivery_fee_cents"`
	SubmitDelay      time.Duration   `yaml:"submit_delay"`
	Variant          booking.Variant `yaml:"variant"`
	TimeSlots        []string        `yaml:"time_slots"`
	SessionTTL       time.Duration   `yaml:"session_ttl"`
}

type CatalogConfig struct {
	// File seeds an empty catalog; the built-in defaults are used when unset.
	File string `yaml:"file"`
}

// ContactConfig is used when redis is disabled.
type ContactConfig struct {
	WhatsApp  string `yaml:"whatsapp"`
	Instagram string `yaml:"instagram"`
	Other     string `yaml:"other"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default is the configuration used without a config file.
func Default() Config {
	return Config{
		App:  AppConfig{Name: "glowlink", Environment: "development"},
		HTTP: HTTPConfig{Port: 8765},
		Database: DatabaseConfig{
			Driver: storage.DriverMemory,
			Postgres: PostgresConfig{
				Host:           "localhost",
				Port:           5432,
				User:           "glowlink",
				DBName:         "glowlink",
				SSLMode:        "disable",
				MaxConnections: storage.DefaultMaxOpenConns,
			},
			ConnMaxLifetime: storage.DefaultConnMaxLifetime,
		},
		Redis: RedisConfig{Address: "localhost:6379", PoolSize: 10},
		Booking: BookingConfig{
			DeliveryFeeCents: booking.DefaultDeliveryFeeCents,
			SubmitDelay:      booking.DefaultSubmitDelay,
			Variant:          booking.VariantDelayed,
			TimeSlots:        append([]string(nil), booking.DefaultTimeSlots...),
			SessionTTL:       booking.DefaultSessionTTL,
		},
		Monitoring: MonitoringConfig{PrometheusPort: 9090},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
	}
}

// Load reads an optional .env file, expands ${VAR} references in the YAML at
// path and decodes it over Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		expanded := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.HTTP.Port = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case storage.DriverMemory, storage.DriverSQLite, storage.DriverPostgres:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if !c.Booking.Variant.Valid() {
		return fmt.Errorf("booking.variant must be %q or %q", booking.VariantDelayed, booking.VariantImmediate)
	}
	if c.Booking.DeliveryFeeCents < 0 {
		return errors.New("booking.delivery_fee_cents must not be negative")
	}
	if c.Booking.SubmitDelay < 0 || c.Booking.SessionTTL < 0 {
		return errors.New("booking durations must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis.address is required when redis is enabled")
	}
	if c.Monitoring.PrometheusEnabled && (c.Monitoring.PrometheusPort <= 0 || c.Monitoring.PrometheusPort == c.HTTP.Port) {
		return fmt.Errorf("monitoring.prometheus_port %d must be set and differ from http.port", c.Monitoring.PrometheusPort)
	}
	return nil
}

// Storage maps the database section to storage.Config.
func (c Config) Storage() storage.Config {
	return storage.Config{
		Driver:          c.Database.Driver,
		Path:            c.Database.Path,
		DSN:             c.Database.Postgres.DSN(),
		MaxOpenConns:    c.Database.Postgres.MaxConnections,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// BookingOptions maps the booking section to the session manager options.
// A configured fee of zero means free delivery.
func (c Config) BookingOptions() booking.Options {
	fee := c.Booking.DeliveryFeeCents
	if fee == 0 {
		fee = booking.FreeDelivery
	}
	return booking.Options{
		Variant:          c.Booking.Variant,
		SubmitDelay:      c.Booking.SubmitDelay,
		DeliveryFeeCents: fee,
		TimeSlots:        c.Booking.TimeSlots,
		SessionTTL:       c.Booking.SessionTTL,
	}
}

// RedisSettings maps the redis section to the settings client config.
func (c Config) RedisSettings() settings.RedisConfig {
	return settings.RedisConfig{
		Address:  c.Redis.Address,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
	}
}

// ContactMethods returns the static contact handles from the file.
func (c Config) ContactMethods() settings.ContactMethods {
	return settings.ContactMethods{
		WhatsApp:  c.Contact.WhatsApp,
		Instagram: c.Contact.Instagram,
		Other:     c.Contact.Other,
	}
}
