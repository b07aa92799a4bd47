package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
	fx.Provide(func(c *Config) OtelConfig { return c.Otel }),
)

// Graph backends
const (
	BackendEmbedded = "embedded"
	BackendRemote   = "remote"
)

// Embedded store implementations
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Event buses
const (
	BusMemory = "memory"
	BusNATS   = "nats"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"9520"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	Database DatabaseConfig
	Graph    GraphConfig
	Schema   SchemaConfig
	Events   EventsConfig
	Otel     OtelConfig

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"gizmo"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"gizmo"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
	AutoMigrate  bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// GraphConfig selects and tunes the graph DAO
type GraphConfig struct {
	// Backend is "embedded" (in-process graph store) or "remote" (HTTP peer)
	Backend string `env:"GRAPH_BACKEND" envDefault:"embedded"`
	// Store is the embedded store implementation: "memory" or "postgres"
	Store string `env:"GRAPH_STORE" envDefault:"memory"`

	RemoteURL     string        `env:"GRAPH_REMOTE_URL" envDefault:""`
	RemoteAppID   string        `env:"GRAPH_REMOTE_APP_ID" envDefault:"gizmo"`
	RemoteTimeout time.Duration `env:"GRAPH_REMOTE_TIMEOUT" envDefault:"30s"`

	// Open transactions untouched for longer than TxIdleTimeout are rolled back
	TxIdleTimeout  time.Duration `env:"GRAPH_TX_IDLE_TIMEOUT" envDefault:"5m"`
	TxReapInterval time.Duration `env:"GRAPH_TX_REAP_INTERVAL" envDefault:"30s"`

	// Async routes mutations through the event bus and waits for correlated responses
	Async bool `env:"GRAPH_ASYNC" envDefault:"false"`
	// PeerAPIEnabled mounts the object/relationship peer API under /graph/v1
	PeerAPIEnabled bool `env:"GRAPH_PEER_API_ENABLED" envDefault:"true"`
}

// SchemaConfig locates relationship and vertex schema files
type SchemaConfig struct {
	Dir            string `env:"SCHEMA_DIR" envDefault:"./schema"`
	DefaultVersion string `env:"SCHEMA_DEFAULT_VERSION" envDefault:"v11"`
	// ReloadCron is a robfig/cron spec; empty disables scheduled reloads
	ReloadCron string `env:"SCHEMA_RELOAD_CRON" envDefault:""`

	S3Bucket    string `env:"SCHEMA_S3_BUCKET" envDefault:""`
	S3Prefix    string `env:"SCHEMA_S3_PREFIX" envDefault:"schema/"`
	S3Endpoint  string `env:"SCHEMA_S3_ENDPOINT" envDefault:""`
	S3Region    string `env:"SCHEMA_S3_REGION" envDefault:"us-east-1"`
	S3AccessKey string `env:"SCHEMA_S3_ACCESS_KEY" envDefault:""`
	S3SecretKey string `env:"SCHEMA_S3_SECRET_KEY" envDefault:""`
}

// UseS3 reports whether schema files are read from object storage
func (s *SchemaConfig) UseS3() bool {
	return s.S3Bucket != ""
}

// EventsConfig configures the graph event bus and response correlation
type EventsConfig struct {
	Bus             string        `env:"EVENT_BUS" envDefault:"memory"`
	NATSURL         string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	RequestSubject  string        `env:"EVENT_REQUEST_SUBJECT" envDefault:"gizmo.graph.requests"`
	ResponseSubject string        `env:"EVENT_RESPONSE_SUBJECT" envDefault:"gizmo.graph.responses"`
	SourceName      string        `env:"EVENT_SOURCE_NAME" envDefault:"gizmo"`
	ResponseTimeout time.Duration `env:"EVENT_RESPONSE_TIMEOUT" envDefault:"30s"`
	// ResponderEnabled applies published request events to the local DAO
	ResponderEnabled bool `env:"EVENT_RESPONDER_ENABLED" envDefault:"true"`
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("graph_backend", cfg.Graph.Backend),
		slog.String("graph_store", cfg.Graph.Store),
		slog.String("event_bus", cfg.Events.Bus),
		slog.Bool("async", cfg.Graph.Async),
	)

	return cfg, nil
}

// Validate rejects unknown enum values and incomplete backend settings
func (c *Config) Validate() error {
	switch c.Graph.Backend {
	case BackendEmbedded:
	case BackendRemote:
		if c.Graph.RemoteURL == "" {
			return fmt.Errorf("GRAPH_REMOTE_URL is required when GRAPH_BACKEND=%s", BackendRemote)
		}
	default:
		return fmt.Errorf("unknown GRAPH_BACKEND %q", c.Graph.Backend)
	}

	switch c.Graph.Store {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("unknown GRAPH_STORE %q", c.Graph.Store)
	}

	switch c.Events.Bus {
	case BusMemory, BusNATS:
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.Events.Bus)
	}
	return nil
}
