package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	EnvDev   = "dev"
	EnvProd  = "prod"
	EnvLocal = "local"
)

const (
	SnapshotDriverFile   = "file"
	SnapshotDriverSQLite = "sqlite"
)

var (
	ErrUnknownEnv            = errors.New("unknown env")
	ErrUnknownSnapshotDriver = errors.New("unknown snapshot driver")
	ErrNegativeHistoryLimit  = errors.New("history limit must not be negative")
	ErrMirrorMisconfigured   = errors.New("mirror is enabled but postgres is not configured")
)

var globalConfig *Config

func Global() *Config {
	return globalConfig
}

func SetGlobal(cfg *Config) {
	globalConfig = cfg
}

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-required:"true"`
	HTTP     HTTPConfig     `yaml:"http"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	History  HistoryConfig  `yaml:"history"`
	JWT      JWTConfig      `yaml:"jwt"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:""`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

type SnapshotConfig struct {
	Driver string `yaml:"driver" env:"SNAPSHOT_DRIVER" env-default:"file"`
	// Path is the JSON file for the file driver and the database file for sqlite.
	Path string `yaml:"path" env:"SNAPSHOT_PATH" env-default:"data/task-storage.json"`
	Key  string `yaml:"key" env:"SNAPSHOT_KEY" env-default:"task-storage"`
}

type HistoryConfig struct {
	// Limit of 0 keeps the whole completion history.
	Limit int `yaml:"limit" env:"HISTORY_LIMIT" env-default:"500"`
}

type JWTConfig struct {
	Issuer         string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"go-todo-planner"`
	SigningKey     string        `yaml:"signing_key" env:"JWT_SIGNING_KEY" env-required:"true"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
}

type MirrorConfig struct {
	Enabled bool          `yaml:"enabled" env:"MIRROR_ENABLED" env-default:"false"`
	Timeout time.Duration `yaml:"timeout" env:"MIRROR_TIMEOUT" env-default:"5s"`
}

type PostgresConfig struct {
	Host           string        `yaml:"host" env:"POSTGRES_HOST"`
	Port           int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Username       string        `yaml:"username" env:"POSTGRES_USERNAME"`
	Password       string        `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database       string        `yaml:"database" env:"POSTGRES_DATABASE"`
	SSLMode        string        `yaml:"ssl_mode" env:"POSTGRES_SSL_MODE" env-default:"disable"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"POSTGRES_CONNECT_TIMEOUT" env-default:"10s"`
	PingTimeout    time.Duration `yaml:"ping_timeout" env:"POSTGRES_PING_TIMEOUT" env-default:"10s"`
}

// Validate checks the constraints that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDev, EnvProd, EnvLocal:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEnv, c.Env)
	}

	switch c.Snapshot.Driver {
	case SnapshotDriverFile, SnapshotDriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSnapshotDriver, c.Snapshot.Driver)
	}

	if c.History.Limit < 0 {
		return ErrNegativeHistoryLimit
	}

	if c.Mirror.Enabled {
		pg := c.Postgres
		if pg.Host == "" || pg.Username == "" || pg.Database == "" {
			return ErrMirrorMisconfigured
		}
	}
	return nil
}
