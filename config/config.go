package config

import (
	"net/url"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MemoryDatabaseURL selects the in-memory store instead of PostgreSQL
const MemoryDatabaseURL = "memory://"

// Config contains all application settings
type Config struct {
	BindPort         int           `mapstructure:"PORT" yaml:"port"`
	BindHost         string        `mapstructure:"HOST" yaml:"host"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL" yaml:"database_url"`
	DBConnectTimeout time.Duration `mapstructure:"DB_CONNECT_TIMEOUT" yaml:"db_connect_timeout"`
	DBMaxOpenConns   int           `mapstructure:"DB_MAX_OPEN_CONNS" yaml:"db_max_open_conns"`
	NATSServerURL    string        `mapstructure:"NATS_URL" yaml:"nats_url"`
	LogLevel         string        `mapstructure:"LOG_LEVEL" yaml:"log_level"`
	ShutdownTimeout  time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}

// UseMemoryStore reports whether the records are kept in process memory
func (c *Config) UseMemoryStore() bool {
	return c.DatabaseURL == "" || c.DatabaseURL == MemoryDatabaseURL
}

// EventsEnabled reports whether record events are published to NATS
func (c *Config) EventsEnabled() bool {
	return c.NATSServerURL != ""
}

// Validate checks the settings which cannot be defaulted
func (c *Config) Validate() error {
	if c.BindPort <= 0 || c.BindPort > 65535 {
		return errors.Errorf("PORT %d is out of range", c.BindPort)
	}
	if !c.UseMemoryStore() {
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "DATABASE_URL is invalid")
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return errors.Errorf("DATABASE_URL scheme %q is not supported", u.Scheme)
		}
	}
	if c.DBConnectTimeout <= 0 {
		return errors.New("DB_CONNECT_TIMEOUT must be positive")
	}
	if c.DBMaxOpenConns <= 0 {
		return errors.New("DB_MAX_OPEN_CONNS must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "LOG_LEVEL is invalid")
	}
	return nil
}
