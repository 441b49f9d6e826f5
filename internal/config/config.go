// Package config holds the inventory service configuration.
package config

import (
	"strings"
	"time"

	"github.com/abgdnv/inventory/pkg/config"
	"github.com/abgdnv/inventory/pkg/config/configloader"
)

// ServiceName prefixes environment overrides: INVENTORY_LOG_LEVEL sets log.level.
const ServiceName = "inventory"

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer config.HTTPConfig      `koanf:"server"`
	Log        config.LogConfig       `koanf:"log"`
	PProf      config.PProfConfig     `koanf:"pprof"`
	Shutdown   config.ShutdownConfig  `koanf:"shutdown"`
	Storage    config.StorageConfig   `koanf:"storage"`
	Database   config.DatabaseConfig  `koanf:"database"`
	Redis      config.RedisConfig     `koanf:"redis"`
	Catalog    config.CatalogConfig   `koanf:"catalog"`
	NATS       config.NATSConfig      `koanf:"nats"`
	Telemetry  config.TelemetryConfig `koanf:"telemetry"`
	// Client is read by inventoryctl only.
	Client config.ClientConfig `koanf:"client"`
}

// Defaults returns the lowest-priority configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":                                8080,
		"server.maxHeaderBytes":                      1 << 20,
		"server.timeout.read":                        10 * time.Second,
		"server.timeout.write":                       10 * time.Second,
		"server.timeout.idle":                        60 * time.Second,
		"server.timeout.readHeader":                  5 * time.Second,
		"log.level":                                  "info",
		"pprof.enabled":                              false,
		"pprof.addr":                                 "localhost:6060",
		"shutdown.timeout":                           10 * time.Second,
		"storage.driver":                             config.StorageSQLite,
		"storage.path":                               "inventory.db",
		"database.timeout":                           5 * time.Second,
		"redis.addr":                                 "localhost:6379",
		"redis.maxretries":                           3,
		"redis.dialtimeout":                          5 * time.Second,
		"redis.timeout":                              3 * time.Second,
		"catalog.url":                                "https://fakestoreapi.com/products",
		"catalog.timeout":                            10 * time.Second,
		"catalog.seedonstartup":                      true,
		"catalog.circuitbreaker.consecutivefailures": 5,
		"catalog.circuitbreaker.errorratepercent":    60,
		"catalog.circuitbreaker.opentimeout":         30 * time.Second,
		"nats.timeout":                               5 * time.Second,
		"nats.subject":                               "inventory",
		"nats.stream":                                "INVENTORY",
		"telemetry.traces.otlphttp.insecure":         true,
		"telemetry.traces.otlphttp.timeout":          5 * time.Second,
		"client.url":                                 "http://localhost:8080",
		"client.timeout":                             10 * time.Second,
		"client.retry.maxattempts":                   3,
		"client.retry.initialbackoff":                200 * time.Millisecond,
	}
}

// Load reads the configuration from defaults, config file, .env and the environment.
func Load(configFile string) (*Config, error) {
	return configloader.Load[*Config](ServiceName,
		configloader.WithDefaults(Defaults()),
		configloader.WithConfigFile(configFile))
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Storage.String())
	switch c.Storage.Driver {
	case config.StoragePostgres:
		b.WriteString(c.Database.String())
	case config.StorageRedis:
		b.WriteString(c.Redis.String())
	}
	b.WriteString(c.Catalog.String())
	b.WriteString(c.NATS.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Shutdown.String())
	b.WriteString(c.Client.String())
	return b.String()
}

// Validate checks if the configuration values are valid.
// Database and redis sections are only checked when selected as storage.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	switch c.Storage.Driver {
	case config.StoragePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	case config.StorageRedis:
		if err := c.Redis.Validate(); err != nil {
			return err
		}
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := c.NATS.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return c.Client.Validate()
}
