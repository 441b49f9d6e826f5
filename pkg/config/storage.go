package config

import (
	"fmt"
	"strings"
)

// Storage drivers understood by the key-value layer.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type StorageConfig struct {
	Driver    string `koanf:"driver"`
	Path      string `koanf:"path"`
	KeyPrefix string `koanf:"keyprefix"`
}

// String returns a string representation of the storage configuration.
func (c *StorageConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  driver: %s\n", c.Driver))
	b.WriteString(fmt.Sprintf("  path: %s\n", c.Path))
	b.WriteString(fmt.Sprintf("  keyprefix: %s\n", c.KeyPrefix))
	return b.String()
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case StorageMemory, StorageRedis, StoragePostgres:
		return nil
	case StorageSQLite:
		if c.Path == "" {
			return fmt.Errorf("storage path is required for the sqlite driver")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
}
