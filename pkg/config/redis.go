package config

import (
	"fmt"
	"strings"
	"time"
)

type RedisConfig struct {
	Addr        string        `koanf:"addr"`
	User        string        `koanf:"user"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db"`
	MaxRetries  int           `koanf:"maxretries"`
	DialTimeout time.Duration `koanf:"dialtimeout"`
	Timeout     time.Duration `koanf:"timeout"`
}

// String returns a string representation of the redis configuration.
func (c *RedisConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Redis ---\n")
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	b.WriteString(fmt.Sprintf("  db: %d\n", c.DB))
	b.WriteString(fmt.Sprintf("  maxretries: %d\n", c.MaxRetries))
	b.WriteString(fmt.Sprintf("  dialtimeout: %s\n", c.DialTimeout))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *RedisConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("redis address is not configured")
	}
	if c.DB < 0 {
		return fmt.Errorf("invalid redis db: %d", c.DB)
	}
	if c.DialTimeout <= 0 || c.Timeout <= 0 {
		return fmt.Errorf("redis timeouts are not configured")
	}
	return nil
}
