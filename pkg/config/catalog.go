package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type CatalogConfig struct {
	URL            string               `koanf:"url"`
	Timeout        time.Duration        `koanf:"timeout"`
	SeedOnStartup  bool                 `koanf:"seedonstartup"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
}

// String returns a string representation of the catalog configuration.
func (c *CatalogConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  seedonstartup: %t\n", c.SeedOnStartup))
	b.WriteString(c.CircuitBreaker.String())
	return b.String()
}

func (c *CatalogConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("catalog URL is not configured")
	}
	if u, err := url.Parse(c.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("catalog URL must be an http(s) URL: %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("catalog timeout is not configured")
	}
	return c.CircuitBreaker.Validate()
}
