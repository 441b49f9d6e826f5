package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ClientConfig tells inventoryctl where the inventory service listens.
type ClientConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
	Retry   RetryConfig   `koanf:"retry"`
}

func (c *ClientConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Client ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.URL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(c.Retry.String())
	return b.String()
}

func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("client.url %q is not an absolute URL", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be greater than 0")
	}
	return c.Retry.Validate()
}
