package config

import (
	"context"
	"fmt"
	"time"
)

// ShutdownConfig bounds how long the service waits for in-flight work
// once a stop signal arrives.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Context returns a deadline of Timeout detached from parent's cancellation.
// The run context is already done when shutdown starts, so deriving from it
// directly would give servers no time to drain.
func (c *ShutdownConfig) Context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), c.Timeout)
}

func (c *ShutdownConfig) String() string {
	return fmt.Sprintf("\n--- Shutdown ---\n  timeout: %s\n", c.Timeout)
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown.timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
