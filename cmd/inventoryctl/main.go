// Package main implements inventoryctl, a command line client of the
// inventory service's HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abgdnv/inventory/internal/config"
	"github.com/abgdnv/inventory/internal/inventory/client"
	"github.com/abgdnv/inventory/internal/inventory/render"
	"github.com/abgdnv/inventory/pkg/web"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	configFile string
	serverURL  string
	timeout    time.Duration

	cfg    *config.Config
	api    *client.Client
	styles = render.DefaultStyles()
)

var rootCmd = &cobra.Command{
	Use:   "inventoryctl",
	Short: "Manage the product inventory from the terminal",
	Long: `inventoryctl reads and changes the inventory through the running
inventory service (client.url in the configuration, or --server).

The service persists every change before the command returns.`,
	SilenceUsage:       true,
	PersistentPreRunE:  connect,
	PersistentPostRunE: disconnect,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "Path to the yaml configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "Base URL of the inventory service, overrides client.url")

	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(eventsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if cfg, err = config.Load(configFile); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return nil
}

// connect loads the configuration and creates the API client.
func connect(cmd *cobra.Command, args []string) error {
	if err := loadConfig(cmd, args); err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Client.URL = serverURL
		if err := cfg.Client.Validate(); err != nil {
			return err
		}
	}
	api = client.New(cfg.Client)
	return nil
}

func disconnect(_ *cobra.Command, _ []string) error {
	if api != nil {
		api.Close()
		api = nil
	}
	return nil
}

// commandContext bounds a single command by the --timeout flag and tags its
// requests with one request id, so the service logs of a command correlate.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := web.WithRequestID(cmd.Context(), uuid.NewString())
	return context.WithTimeout(ctx, timeout)
}
