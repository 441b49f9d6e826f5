package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/abgdnv/inventory/internal/inventory/app"
	"github.com/abgdnv/inventory/internal/inventory/events"
	"github.com/abgdnv/inventory/internal/inventory/render"
	"github.com/abgdnv/inventory/pkg/bootstrap"
	pkgnats "github.com/abgdnv/inventory/pkg/nats"
	"github.com/spf13/cobra"
)

var replay bool

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow inventory change notifications",
	// only the configuration is needed, not the store
	PersistentPreRunE: loadConfig,
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print change events published to NATS until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runEventsWatch,
}

func init() {
	eventsWatchCmd.Flags().BoolVar(&replay, "replay", false, "Print retained events before new ones")
	eventsCmd.AddCommand(eventsWatchCmd)
}

func runEventsWatch(cmd *cobra.Command, _ []string) error {
	if !cfg.NATS.Enabled() {
		return errors.New("nats.url is not configured, no events are published")
	}
	logger := bootstrap.NewLoggerTo(os.Stderr, cfg.Log.Level)

	nc, err := pkgnats.NewClient(cfg.NATS.Url, "inventoryctl", cfg.NATS.Timeout, logger)
	if err != nil {
		return err
	}
	defer nc.Close()
	js, err := pkgnats.NewJetStreamContext(nc)
	if err != nil {
		return err
	}

	subCfg := pkgnats.SubscriberConfig{
		Stream:   cfg.NATS.Stream,
		Subject:  app.EventSubjects(cfg.NATS.Subject),
		Replay:   replay,
		Timeout:  time.Second,
		Interval: time.Second,
		Workers:  1,
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s on stream %s, press Ctrl+C to stop\n", subCfg.Subject, subCfg.Stream)

	err = pkgnats.Subscribe(cmd.Context(), js, subCfg, func(_ context.Context, subject string, data []byte) error {
		e, err := events.Decode(subject, data)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.Event(styles, e))
		return nil
	}, logger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
