package nats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"
)

// SubscriberConfig selects the messages a subscriber consumes.
type SubscriberConfig struct {
	Stream  string
	Subject string
	// Consumer names a durable consumer. Empty creates an ephemeral one.
	Consumer string
	// Replay delivers every retained message instead of only new ones.
	Replay   bool
	Timeout  time.Duration
	Interval time.Duration
	Workers  int
}

// Handler processes one message. A non-nil error naks the message.
type Handler func(ctx context.Context, subject string, data []byte) error

// ackableMsg is the part of jetstream.Msg the subscriber needs.
type ackableMsg interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
}

// Subscribe creates the consumer and runs cfg.Workers fetch loops until ctx is done.
func Subscribe(ctx context.Context, js jetstream.JetStream, cfg SubscriberConfig, handler Handler, logger *slog.Logger) error {
	deliver := jetstream.DeliverNewPolicy
	if cfg.Replay {
		deliver = jetstream.DeliverAllPolicy
	}
	consumer, err := js.CreateOrUpdateConsumer(ctx, cfg.Stream, jetstream.ConsumerConfig{
		FilterSubject: cfg.Subject,
		Durable:       cfg.Consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: deliver,
	})
	if err != nil {
		return err
	}
	workers := max(cfg.Workers, 1)
	g, gCtx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			return runWorker(gCtx, consumer, cfg.Timeout, cfg.Interval, handler, logger)
		})
	}
	return g.Wait()
}

// runWorker fetches messages one at a time and hands them to handler.
func runWorker(ctx context.Context, consumer jetstream.Consumer, timeout, interval time.Duration, handler Handler, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(timeout))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				logger.Error("failed to fetch messages", "error", err)
				time.Sleep(interval)
				continue
			}
			for msg := range batch.Messages() {
				handleMessage(ctx, msg, handler, logger)
			}
		}
	}
}

func handleMessage(ctx context.Context, msg ackableMsg, handler Handler, logger *slog.Logger) {
	if msg == nil {
		logger.Error("received nil message")
		return
	}
	if err := handler(ctx, msg.Subject(), msg.Data()); err != nil {
		logger.Error("failed to handle message", "error", err, "subject", msg.Subject())
		if err := msg.Nak(); err != nil {
			logger.Error("failed to nack message", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		logger.Error("failed to ack message", "error", err)
	}
}
