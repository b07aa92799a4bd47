package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/onap/aai-gizmo-sub001/pkg/logger"
)

// NATSBus carries envelopes as JSON messages over core NATS subjects.
type NATSBus struct {
	conn *nats.Conn
	log  *slog.Logger
}

var _ Bus = (*NATSBus)(nil)

// NewNATSBus connects to url. The connection reconnects forever.
func NewNATSBus(url, name string, log *slog.Logger) (*NATSBus, error) {
	log = log.With(logger.Scope("events.nats"))
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", logger.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			attrs := []any{logger.Error(err)}
			if sub != nil {
				attrs = append(attrs, slog.String("subject", sub.Subject))
			}
			log.Error("nats async error", attrs...)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	log.Info("connected to nats", slog.String("url", conn.ConnectedUrl()))
	return &NATSBus{conn: conn, log: log}, nil
}

func (b *NATSBus) Publish(_ context.Context, subject string, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe decodes each message and hands it to h. Undecodable messages are
// logged and dropped.
func (b *NATSBus) Subscribe(ctx context.Context, subject string, h Handler) (func(), error) {
	deliverCtx := context.WithoutCancel(ctx)
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		env, err := DecodeEnvelope(msg.Data)
		if err != nil {
			b.log.Warn("dropping malformed envelope",
				slog.String("subject", msg.Subject),
				logger.Error(err))
			return
		}
		h(deliverCtx, env)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			b.log.Debug("unsubscribe failed", slog.String("subject", subject), logger.Error(err))
		}
	}, nil
}

func (b *NATSBus) Ping(ctx context.Context) error {
	if !b.conn.IsConnected() {
		return fmt.Errorf("nats not connected: %s", b.conn.Status())
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}
	return b.conn.FlushWithContext(ctx)
}

// Close drains subscriptions and closes the connection.
func (b *NATSBus) Close() error {
	if b.conn.IsClosed() {
		return nil
	}
	return b.conn.Drain()
}
