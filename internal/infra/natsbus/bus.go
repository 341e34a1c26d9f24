package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trivia-events-service/internal/app"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Bus publishes weekly event domain events on NATS and relays votes stored by other
// instances back into the local vote hub.
type Bus struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func Connect(url string, logger *zap.Logger) (*Bus, error) {
	conn, err := nats.Connect(url,
		nats.Name("trivia-events-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Bus{conn: conn, logger: logger}, nil
}

// Publish encodes payload as JSON. NATS core publishes are fire-and-forget, so ctx is
// only checked before sending.
func (b *Bus) Publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// SubscribeVotes calls handle for every vote event seen on the bus.
func (b *Bus) SubscribeVotes(handle func(context.Context, app.VoteSubmittedEvent)) (*nats.Subscription, error) {
	sub, err := b.conn.Subscribe(app.SubjectVoteSubmitted, func(msg *nats.Msg) {
		ev, err := decodeVote(msg.Data)
		if err != nil {
			b.logger.Warn("drop malformed vote event", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		handle(ctx, ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", app.SubjectVoteSubmitted, err)
	}
	return sub, nil
}

// Close drains pending messages before closing the connection.
func (b *Bus) Close() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

func decodeVote(data []byte) (app.VoteSubmittedEvent, error) {
	var ev app.VoteSubmittedEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return app.VoteSubmittedEvent{}, fmt.Errorf("decode vote event: %w", err)
	}
	if ev.EventID == "" {
		return app.VoteSubmittedEvent{}, fmt.Errorf("decode vote event: missing eventId")
	}
	return ev, nil
}
