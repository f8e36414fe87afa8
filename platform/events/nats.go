package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dhima/version-watch/internal/models"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher emits check results to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// ConnectNATS dials url and returns a publisher for subject.
func ConnectNATS(url, subject string, logger *zap.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "nats_publisher"))

	conn, err := nats.Connect(url,
		nats.Name("version-watch"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// Publish sends one result event and waits for the server to acknowledge
// the flush.
func (p *NATSPublisher) Publish(ctx context.Context, r models.CheckResult) error {
	event := NewResultEvent(r)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish result event: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush result event: %w", err)
	}
	p.logger.Debug("result event published", zap.String("event_id", event.EventID), zap.String("subject", p.subject))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
