package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSPublisher publishes JSON payloads on a core NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, appName string, log *zap.Logger) (*NATSPublisher, error) {
	log = log.Named("nats_publisher")
	conn, err := nats.Connect(url,
		nats.Name(appName+" publisher"),
		nats.Timeout(10*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	log.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return &NATSPublisher{conn: conn, log: log}, nil
}

// Publish marshals data to JSON and publishes it on subject.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.log.Debug("published", zap.String("subject", subject), zap.Int("size_bytes", len(payload)))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.log.Error("failed to drain nats connection", zap.Error(err))
		p.conn.Close()
	}
}
