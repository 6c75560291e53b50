// Package bus publishes pipeline progress events to NATS so other processes
// can follow runs they did not start.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/custodia-labs/briefcast/internal/config"
	"github.com/custodia-labs/briefcast/internal/core/domain"
	"github.com/custodia-labs/briefcast/internal/core/ports/driven"
	"github.com/custodia-labs/briefcast/internal/logger"
)

// Verify interface compliance at compile time.
var _ driven.ProgressObserver = (*Publisher)(nil)

// publisher is the part of *nats.Conn the Publisher uses.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Publisher sends every event to <subject>.<user id>.
type Publisher struct {
	conn    *nats.Conn
	pub     publisher
	subject string
}

// Connect dials the configured servers.
func Connect(cfg config.BusConfig) (*Publisher, error) {
	if len(cfg.Servers) == 0 {
		return nil, errors.New("no NATS servers configured")
	}
	options := []nats.Option{
		nats.Name("briefcast"),
		nats.Timeout(config.Millis(cfg.ConnectTimeoutMS)),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected to %s", c.ConnectedUrl())
		}),
	}
	if cfg.Token != "" {
		options = append(options, nats.Token(cfg.Token))
	}

	url := strings.Join(cfg.Servers, ",")
	conn, err := nats.Connect(url, options...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	logger.Info("connected to NATS at %s", url)

	p := newPublisher(conn, cfg.Subject)
	p.conn = conn
	return p, nil
}

func newPublisher(pub publisher, subject string) *Publisher {
	if subject == "" {
		subject = "briefcast.progress"
	}
	return &Publisher{pub: pub, subject: subject}
}

// Subject returns the subject an event for userID is published on.
func (p *Publisher) Subject(userID string) string {
	return p.subject + "." + sanitizeToken(userID)
}

// Publish encodes the event as JSON.
func (p *Publisher) Publish(ctx context.Context, event domain.ProgressEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode progress event: %w", err)
	}
	if err := p.pub.Publish(p.Subject(event.UserID), data); err != nil {
		return fmt.Errorf("publish progress event: %w", err)
	}
	return nil
}

// Healthy reports whether the connection is up.
func (p *Publisher) Healthy() bool {
	return p != nil && p.conn != nil && p.conn.Status() == nats.CONNECTED
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	logger.Info("closing NATS connection")
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// sanitizeToken makes s safe as a single subject token.
func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}
