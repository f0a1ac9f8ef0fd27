// SPDX-License-Identifier: MPL-2.0

// Package notify announces committed catalog reloads on NATS so other
// processes, such as remote browsers, can refresh.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"github.com/artinav/artinav/internal/config"
)

type (
	// Event describes one committed reload.
	Event struct {
		Generation uint64    `json:"generation"`
		Artifacts  int       `json:"artifacts"`
		Folders    int       `json:"folders"`
		At         time.Time `json:"at"`
	}

	// Publisher announces reload events.
	Publisher interface {
		Publish(ctx context.Context, ev Event) error
		Close() error
	}

	// NopPublisher discards events. It is used when no NATS URL is configured.
	NopPublisher struct{}

	// NATSPublisher publishes events as JSON on a NATS subject.
	NATSPublisher struct {
		conn    *nats.Conn
		subject string
		logger  *log.Logger
	}

	// Subscription delivers events until closed.
	Subscription struct {
		conn *nats.Conn
		sub  *nats.Subscription
	}
)

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

// NewPublisher returns a NATSPublisher for cfg, or a NopPublisher when
// cfg.NATSURL is empty.
func NewPublisher(cfg config.NotifyConfig, logger *log.Logger, opts ...nats.Option) (Publisher, error) {
	if cfg.NATSURL == "" {
		return NopPublisher{}, nil
	}
	return Connect(cfg.NATSURL, cfg.Subject, logger, opts...)
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string, logger *log.Logger, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("notify: subject must not be empty")
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("notify")

	opts = append([]nats.Option{
		nats.Name("artinav"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("disconnected", "err", err)
			}
		}),
	}, opts...)

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	logger.Debug("connected", "url", conn.ConnectedUrl(), "subject", subject)
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// Publish implements Publisher. NATS publishing does not take a context, so
// ctx is only checked before sending.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.conn.Flush(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		p.logger.Warn("flush", "err", err)
	}
	p.conn.Close()
	return nil
}

// Subscribe dials url and calls fn for every event published on subject.
// Malformed messages are skipped. fn runs on the NATS delivery goroutine.
func Subscribe(url, subject string, fn func(Event), opts ...nats.Option) (*Subscription, error) {
	conn, err := nats.Connect(url, append([]nats.Option{nats.Name("artinav-browser")}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev Event
		if json.Unmarshal(msg.Data, &ev) == nil {
			fn(ev)
		}
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}
	return &Subscription{conn: conn, sub: sub}, nil
}

// Close unsubscribes and closes the connection.
func (s *Subscription) Close() error {
	err := s.sub.Unsubscribe()
	s.conn.Close()
	if errors.Is(err, nats.ErrConnectionClosed) {
		return nil
	}
	return err
}
