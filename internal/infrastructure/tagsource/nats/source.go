// Package nats subscribes to the RFID reader bridge. Readers publish one
// JSON sample per tag sighting; the source decodes them and hands them to
// the intake pipeline.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/texcare/guide-tracker/internal/core/domain"
)

type Source struct {
	conn    *nats.Conn
	subject string
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
}

func New(url, subject string) (*Source, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Source, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("guide-tracker"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Source{conn: conn, subject: subject}, nil
}

func (s *Source) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}

// Subscribe delivers decoded samples to handler until ctx is cancelled.
// Malformed payloads are logged and dropped; a reader bridge glitch must not
// take the worker down.
func (s *Source) Subscribe(ctx context.Context, handler func(domain.TagScanSample)) error {
	sub, err := s.conn.QueueSubscribe(s.subject, "scanworkers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		var sample domain.TagScanSample
		if err := json.Unmarshal(msg.Data, &sample); err != nil {
			slog.Warn("tag_sample_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		if sample.EPC == "" {
			slog.Warn("tag_sample_missing_epc", "subject", msg.Subject)
			return
		}
		if sample.Timestamp.IsZero() {
			sample.Timestamp = time.Now().UTC()
		}
		handler(sample)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := s.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := s.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
