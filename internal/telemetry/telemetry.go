// Package telemetry publishes session reports to a NATS subject, one message per capture.
package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/nats-io/nats.go"
)

const (
	// DefaultSubject is the subject prefix reports are published under.
	DefaultSubject = "lacuna.report"

	timeout = 5 * time.Second
)

var ErrPublish = errors.New("telemetry publish failed")

// Publisher is the part of *nats.Conn a Reporter needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Message is the published payload.
type Message struct {
	Session string         `json:"session"`
	Report  map[string]any `json:"report"`
}

// Subject returns the subject a session publishes to. Dots and whitespace in the session name would
// add subject tokens or break the subject, so they become dashes.
func Subject(prefix, session string) string {
	if prefix == "" {
		prefix = DefaultSubject
	}

	token := strings.Map(func(r rune) rune {
		if r == '.' || unicode.IsSpace(r) {
			return '-'
		}

		return r
	}, session)

	if token == "" {
		token = "-"
	}

	return prefix + "." + token
}

// Reporter sends reports through a Publisher.
type Reporter struct {
	pub    Publisher
	prefix string
}

// NewReporter returns a Reporter publishing under prefix (DefaultSubject when empty).
func NewReporter(pub Publisher, prefix string) *Reporter {
	if prefix == "" {
		prefix = DefaultSubject
	}

	return &Reporter{pub: pub, prefix: prefix}
}

// Publish sends the report of one session.
func (r *Reporter) Publish(session string, report map[string]any) error {
	subject := Subject(r.prefix, session)

	data, err := json.Marshal(Message{Session: session, Report: report})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	slog.Debug("telemetry.Publish", "subject", subject, "bytes", len(data))

	if err = r.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublish, subject, err)
	}

	return nil
}

// Connect dials the NATS server at url.
func Connect(url, name string) (*nats.Conn, error) {
	slog.Debug("telemetry.Connect", "url", url, "stage", "start")

	conn, err := nats.Connect(url, nats.Name(name), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to %s: %w", ErrPublish, url, err)
	}

	return conn, nil
}

// Close flushes pending messages and closes conn.
func Close(conn *nats.Conn) error {
	defer conn.Close()

	if err := conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("%w: flushing: %w", ErrPublish, err)
	}

	return nil
}
