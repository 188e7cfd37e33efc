// Package audit records authentication events.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payeasy/payeasy-api/internal/database"
	"github.com/payeasy/payeasy-api/internal/logging"
)

// Status values stored in auth_events.status.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// Event is a single authentication audit record.
type Event struct {
	Type          database.AuthEventType
	PublicKey     string
	Status        string
	FailureReason string
	Metadata      map[string]interface{}
	IPAddress     string
	UserAgent     string
	RequestID     string
	Time          time.Time
}

// Sink persists or forwards events.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Recorder writes each event to its sinks in order, stopping at the first
// failure.
type Recorder struct {
	sinks []Sink
	now   func() time.Time
}

// NewRecorder creates a Recorder over sinks; nil sinks are skipped.
func NewRecorder(sinks ...Sink) *Recorder {
	r := &Recorder{now: time.Now}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	return r
}

// Record writes event to every sink.
func (r *Recorder) Record(ctx context.Context, event Event) error {
	if event.Time.IsZero() {
		event.Time = r.now().UTC()
	}
	for _, s := range r.sinks {
		if err := s.Write(ctx, event); err != nil {
			return fmt.Errorf("audit %s: %w", event.Type, err)
		}
	}
	return nil
}

// Success records a successful authentication.
func (r *Recorder) Success(ctx context.Context, event Event) error {
	event.Type = database.AuthLoginSuccess
	event.Status = StatusSuccess
	return r.Record(ctx, event)
}

// Failure records a failed authentication with reason.
func (r *Recorder) Failure(ctx context.Context, event Event, reason string) error {
	event.Type = database.AuthLoginFailure
	event.Status = StatusFailure
	event.FailureReason = reason
	return r.Record(ctx, event)
}

// LogSink writes events as structured log lines.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(ctx context.Context, event Event) error {
	entry := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_type": event.Type,
		"public_key": event.PublicKey,
		"status":     event.Status,
		"ip_address": event.IPAddress,
		"request_id": event.RequestID,
	})
	if event.FailureReason != "" {
		entry = entry.WithField("failure_reason", event.FailureReason)
	}
	if event.Status == StatusFailure {
		entry.Warn("auth event")
	} else {
		entry.Info("auth event")
	}
	return nil
}

// StoreSink persists events to the auth_events table.
type StoreSink struct {
	repo database.AuthEventRepository
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(repo database.AuthEventRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Write(ctx context.Context, event Event) error {
	row := &database.AuthEvent{
		PublicKey: event.PublicKey,
		EventType: event.Type,
		Status:    event.Status,
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		RequestID: event.RequestID,
		CreatedAt: event.Time,
	}
	if event.FailureReason != "" {
		reason := event.FailureReason
		row.FailureReason = &reason
	}
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		row.Metadata = data
	}
	return s.repo.CreateAuthEvent(ctx, row)
}

// ClientIP returns the first X-Forwarded-For hop, or the host part of
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
