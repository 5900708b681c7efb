// Package sink implements the Record Sink: it timestamps completed bookings and
// appends them, one row per booking, to the durable tabular store.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // CET and friends without relying on the host zoneinfo

	"github.com/google/uuid"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

// DefaultTimezone is the civil zone of Record.SubmittedAt.
const DefaultTimezone = "CET"

// Sink commits bookings through a ports.RecordAppender.
// A commit is a single append: failures are reported, never retried.
type Sink struct {
	appender ports.RecordAppender
	location *time.Location
	now      func() time.Time
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
}

// Option configures the Sink.
type Option func(*Sink)

// WithLocation sets the zone submission timestamps are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Sink) {
		s.location = loc
	}
}

// WithClock overrides the submission clock.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		s.now = now
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Sink) {
		s.hooks = hooks
	}
}

// New creates a Sink in front of appender.
func New(appender ports.RecordAppender, opts ...Option) *Sink {
	s := &Sink{
		appender: appender,
		now:      time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.location == nil {
		s.location = MustLoadLocation(DefaultTimezone)
	}
	return s
}

// Commit stamps the booking and appends it. The returned error, if any, is a *domain.SinkError.
func (s *Sink) Commit(ctx context.Context, b domain.Booking) (domain.Record, error) {
	rec := domain.Record{
		Booking:     b,
		SubmittedAt: s.now().In(s.location),
	}

	logger := s.logger.With("commit_id", uuid.NewString(), "user_id", b.UserID)
	logger.Debug("Committing booking", "row", rec.Row())

	started := time.Now()
	err := s.appender.Append(ctx, rec.Row())
	elapsed := time.Since(started)

	if s.hooks.OnCommit != nil {
		s.hooks.OnCommit(ctx, &domain.CommitEvent{
			Timestamp: time.Now(),
			UserID:    b.UserID,
			Duration:  elapsed,
			Err:       err,
		})
	}

	if err != nil {
		logger.Error("Failed to append booking",
			"duration", elapsed,
			"err", err,
		)
		return rec, &domain.SinkError{Op: "append", Err: err}
	}

	logger.Info("Booking committed",
		"name", b.Name,
		"submitted_at", rec.SubmittedAt.Format(domain.TimestampLayout),
		"duration", elapsed,
	)
	return rec, nil
}

// Ping verifies the store is reachable.
func (s *Sink) Ping(ctx context.Context) error {
	if err := s.appender.Ping(ctx); err != nil {
		return &domain.SinkError{Op: "ping", Err: err}
	}
	return nil
}

// LoadLocation resolves an IANA or abbreviated zone name ("CET", "Europe/Moscow").
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// MustLoadLocation is LoadLocation for names known to be valid.
func MustLoadLocation(name string) *time.Location {
	loc, err := LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
