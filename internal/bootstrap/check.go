package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultCheckTimeout bounds a single self-check.
const DefaultCheckTimeout = 15 * time.Second

// Pinger is anything that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SelfCheck pings the record store. Serving must not start when it fails.
func SelfCheck(ctx context.Context, p Pinger, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
	defer cancel()

	started := time.Now()
	if err := p.Ping(ctx); err != nil {
		logger.Error("Self-check failed", "err", err)
		return fmt.Errorf("self-check failed: %w", err)
	}
	logger.Info("Self-check passed", "duration", time.Since(started))
	return nil
}

// Status remembers the outcome of the latest check for readiness probes.
type Status struct {
	mu        sync.RWMutex
	checked   bool
	err       error
	checkedAt time.Time
}

// Record stores the outcome of a check.
func (s *Status) Record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked = true
	s.err = err
	s.checkedAt = time.Now()
}

// Ready returns nil once a check has passed and no later check failed.
func (s *Status) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.checked {
		return errors.New("self-check has not run")
	}
	return s.err
}

// CheckedAt returns when the latest check finished.
func (s *Status) CheckedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkedAt
}

// Watch repeats the check every interval until ctx is done.
func (s *Status) Watch(ctx context.Context, p Pinger, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
			err := p.Ping(checkCtx)
			cancel()
			if err != nil {
				logger.Warn("Record store unreachable", "err", err)
			}
			s.Record(err)
		}
	}
}
