package redis

import "time"

// WithClock overrides the index clock in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}
