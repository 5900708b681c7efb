package runner

import (
	"log/slog"

	"github.com/aretw0/intake/pkg/domain"
)

const (
	// DefaultWorkers is the number of dispatch shards.
	DefaultWorkers = 8
	// DefaultQueueSize is the per-shard event buffer.
	DefaultQueueSize = 64
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

// WithWorkers sets the number of dispatch shards. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithQueueSize sets the per-shard buffer. Values below 0 are ignored.
func WithQueueSize(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.queueSize = n
		}
	}
}
