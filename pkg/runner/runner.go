package runner

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/pkg/dialog"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
	"github.com/aretw0/intake/pkg/session"
)

// Committer is the Record Sink as seen by the runner.
type Committer interface {
	Commit(ctx context.Context, b domain.Booking) (domain.Record, error)
}

// Runner dispatches chat events to the dialog.
type Runner struct {
	machine  *dialog.Machine
	sessions *session.Manager
	sink     Committer
	out      ports.Messenger

	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	workers   int
	queueSize int
}

// New creates a Runner.
func New(machine *dialog.Machine, sessions *session.Manager, sink Committer, out ports.Messenger, opts ...Option) *Runner {
	r := &Runner{
		machine:   machine,
		sessions:  sessions,
		sink:      sink,
		out:       out,
		logger:    logging.NewNop(),
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run consumes events until the channel is closed or ctx is done.
// Events already queued when ctx ends are still handled before Run returns,
// and in-flight commits are not cancelled.
func (r *Runner) Run(ctx context.Context, events <-chan domain.Event) error {
	handleCtx := context.WithoutCancel(ctx)

	shards := make([]chan domain.Event, r.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan domain.Event, r.queueSize)
		wg.Add(1)
		go func(queue <-chan domain.Event) {
			defer wg.Done()
			for ev := range queue {
				r.Handle(handleCtx, ev)
			}
		}(shards[i])
	}

	drain := func() {
		for _, queue := range shards {
			close(queue)
		}
		wg.Wait()
	}

	r.logger.Info("Dispatcher started", "workers", r.workers)
	for {
		select {
		case <-ctx.Done():
			drain()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				drain()
				return nil
			}
			select {
			case shards[r.shardFor(ev.UserID)] <- ev:
			case <-ctx.Done():
				drain()
				return ctx.Err()
			}
		}
	}
}

// Handle processes one event to completion, including the sink call and delivery.
// It never panics and never returns an error: failures are logged and answered.
func (r *Runner) Handle(ctx context.Context, ev domain.Event) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	if r.hooks.OnEvent != nil {
		r.hooks.OnEvent(ctx, &ev)
	}
	logger := r.logger.With("user_id", ev.UserID, "event", ev.Kind)

	if ev.Kind == domain.EventHelp {
		r.deliver(ctx, logger, ev, []domain.Message{r.machine.Help()})
		return
	}

	var outbox []domain.Message
	var completed bool
	err := r.contain(logger, func() error {
		return r.sessions.Update(ctx, ev.UserID, func(ctx context.Context, s *domain.Session) error {
			outbox, completed = r.step(ctx, logger, s, ev)
			return nil
		})
	})
	switch {
	case err != nil && completed:
		// The sink outcome is final; a leftover session would commit the booking again.
		logger.Error("Failed to store finished session, removing it", "err", err)
		if err := r.sessions.Remove(ctx, ev.UserID); err != nil {
			logger.Error("Failed to remove finished session", "err", err)
		}
	case err != nil:
		logger.Error("Failed to handle event", "err", err)
		outbox = append(outbox, r.machine.TechnicalError())
	}

	r.deliver(ctx, logger, ev, outbox)
}

// step runs the machine on s (in place) and commits when the dialog asks for it.
// completed reports whether a sink call returned.
func (r *Runner) step(ctx context.Context, logger *slog.Logger, s *domain.Session, ev domain.Event) (msgs []domain.Message, completed bool) {
	tr := r.machine.Handle(s, ev)
	r.observe(ctx, ev, s.Step, tr.Session.Step)
	msgs = tr.Messages

	if tr.Commit != nil {
		_, commitErr := r.sink.Commit(ctx, *tr.Commit)
		if commitErr != nil {
			logger.Warn("Booking not saved, session discarded", "err", commitErr)
		}
		done := r.machine.Complete(tr.Session, commitErr)
		r.observe(ctx, ev, tr.Session.Step, done.Session.Step)
		msgs = append(msgs, done.Messages...)
		tr = done
		completed = true
	}

	logger.Debug("Event applied", "step", tr.Session.Step, "answered", tr.Session.Answers.Keys())
	*s = *tr.Session
	return msgs, completed
}

func (r *Runner) observe(ctx context.Context, ev domain.Event, from, to domain.Step) {
	if from == to || r.hooks.OnTransition == nil {
		return
	}
	r.hooks.OnTransition(ctx, &domain.TransitionEvent{
		Timestamp: time.Now(),
		UserID:    ev.UserID,
		Event:     ev.Kind,
		From:      from,
		To:        to,
	})
}

// contain turns a panic in fn into an error.
func (r *Runner) contain(logger *slog.Logger, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Recovered panic while handling event",
				"panic", p,
				"stack_trace", string(debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

// deliver sends msgs in order. Failures are logged and do not stop later messages.
func (r *Runner) deliver(ctx context.Context, logger *slog.Logger, ev domain.Event, msgs []domain.Message) {
	recipient := ev.Recipient
	if recipient == "" {
		recipient = ev.UserID
	}
	for _, msg := range msgs {
		if err := r.out.Send(ctx, recipient, msg); err != nil {
			logger.Error("Failed to deliver message", "recipient", recipient, "err", err)
			if r.hooks.OnDeliveryError != nil {
				r.hooks.OnDeliveryError(ctx, &domain.DeliveryEvent{
					Timestamp: time.Now(),
					UserID:    ev.UserID,
					Err:       err,
				})
			}
		}
	}
}

func (r *Runner) shardFor(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(r.workers))
}
