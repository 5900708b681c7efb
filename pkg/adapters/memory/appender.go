package memory

import (
	"context"
	"sync"
)

// Appender implements ports.RecordAppender by keeping rows in memory.
type Appender struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

// NewAppender creates an empty Appender.
func NewAppender() *Appender {
	return &Appender{}
}

// Append stores a copy of row, or returns the configured failure.
func (a *Appender) Append(ctx context.Context, row []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.rows = append(a.rows, append([]string(nil), row...))
	return nil
}

// Ping returns the configured failure, if any.
func (a *Appender) Ping(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// FailWith makes every later call return err. Nil restores normal operation.
func (a *Appender) FailWith(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
}

// Rows returns the appended rows in order.
func (a *Appender) Rows() [][]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]string, len(a.rows))
	for i, r := range a.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
