package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/intake/internal/logging"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
// The lock is held across the sink call and never extended, so it must outlive
// the slowest commit: the spreadsheet lookup retries (about 1.5s of backoff with
// the sheets defaults) plus one lookup and one append round trip each.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager is the Session Store: it orchestrates per-user session access.
// Work on one user is serialized; work on distinct users never contends
// beyond the short critical section guarding the lock map.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks. Keep it above the worst-case
// commit duration; see DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the clock used for Session.UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new Session Manager backed by the given store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(userID) after unlocking.
func (m *Manager) acquire(userID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		entry = &lockEntry{}
		m.locks[userID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[userID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, userID)
	}
}

// Get returns the user's session, or a fresh idle one if none is stored.
// A fresh session is not persisted until it leaves the idle step.
func (m *Manager) Get(ctx context.Context, userID string) (*domain.Session, error) {
	var session *domain.Session
	err := m.WithLock(ctx, userID, func(ctx context.Context) error {
		var err error
		session, err = m.loadOrNew(ctx, userID)
		return err
	})
	return session, err
}

// Reset clears the user's answers and returns the session to idle.
// The identity key survives; since an idle session carries no data it is simply dropped.
func (m *Manager) Reset(ctx context.Context, userID string) error {
	return m.Update(ctx, userID, func(_ context.Context, s *domain.Session) error {
		s.Reset()
		return nil
	})
}

// Remove drops the session entirely.
func (m *Manager) Remove(ctx context.Context, userID string) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		return m.store.Delete(ctx, userID)
	})
}

// Update loads (or creates) the user's session, hands it to fn while holding the
// user's lock and writes the result back. Sessions that end terminal or pristine
// are deleted from the store; a terminal session that cannot be deleted is saved
// back as idle. If fn fails nothing is written.
func (m *Manager) Update(ctx context.Context, userID string, fn func(context.Context, *domain.Session) error) error {
	return m.WithLock(ctx, userID, func(ctx context.Context) error {
		session, err := m.loadOrNew(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(ctx, session); err != nil {
			return err
		}
		return m.persist(ctx, userID, session)
	})
}

// Count returns the number of stored (in-flight) sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// WithLock executes fn while holding the lock for the user.
func (m *Manager) WithLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	entry := m.acquire(userID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(userID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, userID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"user_id", userID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) loadOrNew(ctx context.Context, userID string) (*domain.Session, error) {
	session, err := m.store.Load(ctx, userID)
	if err == nil {
		return session, nil
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.NewSession(userID), nil
	}
	return nil, fmt.Errorf("failed to load session: %w", err)
}

func (m *Manager) persist(ctx context.Context, userID string, session *domain.Session) error {
	if session.Step == domain.StepTerminal || session.Pristine() {
		err := m.store.Delete(ctx, userID)
		if err == nil {
			return nil
		}
		if session.Step != domain.StepTerminal {
			return fmt.Errorf("failed to drop session: %w", err)
		}
		// A finished session left behind would replay its commit: overwrite it with an idle one.
		m.logger.Warn("Failed to drop finished session, resetting it", "user_id", userID, "err", err)
		session.Reset()
		session.UpdatedAt = m.now()
		if saveErr := m.store.Save(ctx, userID, session); saveErr != nil {
			return fmt.Errorf("failed to drop session: %w", errors.Join(err, saveErr))
		}
		return nil
	}

	session.UpdatedAt = m.now()
	if err := m.store.Save(ctx, userID, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
