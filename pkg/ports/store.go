package ports

import (
	"context"

	"github.com/aretw0/intake/pkg/domain"
)

// SessionStore defines the interface for keeping per-user conversation state.
type SessionStore interface {
	// Save persists the session for a given user ID.
	Save(ctx context.Context, userID string, session *domain.Session) error

	// Load retrieves the session for a given user ID.
	// Returns domain.ErrSessionNotFound if the user has no session.
	Load(ctx context.Context, userID string) (*domain.Session, error)

	// Delete removes the session for a given user ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID string) error

	// List returns the IDs of the stored sessions.
	List(ctx context.Context) ([]string, error)
}
