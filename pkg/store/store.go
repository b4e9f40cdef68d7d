package store

import (
	"context"
	"time"

	"github.com/elieapp/elie/pkg/domain"
)

// SessionStore manages the persistence of concept-mapping sessions.
// Implementations must be safe for concurrent use.
type SessionStore interface {
	// Put inserts or replaces a session. The ID field must be set by
	// the caller. Subscribers are notified of the change.
	Put(ctx context.Context, s *domain.Session) error

	// Get retrieves a session by its unique ID.
	// Returns domain.ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// List returns all sessions, ordered by creation time descending.
	List(ctx context.Context) ([]domain.Session, error)

	// Delete removes a session by ID. Subscribers are notified.
	// Returns domain.ErrNotFound if the session does not exist.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes sessions whose last update is older than
	// cutoff and reports how many were removed. Subscribers are not
	// notified; expiry is housekeeping, not user activity.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Subscribe returns a channel that emits session IDs whenever a
	// session is written or deleted. Used to push live updates to
	// connected clients.
	Subscribe() <-chan string

	// Unsubscribe detaches a channel obtained from Subscribe and closes it.
	Unsubscribe(ch <-chan string)

	// Close releases any resources held by the store.
	Close() error
}
