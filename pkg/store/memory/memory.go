// Package memory keeps sessions in process memory. It is the default
// store for zero-configuration runs; sessions vanish on restart unless
// the user exports them.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/store"
)

// Store implements store.SessionStore with an in-memory map.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*domain.Session
	subscribers []chan string
}

// Verify interface compliance at compile time.
var _ store.SessionStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{sessions: make(map[string]*domain.Session)}
}

func (s *Store) Put(ctx context.Context, sess *domain.Session) error {
	s.mu.Lock()
	s.sessions[sess.ID] = sess.Clone()
	s.mu.Unlock()

	s.notifySubscribers(sess.ID)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess.Clone(), nil
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	sessions := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, *sess.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	s.notifySubscribers(id)
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Subscribe() <-chan string {
	ch := make(chan string, 64)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) Unsubscribe(ch <-chan string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	return nil
}

func (s *Store) notifySubscribers(sessionID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- sessionID:
		default:
			// Drop if subscriber is not consuming fast enough.
		}
	}
}
