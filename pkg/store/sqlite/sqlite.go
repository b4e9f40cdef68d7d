// Package sqlite persists sessions in a single-file SQLite database.
// The session body is stored as a JSON document with a few denormalized
// columns for ordering and expiry queries.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/store"
)

// Store implements store.SessionStore using SQLite.
type Store struct {
	db          *sql.DB
	subscribers []chan string
	mu          sync.RWMutex
}

// Verify interface compliance at compile time.
var _ store.SessionStore = (*Store)(nil)

// New opens (or creates) a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
	s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL DEFAULT '',
		data TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Put(ctx context.Context, sess *domain.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, topic, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET topic=excluded.topic, data=excluded.data, updated_at=excluded.updated_at`,
		sess.ID, sess.Topic, string(data), sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return err
	}

	s.notifySubscribers(sess.ID)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ?`, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{}
	if err := json.Unmarshal([]byte(data), sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return sess, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var sess domain.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	s.notifySubscribers(id)
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := result.RowsAffected()
	return int(n), nil
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
