package webhook

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/itsalifarrukh/hb-apparel/internal/database"
)

// EventStore remembers processed processor event ids.
type EventStore interface {
	// Record stores eventID and reports whether it was seen for the first time.
	Record(ctx context.Context, eventID, eventType string) (bool, error)
}

// forgetter is implemented by stores that live outside the database
// transaction. The processor calls Forget when applying a recorded event fails.
type forgetter interface {
	Forget(ctx context.Context, eventID string)
}

// MemoryStore keeps event ids in process memory. A failed delivery is
// forgotten, so a redelivery is applied like it is with PostgresStore.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: map[string]time.Time{}}
}

func (s *MemoryStore) Record(_ context.Context, eventID, _ string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) Forget(_ context.Context, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, eventID)
}

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Record inserts the event id in the caller's transaction, so a rolled back
// delivery leaves no trace and a concurrent duplicate waits on the row lock.
func (s *PostgresStore) Record(ctx context.Context, eventID, eventType string) (bool, error) {
	res, err := database.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO webhook_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING`,
		eventID, eventType)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
