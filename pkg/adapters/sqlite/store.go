package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	current_handler TEXT NOT NULL,
	data BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS filter_outcomes (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	name TEXT NOT NULL,
	input TEXT NOT NULL,
	rationale TEXT NOT NULL,
	passed INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_filter_outcomes_conv ON filter_outcomes(conversation_id);
`

const (
	upsertConversation = `INSERT INTO conversations (id, current_handler, data, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	current_handler = excluded.current_handler,
	data = excluded.data,
	updated_at = excluded.updated_at`

	insertOutcome = `INSERT OR IGNORE INTO filter_outcomes
(id, conversation_id, name, input, rationale, passed, timestamp)
VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// Store implements ports.ConversationStore on SQLite.
// Besides the conversation itself, every filter outcome is appended to an
// audit table that survives later turns.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; serialize at the pool.
	db.SetMaxOpenConns(1)

	s := NewFromDB(db)
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing handle. The caller is responsible for Migrate.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Save upserts the conversation and appends its filter outcomes in one transaction.
func (s *Store) Save(ctx context.Context, id string, conv *domain.Conversation) (err error) {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, upsertConversation, id, conv.CurrentHandler, data, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	for _, o := range conv.Filters {
		if _, err = tx.ExecContext(ctx, insertOutcome, o.ID, id, o.Name, o.Input, o.Rationale, o.Passed, o.Timestamp); err != nil {
			return fmt.Errorf("failed to record filter outcome: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Load retrieves a conversation.
func (s *Store) Load(ctx context.Context, id string) (*domain.Conversation, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM conversations WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	if conv.Context == nil {
		conv.Context = domain.NewRecord()
	}
	return &conv, nil
}

// Delete removes the conversation. Audit rows are kept.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List returns conversation IDs, most recently updated first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM conversations ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Outcomes returns the audit trail of filter outcomes for a conversation, oldest first.
func (s *Store) Outcomes(ctx context.Context, id string) ([]domain.FilterOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, input, rationale, passed, timestamp
FROM filter_outcomes WHERE conversation_id = ? ORDER BY timestamp, id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query filter outcomes: %w", err)
	}
	defer rows.Close()

	var out []domain.FilterOutcome
	for rows.Next() {
		var o domain.FilterOutcome
		if err := rows.Scan(&o.ID, &o.Name, &o.Input, &o.Rationale, &o.Passed, &o.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
