// Package storage persists chat sessions and their message versions in
// SQLite. Only the wire shape matters to the core: LoadSession returns the
// flat history plus the separately persisted code blob that
// conversation.Bootstrap rebuilds a session from.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/inkwell-ai/inkwell/pkg/conversation"
	"github.com/inkwell-ai/inkwell/pkg/trace"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// SessionInfo is one row of the session list
type SessionInfo struct {
	ID        int64
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionRecord is the persisted shape of one full session
type SessionRecord struct {
	Info        SessionInfo
	Messages    []*conversation.Message
	CurrentCode string
}

// Store is the SQLite-backed session store
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	current_code TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id INTEGER NOT NULL REFERENCES sessions(id),
	parent_id INTEGER,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	images TEXT,
	steps TEXT,
	agent TEXT,
	turn_index INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
`

// Open opens (and migrates) the session database at the given path
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session row
func (s *Store) CreateSession(ctx context.Context, title string) (SessionInfo, error) {
	if title == "" {
		title = "New Chat"
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (title, created_at, updated_at) VALUES (?, ?, ?)`,
		title, now, now)
	if err != nil {
		return SessionInfo{}, fmt.Errorf("failed to create session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return SessionInfo{}, fmt.Errorf("failed to read session id: %w", err)
	}

	return SessionInfo{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

// ListSessions returns all sessions, most recently updated first
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.Title, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// AppendMessage persists one message version. When a parent is given the
// turn becomes parent.turn+1, otherwise the record's own turn is kept.
// Returns the assigned message id.
func (s *Store) AppendMessage(ctx context.Context, sessionID int64, m *conversation.Message) (int64, error) {
	turn := m.Turn
	if m.ParentID != 0 {
		var parentTurn int
		err := s.db.QueryRowContext(ctx,
			`SELECT turn_index FROM messages WHERE id = ?`, m.ParentID).Scan(&parentTurn)
		if err == nil {
			turn = parentTurn + 1
		} else if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("failed to look up parent message: %w", err)
		}
	}

	images, err := json.Marshal(m.Images)
	if err != nil {
		return 0, fmt.Errorf("failed to encode images: %w", err)
	}
	steps, err := json.Marshal(m.Steps)
	if err != nil {
		return 0, fmt.Errorf("failed to encode steps: %w", err)
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, parent_id, role, content, images, steps, agent, turn_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, nullableID(m.ParentID), m.Role, m.Content,
		string(images), string(steps), m.Agent, turn, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`, time.Now().UTC(), sessionID); err != nil {
		return 0, fmt.Errorf("failed to touch session: %w", err)
	}

	return id, nil
}

// SaveCurrentCode persists the last known diagram source for fast reloads
func (s *Store) SaveCurrentCode(ctx context.Context, sessionID int64, code string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET current_code = ?, updated_at = ? WHERE id = ?`,
		code, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to save current code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// LoadSession loads a session's flat message history in insertion order
func (s *Store) LoadSession(ctx context.Context, sessionID int64) (*SessionRecord, error) {
	record := &SessionRecord{}

	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, current_code, created_at, updated_at FROM sessions WHERE id = ?`, sessionID).
		Scan(&record.Info.ID, &record.Info.Title, &record.CurrentCode,
			&record.Info.CreatedAt, &record.Info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent_id, role, content, images, steps, agent, turn_index, created_at
		 FROM messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m        conversation.Message
			parentID sql.NullInt64
			images   sql.NullString
			steps    sql.NullString
			agent    sql.NullString
		)
		if err := rows.Scan(&m.ID, &parentID, &m.Role, &m.Content,
			&images, &steps, &agent, &m.Turn, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}

		m.ParentID = parentID.Int64
		m.Agent = agent.String

		if images.Valid && images.String != "" && images.String != "null" {
			if err := json.Unmarshal([]byte(images.String), &m.Images); err != nil {
				return nil, fmt.Errorf("failed to decode images for message %d: %w", m.ID, err)
			}
		}
		if steps.Valid && steps.String != "" && steps.String != "null" {
			var decoded []trace.Step
			if err := json.Unmarshal([]byte(steps.String), &decoded); err != nil {
				return nil, fmt.Errorf("failed to decode steps for message %d: %w", m.ID, err)
			}
			m.Steps = decoded
		}

		record.Messages = append(record.Messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return record, nil
}

// DeleteSession removes a session and its messages. Hard delete: the rows
// are gone, the caller clears any in-memory state for the session itself.
func (s *Store) DeleteSession(ctx context.Context, sessionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}

	return tx.Commit()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
