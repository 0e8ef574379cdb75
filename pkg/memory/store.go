// Package memory durably records the agent's interactions so conversation
// history survives restarts and is queryable for operator review.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Interaction is one recorded exchange: the scraped message and what the
// agent did about it.
type Interaction struct {
	ID              string    `json:"id"`
	Platform        string    `json:"platform"`
	Type            string    `json:"type"` // "mention", "reply", "post"
	OriginalMessage string    `json:"originalMessage"`
	Author          string    `json:"author"`
	Response        string    `json:"response"`
	Timestamp       time.Time `json:"timestamp"`
}

// Store is a SQLite-backed interaction log.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL keeps the monitor's writes from blocking stats reads. The
	// modernc driver takes pragmas in _pragma=name(value) form.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		platform TEXT NOT NULL,
		type TEXT NOT NULL,
		original_message TEXT NOT NULL,
		author TEXT NOT NULL,
		response TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_timestamp ON interactions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_interactions_author ON interactions(author);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record persists one interaction. A missing id gets one assigned; a zero
// timestamp gets the current time.
func (s *Store) Record(ctx context.Context, it Interaction) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	if it.Timestamp.IsZero() {
		it.Timestamp = time.Now()
	}

	query := `
		INSERT INTO interactions (id, platform, type, original_message, author, response, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		it.ID, it.Platform, it.Type, it.OriginalMessage, it.Author, it.Response, it.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// Recent returns the newest interactions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, platform, type, original_message, author, response, timestamp
		FROM interactions ORDER BY timestamp DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		var ts int64
		if err := rows.Scan(&it.ID, &it.Platform, &it.Type, &it.OriginalMessage, &it.Author, &it.Response, &ts); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		it.Timestamp = time.Unix(ts, 0)
		out = append(out, it)
	}
	return out, rows.Err()
}

// CountByAuthor returns how many interactions are stored for one author.
func (s *Store) CountByAuthor(ctx context.Context, author string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interactions WHERE author = ?`, author).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count interactions: %w", err)
	}
	return count, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
