package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"moodcast/pkg/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS journal_entries (
	id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	mood INTEGER,
	content TEXT NOT NULL,
	content_salt TEXT NOT NULL DEFAULT '',
	content_nonce TEXT NOT NULL DEFAULT '',
	encrypted INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_journal_created_at ON journal_entries(created_at);
CREATE INDEX IF NOT EXISTS idx_journal_mood ON journal_entries(mood);
`

// SQLiteStore persists journal entries in a local SQLite database. When a
// cipher is provided, entry content is encrypted at rest.
type SQLiteStore struct {
	db     *sql.DB
	cipher *Cipher
}

// NewSQLiteStore opens (and if needed creates) the database at path. Pass a
// nil cipher to store content in plaintext.
func NewSQLiteStore(path string, cipher *Cipher) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_sync=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, cipher: cipher}, nil
}

// Put inserts or replaces an entry.
func (s *SQLiteStore) Put(ctx context.Context, entry *types.JournalEntry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("invalid entry: %w", err)
	}

	content := entry.Content
	salt, nonce := "", ""
	encrypted := 0
	if s.cipher != nil {
		var err error
		content, salt, nonce, err = s.cipher.Encrypt(entry.Content)
		if err != nil {
			return fmt.Errorf("failed to encrypt content: %w", err)
		}
		encrypted = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO journal_entries
			(id, created_at, mood, content, content_salt, content_nonce, encrypted)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.CreatedAt.UTC(), moodParam(entry), content, salt, nonce, encrypted)
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// Get returns the entry with the given ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*types.JournalEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, mood, content, content_salt, content_nonce, encrypted
		FROM journal_entries WHERE id = ?`, id)

	entry, err := s.scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete removes an entry.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMood backfills the sentiment score for an entry. Scores are
// immutable once set.
func (s *SQLiteStore) SetMood(ctx context.Context, id string, mood int) error {
	if mood < types.MoodScaleMin || mood > types.MoodScaleMax {
		return fmt.Errorf("mood %d out of range %d-%d", mood, types.MoodScaleMin, types.MoodScaleMax)
	}

	result, err := s.db.ExecContext(ctx, `UPDATE journal_entries SET mood = ? WHERE id = ? AND mood IS NULL`, mood, id)
	if err != nil {
		return fmt.Errorf("failed to update mood: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM journal_entries WHERE id = ?`, id).Scan(&exists); err == nil {
			return ErrAlreadyScored
		}
		return ErrNotFound
	}
	return nil
}

// ListRange returns all entries with CreatedAt in [from, to).
func (s *SQLiteStore) ListRange(ctx context.Context, from, to time.Time) ([]types.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, created_at, mood, content, content_salt, content_nonce, encrypted
		FROM journal_entries
		WHERE created_at >= ? AND created_at < ?
		ORDER BY created_at ASC`, from.UTC(), to.UTC())
}

// ListScoredRange returns only mood-scored entries in [from, to).
func (s *SQLiteStore) ListScoredRange(ctx context.Context, from, to time.Time) ([]types.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, created_at, mood, content, content_salt, content_nonce, encrypted
		FROM journal_entries
		WHERE mood IS NOT NULL AND created_at >= ? AND created_at < ?
		ORDER BY created_at ASC`, from.UTC(), to.UTC())
}

// AllScored returns every mood-scored entry.
func (s *SQLiteStore) AllScored(ctx context.Context) ([]types.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, created_at, mood, content, content_salt, content_nonce, encrypted
		FROM journal_entries
		WHERE mood IS NOT NULL
		ORDER BY created_at ASC`)
}

// CountScored returns the number of mood-scored entries.
func (s *SQLiteStore) CountScored(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE mood IS NOT NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...interface{}) ([]types.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []types.JournalEntry
	for rows.Next() {
		entry, err := s.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanEntry(row scanner) (*types.JournalEntry, error) {
	var (
		entry     types.JournalEntry
		createdAt time.Time
		mood      sql.NullInt64
		content   string
		salt      string
		nonce     string
		encrypted int
	)
	if err := row.Scan(&entry.ID, &createdAt, &mood, &content, &salt, &nonce, &encrypted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	entry.CreatedAt = createdAt.UTC()
	if mood.Valid {
		m := int(mood.Int64)
		entry.Mood = &m
	}

	if encrypted == 1 {
		if s.cipher == nil {
			return nil, fmt.Errorf("entry %s is encrypted but no passphrase is configured", entry.ID)
		}
		plaintext, err := s.cipher.Decrypt(content, salt, nonce)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt entry %s: %w", entry.ID, err)
		}
		entry.Content = plaintext
	} else {
		entry.Content = content
	}

	return &entry, nil
}

func moodParam(entry *types.JournalEntry) interface{} {
	if entry.Mood == nil {
		return nil
	}
	return *entry.Mood
}
