package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"menubot/internal/logging"

	_ "modernc.org/sqlite"
)

// Change is one successful operator mutation.
type Change struct {
	ID       int64
	At       time.Time
	Actor    int64
	Op       string
	Age      string
	Season   string
	Topic    string
	NewTitle string
	Index    *int
	Detail   string
}

// Journal appends operator changes to a SQLite table. It is an audit trail;
// the menu file stays the source of truth.
type Journal struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// OpenJournal creates or opens the journal database at path.
func OpenJournal(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	cleanPath := filepath.Clean(path)
	if cleanPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cleanPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// A single connection keeps :memory: databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db, dbPath: cleanPath}
	if err := j.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.Journal("journal opened at %s", cleanPath)
	return j, nil
}

func (j *Journal) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS changes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		actor INTEGER NOT NULL,
		op TEXT NOT NULL,
		age TEXT NOT NULL,
		season TEXT NOT NULL,
		topic TEXT NOT NULL,
		new_title TEXT NOT NULL DEFAULT '',
		idx INTEGER,
		detail TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_changes_at ON changes(at);
	`
	_, err := j.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends c. A zero At is set to now.
func (j *Journal) Record(ctx context.Context, c Change) error {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	var idx sql.NullInt64
	if c.Index != nil {
		idx = sql.NullInt64{Int64: int64(*c.Index), Valid: true}
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO changes (at, actor, op, age, season, topic, new_title, idx, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.At.UnixMilli(), c.Actor, c.Op, c.Age, c.Season, c.Topic, c.NewTitle, idx, c.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record change: %w", err)
	}
	return nil
}

// Recent returns up to limit changes, newest first. limit <= 0 returns 20.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 20
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, at, actor, op, age, season, topic, new_title, idx, detail
		 FROM changes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var (
			c  Change
			at int64
			ix sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &at, &c.Actor, &c.Op, &c.Age, &c.Season, &c.Topic, &c.NewTitle, &ix, &c.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		c.At = time.UnixMilli(at)
		if ix.Valid {
			v := int(ix.Int64)
			c.Index = &v
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
