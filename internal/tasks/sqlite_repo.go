package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLitePersister stores snapshots in a single key-value table.
type SQLitePersister struct {
	db *sql.DB
}

func NewSQLitePersister(dsn string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection per process; WAL keeps readers from blocking the writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLitePersister{db: db}, nil
}

func (p *SQLitePersister) Close() error { return p.db.Close() }

// queryExecer is satisfied by *sql.DB and *sql.Conn.
type queryExecer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Get implements Persister.Get
func (p *SQLitePersister) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return getValue(ctx, p.db, key)
}

// Update implements Persister.Update. The read and the write share one
// BEGIN IMMEDIATE transaction, so the SQLite write lock serializes every
// writer of the file, across processes too.
func (p *SQLitePersister) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err = conn.ExecContext(ctx, `BEGIN IMMEDIATE`); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), `ROLLBACK`)
		}
	}()

	cur, ok, err := getValue(ctx, conn, key)
	if err != nil {
		return err
	}
	next, err := fn(cur, ok)
	if err != nil {
		return err
	}
	if err = putValue(ctx, conn, key, next); err != nil {
		return err
	}
	if _, err = conn.ExecContext(ctx, `COMMIT`); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func getValue(ctx context.Context, q queryExecer, key string) ([]byte, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE key = ?
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func putValue(ctx context.Context, q queryExecer, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// ApplyMigrations ensures schema exists
func (p *SQLitePersister) ApplyMigrations(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
	`)
	return err
}

// Helper to build DSN like: file:/absolute/path?_pragma=busy_timeout(5000)
func SQLiteFileDSN(path string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.ToSlash(abs) + "?_pragma=busy_timeout(5000)", nil
}

// OpenSQLite opens the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLitePersister, error) {
	dsn, err := SQLiteFileDSN(path)
	if err != nil {
		return nil, err
	}
	p, err := NewSQLitePersister(dsn)
	if err != nil {
		return nil, err
	}
	if err := p.ApplyMigrations(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}
