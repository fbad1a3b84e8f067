package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store records builds in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the ledger database at path, creating it and applying
// migrations as needed.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends a build row and returns it with its ID and timestamp set.
func (s *Store) Record(ctx context.Context, b Build) (*Build, error) {
	if strings.TrimSpace(b.Creature) == "" {
		return nil, errors.New("build has no creature name")
	}
	if b.Status == "" {
		b.Status = StatusBuilt
	}
	if b.BuiltAt.IsZero() {
		b.BuiltAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO builds (
            run_id, creature, archive_path, portrait_checksum, portrait_fallback,
            macros, library, status, error_class, error_message, built_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.RunID,
		b.Creature,
		nullableString(b.ArchivePath),
		nullableString(b.PortraitChecksum),
		boolToInt(b.PortraitFallback),
		b.Macros,
		boolToInt(b.Library),
		b.Status,
		nullableString(b.ErrorClass),
		nullableString(b.ErrorMessage),
		b.BuiltAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	return &b, nil
}

// List returns every build, newest first. A positive limit caps the rows.
func (s *Store) List(ctx context.Context, limit int) ([]Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.query(ctx, query, args...)
}

// Run returns the builds of one run in insertion order.
func (s *Store) Run(ctx context.Context, runID string) ([]Build, error) {
	return s.query(ctx, `SELECT `+buildColumns+` FROM builds WHERE run_id = ? ORDER BY id`, runID)
}

// Successful returns the latest successful creature build per creature,
// ordered by creature name. Library builds are excluded.
func (s *Store) Successful(ctx context.Context) ([]Build, error) {
	return s.query(ctx, `SELECT `+buildColumns+` FROM builds
        WHERE id IN (
            SELECT MAX(id) FROM builds
            WHERE status = ? AND library = 0 AND archive_path IS NOT NULL
            GROUP BY creature
        )
        ORDER BY creature`, StatusBuilt)
}

// Library returns the latest successful library build, or nil when none exists.
func (s *Store) Library(ctx context.Context) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds
        WHERE status = ? AND library = 1 AND archive_path IS NOT NULL
        ORDER BY id DESC LIMIT 1`, StatusBuilt)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get library build: %w", err)
	}
	return b, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return out, nil
}
