package catalog

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

// Store persists the run ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Video is one archived identifier's ledger row.
type Video struct {
	ID         int64
	SourceName string
	IngestedAt time.Time
	LowQuality bool
	Preview    bool
	UpdatedAt  time.Time
}

// Run records one pipeline invocation.
type Run struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Healed     int
	Published  bool
}

// Open initializes or connects to the catalog database and applies
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
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

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordIngest upserts the ledger row for a freshly archived identifier.
func (s *Store) RecordIngest(ctx context.Context, id int64, sourceName string, lowQuality, preview bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (id, source_name, ingested_at, low_quality, preview, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             source_name = excluded.source_name,
             low_quality = excluded.low_quality,
             preview = excluded.preview,
             updated_at = excluded.updated_at`,
		id, sourceName, now, boolInt(lowQuality), boolInt(preview), now,
	)
	if err != nil {
		return fmt.Errorf("record ingest %d: %w", id, err)
	}
	return nil
}

// RecordHeal updates the artifact flags for an identifier after healing. An
// identifier ingested before the catalog existed gets a fresh row.
func (s *Store) RecordHeal(ctx context.Context, id int64, lowQuality, preview bool) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (id, source_name, ingested_at, low_quality, preview, updated_at)
         VALUES (?, '', ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             low_quality = excluded.low_quality,
             preview = excluded.preview,
             updated_at = excluded.updated_at`,
		id, now, boolInt(lowQuality), boolInt(preview), now,
	)
	if err != nil {
		return fmt.Errorf("record heal %d: %w", id, err)
	}
	return nil
}

// RecordRun persists a completed pipeline invocation.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, processed, healed, published)
         VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Processed,
		run.Healed,
		boolInt(run.Published),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.RunID, err)
	}
	return nil
}

// ListVideos returns all ledger rows ordered by identifier.
func (s *Store) ListVideos(ctx context.Context) ([]Video, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, source_name, ingested_at, low_quality, preview, updated_at
         FROM videos ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var v Video
		var ingested, updated string
		var lq, preview int
		if err := rows.Scan(&v.ID, &v.SourceName, &ingested, &lq, &preview, &updated); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		v.IngestedAt, _ = time.Parse(time.RFC3339Nano, ingested)
		v.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		v.LowQuality = lq != 0
		v.Preview = preview != 0
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// GetVideo returns the ledger row for one identifier, if present.
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, source_name, ingested_at, low_quality, preview, updated_at
         FROM videos WHERE id = ?`,
		id,
	)
	var v Video
	var ingested, updated string
	var lq, preview int
	if err := row.Scan(&v.ID, &v.SourceName, &ingested, &lq, &preview, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get video %d: %w", id, err)
	}
	v.IngestedAt, _ = time.Parse(time.RFC3339Nano, ingested)
	v.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	v.LowQuality = lq != 0
	v.Preview = preview != 0
	return &v, nil
}

// LastRun returns the most recently finished run, or nil when no run has
// been recorded yet.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT run_id, started_at, finished_at, processed, healed, published
         FROM runs ORDER BY finished_at DESC LIMIT 1`,
	)
	var run Run
	var started, finished string
	var published int
	if err := row.Scan(&run.RunID, &started, &finished, &run.Processed, &run.Healed, &published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last run: %w", err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	run.Published = published != 0
	return &run, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
