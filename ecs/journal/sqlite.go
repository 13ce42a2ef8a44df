package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/helmark/worldline-go/ecs/emit"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite implementation of Store backed by a
// single-file database.
//
// Designed for development and local worlds requiring persistence with
// zero setup. The store auto-migrates its schema on first use and
// enables WAL mode so readers do not block the writer.
//
// Example:
//
//	store, err := journal.NewSQLiteStore("./frames.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// For tests, use the in-memory database:
//
//	store, err := journal.NewSQLiteStore(":memory:")
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (creating if necessary) the database at path
// and prepares the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time; keep the pool at a single
	// connection so :memory: databases stay coherent too.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS world_frames (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			world_id TEXT NOT NULL,
			frame INTEGER NOT NULL,
			events TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			UNIQUE(world_id, frame)
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create world_frames table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_frames_world ON world_frames(world_id, frame)"); err != nil {
		return fmt.Errorf("failed to create idx_frames_world: %w", err)
	}
	return nil
}

// AppendFrame persists one frame's trace, replacing any earlier record
// for the same frame.
func (s *SQLiteStore) AppendFrame(ctx context.Context, worldID string, frame int, events []emit.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO world_frames (world_id, frame, events, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(world_id, frame) DO UPDATE SET
			events = excluded.events,
			recorded_at = excluded.recorded_at
	`, worldID, frame, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append frame: %w", err)
	}
	return nil
}

// LoadFrame retrieves one frame's trace.
func (s *SQLiteStore) LoadFrame(ctx context.Context, worldID string, frame int) (FrameRecord, error) {
	var payload, stamp string
	err := s.db.QueryRowContext(ctx, `
		SELECT events, recorded_at FROM world_frames
		WHERE world_id = ? AND frame = ?
	`, worldID, frame).Scan(&payload, &stamp)
	if err == sql.ErrNoRows {
		return FrameRecord{}, ErrNotFound
	}
	if err != nil {
		return FrameRecord{}, fmt.Errorf("failed to load frame: %w", err)
	}

	var events []emit.Event
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		return FrameRecord{}, fmt.Errorf("failed to unmarshal events: %w", err)
	}
	recordedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return FrameRecord{}, fmt.Errorf("failed to parse recorded_at: %w", err)
	}
	return FrameRecord{
		WorldID:    worldID,
		Frame:      frame,
		Events:     events,
		RecordedAt: recordedAt,
	}, nil
}

// LastFrame returns the highest recorded frame number for a world.
func (s *SQLiteStore) LastFrame(ctx context.Context, worldID string) (int, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(frame) FROM world_frames WHERE world_id = ?
	`, worldID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to query last frame: %w", err)
	}
	if !last.Valid {
		return 0, ErrNotFound
	}
	return int(last.Int64), nil
}

// Close closes the database. Safe to call more than once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
