package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/helmark/worldline-go/ecs/emit"
)

// MySQLStore is a MySQL implementation of Store for deployments that
// collect frame traces from many hosts into one database.
//
// The store auto-migrates its schema on first use. The DSN must enable
// parseTime so recorded_at scans into time.Time:
//
//	store, err := journal.NewMySQLStore("user:pass@tcp(host:3306)/worldline?parseTime=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
type MySQLStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewMySQLStore connects to the database described by dsn and prepares
// the schema.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS world_frames (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			world_id VARCHAR(191) NOT NULL,
			frame INT NOT NULL,
			events LONGTEXT NOT NULL,
			recorded_at TIMESTAMP(6) NOT NULL,
			UNIQUE KEY uq_world_frame (world_id, frame),
			KEY idx_world (world_id)
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create world_frames table: %w", err)
	}
	return nil
}

// AppendFrame persists one frame's trace, replacing any earlier record
// for the same frame.
func (s *MySQLStore) AppendFrame(ctx context.Context, worldID string, frame int, events []emit.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO world_frames (world_id, frame, events, recorded_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			events = VALUES(events),
			recorded_at = VALUES(recorded_at)
	`, worldID, frame, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to append frame: %w", err)
	}
	return nil
}

// LoadFrame retrieves one frame's trace.
func (s *MySQLStore) LoadFrame(ctx context.Context, worldID string, frame int) (FrameRecord, error) {
	var (
		payload    string
		recordedAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT events, recorded_at FROM world_frames
		WHERE world_id = ? AND frame = ?
	`, worldID, frame).Scan(&payload, &recordedAt)
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
	return FrameRecord{
		WorldID:    worldID,
		Frame:      frame,
		Events:     events,
		RecordedAt: recordedAt,
	}, nil
}

// LastFrame returns the highest recorded frame number for a world.
func (s *MySQLStore) LastFrame(ctx context.Context, worldID string) (int, error) {
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
func (s *MySQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
