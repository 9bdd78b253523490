package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"seacatgo/pkg/db"
)

// SQLiteStore implements Store.
type SQLiteStore struct {
	db  *db.DB
	now func() time.Time
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Exports ---

// SaveExport inserts rec, assigning an ID and timestamp when missing.
func (s *SQLiteStore) SaveExport(ctx context.Context, rec *ExportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	doc, err := compress([]byte(rec.Document))
	if err != nil {
		return fmt.Errorf("failed to compress document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO exports
		(id, plan_id, vehicle, checksum, output_path, trace_path, lines, turn_radius, outside, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PlanID, rec.Vehicle, rec.Checksum, rec.OutputPath, rec.TracePath,
		rec.Lines, rec.TurnRadius, rec.Outside, doc, rec.CreatedAt)
	return err
}

// GetExport returns the record with its document, or nil when not found.
func (s *SQLiteStore) GetExport(ctx context.Context, id string) (*ExportRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, plan_id, vehicle, checksum, output_path, trace_path,
		lines, turn_radius, outside, document, created_at FROM exports WHERE id = ?`, id)
	return scanFull(row)
}

// FindByChecksum returns the newest export of a plan with the given checksum, or nil.
func (s *SQLiteStore) FindByChecksum(ctx context.Context, checksum string) (*ExportRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, plan_id, vehicle, checksum, output_path, trace_path,
		lines, turn_radius, outside, document, created_at FROM exports WHERE checksum = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, checksum)
	return scanFull(row)
}

func scanFull(row *sql.Row) (*ExportRecord, error) {
	var rec ExportRecord
	var doc []byte
	var tracePath sql.NullString

	err := row.Scan(&rec.ID, &rec.PlanID, &rec.Vehicle, &rec.Checksum, &rec.OutputPath, &tracePath,
		&rec.Lines, &rec.TurnRadius, &rec.Outside, &doc, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec.TracePath = tracePath.String

	if len(doc) > 2 && doc[0] == 0x1f && doc[1] == 0x8b {
		plain, err := decompress(doc)
		if err != nil {
			slog.Warn("Stored document is corrupted", "id", rec.ID, "error", err)
		} else {
			doc = plain
		}
	}
	rec.Document = string(doc)
	return &rec, nil
}

// ListExports returns up to limit records, newest first, without documents.
func (s *SQLiteStore) ListExports(ctx context.Context, limit int) ([]*ExportRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, plan_id, vehicle, checksum, output_path, trace_path,
		lines, turn_radius, outside, created_at FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []*ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var tracePath sql.NullString
		if err := rows.Scan(&rec.ID, &rec.PlanID, &rec.Vehicle, &rec.Checksum, &rec.OutputPath, &tracePath,
			&rec.Lines, &rec.TurnRadius, &rec.Outside, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.TracePath = tracePath.String
		ret = append(ret, &rec)
	}
	return ret, rows.Err()
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	query := `INSERT OR REPLACE INTO persistent_state (key, value, created_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, key, val, s.now().UTC())
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

// --- Compression Pooling ---

var (
	gzipWriterPool = sync.Pool{
		New: func() interface{} {
			return gzip.NewWriter(io.Discard)
		},
	}
	bufferPool = sync.Pool{
		New: func() interface{} {
			return new(bytes.Buffer)
		},
	}
)

func compress(data []byte) ([]byte, error) {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	// buf goes back to the pool
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
