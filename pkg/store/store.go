package store

import (
	"context"
	"time"
)

// ExportRecord describes one generated mission file.
type ExportRecord struct {
	ID         string
	PlanID     string
	Vehicle    string
	Checksum   string
	OutputPath string
	TracePath  string
	Lines      int
	TurnRadius float64
	Outside    int
	Document   string // empty in listings
	CreatedAt  time.Time
}

// ExportStore handles the export history.
type ExportStore interface {
	SaveExport(ctx context.Context, rec *ExportRecord) error
	GetExport(ctx context.Context, id string) (*ExportRecord, error)
	ListExports(ctx context.Context, limit int) ([]*ExportRecord, error)
	FindByChecksum(ctx context.Context, checksum string) (*ExportRecord, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// Store composes all sub-interfaces for full store access.
type Store interface {
	ExportStore
	StateStore

	// Close closes the store connection.
	Close() error
}
