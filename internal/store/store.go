package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/MannanGupta05/buildplanwizard/internal/model"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	BuildingID string        `json:"building_id,omitempty"`
	Verdict    model.Verdict `json:"verdict,omitempty"`
	Source     string        `json:"source,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Offset     int           `json:"offset,omitempty"`
}

// DefaultListLimit caps ListRuns when the filter sets no limit.
const DefaultListLimit = 100

// Store archives validation runs.
type Store interface {
	// SaveRun inserts run, assigning an id and creation time when unset.
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns runs newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func limitOf(f RunFilter) int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}
