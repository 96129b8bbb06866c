package store

import (
	"github.com/pkg/errors"

	"github.com/yourorg/botapigen/pkg/types"
)

var ErrNotFound = errors.New("not found")

const (
	RunOK      = "ok"
	RunPartial = "partial"
)

type Store interface {
	SaveSnapshot(source, html string) (*types.Snapshot, error)
	GetSnapshot(id string) (*types.Snapshot, error)
	ListSnapshots() ([]types.Snapshot, error)
	DeleteSnapshot(id string) error

	SaveRun(run *types.Run, diagnostics []types.Diagnostic) error
	ListRuns(snapshotID string) ([]types.Run, error)
	GetDiagnostics(runID int64) ([]types.Diagnostic, error)

	Close() error
}
