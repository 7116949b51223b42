package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// RunStorage persists orchestrator run results locally for the HTTP API and
// operator diagnostics. The backend remains the source of truth for session
// state; this store is history only.
type RunStorage interface {
	SaveRun(ctx context.Context, result *models.RunResult) error
	GetRun(ctx context.Context, runID string) (*models.RunResult, error)
	ListRuns(ctx context.Context, limit int) ([]*models.RunResult, error)
	CountRuns(ctx context.Context) (int, error)
}
