package interfaces

import (
	"context"

	"github.com/ternarybob/venator/internal/models"
)

// OrchestratorService drives one queue item through credential acquisition,
// scrape dispatch, submission, and completion. Run never returns an error:
// every outcome, including conflicts and fetch failures, is reported through
// the structured RunResult.
type OrchestratorService interface {
	Run(ctx context.Context) *models.RunResult
}
