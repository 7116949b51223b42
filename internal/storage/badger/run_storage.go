package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

// RunStorage implements the RunStorage interface for Badger. Run history is
// local diagnostics only; the backend remains the source of truth for
// session state.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun upserts a run result keyed by run ID.
func (s *RunStorage) SaveRun(ctx context.Context, result *models.RunResult) error {
	if result.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(result.RunID, result); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun returns a run result by ID.
func (s *RunStorage) GetRun(ctx context.Context, runID string) (*models.RunResult, error) {
	var result models.RunResult
	if err := s.db.Store().Get(runID, &result); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &result, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunResult, error) {
	query := badgerhold.Where("RunID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []models.RunResult
	if err := s.db.Store().Find(&results, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	out := make([]*models.RunResult, len(results))
	for i := range results {
		out[i] = &results[i]
	}
	return out, nil
}

// CountRuns returns the total number of stored runs.
func (s *RunStorage) CountRuns(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.RunResult{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return int(count), nil
}
