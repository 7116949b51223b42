package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

func newTestStorage(t *testing.T) interfaces.RunStorage {
	t.Helper()
	logger := arbor.NewLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{
		Path: filepath.Join(t.TempDir(), "venator-test"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRunStorage(db, logger)
}

func TestRunStorage_SaveAndGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	run := &models.RunResult{
		RunID:     "run-1",
		SessionID: "sess-1",
		Role:      "DevOps Engineer",
		Location:  "New York",
		Outcomes: []models.PlatformOutcome{
			{Platform: models.PlatformDice, Success: true, JobsFound: 3},
		},
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
	}
	require.NoError(t, storage.SaveRun(ctx, run))

	got, err := storage.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.SessionID)
	require.Len(t, got.Outcomes, 1)
	assert.Equal(t, 3, got.Outcomes[0].JobsFound)

	// Saving the same run ID again overwrites, not duplicates.
	run.Role = "SRE"
	require.NoError(t, storage.SaveRun(ctx, run))
	count, err := storage.CountRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunStorage_SaveRequiresRunID(t *testing.T) {
	storage := newTestStorage(t)
	assert.Error(t, storage.SaveRun(context.Background(), &models.RunResult{}))
}

func TestRunStorage_GetMissingRun(t *testing.T) {
	storage := newTestStorage(t)
	_, err := storage.GetRun(context.Background(), "absent")
	assert.ErrorContains(t, err, "run not found")
}

func TestRunStorage_ListNewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, storage.SaveRun(ctx, &models.RunResult{
			RunID:     fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	runs, err := storage.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-4", runs[0].RunID)
	assert.Equal(t, "run-3", runs[1].RunID)
	assert.Equal(t, "run-2", runs[2].RunID)

	count, err := storage.CountRuns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
