package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJobSubmission(t *testing.T) {
	t.Run("success carries jobs", func(t *testing.T) {
		jobs := []JobRecord{{Title: "SRE"}, {Title: "DevOps Engineer"}}
		sub := NewJobSubmission("sess-1", PlatformDice, jobs, nil)

		assert.Equal(t, SubmitStatusSuccess, sub.Status)
		assert.Len(t, sub.Jobs, 2)
		assert.Empty(t, sub.ErrorMessage)
	})

	t.Run("failure submits empty job list with message", func(t *testing.T) {
		jobs := []JobRecord{{Title: "stale partial result"}}
		sub := NewJobSubmission("sess-1", PlatformDice, jobs, errors.New("layout changed"))

		assert.Equal(t, SubmitStatusFailed, sub.Status)
		assert.NotNil(t, sub.Jobs)
		assert.Empty(t, sub.Jobs, "partial results are discarded on failure")
		assert.Equal(t, "layout changed", sub.ErrorMessage)
	})

	t.Run("nil jobs marshal as empty list", func(t *testing.T) {
		sub := NewJobSubmission("sess-1", PlatformMonster, nil, nil)
		assert.NotNil(t, sub.Jobs)
		assert.Empty(t, sub.Jobs)
	})
}

func TestRunResult_Succeeded(t *testing.T) {
	tests := []struct {
		name   string
		result RunResult
		want   bool
	}{
		{"empty run", RunResult{}, true},
		{"aborted run", RunResult{Error: "backend down"}, false},
		{"completion failure", RunResult{CompletionError: "rejected"}, false},
		{
			"all platforms succeeded",
			RunResult{Outcomes: []PlatformOutcome{{Success: true}, {Success: true}}},
			true,
		},
		{
			"one platform failed",
			RunResult{Outcomes: []PlatformOutcome{{Success: true}, {Success: false}}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Succeeded())
		})
	}
}

func TestRunResult_TotalJobs(t *testing.T) {
	r := RunResult{Outcomes: []PlatformOutcome{
		{Success: true, JobsFound: 2},
		{Success: false},
		{Success: true, JobsFound: 5},
	}}
	assert.Equal(t, 7, r.TotalJobs())
}
