package blacklight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedSleep captures retry delays instead of sleeping.
type recordedSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordedSleep) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sleeps := &recordedSleep{}
	client := NewClient(srv.URL, "test-api-key",
		WithSleepFunc(sleeps.sleep),
	).(*Client)
	return client, sleeps
}

func TestClient_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 4 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"session_id": "sess-1",
			"role": {"id": "r1", "name": "DevOps Engineer"},
			"location": "New York",
			"platforms": [{"name": "dice", "requires_credential": true}]
		}`))
	})

	item, err := client.NextQueueItem(context.Background())
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "sess-1", item.SessionID)
	assert.Equal(t, "DevOps Engineer", item.Role.Name)
	assert.Equal(t, 5, calls, "expected all five attempts to be used")

	// Recovery on the fifth attempt consumes the first four schedule delays.
	expected := []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second, 10 * time.Second}
	assert.Equal(t, expected, sleeps.delays)
}

func TestClient_ExhaustsScheduleThenReturnsTerminalError(t *testing.T) {
	var calls int
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	item, err := client.NextQueueItem(context.Background())
	require.Error(t, err)
	assert.Nil(t, item)

	var terminal *TerminalError
	require.True(t, errors.As(err, &terminal), "expected TerminalError, got %T", err)
	assert.Equal(t, http.StatusServiceUnavailable, terminal.StatusCode)

	assert.Equal(t, 5, calls)
	assert.Len(t, sleeps.delays, 4, "all inter-attempt delays should be consumed")
}

func TestClient_RetriesRateLimitResponses(t *testing.T) {
	var calls int
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"has_active_session": false}`))
	})

	session, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.False(t, session.HasActiveSession)
	assert.Equal(t, []time.Duration{1 * time.Second}, sleeps.delays)
}

func TestClient_NoContentAndConflictAreNotRetried(t *testing.T) {
	t.Run("204 maps to ErrNoContent", func(t *testing.T) {
		var calls int
		client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusNoContent)
		})

		item, err := client.NextQueueItem(context.Background())
		assert.Nil(t, item)
		assert.ErrorIs(t, err, ErrNoContent)
		assert.Equal(t, 1, calls)
		assert.Empty(t, sleeps.delays)
	})

	t.Run("409 maps to ErrConflict", func(t *testing.T) {
		var calls int
		client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error": "session already active"}`))
		})

		item, err := client.NextQueueItem(context.Background())
		assert.Nil(t, item)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 1, calls)
		assert.Empty(t, sleeps.delays)
	})
}

func TestClient_SendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Scraper-API-Key")
		w.Write([]byte(`{"has_active_session": false}`))
	})

	_, err := client.CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-api-key", gotKey)
}

func TestClient_ClientErrorsSurfaceAsAPIError(t *testing.T) {
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "missing session_id"}`))
	})

	err := client.FailSession(context.Background(), "", "boom")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "missing session_id", apiErr.Message)
	assert.Empty(t, sleeps.delays, "4xx responses other than 429 must not retry")
}

func TestClient_NextCredentialBackfillsPlatform(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sess-9", r.URL.Query().Get("session_id"))
		w.Write([]byte(`{
			"credential_id": "cred-42",
			"payload": {"kind": "email_password", "email": "a@b.c", "password": "pw"}
		}`))
	})

	lease, err := client.NextCredential(context.Background(), "linkedin", "sess-9")
	require.NoError(t, err)
	assert.Equal(t, "linkedin", lease.Platform)
	assert.Equal(t, "cred-42", lease.CredentialID)
	assert.Equal(t, "a@b.c", lease.Payload.Email)
}

func TestClient_ContextCancellationStopsRetryLoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "key",
		WithSleepFunc(func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		}),
	).(*Client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.NextQueueItem(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
