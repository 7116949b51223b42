package blacklight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/venator/internal/interfaces"
	"github.com/ternarybob/venator/internal/models"
)

const (
	// DefaultTimeout is the per-call HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// apiKeyHeader is required on every backend call.
	apiKeyHeader = "X-Scraper-API-Key"
)

// DefaultRetrySchedule is the fixed delay schedule indexed by attempt number.
// Deliberately capped and finite, not exponential; its length is the total
// attempt budget.
var DefaultRetrySchedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
	10 * time.Second,
	30 * time.Second,
}

// Client is the Blacklight backend API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	schedule   []time.Duration
	sleep      SleepFunc
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithRetrySchedule overrides the retry delay schedule. The schedule length
// is the total attempt budget.
func WithRetrySchedule(schedule []time.Duration) ClientOption {
	return func(c *Client) {
		c.schedule = schedule
	}
}

// WithSleepFunc overrides the retry sleep, letting tests run without real
// delays.
func WithSleepFunc(sleep SleepFunc) ClientOption {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// WithTimeout sets the per-call HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Blacklight API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) interfaces.BlacklightClient {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		schedule: DefaultRetrySchedule,
		sleep:    defaultSleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do executes one backend call through the retry choke point. HTTP 429/5xx
// and network-level failures consume the delay schedule; any other status is
// returned to the caller with its body for semantic handling. After the
// attempt budget is spent a *TerminalError is returned.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (int, []byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var lastStatus int
	var lastErr error

	for attempt := 0; attempt < len(c.schedule); attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.schedule[attempt-1]); err != nil {
				return 0, nil, err
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return 0, nil, err
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Network-level failure (DNS, reset, timeout): retry.
			lastStatus = 0
			lastErr = err
			if c.logger != nil {
				c.logger.Warn().
					Str("method", method).
					Str("path", path).
					Int("attempt", attempt+1).
					Err(err).
					Msg("Blacklight request failed, will retry")
			}
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastStatus = resp.StatusCode
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("backend returned status %d", resp.StatusCode)
			if c.logger != nil {
				c.logger.Warn().
					Str("method", method).
					Str("path", path).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Blacklight server error, will retry")
			}
			continue
		}

		return resp.StatusCode, data, nil
	}

	return 0, nil, &TerminalError{
		StatusCode: lastStatus,
		URL:        reqURL,
		Cause:      lastErr,
	}
}

// apiError builds an APIError from a non-retryable error response,
// preferring the structured {"error": "..."} body when present.
func apiError(status int, data []byte, endpoint string) *APIError {
	message := string(data)
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			message = body.Error
		} else if body.Message != "" {
			message = body.Message
		}
	}
	return &APIError{
		StatusCode: status,
		Message:    message,
		Endpoint:   endpoint,
	}
}

// NextQueueItem fetches the next role+location queue item.
func (c *Client) NextQueueItem(ctx context.Context) (*models.QueueItem, error) {
	path := "/api/scraper/queue/next-role-location"
	status, data, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var item models.QueueItem
		if err := json.Unmarshal(data, &item); err != nil {
			return nil, fmt.Errorf("failed to decode queue item: %w", err)
		}
		return &item, nil
	case http.StatusNoContent:
		return nil, ErrNoContent
	case http.StatusConflict:
		return nil, ErrConflict
	default:
		return nil, apiError(status, data, path)
	}
}

// CurrentSession queries the backend for an existing active session.
func (c *Client) CurrentSession(ctx context.Context) (*models.ActiveSession, error) {
	path := "/api/scraper/queue/current-session"
	status, data, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, apiError(status, data, path)
	}

	var session models.ActiveSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode current session: %w", err)
	}
	return &session, nil
}

// SubmitJobs submits one platform's jobs (or failure record) for a session.
func (c *Client) SubmitJobs(ctx context.Context, sub models.JobSubmission) (*models.SubmitAck, error) {
	path := "/api/scraper/queue/jobs"
	status, data, err := c.do(ctx, http.MethodPost, path, nil, sub)
	if err != nil {
		return nil, err
	}

	if status != http.StatusAccepted && status != http.StatusOK {
		return nil, apiError(status, data, path)
	}

	var ack models.SubmitAck
	if err := json.Unmarshal(data, &ack); err != nil {
		return nil, fmt.Errorf("failed to decode submit response: %w", err)
	}
	return &ack, nil
}

// CompleteSession marks the session complete.
func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	path := "/api/scraper/queue/complete"
	body := map[string]string{"session_id": sessionID}
	status, data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, apiError(status, data, path)
	}

	var summary models.SessionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode completion summary: %w", err)
	}
	return &summary, nil
}

// FailSession marks the whole session failed.
func (c *Client) FailSession(ctx context.Context, sessionID, errorMessage string) error {
	path := "/api/scraper/queue/fail"
	body := map[string]string{
		"session_id":    sessionID,
		"error_message": errorMessage,
	}
	status, data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return apiError(status, data, path)
	}
	return nil
}

// NextCredential leases the next available credential for a platform.
func (c *Client) NextCredential(ctx context.Context, platform, sessionID string) (*models.CredentialLease, error) {
	path := fmt.Sprintf("/api/scraper-credentials/queue/%s/next", platform)
	query := url.Values{}
	query.Set("session_id", sessionID)

	status, data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var lease models.CredentialLease
		if err := json.Unmarshal(data, &lease); err != nil {
			return nil, fmt.Errorf("failed to decode credential lease: %w", err)
		}
		if lease.Platform == "" {
			lease.Platform = platform
		}
		return &lease, nil
	case http.StatusNoContent:
		return nil, ErrNoContent
	default:
		return nil, apiError(status, data, path)
	}
}

// ReportCredentialSuccess marks a credential available again after a
// successful scrape.
func (c *Client) ReportCredentialSuccess(ctx context.Context, credentialID string) error {
	path := fmt.Sprintf("/api/scraper-credentials/queue/%s/success", credentialID)
	status, data, err := c.do(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return apiError(status, data, path)
	}
	return nil
}

// ReportCredentialFailure reports a credential failure. cooldownMinutes 0
// permanently disables the credential; >0 puts it on timed cooldown.
func (c *Client) ReportCredentialFailure(ctx context.Context, credentialID, errorMessage string, cooldownMinutes int) error {
	path := fmt.Sprintf("/api/scraper-credentials/queue/%s/failure", credentialID)
	body := map[string]interface{}{
		"error_message":    errorMessage,
		"cooldown_minutes": cooldownMinutes,
	}
	status, data, err := c.do(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return apiError(status, data, path)
	}
	return nil
}

// ReleaseCredential returns a credential without penalizing it.
func (c *Client) ReleaseCredential(ctx context.Context, credentialID string) error {
	path := fmt.Sprintf("/api/scraper-credentials/queue/%s/release", credentialID)
	status, data, err := c.do(ctx, http.MethodPost, path, nil, nil)
	if err != nil {
		return err
	}

	if status != http.StatusOK {
		return apiError(status, data, path)
	}
	return nil
}
