package scrapers

import "fmt"

// ErrorKind classifies a scrape failure for credential disposition.
type ErrorKind string

const (
	// KindInvalidCredentials means the credential itself was rejected
	// (bad password, expired cookies). The credential is disabled.
	KindInvalidCredentials ErrorKind = "invalid_credentials"

	// KindRateLimited means the platform throttled the credential. The
	// credential goes on a timed cooldown.
	KindRateLimited ErrorKind = "rate_limited"

	// KindOther covers everything else.
	KindOther ErrorKind = "other"
)

// ScrapeError is the structured failure a scraper should return so the
// credential retry loop can classify it without matching on message text.
// LoggedIn distinguishes authentication failures from post-login scrape
// failures: a failure after successful login is a scraping problem, not a
// credential problem.
type ScrapeError struct {
	Kind     ErrorKind
	LoggedIn bool
	Message  string
	Cause    error
}

func (e *ScrapeError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Kind)
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

// NewLoginError builds a pre-login scrape error of the given kind.
func NewLoginError(kind ErrorKind, format string, args ...interface{}) *ScrapeError {
	return &ScrapeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewScrapeError builds a post-login scrape error.
func NewScrapeError(format string, args ...interface{}) *ScrapeError {
	return &ScrapeError{
		Kind:     KindOther,
		LoggedIn: true,
		Message:  fmt.Sprintf(format, args...),
	}
}
