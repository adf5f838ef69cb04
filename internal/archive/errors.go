package archive

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors the engine classifies into retry/terminal outcomes.
var (
	ErrRateLimited        = errors.New("rate limited by the archive")
	ErrAuthRequired       = errors.New("work is only accessible to logged-in users")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrNotFound           = errors.New("not found")
)

// RateLimitError is returned for HTTP 429 responses and for degenerate pages
// the archive serves while silently throttling. It carries the server's
// Retry-After hint when one was present.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by the archive, retry after %s", e.RetryAfter)
	}
	return ErrRateLimited.Error()
}

// Is lets errors.Is(err, ErrRateLimited) match regardless of the hint.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// statusError reports an unexpected HTTP status code.
type statusError int

func (s statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", int(s), http.StatusText(int(s)))
}
