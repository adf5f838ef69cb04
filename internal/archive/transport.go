package archive

import (
	"net/http"

	"golang.org/x/time/rate"
)

// pacedTransport throttles outbound requests through a shared token bucket.
// The budget is process-wide: every session and every worker draws from the
// same limiter.
type pacedTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *pacedTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(r.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(r)
}

// headerTransport sets a header on every request.
type headerTransport struct {
	key, value string
	next       http.RoundTripper
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r.Header.Set(t.key, t.value)
	return t.next.RoundTrip(r)
}
