package shared

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedTransport delays outgoing requests to stay under a requests-per-second budget.
//
// Requests are never repeated; a cancelled context fails the request instead of waiting.
type RateLimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewRateLimitedTransport wraps base (or [http.DefaultTransport]) with a limiter of rps requests per second.
//
// A non-positive rps disables limiting.
func NewRateLimitedTransport(base http.RoundTripper, rps float64) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &RateLimitedTransport{Base: base, Limiter: rate.NewLimiter(limit, 1)}
}

// RoundTrip implements [http.RoundTripper].
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.Base.RoundTrip(req)
}

// NewHTTPClient returns an [http.Client] using a [RateLimitedTransport] and the given timeout.
func NewHTTPClient(rps float64, timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: NewRateLimitedTransport(nil, rps),
		Timeout:   timeout,
	}
}
