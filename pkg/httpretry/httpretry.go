// Package httpretry wraps outbound HTTP calls with connect/read timeouts and
// bounded exponential-backoff retry for transient transport failures. A
// response carrying any status code is never retried here; only failures to
// obtain a response at all (connection refused/reset, timeout) are.
package httpretry

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const (
	ConnectTimeout = 30 * time.Second
	ReadTimeout    = 60 * time.Second
)

// NetworkError is returned once all attempts are exhausted. It wraps the last
// transport error observed.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error after retries: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// Timeout reports whether the underlying failure was a timeout.
func (e *NetworkError) Timeout() bool {
	var ne net.Error
	if errors.As(e.Cause, &ne) {
		return ne.Timeout()
	}
	return false
}

// Transport retries transport-level failures with exponential backoff. The
// delay before retry attempt n is Backoff doubled n-1 times (1s, 2s, 4s...
// for Backoff=1s). It holds no per-call state and is safe for concurrent use.
type Transport struct {
	Base        http.RoundTripper
	MaxAttempts int
	Backoff     time.Duration
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	attempts := t.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := t.Backoff
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if !t.rewind(req) {
				break
			}
			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				return nil, &NetworkError{Cause: req.Context().Err()}
			case <-timer.C:
			}
			delay *= 2
		}

		resp, err := base.RoundTrip(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	return nil, &NetworkError{Cause: lastErr}
}

// rewind restores the request body for a retry. A consumed body without
// GetBody cannot be replayed, so the last error is surfaced instead.
func (t *Transport) rewind(req *http.Request) bool {
	if req.Body == nil || req.Body == http.NoBody {
		return true
	}
	if req.GetBody == nil {
		return false
	}
	body, err := req.GetBody()
	if err != nil {
		return false
	}
	req.Body = body
	return true
}

// New returns a client that retries transient failures up to maxAttempts with
// backoff as the initial delay.
func New(maxAttempts int, backoff time.Duration) *http.Client {
	return &http.Client{
		Timeout: ReadTimeout,
		Transport: &Transport{
			Base:        baseTransport(),
			MaxAttempts: maxAttempts,
			Backoff:     backoff,
		},
	}
}

// NewOneShot returns a client with the same timeouts and exactly one attempt,
// for calls that must never be duplicated. Transport failures still surface
// as NetworkError.
func NewOneShot() *http.Client {
	return New(1, 0)
}

func baseTransport() http.RoundTripper {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
