package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/condor-estates/condorbot/telegram/netutil"
)

const (
	httpDialTimeout     = 5 * time.Second
	httpTLSHandshake    = 5 * time.Second
	httpIdleConnExpiry  = 30 * time.Second
	httpResponseTimeout = 5 * time.Second
	httpClientTimeout   = 30 * time.Second
	httpKeepAlive       = 30 * time.Second

	httpRetryAttempts = 3
	httpRetryBackoff  = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls:
// bounded dial/TLS/response timeouts and transparent retry of transient
// network failures.
func BuildHTTPClient() *http.Client {
	dialer := &net.Dialer{Timeout: httpDialTimeout, KeepAlive: httpKeepAlive}
	return &http.Client{
		Timeout: httpClientTimeout,
		Transport: &retryTransport{
			base: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           dialer.DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       httpIdleConnExpiry,
				TLSHandshakeTimeout:   httpTLSHandshake,
				ResponseHeaderTimeout: httpResponseTimeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
			attempts: httpRetryAttempts + 1,
			backoff:  httpRetryBackoff,
		},
	}
}

// retryTransport retries transient failures with linear backoff. Requests
// whose body cannot be replayed are only sent once.
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	backoff  time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	var lastErr error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		attemptReq, err := t.prepare(req, attempt)
		if err != nil {
			return nil, err
		}
		if attemptReq == nil {
			break
		}

		resp, err := base.RoundTrip(attemptReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == t.attempts {
			break
		}

		if err := sleepCtx(req, t.backoff*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// prepare returns the request to send on the given attempt, cloning and
// rewinding the body for retries. A nil request means the body cannot be
// replayed and retrying must stop.
func (t *retryTransport) prepare(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 {
		return req, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return nil, nil
	}
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}

func sleepCtx(req *http.Request, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
