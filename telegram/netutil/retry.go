// Package netutil classifies transport errors seen while talking to the
// Telegram API.
package netutil

import (
	"errors"
	"net"
	"net/url"
)

// ShouldRetry reports whether err looks like a transient network failure:
// a timeout, a failed dial, or a temporary condition wrapped by net/http.
// API-level errors (bad request, flood wait) are not retried here.
func ShouldRetry(err error) bool {
	for err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
			return true
		}

		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return true
		}

		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			err = urlErr.Err
			continue
		}

		return false
	}
	return false
}
