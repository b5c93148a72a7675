// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrModel marks a model call that failed for good: a non-retryable
	// provider error, or a transient one that outlived every retry.
	ErrModel = errors.New("ai: model call failed")

	// ErrQuotaExceeded marks a provider-side quota rejection (HTTP 429)
	// that could not be waited out.
	ErrQuotaExceeded = errors.New("ai: provider quota exceeded")
)

// maxErrorBody caps how much of a provider error body is kept for logs.
const maxErrorBody = 512

// APIError is a non-2xx reply from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	RetryAfter time.Duration // zero when the provider sent no hint
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// newAPIError builds an APIError from a raw HTTP response.
func newAPIError(provider string, resp *http.Response, body []byte) *APIError {
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Body:       truncate(string(body), maxErrorBody),
	}
}

// parseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. Unparseable or past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
