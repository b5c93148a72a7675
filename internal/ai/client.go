// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"designforge/internal/logging"
)

// Generator is the part of a Registry the Client needs.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Limiter paces model calls. *ratelimit.Limiter satisfies it.
type Limiter interface {
	Acquire(ctx context.Context) error
	Pause(ctx context.Context, d time.Duration) error
}

// DefaultBackoff is the pause between retries of a transient failure.
const DefaultBackoff = 2 * time.Second

// ClientOptions configures a Client.
type ClientOptions struct {
	MaxAttempts int           // total attempts per call, at least 1
	Backoff     time.Duration // constant pause between attempts
	Logger      *slog.Logger
}

// Client turns a prompt into a parsed JSON object. Every attempt passes
// through the shared Limiter; transient failures are retried with a
// constant back-off.
type Client struct {
	gen         Generator
	limiter     Limiter
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewClient creates a Client over gen, paced by limiter.
func NewClient(gen Generator, limiter Limiter, opts ClientOptions) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Client{
		gen:         gen,
		limiter:     limiter,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		logger:      opts.Logger,
	}
}

// GenerateJSON asks the model for a single JSON object.
//
// Errors: the limiter's quota error is returned as is; a 429 that cannot be
// waited out wraps ErrQuotaExceeded; any other failure wraps ErrModel. A
// cancelled ctx returns the context error.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, prompt string) (json.RawMessage, error) {
	var (
		out     json.RawMessage
		attempt int
	)

	b := retry.WithMaxRetries(uint64(c.maxAttempts-1), retry.NewConstant(c.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++

		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}

		reply, err := c.gen.Generate(ctx, systemPrompt, prompt)
		if err != nil {
			return c.classify(ctx, attempt, err)
		}

		obj, err := ParseObject(reply)
		if err != nil {
			c.logger.Warn("model reply rejected", "attempt", attempt, "error", err, "bytes", len(reply))
			return retry.RetryableError(fmt.Errorf("%w: %w", ErrModel, err))
		}

		out = obj
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classify decides whether a provider failure is worth another attempt.
func (c *Client) classify(ctx context.Context, attempt int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		c.logger.Warn("model call failed", "attempt", attempt, "error", err)
		return retry.RetryableError(fmt.Errorf("%w: %w", ErrModel, err))
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		if apiErr.RetryAfter <= 0 || attempt >= c.maxAttempts {
			return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
		}
		c.logger.Warn("provider rate limited", "attempt", attempt, "retry_after", apiErr.RetryAfter.String())
		if err := c.limiter.Pause(ctx, apiErr.RetryAfter); err != nil {
			return err
		}
		return retry.RetryableError(fmt.Errorf("%w: %w", ErrModel, err))

	case apiErr.StatusCode >= 500:
		c.logger.Warn("provider error", "attempt", attempt, "status", apiErr.StatusCode)
		return retry.RetryableError(fmt.Errorf("%w: %w", ErrModel, err))

	default:
		return fmt.Errorf("%w: %w", ErrModel, err)
	}
}
