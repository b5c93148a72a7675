// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package queue binds user design requests to pipeline iterations. A request
// is claimed at the start of an iteration, completed together with the design
// insert, and released back to pending when the iteration fails before that.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"designforge/internal/logging"
	"designforge/internal/models"
)

// ErrEmpty is returned by Claim in ModeOnly when no request is pending.
var ErrEmpty = errors.New("request queue empty")

// Mode selects how the pipeline uses the request queue.
type Mode int

const (
	// ModeOff never claims requests; every iteration samples a random recipe.
	ModeOff Mode = iota
	// ModePrefer claims a request when one is pending and falls back to
	// random sampling otherwise.
	ModePrefer
	// ModeOnly claims a request every iteration and stops the batch when
	// the queue is empty.
	ModeOnly
)

func (m Mode) String() string {
	switch m {
	case ModePrefer:
		return "prefer"
	case ModeOnly:
		return "only"
	default:
		return "off"
	}
}

// Store is the persistence the queue needs. *store.RequestStore satisfies it.
type Store interface {
	ClaimNext(ctx context.Context) (*models.DesignRequest, error)
	Requeue(ctx context.Context, id uuid.UUID) (bool, error)
}

// Queue claims and releases design requests.
type Queue struct {
	store  Store
	mode   Mode
	logger *slog.Logger
}

// New creates a Queue. A nil logger discards output.
func New(store Store, mode Mode, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Queue{store: store, mode: mode, logger: logger}
}

// Mode returns the configured queue mode.
func (q *Queue) Mode() Mode {
	return q.mode
}

// Claim takes the next pending request. It returns nil when the queue is off
// or (in ModePrefer) empty, and ErrEmpty when ModeOnly finds nothing.
func (q *Queue) Claim(ctx context.Context) (*models.DesignRequest, error) {
	if q.mode == ModeOff {
		return nil, nil
	}
	req, err := q.store.ClaimNext(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim request: %w", err)
	}
	if req == nil {
		if q.mode == ModeOnly {
			return nil, ErrEmpty
		}
		q.logger.Debug("no pending design requests, sampling randomly")
		return nil, nil
	}
	q.logger.Info("claimed design request",
		"request_id", req.ID,
		"title", req.Title,
		"votes", req.VoteCount,
	)
	return req, nil
}

// Attach marks d as produced for req so the design insert also completes
// the request. A nil req leaves d untouched.
func (q *Queue) Attach(d *models.Design, req *models.DesignRequest) {
	if req == nil {
		return
	}
	id := req.ID
	d.RequestID = &id
}

// Release returns a claimed request to pending after a failed iteration.
// A nil req is a no-op.
func (q *Queue) Release(ctx context.Context, req *models.DesignRequest) error {
	if req == nil {
		return nil
	}
	ok, err := q.store.Requeue(ctx, req.ID)
	if err != nil {
		return fmt.Errorf("release request %s: %w", req.ID, err)
	}
	if !ok {
		q.logger.Warn("design request was not in progress, nothing to release", "request_id", req.ID)
		return nil
	}
	q.logger.Info("design request returned to queue", "request_id", req.ID)
	return nil
}
