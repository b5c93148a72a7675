// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"designforge/internal/models"
)

const requestColumns = `id, title, description, category, target_audience,
	reference_notes, vote_count, status, linked_design_id, created_at`

// RequestStore handles the design request queue. Requests are created
// elsewhere; this store only claims, requeues and reads them. Completion
// happens inside DesignStore.Create so it commits with the design row.
type RequestStore struct {
	db *sql.DB
}

// NewRequestStore creates a new RequestStore with the given database connection.
func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

func scanRequest(scanner interface{ Scan(...any) error }) (*models.DesignRequest, error) {
	var r models.DesignRequest
	err := scanner.Scan(
		&r.ID, &r.Title, &r.Description, &r.Category, &r.TargetAudience,
		&r.ReferenceNotes, &r.VoteCount, &r.Status, &r.LinkedDesignID, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ClaimNext moves the highest-voted, oldest pending request to in_progress
// and returns it. Concurrent claimers never receive the same row: the
// candidate is locked with SKIP LOCKED and the update re-checks the status.
// Returns nil when nothing is pending.
func (s *RequestStore) ClaimNext(ctx context.Context) (*models.DesignRequest, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx, `
		UPDATE design_requests
		SET status = $1
		WHERE id = (
			SELECT id FROM design_requests
			WHERE status = $2
			ORDER BY vote_count DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND status = $2
		RETURNING `+requestColumns,
		models.RequestStatusInProgress, models.RequestStatusPending,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim design request: %w", err)
	}
	return r, nil
}

// Requeue returns an in_progress request to pending. It reports false when
// the request was not in progress (already completed or never claimed).
func (s *RequestStore) Requeue(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE design_requests SET status = $1
		WHERE id = $2 AND status = $3
	`, models.RequestStatusPending, id, models.RequestStatusInProgress)
	if err != nil {
		return false, fmt.Errorf("requeue design request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("requeue design request: %w", err)
	}
	return n > 0, nil
}

// FindByID retrieves a design request by its UUID. Returns nil if not found.
func (s *RequestStore) FindByID(ctx context.Context, id uuid.UUID) (*models.DesignRequest, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM design_requests WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find design request: %w", err)
	}
	return r, nil
}

// CountPending returns how many requests are waiting to be claimed.
func (s *RequestStore) CountPending(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM design_requests WHERE status = $1`,
		models.RequestStatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending requests: %w", err)
	}
	return count, nil
}
