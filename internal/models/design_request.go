// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus tracks a user request through the generation queue.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
)

// DesignRequest is a user-submitted idea waiting to be turned into a design.
// Rows are created by the public site; the generator only claims, completes
// and requeues them.
type DesignRequest struct {
	ID             uuid.UUID     `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Category       *string       `json:"category,omitempty"`
	TargetAudience *string       `json:"target_audience,omitempty"`
	ReferenceNotes *string       `json:"reference_notes,omitempty"`
	VoteCount      int           `json:"vote_count"`
	Status         RequestStatus `json:"status"`
	LinkedDesignID *uuid.UUID    `json:"linked_design_id,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// CategoryHint returns the requested category, or "" when none was given.
func (r *DesignRequest) CategoryHint() string {
	if r == nil || r.Category == nil {
		return ""
	}
	return *r.Category
}
