// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"designforge/internal/models"
	"designforge/internal/slug"
)

// ErrInsert is returned when a design row (and the request completion that
// rides along with it) could not be written.
var ErrInsert = errors.New("design insert failed")

// slugAttempts bounds how often Create re-probes after losing a slug race.
const slugAttempts = 3

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// designColumns is the column list shared by every design SELECT.
const designColumns = `id, title, description, features, usage, category,
	image_url, thumbnail_url, html_code, react_code, colors, slug, status,
	posted_telegram, prompt, structure_hash, request_id, created_at`

// DesignStore handles all design-related database operations.
type DesignStore struct {
	db *sql.DB
}

// NewDesignStore creates a new DesignStore with the given database connection.
func NewDesignStore(db *sql.DB) *DesignStore {
	return &DesignStore{db: db}
}

// scanDesign scans a single design row from a *sql.Row or *sql.Rows.
func scanDesign(scanner interface{ Scan(...any) error }) (*models.Design, error) {
	var d models.Design
	var features, colors pq.StringArray
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Description, &features, &d.Usage, &d.Category,
		&d.ImageURL, &d.ThumbnailURL, &d.HTMLCode, &d.ReactCode, &colors,
		&d.Slug, &d.Status, &d.PostedTelegram, &d.RecipeKey, &d.StructureHash,
		&d.RequestID, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Features = nonNil(features)
	d.Colors = nonNil(colors)
	return &d, nil
}

// nonNil keeps text[] columns as empty lists instead of nil slices.
func nonNil(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}

// Create inserts a design with a unique slug derived from its title (or from
// d.Slug when already set). When d.RequestID is set the request is marked
// completed and linked to the new row in the same transaction. A slug that
// becomes taken between probe and insert is re-probed up to three times.
// On success d is updated with its ID, final slug and creation time.
func (s *DesignStore) Create(ctx context.Context, d *models.Design) (*models.Design, error) {
	base := d.Slug
	if base == "" {
		base = slug.Generate(d.Title)
	}
	if d.Status == "" {
		d.Status = models.DesignStatusPublished
	}

	var lastErr error
	for attempt := 1; attempt <= slugAttempts; attempt++ {
		err := s.create(ctx, d, base)
		if err == nil {
			return d, nil
		}
		if !isSlugConflict(err) {
			return nil, fmt.Errorf("%w: %w", ErrInsert, err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: slug %q still taken after %d attempts: %w", ErrInsert, base, slugAttempts, lastErr)
}

func (s *DesignStore) create(ctx context.Context, d *models.Design, base string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var probeErr error
	candidate := slug.Unique(base, func(candidate string) bool {
		if probeErr != nil {
			return false
		}
		var taken bool
		taken, probeErr = slugTaken(ctx, tx, candidate)
		return taken
	})
	if probeErr != nil {
		return fmt.Errorf("probe slug: %w", probeErr)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO designs (title, description, features, usage, category,
		                     image_url, thumbnail_url, html_code, react_code,
		                     colors, slug, status, prompt, structure_hash, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`, d.Title, d.Description, pq.StringArray(nonNil(d.Features)), d.Usage, d.Category,
		d.ImageURL, d.ThumbnailURL, d.HTMLCode, d.ReactCode,
		pq.StringArray(nonNil(d.Colors)), candidate, d.Status, d.RecipeKey,
		d.StructureHash, d.RequestID,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}

	if d.RequestID != nil {
		res, err := tx.ExecContext(ctx, `
			UPDATE design_requests
			SET status = $1, linked_design_id = $2
			WHERE id = $3 AND status <> $1
		`, models.RequestStatusCompleted, d.ID, *d.RequestID)
		if err != nil {
			return fmt.Errorf("complete request: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("complete request %s: not found or already completed", *d.RequestID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit design: %w", err)
	}
	d.Slug = candidate
	d.Features = nonNil(d.Features)
	d.Colors = nonNil(d.Colors)
	return nil
}

// isSlugConflict reports whether err is a unique violation on the slug index.
func isSlugConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == "idx_designs_slug"
}

// FindByID retrieves a design by its UUID. Returns nil if not found.
func (s *DesignStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Design, error) {
	d, err := scanDesign(s.db.QueryRowContext(ctx,
		`SELECT `+designColumns+` FROM designs WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find design by id: %w", err)
	}
	return d, nil
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// slugTaken reports whether any design visible to q already uses slug.
func slugTaken(ctx context.Context, q rowQuerier, slug string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM designs WHERE slug = $1)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// RecipeKeyExists reports whether a design was already generated from the
// given recipe key.
func (s *DesignStore) RecipeKeyExists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM designs WHERE prompt = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recipe key: %w", err)
	}
	return exists, nil
}

// PageStructures returns one page of designs carrying only the fields the
// novelty guard needs (id, html_code, structure_hash), oldest first.
func (s *DesignStore) PageStructures(ctx context.Context, offset, limit int) ([]models.Design, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, html_code, structure_hash
		FROM designs
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("page design structures: %w", err)
	}
	defer rows.Close()

	var items []models.Design
	for rows.Next() {
		var d models.Design
		if err := rows.Scan(&d.ID, &d.HTMLCode, &d.StructureHash); err != nil {
			return nil, fmt.Errorf("scan design structure: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// MarkPostedTelegram sets the Telegram promotion flag on a design.
func (s *DesignStore) MarkPostedTelegram(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE designs SET posted_telegram = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark design posted: %w", err)
	}
	return nil
}

// Count returns the total number of stored designs.
func (s *DesignStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM designs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count designs: %w", err)
	}
	return count, nil
}
