// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DesignStatus represents the publishing state of a generated design.
type DesignStatus string

const (
	DesignStatusPublished DesignStatus = "published"
)

// MaxColors caps the palette stored with a design.
const MaxColors = 6

// Design is a single generated UI component: the model's metadata, the HTML
// source that was rendered, and the public URL of its screenshot.
type Design struct {
	ID             uuid.UUID    `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Features       []string     `json:"features"`
	Usage          string       `json:"usage"`
	Category       string       `json:"category"`
	ImageURL       string       `json:"image_url"`
	ThumbnailURL   *string      `json:"thumbnail_url,omitempty"`
	HTMLCode       string       `json:"html_code"`
	ReactCode      string       `json:"react_code"`
	Colors         []string     `json:"colors"`
	Slug           string       `json:"slug"`
	Status         DesignStatus `json:"status"`
	PostedTelegram bool         `json:"posted_telegram"`
	RecipeKey      string       `json:"prompt"`
	StructureHash  string       `json:"structure_hash"`
	RequestID      *uuid.UUID   `json:"request_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// IsPublished returns true if the design is publicly visible.
func (d *Design) IsPublished() bool {
	return d.Status == DesignStatusPublished
}

// Recipe is the (category, structure, style) triple that seeds one generation.
type Recipe struct {
	Category  string `json:"category"`
	Structure string `json:"structure"`
	Style     string `json:"style"`
}

// Key returns the canonical recipe key: lowercase "structure__style" with
// spaces replaced by underscores. It is stored in the designs.prompt column.
func (r Recipe) Key() string {
	key := strings.ToLower(r.Structure + "__" + r.Style)
	return strings.ReplaceAll(key, " ", "_")
}
