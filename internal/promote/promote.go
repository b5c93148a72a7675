// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package promote announces freshly stored designs outside the database:
// a Telegram channel post and a signed webhook for completed user requests.
// Promotion runs after the design row is committed, so a failure here never
// undoes the design.
package promote

import (
	"context"
	"strings"

	"designforge/internal/models"
)

// Promoter publishes a stored design somewhere. png is the full screenshot.
type Promoter interface {
	Name() string
	Promote(ctx context.Context, d *models.Design, png []byte) error
}

// DesignURL returns the public page of a design on the site, or "" when no
// site URL is configured.
func DesignURL(siteURL, slug string) string {
	siteURL = strings.TrimRight(siteURL, "/")
	if siteURL == "" || slug == "" {
		return ""
	}
	return siteURL + "/designs/" + slug
}
