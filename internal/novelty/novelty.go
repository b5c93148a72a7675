// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package novelty rejects designs whose layout skeleton has been seen
// before. The fingerprint ignores colors, so a palette swap of an existing
// design counts as a duplicate.
package novelty

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"designforge/internal/logging"
	"designforge/internal/models"
)

// ErrDuplicate is returned by Check for a structure already in the set.
var ErrDuplicate = errors.New("novelty: structural duplicate")

// SeedPageSize is how many stored designs are hashed per page while seeding.
const SeedPageSize = 500

var (
	hexColor = regexp.MustCompile(`#(?:[0-9a-fA-F]{6}|[0-9a-fA-F]{3})\b`)
	layoutCSS = regexp.MustCompile(`grid-template-columns:[^;"']*|flex-direction:[^;"']*|display:\s*(?:grid|flex)`)
)

// Fingerprint returns the MD5 hex digest of the structural projection of
// doc: every opening tag name in document order followed by every layout
// declaration, with hex colors erased first.
func Fingerprint(doc string) string {
	erased := hexColor.ReplaceAllString(doc, "COLOR")

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(erased))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			b.Write(name)
		}
	}

	for _, frag := range layoutCSS.FindAllString(erased, -1) {
		b.WriteString(frag)
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Source pages through stored designs. Only ID, HTMLCode and StructureHash
// need to be populated.
type Source interface {
	PageStructures(ctx context.Context, offset, limit int) ([]models.Design, error)
}

// Guard is the process-wide set of accepted structure fingerprints.
// All methods are safe for concurrent use.
type Guard struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	logger *slog.Logger
}

// NewGuard creates an empty guard.
func NewGuard(logger *slog.Logger) *Guard {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Guard{seen: make(map[string]struct{}), logger: logger}
}

// Check fingerprints doc. A known fingerprint returns ErrDuplicate; a new
// one is added to the set. The fingerprint is returned either way.
func (g *Guard) Check(doc string) (string, error) {
	hash := Fingerprint(doc)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[hash]; ok {
		return hash, ErrDuplicate
	}
	g.seen[hash] = struct{}{}
	return hash, nil
}

// Forget removes a fingerprint, for designs that were accepted but never
// persisted.
func (g *Guard) Forget(hash string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, hash)
}

// Len returns the number of known fingerprints.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

// Seed loads the fingerprints of every stored design. Rows that carry a
// stored structure hash are trusted; older rows are hashed from their HTML.
func (g *Guard) Seed(ctx context.Context, src Source) error {
	var loaded int
	for offset := 0; ; offset += SeedPageSize {
		page, err := src.PageStructures(ctx, offset, SeedPageSize)
		if err != nil {
			return fmt.Errorf("seed novelty set: %w", err)
		}

		g.mu.Lock()
		for _, d := range page {
			hash := d.StructureHash
			if hash == "" {
				hash = Fingerprint(d.HTMLCode)
			}
			g.seen[hash] = struct{}{}
		}
		g.mu.Unlock()

		loaded += len(page)
		if len(page) < SeedPageSize {
			break
		}
	}

	g.logger.Info("novelty set seeded", "designs", loaded, "fingerprints", g.Len())
	return nil
}
