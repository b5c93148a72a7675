// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package recipe

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"designforge/internal/logging"
	"designforge/internal/models"
)

// DefaultAttempts is how many draws the sampler makes looking for a recipe
// key that has not been materialized yet.
const DefaultAttempts = 3

// RecipeIndex reports whether a design already exists for a recipe key.
type RecipeIndex interface {
	RecipeKeyExists(ctx context.Context, key string) (bool, error)
}

// SamplerOptions configures a Sampler.
type SamplerOptions struct {
	Attempts int
	Rand     *rand.Rand // nil seeds from the clock
	Logger   *slog.Logger
}

// Sampler draws recipes from a catalog, steering away from recipe keys
// that already have a design.
type Sampler struct {
	catalog  *Catalog
	index    RecipeIndex
	rng      *rand.Rand
	attempts int
	logger   *slog.Logger
}

// NewSampler creates a Sampler. index may be nil, in which case every draw
// is accepted.
func NewSampler(catalog *Catalog, index RecipeIndex, opts SamplerOptions) *Sampler {
	if opts.Attempts < 1 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Sampler{
		catalog:  catalog,
		index:    index,
		rng:      opts.Rand,
		attempts: opts.Attempts,
		logger:   opts.Logger,
	}
}

// Sample returns a recipe. A non-empty categoryHint forces the category
// (matched case-insensitively against the catalog, used verbatim when it
// matches nothing). When every attempt lands on an existing recipe key the
// last draw is returned anyway; structural novelty is checked later.
func (s *Sampler) Sample(ctx context.Context, categoryHint string) models.Recipe {
	var r models.Recipe
	for attempt := 1; attempt <= s.attempts; attempt++ {
		r = s.draw(categoryHint)
		if s.index == nil {
			return r
		}

		exists, err := s.index.RecipeKeyExists(ctx, r.Key())
		if err != nil {
			s.logger.Warn("recipe lookup failed, keeping draw", "key", r.Key(), "error", err)
			return r
		}
		if !exists {
			return r
		}
		s.logger.Debug("recipe already materialized, resampling", "key", r.Key(), "attempt", attempt)
	}

	s.logger.Info("no fresh recipe found, continuing with last draw", "key", r.Key(), "attempts", s.attempts)
	return r
}

func (s *Sampler) draw(categoryHint string) models.Recipe {
	style := pick(s.rng, s.catalog.Styles)
	structure := pick(s.rng, s.catalog.structuresFor(style))

	category := s.catalog.MatchCategory(categoryHint)
	if category == "" {
		category = pick(s.rng, s.catalog.Categories)
	}

	return models.Recipe{Category: category, Structure: structure, Style: style}
}

func pick(rng *rand.Rand, items []string) string {
	return items[rng.IntN(len(items))]
}
