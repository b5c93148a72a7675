// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package recipe picks what to generate next and turns it into the model
// instruction. A recipe is a (category, structure, style) triple drawn from
// a Catalog; styles constrain which structures suit them via an affinity map.
package recipe

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog holds the vocabularies a recipe is drawn from.
type Catalog struct {
	Categories []string `yaml:"categories"`
	Structures []string `yaml:"structures"`
	Styles     []string `yaml:"styles"`

	// Affinity maps a style to the structures that suit it. Styles without
	// an entry may be paired with any structure.
	Affinity map[string][]string `yaml:"affinity"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []string{
			"Landing Page", "Pricing", "Dashboard", "Authentication", "E-commerce",
			"Portfolio", "Blog", "SaaS", "Onboarding", "Settings", "Checkout",
			"Testimonials", "Team", "FAQ", "Contact", "Footer", "Navigation",
			"Hero Section", "Feature Showcase", "Analytics",
		},
		Structures: []string{
			"Bento Grid", "Split Screen", "Three Column Cards", "Sidebar Layout",
			"Centered Card", "Masonry Gallery", "Timeline", "Tabbed Panel",
			"Comparison Table", "Stacked Sections", "Kanban Board", "Data Table",
			"Hero With Media", "Carousel Strip", "Accordion List", "Stat Tiles",
			"Asymmetric Grid", "Floating Panels", "Step Wizard", "Mega Menu",
		},
		Styles: []string{
			"Glassmorphism", "Neo Brutalism", "Minimalist", "Dark Mode Neon",
			"Soft Pastel", "Corporate Clean", "Retro 80s", "Editorial Serif",
			"Claymorphism", "Gradient Mesh", "Monochrome", "Skeuomorphic",
			"Swiss Typography", "Cyberpunk", "Organic Earthy", "Material Elevated",
		},
		Affinity: map[string][]string{
			"Glassmorphism":    {"Floating Panels", "Centered Card", "Bento Grid", "Hero With Media", "Stat Tiles"},
			"Neo Brutalism":    {"Asymmetric Grid", "Three Column Cards", "Stacked Sections", "Comparison Table", "Bento Grid"},
			"Minimalist":       {"Centered Card", "Split Screen", "Stacked Sections", "Accordion List", "Timeline"},
			"Dark Mode Neon":   {"Stat Tiles", "Data Table", "Sidebar Layout", "Bento Grid", "Kanban Board"},
			"Editorial Serif":  {"Masonry Gallery", "Stacked Sections", "Split Screen", "Timeline"},
			"Corporate Clean":  {"Comparison Table", "Data Table", "Sidebar Layout", "Three Column Cards", "Step Wizard", "Mega Menu"},
			"Retro 80s":        {"Hero With Media", "Carousel Strip", "Asymmetric Grid", "Three Column Cards"},
			"Swiss Typography": {"Asymmetric Grid", "Split Screen", "Stacked Sections", "Timeline"},
			"Claymorphism":     {"Centered Card", "Floating Panels", "Step Wizard", "Stat Tiles"},
			"Cyberpunk":        {"Data Table", "Stat Tiles", "Tabbed Panel", "Kanban Board"},
		},
	}
}

// LoadCatalog reads a YAML catalog from path. An empty path returns the
// default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipe catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse recipe catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every list is non-empty and that the affinity map
// only refers to known styles and structures.
func (c *Catalog) Validate() error {
	switch {
	case len(c.Categories) == 0:
		return fmt.Errorf("recipe catalog: no categories")
	case len(c.Structures) == 0:
		return fmt.Errorf("recipe catalog: no structures")
	case len(c.Styles) == 0:
		return fmt.Errorf("recipe catalog: no styles")
	}

	structures := make(map[string]bool, len(c.Structures))
	for _, s := range c.Structures {
		structures[s] = true
	}
	styles := make(map[string]bool, len(c.Styles))
	for _, s := range c.Styles {
		styles[s] = true
	}

	for style, compatible := range c.Affinity {
		if !styles[style] {
			return fmt.Errorf("recipe catalog: affinity for unknown style %q", style)
		}
		for _, s := range compatible {
			if !structures[s] {
				return fmt.Errorf("recipe catalog: style %q lists unknown structure %q", style, s)
			}
		}
	}
	return nil
}

// MatchCategory returns the catalog spelling of name when it matches a
// category case-insensitively, and name itself (trimmed) otherwise.
func (c *Catalog) MatchCategory(name string) string {
	name = strings.TrimSpace(name)
	for _, cat := range c.Categories {
		if strings.EqualFold(cat, name) {
			return cat
		}
	}
	return name
}

// structuresFor returns the structures compatible with style.
func (c *Catalog) structuresFor(style string) []string {
	if s := c.Affinity[style]; len(s) > 0 {
		return s
	}
	return c.Structures
}
