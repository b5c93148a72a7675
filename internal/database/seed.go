package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// devRequests are sample queue entries so a fresh development database has
// something to claim with --use-requests.
var devRequests = []struct {
	title, description, category, audience string
	votes                                  int
}{
	{"Pricing Page A/B", "Three-tier pricing table with a highlighted recommended plan and a monthly/yearly toggle.", "SaaS", "Startup founders", 12},
	{"Podcast Episode Card", "Compact card showing cover art, episode title, duration and a play button.", "Media", "Podcast listeners", 5},
	{"Onboarding Checklist", "Progress checklist widget for the first week of a new user's account.", "Productivity", "New users", 3},
}

// Seed populates the database with initial development data.
// It inserts a few pending design requests when the queue table is empty.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM design_requests").Scan(&count); err != nil {
		return fmt.Errorf("seed check requests: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	for _, r := range devRequests {
		_, err := db.Exec(`
			INSERT INTO design_requests (title, description, category, target_audience, vote_count)
			VALUES ($1, $2, $3, $4, $5)
		`, r.title, r.description, r.category, r.audience, r.votes)
		if err != nil {
			return fmt.Errorf("seed insert request %q: %w", r.title, err)
		}
	}

	slog.Info("database seeded with sample design requests", "count", len(devRequests))
	return nil
}
