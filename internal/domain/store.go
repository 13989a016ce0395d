package domain

import "time"

// Store represents a registered store on the platform. AverageRating and
// TotalRatings are derived from the store's ratings and are recomputed by the
// persistence layer on every rating write; they are never set independently.
type Store struct {
	ID            string
	Name          string
	Email         string
	Address       string
	OwnerID       string
	AverageRating float64
	TotalRatings  int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
