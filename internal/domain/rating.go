package domain

import "time"

// Rating is a single user's rating of a store. At most one rating exists per
// (UserID, StoreID) pair; re-submitting updates Stars in place and leaves
// CreatedAt untouched.
type Rating struct {
	ID        string
	UserID    string
	StoreID   string
	Stars     int
	CreatedAt time.Time
	UpdatedAt time.Time
}
