package service

import (
	"context"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/repository"
	"github.com/storepulse/storepulse/internal/session"
)

// RatingService owns rating submission. Every write is attributed to a
// session; anonymous writes are rejected before touching storage.
type RatingService struct {
	repo *repository.Repository
}

// NewRatingService constructs a RatingService over the given repositories.
func NewRatingService(repo *repository.Repository) *RatingService {
	return &RatingService{repo: repo}
}

// SubmitRating creates or updates the caller's rating for a store and returns
// the store with post-mutation aggregates. Validation runs before any
// mutation: a nil session fails with domain.ErrInvalidCredentials, stars
// outside 1..5 with domain.ErrInvalidRatingValue, and an unknown store with
// repository.ErrNotFound. A repeat submission updates the existing rating in
// place, keeping its CreatedAt, regardless of which entry point the caller
// used.
func (s *RatingService) SubmitRating(ctx context.Context, sess *session.Session, storeID string, stars int) (domain.Store, domain.Rating, bool, error) {
	if sess == nil {
		return domain.Store{}, domain.Rating{}, false, domain.ErrInvalidCredentials
	}
	if err := domain.ValidateStars(stars); err != nil {
		return domain.Store{}, domain.Rating{}, false, err
	}

	rating, store, created, err := s.repo.Ratings.Upsert(ctx, repository.RatingUpsertParams{
		StoreID: storeID,
		UserID:  sess.User.ID,
		Stars:   stars,
	})
	if err != nil {
		return domain.Store{}, domain.Rating{}, false, err
	}
	return store, rating, created, nil
}

// GetRating looks up the caller's own rating for a store by the
// (userId, storeId) composite key.
func (s *RatingService) GetRating(ctx context.Context, sess *session.Session, storeID string) (domain.Rating, error) {
	if sess == nil {
		return domain.Rating{}, domain.ErrInvalidCredentials
	}
	return s.repo.Ratings.Get(ctx, storeID, sess.User.ID)
}
