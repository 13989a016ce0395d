// Package service holds the rating-aggregation and store-catalog core,
// independent of the HTTP layer so it can be exercised directly in tests.
package service

import (
	"context"
	"strings"

	"github.com/storepulse/storepulse/internal/domain"
	"github.com/storepulse/storepulse/internal/repository"
)

// StoreService owns store registration, listing, and per-store rating reads.
type StoreService struct {
	repo *repository.Repository
}

// NewStoreService constructs a StoreService over the given repositories.
func NewStoreService(repo *repository.Repository) *StoreService {
	return &StoreService{repo: repo}
}

// AddStoreParams bundles the fields required to register a store.
type AddStoreParams struct {
	Name    string
	Email   string
	Address string
	OwnerID string
}

// AddStore validates every field before any write and registers the store
// with zero aggregates. All failed fields are reported together. Whether
// OwnerID names an actual OWNER is the identity collaborator's concern and is
// not checked here.
func (s *StoreService) AddStore(ctx context.Context, params AddStoreParams) (domain.Store, error) {
	var errs domain.ValidationErrors
	if fe := domain.ValidateStoreName(params.Name); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := domain.ValidateEmail(params.Email); fe != nil {
		errs = append(errs, *fe)
	}
	if fe := domain.ValidateAddress(params.Address); fe != nil {
		errs = append(errs, *fe)
	}
	if strings.TrimSpace(params.OwnerID) == "" {
		errs = append(errs, domain.FieldError{Field: "ownerId", Message: "owner ID is required"})
	}
	if len(errs) > 0 {
		return domain.Store{}, errs
	}

	return s.repo.Stores.Create(ctx, repository.StoreCreateParams{
		Name:    params.Name,
		Email:   params.Email,
		Address: params.Address,
		OwnerID: strings.TrimSpace(params.OwnerID),
	})
}

// ListStores returns stores filtered by a case-insensitive substring match
// against name/address/email and ordered per the caller's sort selection.
func (s *StoreService) ListStores(ctx context.Context, filters repository.StoreListFilters) ([]domain.Store, error) {
	return s.repo.Stores.List(ctx, filters)
}

// GetStore fetches one store by ID.
func (s *StoreService) GetStore(ctx context.Context, storeID string) (domain.Store, error) {
	return s.repo.Stores.GetByID(ctx, storeID)
}

// ListRatings returns a store's ratings newest first. An unknown store yields
// repository.ErrNotFound rather than an empty list.
func (s *StoreService) ListRatings(ctx context.Context, storeID string) ([]domain.Rating, error) {
	if _, err := s.repo.Stores.GetByID(ctx, storeID); err != nil {
		return nil, err
	}
	return s.repo.Ratings.ListForStore(ctx, storeID)
}
