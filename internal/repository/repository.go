package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storepulse/storepulse/internal/storage"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrDuplicateEmail indicates a store creation reused an existing email.
var ErrDuplicateEmail = errors.New("repository: email already registered")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Stores  *StoresRepository
	Ratings *RatingsRepository
}

// New constructs a Repository backed by the provided storage.
func New(st *storage.Storage) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Stores:  &StoresRepository{pool: pool},
		Ratings: &RatingsRepository{pool: pool},
	}
}
