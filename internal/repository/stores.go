package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storepulse/storepulse/internal/domain"
)

// StoresRepository provides persistence helpers for store entities.
type StoresRepository struct {
	pool *pgxpool.Pool
}

const storeColumns = `
    id,
    name,
    email,
    address,
    owner_id,
    average_rating,
    total_ratings,
    created_at,
    updated_at
`

// StoreCreateParams bundles the fields required to register a store.
type StoreCreateParams struct {
	Name    string
	Email   string
	Address string
	OwnerID string
}

// Sort fields accepted by List.
const (
	SortByName    = "name"
	SortByEmail   = "email"
	SortByAddress = "address"
	SortByRating  = "rating"
)

// StoreListFilters encapsulates search and ordering options. Query matches
// name, address, and email case-insensitively. With no SortBy the list comes
// back in insertion order.
type StoreListFilters struct {
	Query   string
	SortBy  string
	SortDir string // "asc" or "desc", default asc
}

// Create inserts a new store row with zero aggregates and returns the stored
// entity. Reusing a registered email yields ErrDuplicateEmail.
func (r *StoresRepository) Create(ctx context.Context, params StoreCreateParams) (domain.Store, error) {
	query := fmt.Sprintf(`
        INSERT INTO stores (name, email, address, owner_id)
        VALUES ($1,$2,$3,$4)
        RETURNING %s
    `, storeColumns)

	row := r.pool.QueryRow(ctx, query, params.Name, params.Email, params.Address, params.OwnerID)
	store, err := scanStore(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Store{}, ErrDuplicateEmail
		}
		return domain.Store{}, err
	}
	return store, nil
}

// GetByID fetches a store by its identifier.
func (r *StoresRepository) GetByID(ctx context.Context, id string) (domain.Store, error) {
	query := fmt.Sprintf(`SELECT %s FROM stores WHERE id = $1`, storeColumns)
	store, err := scanStore(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Store{}, ErrNotFound
		}
		return domain.Store{}, err
	}
	return store, nil
}

// List returns stores matching the filters. Ties under any sort, and the
// default ordering, follow insertion order (created_at, id) so results are
// stable across calls.
func (r *StoresRepository) List(ctx context.Context, filters StoreListFilters) ([]domain.Store, error) {
	args := make([]interface{}, 0, 1)
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(storeColumns)
	queryBuilder.WriteString(" FROM stores")

	if q := strings.TrimSpace(filters.Query); q != "" {
		args = append(args, "%"+q+"%")
		queryBuilder.WriteString(" WHERE (name ILIKE $1 OR address ILIKE $1 OR email ILIKE $1)")
	}

	orderBy, err := storeOrderClause(filters)
	if err != nil {
		return nil, err
	}
	queryBuilder.WriteString(orderBy)

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Store, 0)
	for rows.Next() {
		store, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, store)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the number of registered stores.
func (r *StoresRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stores`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count stores: %w", err)
	}
	return count, nil
}

func storeOrderClause(filters StoreListFilters) (string, error) {
	dir := "ASC"
	switch strings.ToLower(filters.SortDir) {
	case "", "asc":
	case "desc":
		dir = "DESC"
	default:
		return "", fmt.Errorf("invalid sort direction %q", filters.SortDir)
	}

	// seq is a monotonic insertion counter, so equal sort keys keep
	// registration order.
	switch filters.SortBy {
	case "":
		return " ORDER BY seq ASC", nil
	case SortByName:
		return fmt.Sprintf(" ORDER BY lower(name) %s, seq ASC", dir), nil
	case SortByEmail:
		return fmt.Sprintf(" ORDER BY lower(email) %s, seq ASC", dir), nil
	case SortByAddress:
		return fmt.Sprintf(" ORDER BY lower(address) %s, seq ASC", dir), nil
	case SortByRating:
		return fmt.Sprintf(" ORDER BY average_rating %s, seq ASC", dir), nil
	default:
		return "", fmt.Errorf("invalid sort field %q", filters.SortBy)
	}
}

func scanStore(row pgx.Row) (domain.Store, error) {
	var store domain.Store
	err := row.Scan(
		&store.ID,
		&store.Name,
		&store.Email,
		&store.Address,
		&store.OwnerID,
		&store.AverageRating,
		&store.TotalRatings,
		&store.CreatedAt,
		&store.UpdatedAt,
	)
	if err != nil {
		return domain.Store{}, err
	}
	return store, nil
}
