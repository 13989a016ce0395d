package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storepulse/storepulse/internal/domain"
)

// RatingsRepository provides helpers for store ratings and keeps the store's
// derived aggregate columns consistent with the rating rows.
type RatingsRepository struct {
	pool *pgxpool.Pool
}

const ratingColumns = `
    id,
    store_id,
    user_id,
    stars,
    created_at,
    updated_at
`

// RatingUpsertParams captures the payload required to upsert a rating.
type RatingUpsertParams struct {
	StoreID string
	UserID  string
	Stars   int
}

// Upsert inserts or updates the (user, store) rating and recomputes the
// store's averageRating and totalRatings from the post-mutation rating rows,
// all in one transaction. The store row is locked first so concurrent submits
// for the same store serialize instead of racing the recompute. Returns the
// stored rating, the store with fresh aggregates, and whether the rating was
// newly created. An unknown store yields ErrNotFound.
func (r *RatingsRepository) Upsert(ctx context.Context, params RatingUpsertParams) (domain.Rating, domain.Store, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Rating{}, domain.Store{}, false, fmt.Errorf("begin rating upsert: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var storeID string
	err = tx.QueryRow(ctx, `SELECT id FROM stores WHERE id = $1 FOR UPDATE`, params.StoreID).Scan(&storeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, domain.Store{}, false, ErrNotFound
		}
		return domain.Rating{}, domain.Store{}, false, fmt.Errorf("lock store: %w", err)
	}

	upsertQuery := fmt.Sprintf(`
        INSERT INTO ratings (store_id, user_id, stars)
        VALUES ($1,$2,$3)
        ON CONFLICT (store_id, user_id)
        DO UPDATE SET stars = EXCLUDED.stars, updated_at = now()
        RETURNING %s, (xmax = 0) AS inserted
    `, ratingColumns)

	var rating domain.Rating
	var inserted bool
	err = tx.QueryRow(ctx, upsertQuery, params.StoreID, params.UserID, params.Stars).Scan(
		&rating.ID,
		&rating.StoreID,
		&rating.UserID,
		&rating.Stars,
		&rating.CreatedAt,
		&rating.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return domain.Rating{}, domain.Store{}, false, fmt.Errorf("upsert rating: %w", err)
	}

	// The aggregate subquery runs after the upsert inside the same
	// transaction, so it sees the just-written rating.
	recomputeQuery := fmt.Sprintf(`
        UPDATE stores
        SET average_rating = agg.average,
            total_ratings  = agg.count,
            updated_at     = now()
        FROM (
            SELECT COALESCE(ROUND(AVG(stars)::numeric, 1), 0)::float8 AS average,
                   COUNT(*)::int8 AS count
            FROM ratings
            WHERE store_id = $1
        ) AS agg
        WHERE id = $1
        RETURNING %s
    `, storeColumns)

	store, err := scanStore(tx.QueryRow(ctx, recomputeQuery, params.StoreID))
	if err != nil {
		return domain.Rating{}, domain.Store{}, false, fmt.Errorf("recompute aggregates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Rating{}, domain.Store{}, false, fmt.Errorf("commit rating upsert: %w", err)
	}

	return rating, store, inserted, nil
}

// Get retrieves the rating for a specific (user, store) combination.
func (r *RatingsRepository) Get(ctx context.Context, storeID, userID string) (domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM ratings
        WHERE store_id = $1 AND user_id = $2
    `, ratingColumns)

	var rating domain.Rating
	err := r.pool.QueryRow(ctx, query, storeID, userID).Scan(
		&rating.ID,
		&rating.StoreID,
		&rating.UserID,
		&rating.Stars,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Rating{}, ErrNotFound
		}
		return domain.Rating{}, err
	}
	return rating, nil
}

// ListForStore returns a store's ratings newest first; rows sharing a
// timestamp keep insertion order via the seq counter.
func (r *RatingsRepository) ListForStore(ctx context.Context, storeID string) ([]domain.Rating, error) {
	query := fmt.Sprintf(`
        SELECT %s
        FROM ratings
        WHERE store_id = $1
        ORDER BY created_at DESC, seq ASC
    `, ratingColumns)

	rows, err := r.pool.Query(ctx, query, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Rating, 0)
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.StoreID,
			&rating.UserID,
			&rating.Stars,
			&rating.CreatedAt,
			&rating.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Count returns the total number of ratings across all stores.
func (r *RatingsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return count, nil
}
