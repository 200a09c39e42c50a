package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidgen/internal/domain"
)

// ProfileRepositoryPG implements domain.ProfileRepository backed by PostgreSQL.
// Every balance mutation is a single conditional UPDATE so concurrent callers
// serialize on the row instead of racing a read-then-write.
type ProfileRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new ProfileRepositoryPG.
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepositoryPG {
	return &ProfileRepositoryPG{pool: pool}
}

// Ensure creates the profile with a zero balance when absent and returns it.
func (r *ProfileRepositoryPG) Ensure(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `
INSERT INTO profiles (user_id, credits)
VALUES ($1, 0)
ON CONFLICT (user_id) DO UPDATE SET updated_at = profiles.updated_at
RETURNING user_id, credits, created_at, updated_at;
`
	return scanProfile(r.pool.QueryRow(ctx, query, userID))
}

// Get fetches a profile by user id.
func (r *ProfileRepositoryPG) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	query := `SELECT user_id, credits, created_at, updated_at FROM profiles WHERE user_id = $1`
	return scanProfile(r.pool.QueryRow(ctx, query, userID))
}

// Deduct removes one credit if the balance allows it and returns the new
// balance. The guard lives in the WHERE clause, so two concurrent deductions
// against a single remaining credit can never both succeed.
func (r *ProfileRepositoryPG) Deduct(ctx context.Context, userID string) (int, error) {
	query := `
UPDATE profiles
SET credits = credits - 1,
    updated_at = NOW()
WHERE user_id = $1
  AND credits >= 1
RETURNING credits;
`
	var remaining int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&remaining); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.deductFailure(ctx, userID)
		}
		return 0, err
	}
	return remaining, nil
}

// deductFailure distinguishes an empty balance from a missing profile.
func (r *ProfileRepositoryPG) deductFailure(ctx context.Context, userID string) error {
	if _, err := r.Get(ctx, userID); err != nil {
		return err
	}
	return domain.ErrInsufficientCredits
}

// Refund adds one credit back unconditionally.
func (r *ProfileRepositoryPG) Refund(ctx context.Context, userID string) error {
	query := `
UPDATE profiles
SET credits = credits + 1,
    updated_at = NOW()
WHERE user_id = $1;
`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Grant adds credits, creating the profile when absent, and returns the new balance.
func (r *ProfileRepositoryPG) Grant(ctx context.Context, userID string, amount int) (int, error) {
	query := `
INSERT INTO profiles (user_id, credits)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE
SET credits = profiles.credits + EXCLUDED.credits,
    updated_at = NOW()
RETURNING credits;
`
	var balance int
	if err := r.pool.QueryRow(ctx, query, userID, amount).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	if err := row.Scan(&p.UserID, &p.Credits, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

var _ domain.ProfileRepository = (*ProfileRepositoryPG)(nil)
