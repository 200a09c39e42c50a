package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vidgen/internal/domain"
)

const generationColumns = `id, user_id, input_image_url, COALESCE(prompt, ''), COALESCE(provider_id, ''), status, COALESCE(output_video_url, ''), COALESCE(error_message, ''), created_at, updated_at`

// GenerationRepositoryPG implements domain.GenerationRepository.
//
// Terminal transitions carry `AND status = 'pending'` so that the webhook and
// the poll sweep can race on the same record: whichever lands first wins and
// the other becomes a no-op.
type GenerationRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewGenerationRepository creates a new generation repository backed by PostgreSQL.
func NewGenerationRepository(pool *pgxpool.Pool) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{pool: pool}
}

// Create inserts a new pending generation record.
func (r *GenerationRepositoryPG) Create(ctx context.Context, g *domain.Generation) error {
	query := `
INSERT INTO generations (id, user_id, input_image_url, prompt, status)
VALUES ($1, $2, $3, NULLIF($4, ''), $5)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		g.ID,
		g.UserID,
		g.InputImageURL,
		g.Prompt,
		g.Status,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
}

// AttachProviderID stores the external job id on the record. The id is only
// written once; a record that already carries one is left untouched.
func (r *GenerationRepositoryPG) AttachProviderID(ctx context.Context, id, providerID string) error {
	query := `
UPDATE generations
SET provider_id = $2,
    updated_at = NOW()
WHERE id = $1
  AND provider_id IS NULL;
`
	tag, err := r.pool.Exec(ctx, query, id, providerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkFailed moves a pending record to failed by internal id and reports
// whether the transition was applied.
func (r *GenerationRepositoryPG) MarkFailed(ctx context.Context, id, errMsg string) (bool, error) {
	query := `
UPDATE generations
SET status = 'failed',
    error_message = $2,
    updated_at = NOW()
WHERE id = $1
  AND status = 'pending';
`
	tag, err := r.pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CompleteByProviderID moves a pending record to completed, storing the output
// video reference. Returns nil when no pending record matched.
func (r *GenerationRepositoryPG) CompleteByProviderID(ctx context.Context, providerID, videoURL string) (*domain.Generation, error) {
	query := `
UPDATE generations
SET status = 'completed',
    output_video_url = NULLIF($2, ''),
    updated_at = NOW()
WHERE provider_id = $1
  AND status = 'pending'
RETURNING ` + generationColumns + `;`
	g, err := scanGeneration(r.pool.QueryRow(ctx, query, providerID, videoURL))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return g, err
}

// FailByProviderID moves a pending record to failed, storing the error
// message. Returns nil when no pending record matched.
func (r *GenerationRepositoryPG) FailByProviderID(ctx context.Context, providerID, errMsg string) (*domain.Generation, error) {
	query := `
UPDATE generations
SET status = 'failed',
    error_message = $2,
    updated_at = NOW()
WHERE provider_id = $1
  AND status = 'pending'
RETURNING ` + generationColumns + `;`
	g, err := scanGeneration(r.pool.QueryRow(ctx, query, providerID, errMsg))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return g, err
}

// GetByID fetches a generation by its identifier.
func (r *GenerationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1`
	return scanGeneration(r.pool.QueryRow(ctx, query, id))
}

// GetByProviderID fetches a generation by its external job id.
func (r *GenerationRepositoryPG) GetByProviderID(ctx context.Context, providerID string) (*domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE provider_id = $1`
	return scanGeneration(r.pool.QueryRow(ctx, query, providerID))
}

// ListByUser returns all generations owned by the user, newest first.
func (r *GenerationRepositoryPG) ListByUser(ctx context.Context, userID string) ([]domain.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGenerations(rows)
}

// ListPendingBefore returns pending records with a provider id created before
// the cutoff, oldest first, capped at limit.
func (r *GenerationRepositoryPG) ListPendingBefore(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Generation, error) {
	query := `
SELECT ` + generationColumns + `
FROM generations
WHERE status = 'pending'
  AND provider_id IS NOT NULL
  AND created_at < $1
ORDER BY created_at
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, query, createdBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGenerations(rows)
}

// ExpirePending force-fails every pending record created before the cutoff and
// returns the records it transitioned, so the caller can compensate credits.
func (r *GenerationRepositoryPG) ExpirePending(ctx context.Context, createdBefore time.Time, errMsg string) ([]domain.Generation, error) {
	query := `
UPDATE generations
SET status = 'failed',
    error_message = $2,
    updated_at = NOW()
WHERE status = 'pending'
  AND created_at < $1
RETURNING ` + generationColumns + `;`
	rows, err := r.pool.Query(ctx, query, createdBefore, errMsg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGenerations(rows)
}

func scanGeneration(row pgx.Row) (*domain.Generation, error) {
	var g domain.Generation
	if err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.InputImageURL,
		&g.Prompt,
		&g.ProviderID,
		&g.Status,
		&g.OutputVideoURL,
		&g.ErrorMessage,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func collectGenerations(rows pgx.Rows) ([]domain.Generation, error) {
	var items []domain.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *g)
	}
	return items, rows.Err()
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
