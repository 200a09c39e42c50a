// Package generation holds the state machine that reconciles the three event
// sources of a video generation job: the submitting request, the provider
// webhook, and the timed poll sweep.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidgen/internal/domain"
	"vidgen/internal/infra"
	"vidgen/internal/providers/wavespeed"
)

const expiredMessage = "generation timed out waiting for the provider"

// Client is the slice of the provider API the orchestrator needs.
type Client interface {
	CreateGeneration(ctx context.Context, req wavespeed.CreateRequest) (*wavespeed.CreateResult, error)
	GetStatus(ctx context.Context, providerID string) (*wavespeed.Callback, error)
}

// Config tunes the orchestrator. Enabled is the capability flag resolved once
// at process start from the provider credentials.
type Config struct {
	Enabled       bool
	SubmitTimeout time.Duration
	PollDelay     time.Duration
	PollBatch     int
	PendingMaxAge time.Duration
}

// Orchestrator drives the generation lifecycle. A record moves from pending to
// exactly one of completed or failed; a transition to failed is paired with
// exactly one credit refund, performed by whichever path applied the
// transition.
type Orchestrator struct {
	profiles    domain.ProfileRepository
	generations domain.GenerationRepository
	client      Client
	logger      infra.Logger
	cfg         Config

	now func() time.Time
}

// New constructs an Orchestrator.
func New(profiles domain.ProfileRepository, generations domain.GenerationRepository, client Client, logger infra.Logger, cfg Config) *Orchestrator {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 30 * time.Second
	}
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = time.Minute
	}
	if cfg.PollBatch <= 0 {
		cfg.PollBatch = 20
	}
	if cfg.PendingMaxAge <= 0 {
		cfg.PendingMaxAge = 30 * time.Minute
	}
	return &Orchestrator{
		profiles:    profiles,
		generations: generations,
		client:      client,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Submit charges one credit, creates a pending record, and hands the job to
// the provider. On any provider failure the record is failed and the credit
// refunded, so the only reachable end states are (provider id stored, credit
// spent) and (record failed, credit refunded).
func (o *Orchestrator) Submit(ctx context.Context, userID, imageURL, prompt string) (*domain.Generation, int, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, 0, domain.ErrUnauthorized
	}
	if !o.cfg.Enabled {
		return nil, 0, domain.ErrNotConfigured
	}
	if strings.TrimSpace(imageURL) == "" {
		return nil, 0, errors.New("image url is required")
	}

	remaining, err := o.profiles.Deduct(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	g := &domain.Generation{
		ID:            uuid.NewString(),
		UserID:        userID,
		InputImageURL: imageURL,
		Prompt:        prompt,
		Status:        domain.GenerationPending,
	}
	if err := o.generations.Create(ctx, g); err != nil {
		o.compensate(ctx, userID)
		return nil, 0, fmt.Errorf("create generation record: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.cfg.SubmitTimeout)
	defer cancel()
	result, err := o.client.CreateGeneration(callCtx, wavespeed.CreateRequest{
		ImageURL: imageURL,
		Prompt:   prompt,
	})
	if err != nil {
		o.failSubmission(ctx, g, err.Error())
		if !errors.Is(err, domain.ErrProviderFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
		}
		return nil, 0, err
	}

	if err := o.generations.AttachProviderID(ctx, g.ID, result.ID); err != nil {
		o.failSubmission(ctx, g, "failed to store provider job id")
		return nil, 0, fmt.Errorf("attach provider id: %w", err)
	}
	g.ProviderID = result.ID

	o.logger.Info().
		Str("generation_id", g.ID).
		Str("provider_id", result.ID).
		Str("user_id", userID).
		Msg("generation submitted")
	return g, remaining, nil
}

// failSubmission moves a freshly created record to failed and refunds the
// credit, but only when this call performed the transition. A webhook that
// somehow landed first keeps its outcome and the credit stays spent.
func (o *Orchestrator) failSubmission(ctx context.Context, g *domain.Generation, errMsg string) {
	applied, err := o.generations.MarkFailed(ctx, g.ID, errMsg)
	if err != nil {
		o.logger.Error().Err(err).Str("generation_id", g.ID).Msg("mark failed after submission error")
		return
	}
	if !applied {
		return
	}
	g.Status = domain.GenerationFailed
	g.ErrorMessage = errMsg
	o.compensate(ctx, g.UserID)
}

func (o *Orchestrator) compensate(ctx context.Context, userID string) {
	if err := o.profiles.Refund(ctx, userID); err != nil {
		o.logger.Error().Err(err).Str("user_id", userID).Msg("credit refund failed")
	}
}

// Reconcile applies a normalized provider callback to the matching record.
// Unknown ids are logged and dropped, records already terminal are left
// untouched, and a non-terminal provider status is a no-op; all three outcomes
// return nil so duplicate or stray deliveries stay harmless.
func (o *Orchestrator) Reconcile(ctx context.Context, cb *wavespeed.Callback) error {
	if cb == nil || cb.ID == "" {
		return nil
	}
	switch wavespeed.CanonicalStatus(cb.Status) {
	case domain.GenerationCompleted:
		g, err := o.generations.CompleteByProviderID(ctx, cb.ID, cb.VideoURL)
		if err != nil {
			return fmt.Errorf("complete generation: %w", err)
		}
		if g == nil {
			o.logSkipped(ctx, cb.ID)
			return nil
		}
		o.logger.Info().
			Str("generation_id", g.ID).
			Str("provider_id", cb.ID).
			Msg("generation completed")
	case domain.GenerationFailed:
		errMsg := cb.ErrorMessage
		if errMsg == "" {
			errMsg = "generation failed"
		}
		g, err := o.generations.FailByProviderID(ctx, cb.ID, errMsg)
		if err != nil {
			return fmt.Errorf("fail generation: %w", err)
		}
		if g == nil {
			o.logSkipped(ctx, cb.ID)
			return nil
		}
		o.compensate(ctx, g.UserID)
		o.logger.Info().
			Str("generation_id", g.ID).
			Str("provider_id", cb.ID).
			Str("error", errMsg).
			Msg("generation failed, credit refunded")
	default:
		o.logger.Debug().
			Str("provider_id", cb.ID).
			Str("status", cb.Status).
			Msg("generation still in flight")
	}
	return nil
}

// logSkipped explains why a terminal callback changed nothing: either the id
// belongs to no record we created, or the record is already terminal because
// the other delivery path won the race.
func (o *Orchestrator) logSkipped(ctx context.Context, providerID string) {
	if _, err := o.generations.GetByProviderID(ctx, providerID); errors.Is(err, domain.ErrNotFound) {
		o.logger.Info().Str("provider_id", providerID).Msg("callback for unknown provider id dropped")
		return
	}
	o.logger.Debug().Str("provider_id", providerID).Msg("callback for terminal record ignored")
}

// Sweep re-queries the provider for pending jobs whose webhook is overdue and
// force-fails records that outlived the maximum pending age. One failing item
// never aborts the rest of the batch.
func (o *Orchestrator) Sweep(ctx context.Context) (reconciled, expired int, err error) {
	now := o.now()

	pending, err := o.generations.ListPendingBefore(ctx, now.Add(-o.cfg.PollDelay), o.cfg.PollBatch)
	if err != nil {
		return 0, 0, fmt.Errorf("list pending generations: %w", err)
	}
	for i := range pending {
		g := &pending[i]
		cb, err := o.client.GetStatus(ctx, g.ProviderID)
		if err != nil {
			o.logger.Warn().Err(err).
				Str("generation_id", g.ID).
				Str("provider_id", g.ProviderID).
				Msg("poll status failed, will retry next sweep")
			continue
		}
		if cb.ID == "" {
			cb.ID = g.ProviderID
		}
		if err := o.Reconcile(ctx, cb); err != nil {
			o.logger.Warn().Err(err).
				Str("generation_id", g.ID).
				Msg("poll reconcile failed, will retry next sweep")
			continue
		}
		reconciled++
	}

	stale, err := o.generations.ExpirePending(ctx, now.Add(-o.cfg.PendingMaxAge), expiredMessage)
	if err != nil {
		return reconciled, 0, fmt.Errorf("expire stale generations: %w", err)
	}
	for i := range stale {
		o.compensate(ctx, stale[i].UserID)
		o.logger.Warn().
			Str("generation_id", stale[i].ID).
			Str("user_id", stale[i].UserID).
			Msg("stale pending generation expired, credit refunded")
	}
	return reconciled, len(stale), nil
}
