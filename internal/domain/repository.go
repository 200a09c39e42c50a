package domain

import (
	"context"
	"time"
)

// ProfileRepository is the credit ledger. Deduct and Grant are single atomic
// read-modify-writes; callers never observe an intermediate balance.
type ProfileRepository interface {
	// Ensure creates the profile with a zero balance if it does not exist and
	// returns it.
	Ensure(ctx context.Context, userID string) (*Profile, error)
	Get(ctx context.Context, userID string) (*Profile, error)
	// Deduct atomically removes one credit and returns the new balance.
	// Returns ErrInsufficientCredits when the balance is below one and
	// ErrNotFound when no profile exists.
	Deduct(ctx context.Context, userID string) (int, error)
	// Refund adds one credit back unconditionally. Invoking it at most once
	// per failed generation is the caller's responsibility.
	Refund(ctx context.Context, userID string) error
	// Grant adds credits, creating the profile when absent, and returns the
	// new balance.
	Grant(ctx context.Context, userID string, amount int) (int, error)
}

// GenerationRepository persists generation records. The terminal transitions
// (Complete/Fail/MarkFailed/ExpirePending) are conditional on the record still
// being pending, which is what makes duplicate webhook/poll delivery a no-op.
type GenerationRepository interface {
	Create(ctx context.Context, g *Generation) error
	// AttachProviderID stores the external job id. The id is immutable once
	// set and unique across all records.
	AttachProviderID(ctx context.Context, id, providerID string) error
	// MarkFailed moves a pending record to failed by internal id. It reports
	// whether the transition was applied.
	MarkFailed(ctx context.Context, id, errMsg string) (bool, error)
	// CompleteByProviderID moves a pending record to completed. The updated
	// record is returned, or nil when no pending record matched.
	CompleteByProviderID(ctx context.Context, providerID, videoURL string) (*Generation, error)
	// FailByProviderID moves a pending record to failed. The updated record is
	// returned, or nil when no pending record matched.
	FailByProviderID(ctx context.Context, providerID, errMsg string) (*Generation, error)
	GetByID(ctx context.Context, id string) (*Generation, error)
	GetByProviderID(ctx context.Context, providerID string) (*Generation, error)
	ListByUser(ctx context.Context, userID string) ([]Generation, error)
	// ListPendingBefore returns pending records that already have a provider
	// id and were created before the cutoff, oldest first, capped at limit.
	ListPendingBefore(ctx context.Context, createdBefore time.Time, limit int) ([]Generation, error)
	// ExpirePending force-fails every pending record created before the
	// cutoff, with or without a provider id, and returns the records it
	// transitioned.
	ExpirePending(ctx context.Context, createdBefore time.Time, errMsg string) ([]Generation, error)
}
