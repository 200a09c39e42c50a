package domain

import "time"

// GenerationStatus enumerates the lifecycle states of a generation.
type GenerationStatus string

const (
	GenerationPending   GenerationStatus = "pending"
	GenerationCompleted GenerationStatus = "completed"
	GenerationFailed    GenerationStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s GenerationStatus) Terminal() bool {
	return s == GenerationCompleted || s == GenerationFailed
}

// Generation is one credit-bearing image-to-video job. A record starts as
// pending, is linked to the provider via ProviderID once the remote job is
// accepted, and moves exactly once to completed or failed, whichever of the
// webhook and the poll sweep observes the terminal result first.
type Generation struct {
	ID             string
	UserID         string
	InputImageURL  string
	Prompt         string
	ProviderID     string
	Status         GenerationStatus
	OutputVideoURL string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
