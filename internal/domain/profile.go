package domain

import "time"

// Profile carries the per-user credit balance. It is created lazily on first
// authenticated access and mutated only through the ledger operations on
// ProfileRepository; the balance never goes below zero.
type Profile struct {
	UserID    string
	Credits   int
	CreatedAt time.Time
	UpdatedAt time.Time
}
