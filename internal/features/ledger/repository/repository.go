package repository

import (
	"context"
	"errors"

	"evol-ledger-backend/internal/features/ledger/models"
)

// MutateFunc edits rec in place. present is false when no record was persisted
// before. Returning an error aborts the write. ctx carries the store's
// transaction, if it has one, so writes made with it commit or roll back
// together with rec.
type MutateFunc func(ctx context.Context, rec *models.UserRecord, present bool) error

// PairMutateFunc edits two records inside one atomic write.
type PairMutateFunc func(a, b *models.UserRecord, aPresent, bPresent bool) error

// Store is the user ledger. Mutations of the same user are serialized;
// different users do not block each other.
type Store interface {
	Get(ctx context.Context, userID string) (models.Lookup, error)
	// Update runs fn exactly once under the user's lock and persists the result.
	Update(ctx context.Context, userID string, fn MutateFunc) (models.UserRecord, error)
	// UpdatePair locks both users in ascending id order and persists both records or neither.
	UpdatePair(ctx context.Context, a, b string, fn PairMutateFunc) (models.UserRecord, models.UserRecord, error)
	// Snapshot returns a copy of every persisted record.
	Snapshot(ctx context.Context) ([]models.UserRecord, error)
	Ping(ctx context.Context) error
}

var ErrSameUser = errors.New("pair update requires two distinct users")

// OrderPair returns the ids in lock order and whether they were swapped.
func OrderPair(a, b string) (first, second string, swapped bool) {
	if b < a {
		return b, a, true
	}
	return a, b, false
}
