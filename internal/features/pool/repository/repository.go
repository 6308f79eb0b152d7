package repository

import (
	"context"
	"errors"
	"fmt"
)

// State is the capacity and reserved amount of one tier pool.
type State struct {
	Level    int   `json:"tier"`
	Capacity int64 `json:"capacity"`
	Used     int64 `json:"used"`
}

// Remaining returns the unreserved headroom.
func (s State) Remaining() int64 {
	return s.Capacity - s.Used
}

// Percent returns used/capacity as a percentage.
func (s State) Percent() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.Used) * 100 / float64(s.Capacity)
}

// Allocator hands out bounded payouts from per-tier pools. TryReserve is
// linearizable per tier and never lets used exceed capacity.
type Allocator interface {
	// TryReserve adds amount to the tier's used total if it fits.
	TryReserve(ctx context.Context, level int, amount int64) (bool, error)
	// Release returns a reservation whose ledger write failed.
	Release(ctx context.Context, level int, amount int64) error
	// State lists every configured pool in tier order.
	State(ctx context.Context) ([]State, error)
	// Reset sets the tier's used total back to zero.
	Reset(ctx context.Context, level int) error
}

// Seeder writes configured capacities into a persistent backend. Existing used
// totals are kept but never left above capacity.
type Seeder interface {
	Seed(ctx context.Context) error
}

// TxJoiner is implemented by allocators whose reservations can run on the
// ledger transaction carried by ctx.
type TxJoiner interface {
	JoinsTx(ctx context.Context) bool
}

// JoinsTx reports whether a reservation made by a with ctx commits and rolls
// back together with the caller's ledger write, needing no Release.
func JoinsTx(ctx context.Context, a Allocator) bool {
	j, ok := a.(TxJoiner)
	return ok && j.JoinsTx(ctx)
}

// ErrUnknownTier is returned for tiers with no configured pool.
type ErrUnknownTier struct {
	Level int
}

func (e ErrUnknownTier) Error() string {
	return fmt.Sprintf("no reward pool configured for tier %d", e.Level)
}

// IsUnknownTier reports whether err is an ErrUnknownTier.
func IsUnknownTier(err error) bool {
	var target ErrUnknownTier
	return errors.As(err, &target)
}
