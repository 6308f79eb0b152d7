package memory

import (
	"context"
	"sort"
	"sync"

	"evol-ledger-backend/internal/features/pool/repository"
)

type tierPool struct {
	mu       sync.Mutex
	capacity int64
	used     int64
}

// Allocator keeps pools in memory with one mutex per tier.
type Allocator struct {
	pools map[int]*tierPool
}

// NewAllocator creates pools with the given capacities keyed by tier level.
func NewAllocator(capacities map[int]int64) *Allocator {
	pools := make(map[int]*tierPool, len(capacities))
	for level, c := range capacities {
		pools[level] = &tierPool{capacity: c}
	}
	return &Allocator{pools: pools}
}

var _ repository.Allocator = (*Allocator)(nil)

func (a *Allocator) pool(level int) (*tierPool, error) {
	p, ok := a.pools[level]
	if !ok {
		return nil, repository.ErrUnknownTier{Level: level}
	}
	return p, nil
}

func (a *Allocator) TryReserve(ctx context.Context, level int, amount int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := a.pool(level)
	if err != nil {
		return false, err
	}
	if amount < 0 {
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used+amount > p.capacity {
		return false, nil
	}
	p.used += amount
	return true, nil
}

func (a *Allocator) Release(ctx context.Context, level int, amount int64) error {
	p, err := a.pool(level)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.used -= amount
	if p.used < 0 {
		p.used = 0
	}
	return nil
}

func (a *Allocator) State(ctx context.Context) ([]repository.State, error) {
	out := make([]repository.State, 0, len(a.pools))
	for level, p := range a.pools {
		p.mu.Lock()
		out = append(out, repository.State{Level: level, Capacity: p.capacity, Used: p.used})
		p.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (a *Allocator) Reset(ctx context.Context, level int) error {
	p, err := a.pool(level)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.used = 0
	p.mu.Unlock()
	return nil
}
