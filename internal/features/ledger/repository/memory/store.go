package memory

import (
	"context"
	"sort"
	"sync"

	"evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/ledger/repository"
)

// Store keeps the ledger in process memory. Each user has its own mutex so
// writers for different users proceed in parallel.
type Store struct {
	locks sync.Map // user id -> *sync.Mutex

	mu      sync.RWMutex
	records map[string]models.UserRecord
}

func NewStore() *Store {
	return &Store{records: make(map[string]models.UserRecord)}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) userLock(userID string) *sync.Mutex {
	l, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

func (s *Store) load(userID string) models.Lookup {
	s.mu.RLock()
	rec, ok := s.records[userID]
	s.mu.RUnlock()
	if !ok {
		return models.Lookup{Record: models.NewRecord(userID)}
	}
	return models.Lookup{Record: rec.Clone(), Present: true}
}

func (s *Store) Get(ctx context.Context, userID string) (models.Lookup, error) {
	if err := ctx.Err(); err != nil {
		return models.Lookup{}, err
	}
	return s.load(userID), nil
}

func (s *Store) Update(ctx context.Context, userID string, fn repository.MutateFunc) (models.UserRecord, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	if err := ctx.Err(); err != nil {
		return models.UserRecord{}, err
	}

	cur := s.load(userID)
	rec := cur.Record
	if err := fn(ctx, &rec, cur.Present); err != nil {
		return models.UserRecord{}, err
	}
	rec.UserID = userID

	s.mu.Lock()
	s.records[userID] = rec.Clone()
	s.mu.Unlock()
	return rec, nil
}

func (s *Store) UpdatePair(ctx context.Context, a, b string, fn repository.PairMutateFunc) (models.UserRecord, models.UserRecord, error) {
	if a == b {
		return models.UserRecord{}, models.UserRecord{}, repository.ErrSameUser
	}

	first, second, _ := repository.OrderPair(a, b)
	l1, l2 := s.userLock(first), s.userLock(second)
	l1.Lock()
	defer l1.Unlock()
	l2.Lock()
	defer l2.Unlock()

	if err := ctx.Err(); err != nil {
		return models.UserRecord{}, models.UserRecord{}, err
	}

	curA, curB := s.load(a), s.load(b)
	recA, recB := curA.Record, curB.Record
	if err := fn(&recA, &recB, curA.Present, curB.Present); err != nil {
		return models.UserRecord{}, models.UserRecord{}, err
	}
	recA.UserID, recB.UserID = a, b

	s.mu.Lock()
	s.records[a] = recA.Clone()
	s.records[b] = recB.Clone()
	s.mu.Unlock()
	return recA, recB, nil
}

func (s *Store) Snapshot(ctx context.Context) ([]models.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]models.UserRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}
