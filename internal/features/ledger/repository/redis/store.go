package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/features/ledger/models"
	"evol-ledger-backend/internal/features/ledger/repository"
)

const (
	keyPrefixUser = "ledger:user:"
	keyPrefixLock = "ledger:lock:"

	// Lock expiry guards against holders that die mid-update.
	lockTTL       = 30 * time.Second
	lockRetryStep = 10 * time.Millisecond
	scanBatch     = 200
)

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Store struct {
	client      redis.UniversalClient
	lockTimeout time.Duration
}

// NewStore returns a Redis-backed ledger. lockTimeout bounds how long a writer
// waits for another writer of the same user.
func NewStore(client redis.UniversalClient, lockTimeout time.Duration) *Store {
	return &Store{client: client, lockTimeout: lockTimeout}
}

var _ repository.Store = (*Store)(nil)

func makeUserKey(id string) string {
	return keyPrefixUser + id
}

func makeLockKey(id string) string {
	return keyPrefixLock + id
}

func (s *Store) acquire(ctx context.Context, userID string) (string, error) {
	key := makeLockKey(userID)
	token := uuid.NewString()
	deadline := time.Now().Add(s.lockTimeout)

	for {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return "", apperrors.NewCacheError("acquire ledger lock", err)
		}
		if ok {
			return token, nil
		}
		if time.Now().After(deadline) {
			logger.Warn().Str("user_id", userID).Dur("waited", s.lockTimeout).Msg("Ledger lock wait timed out")
			return "", apperrors.NewLockTimeoutError("user "+userID, s.lockTimeout)
		}

		timer := time.NewTimer(lockRetryStep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (s *Store) release(userID, token string) {
	// Release even when the request context is already cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, s.client, []string{makeLockKey(userID)}, token).Err(); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to release ledger lock")
	}
}

func (s *Store) decode(userID string, data []byte) models.Lookup {
	var rec models.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		appErr := apperrors.NewCorruptStateError(makeUserKey(userID), err)
		logger.Warn().
			Str("code", string(appErr.Code)).
			Str("user_id", userID).
			Err(err).
			Msg(appErr.Message)
		return models.Lookup{Record: models.NewRecord(userID)}
	}
	rec.UserID = userID
	return models.Lookup{Record: rec, Present: true}
}

func (s *Store) Get(ctx context.Context, userID string) (models.Lookup, error) {
	data, err := s.client.Get(ctx, makeUserKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Lookup{Record: models.NewRecord(userID)}, nil
	}
	if err != nil {
		return models.Lookup{}, apperrors.NewCacheError("get ledger record", err)
	}
	return s.decode(userID, data), nil
}

func (s *Store) Update(ctx context.Context, userID string, fn repository.MutateFunc) (models.UserRecord, error) {
	token, err := s.acquire(ctx, userID)
	if err != nil {
		return models.UserRecord{}, err
	}
	defer s.release(userID, token)

	cur, err := s.Get(ctx, userID)
	if err != nil {
		return models.UserRecord{}, err
	}

	rec := cur.Record
	if err := fn(ctx, &rec, cur.Present); err != nil {
		return models.UserRecord{}, err
	}
	rec.UserID = userID

	data, err := json.Marshal(rec)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf("marshal ledger record: %w", err)
	}
	if err := s.client.Set(ctx, makeUserKey(userID), data, 0).Err(); err != nil {
		return models.UserRecord{}, apperrors.NewCacheError("save ledger record", err)
	}
	return rec, nil
}

func (s *Store) UpdatePair(ctx context.Context, a, b string, fn repository.PairMutateFunc) (models.UserRecord, models.UserRecord, error) {
	var zero models.UserRecord
	if a == b {
		return zero, zero, repository.ErrSameUser
	}

	first, second, _ := repository.OrderPair(a, b)
	t1, err := s.acquire(ctx, first)
	if err != nil {
		return zero, zero, err
	}
	defer s.release(first, t1)
	t2, err := s.acquire(ctx, second)
	if err != nil {
		return zero, zero, err
	}
	defer s.release(second, t2)

	curA, err := s.Get(ctx, a)
	if err != nil {
		return zero, zero, err
	}
	curB, err := s.Get(ctx, b)
	if err != nil {
		return zero, zero, err
	}

	recA, recB := curA.Record, curB.Record
	if err := fn(&recA, &recB, curA.Present, curB.Present); err != nil {
		return zero, zero, err
	}
	recA.UserID, recB.UserID = a, b

	dataA, err := json.Marshal(recA)
	if err != nil {
		return zero, zero, fmt.Errorf("marshal ledger record: %w", err)
	}
	dataB, err := json.Marshal(recB)
	if err != nil {
		return zero, zero, fmt.Errorf("marshal ledger record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, makeUserKey(a), dataA, 0)
		pipe.Set(ctx, makeUserKey(b), dataB, 0)
		return nil
	})
	if err != nil {
		return zero, zero, apperrors.NewCacheError("save ledger record pair", err)
	}
	return recA, recB, nil
}

// Snapshot lists keys with SCAN and then reads every value in one MULTI, so
// the values come from a single point in time and a pair write is never seen
// half applied. Records created after the scan are left out.
func (s *Store) Snapshot(ctx context.Context) ([]models.UserRecord, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, keyPrefixUser+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.NewCacheError("scan ledger records", err)
	}
	if len(keys) == 0 {
		return []models.UserRecord{}, nil
	}

	var batches [][]string
	for start := 0; start < len(keys); start += scanBatch {
		end := start + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		batches = append(batches, keys[start:end])
	}

	cmds := make([]*redis.SliceCmd, len(batches))
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, batch := range batches {
			cmds[i] = pipe.MGet(ctx, batch...)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.NewCacheError("read ledger records", err)
	}

	out := make([]models.UserRecord, 0, len(keys))
	for i, batch := range batches {
		for j, v := range cmds[i].Val() {
			str, ok := v.(string)
			if !ok {
				continue
			}
			userID := strings.TrimPrefix(batch[j], keyPrefixUser)
			if lk := s.decode(userID, []byte(str)); lk.Present {
				out = append(out, lk.Record)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
