package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	apperrors "evol-ledger-backend/internal/common/errors"
	"evol-ledger-backend/internal/common/logger"
	"evol-ledger-backend/internal/features/pool/repository"
)

const (
	keyPrefixPool = "pool:"
	fieldCapacity = "capacity"
	fieldUsed     = "used"
)

// reserveScript returns -1 for an unknown pool, 0 when the amount does not fit
// and 1 after reserving it.
var reserveScript = redis.NewScript(`
local cap = tonumber(redis.call("HGET", KEYS[1], "capacity"))
if cap == nil then
	return -1
end
local used = tonumber(redis.call("HGET", KEYS[1], "used") or "0")
local amount = tonumber(ARGV[1])
if used + amount > cap then
	return 0
end
redis.call("HINCRBY", KEYS[1], "used", ARGV[1])
return 1
`)

var releaseScript = redis.NewScript(`
local used = tonumber(redis.call("HGET", KEYS[1], "used") or "0")
local amount = tonumber(ARGV[1])
local left = used - amount
if left < 0 then
	left = 0
end
redis.call("HSET", KEYS[1], "used", tostring(left))
return left
`)

// seedScript sets the capacity, clamps used to it and returns the previous used total.
var seedScript = redis.NewScript(`
local used = tonumber(redis.call("HGET", KEYS[1], "used") or "0")
local cap = tonumber(ARGV[1])
local kept = used
if kept > cap then
	kept = cap
end
redis.call("HSET", KEYS[1], "capacity", ARGV[1], "used", tostring(kept))
return used
`)

// Allocator keeps one hash per tier; every reservation is a single script run.
type Allocator struct {
	client     redis.UniversalClient
	capacities map[int]int64
}

func NewAllocator(client redis.UniversalClient, capacities map[int]int64) *Allocator {
	return &Allocator{client: client, capacities: capacities}
}

var (
	_ repository.Allocator = (*Allocator)(nil)
	_ repository.Seeder    = (*Allocator)(nil)
)

func makePoolKey(level int) string {
	return keyPrefixPool + strconv.Itoa(level)
}

// Seed writes configured capacities. Existing used totals are kept, clamped
// to a lowered capacity.
func (a *Allocator) Seed(ctx context.Context) error {
	cmds := make(map[int]*redis.Cmd, len(a.capacities))
	_, err := a.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for level, c := range a.capacities {
			cmds[level] = seedScript.Eval(ctx, pipe, []string{makePoolKey(level)}, c)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewCacheError("seed reward pools", err)
	}

	for level, cmd := range cmds {
		prev, err := cmd.Int64()
		if err != nil {
			return apperrors.NewCacheError("seed reward pools", err)
		}
		if c := a.capacities[level]; prev > c {
			logger.Warn().Int("tier", level).Int64("used", prev).Int64("capacity", c).
				Msg("Reward pool capacity lowered below used total, clamping")
		}
	}
	return nil
}

func (a *Allocator) TryReserve(ctx context.Context, level int, amount int64) (bool, error) {
	if amount < 0 {
		return false, nil
	}
	res, err := reserveScript.Run(ctx, a.client, []string{makePoolKey(level)}, amount).Int64()
	if err != nil {
		return false, apperrors.NewCacheError("reserve from reward pool", err)
	}
	switch res {
	case -1:
		return false, repository.ErrUnknownTier{Level: level}
	case 1:
		return true, nil
	default:
		return false, nil
	}
}

func (a *Allocator) Release(ctx context.Context, level int, amount int64) error {
	if err := releaseScript.Run(ctx, a.client, []string{makePoolKey(level)}, amount).Err(); err != nil {
		return apperrors.NewCacheError("release reward pool reservation", err)
	}
	return nil
}

func (a *Allocator) State(ctx context.Context) ([]repository.State, error) {
	out := make([]repository.State, 0, len(a.capacities))
	for level := range a.capacities {
		vals, err := a.client.HGetAll(ctx, makePoolKey(level)).Result()
		if err != nil {
			return nil, apperrors.NewCacheError("read reward pool", err)
		}
		st := repository.State{Level: level}
		if st.Capacity, err = parseField(vals, fieldCapacity); err != nil {
			return nil, err
		}
		if st.Used, err = parseField(vals, fieldUsed); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func parseField(vals map[string]string, field string) (int64, error) {
	raw, ok := vals[field]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewCorruptStateError(fmt.Sprintf("pool field %s", field), err)
	}
	return n, nil
}

func (a *Allocator) Reset(ctx context.Context, level int) error {
	if _, ok := a.capacities[level]; !ok {
		return repository.ErrUnknownTier{Level: level}
	}
	if err := a.client.HSet(ctx, makePoolKey(level), fieldUsed, 0).Err(); err != nil {
		return apperrors.NewCacheError("reset reward pool", err)
	}
	return nil
}
