package genstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures NewRedis.
type RedisOptions struct {
	Client redis.UniversalClient
	// Namespace should match the checkpoint Namespace.
	Namespace string
	// TTL on generation keys; 0 disables expiry. Keep it at least as long as
	// the checkpoint TTL, otherwise an expired counter reads as 0 and frames
	// written after an Invalidate look stale.
	TTL time.Duration
	// SharedClient leaves Client open on Close.
	SharedClient bool
}

// Redis shares per-key generations across solver processes and survives
// restarts.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	shared bool
}

var _ GenStore = (*Redis)(nil)

func NewRedis(opts RedisOptions) *Redis {
	return &Redis{
		rdb:    opts.Client,
		prefix: "ckptgen:" + opts.Namespace + ":",
		ttl:    opts.TTL,
		shared: opts.SharedClient,
	}
}

func (s *Redis) key(k string) string { return s.prefix + k }

func (s *Redis) Snapshot(ctx context.Context, storageKey string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(storageKey)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	g, err := parseGen(res)
	if err != nil {
		return 0, fmt.Errorf("genstore: parse %s: %w", storageKey, err)
	}
	return g, nil
}

func (s *Redis) SnapshotMany(ctx context.Context, storageKeys []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(storageKeys))
	if len(storageKeys) == 0 {
		return out, nil
	}
	keys := make([]string, len(storageKeys))
	for i, k := range storageKeys {
		keys[i] = s.key(k)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		g, err := parseGen(v)
		if err != nil {
			return nil, fmt.Errorf("genstore: parse %s: %w", storageKeys[i], err)
		}
		out[storageKeys[i]] = g
	}
	return out, nil
}

func parseGen(v any) (uint64, error) {
	switch vv := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseUint(vv, 10, 64)
	case []byte:
		return strconv.ParseUint(string(vv), 10, 64)
	default:
		return strconv.ParseUint(fmt.Sprint(vv), 10, 64)
	}
}

func (s *Redis) Bump(ctx context.Context, storageKey string) (uint64, error) {
	gens, err := s.BumpMany(ctx, []string{storageKey})
	if err != nil {
		return 0, err
	}
	return gens[storageKey], nil
}

// BumpMany pipelines INCR (and EXPIRE when a TTL is set) for every key.
func (s *Redis) BumpMany(ctx context.Context, storageKeys []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(storageKeys))
	if len(storageKeys) == 0 {
		return out, nil
	}
	incrs := make([]*redis.IntCmd, len(storageKeys))
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range storageKeys {
			incrs[i] = p.Incr(ctx, s.key(k))
			if s.ttl > 0 {
				p.Expire(ctx, s.key(k), s.ttl)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, k := range storageKeys {
		out[k] = uint64(incrs[i].Val())
	}
	return out, nil
}

func (s *Redis) Cleanup(time.Duration) {}

func (s *Redis) Close(context.Context) error {
	if s.shared {
		return nil
	}
	if err := s.rdb.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
