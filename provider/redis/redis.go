// Package redis stores checkpoints in Redis so that several solver
// processes, or a restarted one, can restore each other's setups. Pair it
// with genstore.Redis so invalidations are shared too.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/mglevel/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

type Config struct {
	Client goredis.UniversalClient
	// Prefix is prepended to every key so several jobs can share one
	// database. Empty means none.
	Prefix string
	// CloseClient hands ownership of Client to the provider.
	CloseClient bool
	// MaxTTL caps requested TTLs, including "no expiry", when > 0.
	MaxTTL time.Duration
}

type Provider struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
	maxTTL      time.Duration
}

var _ pr.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Provider{
		rdb:         cfg.Client,
		prefix:      cfg.Prefix,
		closeClient: cfg.CloseClient,
		maxTTL:      cfg.MaxTTL,
	}, nil
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, p.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if err := p.rdb.Set(ctx, p.prefix+key, value, p.clampTTL(ttl)).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) clampTTL(ttl time.Duration) time.Duration {
	if p.maxTTL > 0 && (ttl <= 0 || ttl > p.maxTTL) {
		return p.maxTTL
	}
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (p *Provider) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.prefix+key).Err()
}

// Close releases the client only when the provider owns it.
func (p *Provider) Close(context.Context) error {
	if !p.closeClient {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
