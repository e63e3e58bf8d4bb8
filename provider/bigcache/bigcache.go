// Package bigcache keeps checkpoints in allegro/bigcache. Entries expire
// after the global LifeWindow; per-entry TTLs are ignored.
package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/mglevel/provider"
)

type Config struct {
	// LifeWindow is how long a checkpoint lives, typically one setup cycle.
	LifeWindow  time.Duration
	CleanWindow time.Duration
	// MaxFrameBytes makes Set refuse larger frames with ok=false instead of
	// letting a fine-level operator evict a whole shard. 0 = no cap.
	MaxFrameBytes int
	// HardMaxCacheSizeMB bounds memory; 0 = unlimited.
	HardMaxCacheSizeMB int
	// Shards must be a power of two; 0 keeps bigcache's default.
	Shards int
}

type Provider struct {
	c        *bc.BigCache
	maxFrame int
}

var _ provider.Provider = (*Provider)(nil)

func New(ctx context.Context, cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	if cfg.Shards > 0 {
		conf.Shards = cfg.Shards
	}
	if cfg.MaxFrameBytes > 0 {
		conf.MaxEntrySize = cfg.MaxFrameBytes
	}
	c, err := bc.New(ctx, conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, maxFrame: cfg.MaxFrameBytes}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	if p.maxFrame > 0 && len(value) > p.maxFrame {
		return false, nil
	}
	if err := p.c.Set(key, value); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	if err := p.c.Delete(key); err != nil && !errors.Is(err, bc.ErrEntryNotFound) {
		return err
	}
	return nil
}

// Len is the number of stored frames.
func (p *Provider) Len() int { return p.c.Len() }

func (p *Provider) Stats() bc.Stats { return p.c.Stats() }

func (p *Provider) Close(_ context.Context) error { return p.c.Close() }
