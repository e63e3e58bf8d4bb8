// Package ristretto keeps checkpoints in an in-process dgraph-io/ristretto
// cache. Suited to one solver process re-running setups with the same
// hierarchy shape.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/mglevel/provider"
)

var ErrInvalidConfig = errors.New("ristretto provider: invalid config")

// Config sizes the cache by memory budget rather than by raw ristretto knobs.
type Config struct {
	// MaxBytes bounds the summed checkpoint cost (frame bytes by default).
	MaxBytes int64
	// ExpectedFrames is roughly levels x saved values per level. Counters are
	// allocated at 10x, as ristretto recommends. 0 => 1024.
	ExpectedFrames int64
	Metrics        bool
}

type Provider struct {
	c *rc.Cache
}

var _ provider.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if cfg.MaxBytes <= 0 || cfg.ExpectedFrames < 0 {
		return nil, ErrInvalidConfig
	}
	frames := cfg.ExpectedFrames
	if frames == 0 {
		frames = 1024
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: 10 * frames,
		MaxCost:     cfg.MaxBytes,
		BufferItems: 64,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set is asynchronous in ristretto; a rejected admission reports ok=false.
// Call Wait before reading back a frame that was just written.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return p.c.SetWithTTL(key, value, cost, ttl), nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

// Wait blocks until buffered writes are applied.
func (p *Provider) Wait() { p.c.Wait() }

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Metrics is nil unless Config.Metrics was set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
