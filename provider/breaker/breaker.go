// Package breaker puts a sony/gobreaker circuit breaker in front of a remote
// checkpoint provider. While the circuit is open, reads report a miss and
// writes report a rejection, so setup falls back to building instead of
// waiting on a dead store. Deletes still fail loudly: an invalidation that
// did not happen must be visible to the caller.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/unkn0wn-root/mglevel"
	"github.com/unkn0wn-root/mglevel/provider"
)

type Config struct {
	Name string
	// MaxRequests allowed through while half-open. 0 => 1.
	MaxRequests uint32
	// Interval clears closed-state counts; 0 never clears.
	Interval time.Duration
	// Timeout before an open circuit goes half-open. 0 => 60s.
	Timeout time.Duration
	// Trip once Requests >= MinRequests and the failure ratio reaches
	// FailureThreshold. Defaults 5 and 0.5.
	MinRequests      uint32
	FailureThreshold float64
	Logger           mglevel.Logger
}

type Provider struct {
	inner provider.Provider
	cb    *gobreaker.CircuitBreaker
}

var _ provider.Provider = (*Provider)(nil)

func New(inner provider.Provider, cfg Config) *Provider {
	log := cfg.Logger
	if log == nil {
		log = mglevel.NopLogger{}
	}
	minReq := cfg.MinRequests
	if minReq == 0 {
		minReq = 5
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < minReq {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("checkpoint provider circuit changed", mglevel.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
		// a cancelled setup says nothing about the store
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Provider{inner: inner, cb: cb}
}

func refused(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

type getResult struct {
	b  []byte
	ok bool
}

func (p *Provider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := p.cb.Execute(func() (any, error) {
		b, ok, err := p.inner.Get(ctx, key)
		return getResult{b, ok}, err
	})
	if refused(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r := res.(getResult)
	return r.b, r.ok, nil
}

func (p *Provider) Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	res, err := p.cb.Execute(func() (any, error) {
		return p.inner.Set(ctx, key, value, cost, ttl)
	})
	if refused(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (p *Provider) Del(ctx context.Context, key string) error {
	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.inner.Del(ctx, key)
	})
	return err
}

// Close bypasses the breaker.
func (p *Provider) Close(ctx context.Context) error { return p.inner.Close(ctx) }

func (p *Provider) State() gobreaker.State { return p.cb.State() }
