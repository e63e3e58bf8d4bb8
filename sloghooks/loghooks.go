// Package sloghooks logs level and checkpoint events through log/slog.
// High-volume events (builds, evictions, self-heals) are sampled; failures
// and misuse never are.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/mglevel"
	"github.com/unkn0wn-root/mglevel/checkpoint"
)

type Options struct {
	// Log one in N events; 0 or 1 logs all.
	BuildEvery    uint64
	EvictEvery    uint64
	SelfHealEvery uint64
	// Redact rewrites checkpoint storage keys before they are logged. The
	// default hashes the namespace segment and keeps level, name and producer.
	Redact func(string) string
}

type Hooks struct {
	l      *slog.Logger
	opts   Options
	redact func(string) string

	builds    atomic.Uint64
	evictions atomic.Uint64
	heals     atomic.Uint64
}

var (
	_ mglevel.Hooks    = (*Hooks)(nil)
	_ checkpoint.Hooks = (*Hooks)(nil)
)

func New(l *slog.Logger, opts Options) *Hooks {
	h := &Hooks{l: l, opts: opts, redact: opts.Redact}
	if h.redact == nil {
		h.redact = hashNamespace
	}
	return h
}

// hashNamespace turns "ckpt:<ns>:L0:P:sa" into "ckpt:<8 byte sha256>:L0:P:sa".
func hashNamespace(key string) string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 2 {
		sum := sha256.Sum256([]byte(key))
		return hex.EncodeToString(sum[:8])
	}
	sum := sha256.Sum256([]byte(parts[1]))
	parts[1] = hex.EncodeToString(sum[:8])
	return strings.Join(parts, ":")
}

func sampled(every uint64, ctr *atomic.Uint64) bool {
	if every <= 1 {
		return true
	}
	return ctr.Add(1)%every == 0
}

func (h *Hooks) log(lvl slog.Level, msg string, attrs ...slog.Attr) {
	if h.l == nil {
		return
	}
	h.l.LogAttrs(context.Background(), lvl, msg, attrs...)
}

func (h *Hooks) entry(lvl slog.Level, msg string, level int, name, factory string) {
	h.log(lvl, msg,
		slog.Int("level", level),
		slog.String("name", name),
		slog.String("factory", factory))
}

func (h *Hooks) FactoryBuilt(level int, factory string, took time.Duration, err error) {
	if err != nil {
		h.log(slog.LevelError, "mglevel.build_failed",
			slog.Int("level", level),
			slog.String("factory", factory),
			slog.Duration("took", took),
			slog.Any("err", err))
		return
	}
	if sampled(h.opts.BuildEvery, &h.builds) {
		h.log(slog.LevelDebug, "mglevel.built",
			slog.Int("level", level),
			slog.String("factory", factory),
			slog.Duration("took", took))
	}
}

func (h *Hooks) Evicted(level int, name, factory string) {
	if sampled(h.opts.EvictEvery, &h.evictions) {
		h.entry(slog.LevelDebug, "mglevel.evicted", level, name, factory)
	}
}

func (h *Hooks) OverReleased(level int, name, factory string) {
	h.entry(slog.LevelWarn, "mglevel.over_released", level, name, factory)
}

func (h *Hooks) UnrequestedGet(level int, name, factory string) {
	h.entry(slog.LevelWarn, "mglevel.unrequested_get", level, name, factory)
}

func (h *Hooks) Deleted(level int, name, factory string) {
	h.entry(slog.LevelDebug, "mglevel.deleted", level, name, factory)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if sampled(h.opts.SelfHealEvery, &h.heals) {
		h.log(slog.LevelDebug, "mglevel.checkpoint_self_heal",
			slog.String("key", h.redact(storageKey)),
			slog.String("reason", reason))
	}
}

func (h *Hooks) ProviderSetRejected(storageKey string, isBulk bool) {
	h.log(slog.LevelWarn, "mglevel.checkpoint_set_rejected",
		slog.String("key", h.redact(storageKey)),
		slog.Bool("is_bulk", isBulk))
}

func (h *Hooks) InvalidateOutage(storageKey string, bumpErr, delErr error) {
	h.log(slog.LevelError, "mglevel.checkpoint_invalidate_outage",
		slog.String("key", h.redact(storageKey)),
		slog.Any("bump_err", bumpErr),
		slog.Any("del_err", delErr))
}
