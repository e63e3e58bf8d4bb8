// Package zap adapts a *zap.Logger to mglevel.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/mglevel"
)

var _ mglevel.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New names the logger "mglevel" so level traffic can be filtered.
func New(l *zap.Logger) ZapLogger { return ZapLogger{L: l.Named("mglevel")} }

func (z ZapLogger) Debug(msg string, f mglevel.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f mglevel.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f mglevel.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f mglevel.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f mglevel.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
