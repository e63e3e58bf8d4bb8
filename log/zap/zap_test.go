package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/mglevel"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("built", mglevel.Fields{"level": 1, "factory": "tentative"})
	l.Error("build failed", mglevel.Fields{"err": errors.New("singular")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d", len(entries))
	}
	if entries[0].LoggerName != "mglevel" || entries[0].ContextMap()["factory"] != "tentative" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["err"] != "singular" {
		t.Fatalf("unexpected entry %+v", entries[1].ContextMap())
	}
}

func TestZapLoggerThroughLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	lvl := mglevel.NewLevel(mglevel.Options{Logger: New(zap.New(core))})

	if _, err := mglevel.Get[int](lvl, "A", mglevel.Unspecified); err == nil {
		t.Fatalf("expected ErrNoDefaultFactory")
	}
	if logs.FilterMessage("no default factory").Len() != 1 {
		t.Fatalf("misconfiguration not logged at warn: %v", logs.All())
	}
}
