package log

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorAttachesErr(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(zap.NewNop()) })

	Error("fetch failed", errors.New("timeout"), "resource", "schedules")
	Debug("detail", "n", 3)

	got := logs.FilterMessage("fetch failed").All()
	if len(got) != 1 {
		t.Fatalf("entries = %d", len(got))
	}
	fields := got[0].ContextMap()
	if fields["err"] != "timeout" || fields["resource"] != "schedules" {
		t.Fatalf("fields = %v", fields)
	}
	if got[0].Level != zapcore.ErrorLevel {
		t.Fatalf("level = %v", got[0].Level)
	}
	if logs.FilterMessage("detail").Len() != 1 {
		t.Fatal("debug entry missing")
	}
}
