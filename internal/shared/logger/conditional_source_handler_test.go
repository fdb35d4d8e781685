package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func emitAt(l *slog.Logger, level slog.Level, msg string) {
	switch level {
	case slog.LevelDebug:
		l.Debug(msg)
	case slog.LevelInfo:
		l.Info(msg)
	case slog.LevelWarn:
		l.Warn(msg)
	case slog.LevelError:
		l.Error(msg)
	}
}

func TestConditionalSourceHandler(t *testing.T) {
	warnAndUp := []slog.Level{slog.LevelWarn, slog.LevelError}

	tests := []struct {
		name       string
		level      slog.Level
		levels     []slog.Level
		wantSource bool
	}{
		{"debug suppressed", slog.LevelDebug, warnAndUp, false},
		{"info suppressed", slog.LevelInfo, warnAndUp, false},
		{"warn annotated", slog.LevelWarn, warnAndUp, true},
		{"error annotated", slog.LevelError, warnAndUp, true},
		{"info annotated when listed", slog.LevelInfo, []slog.Level{slog.LevelInfo}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
			l := slog.New(NewConditionalSourceHandler(base, tt.levels...))

			emitAt(l, tt.level, "reconcile pass finished")

			gotSource := strings.Contains(buf.String(), "source=")
			if gotSource != tt.wantSource {
				t.Errorf("source present = %v, want %v; output: %s", gotSource, tt.wantSource, buf.String())
			}
		})
	}
}

func TestConditionalSourceHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
	l := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).With("allocation_id", "42")

	l.Info("membership synced")

	out := buf.String()
	if strings.Contains(out, "source=") {
		t.Errorf("did not expect source on info record: %s", out)
	}
	if !strings.Contains(out, "allocation_id=42") {
		t.Errorf("attached attribute missing: %s", out)
	}
}

func TestConditionalSourceHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: false})
	l := slog.New(NewConditionalSourceHandler(base, slog.LevelError)).WithGroup("request")

	l.Info("handled", "path", "/api/v1/allocations")

	out := buf.String()
	if strings.Contains(out, "source=") {
		t.Errorf("did not expect source on info record: %s", out)
	}
	if !strings.Contains(out, "path") {
		t.Errorf("grouped attribute missing: %s", out)
	}
}

func TestConditionalSourceHandlerEnabled(t *testing.T) {
	base := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelInfo})
	h := NewConditionalSourceHandler(base, slog.LevelError)

	ctx := context.Background()
	if !h.Enabled(ctx, slog.LevelInfo) {
		t.Error("info should be enabled")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("error should be enabled")
	}
	if h.Enabled(ctx, slog.LevelDebug) {
		t.Error("debug should be disabled by the wrapped handler's level")
	}
}
