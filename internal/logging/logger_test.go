package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogger_DebugHiddenFromTerminalButPublished(t *testing.T) {
	var out bytes.Buffer
	logger := New(false)
	logger.SetOutput(&out)

	var events []Event
	unsubscribe := logger.Subscribe(func(e Event) { events = append(events, e) })
	defer unsubscribe()

	logger.Debug("scanning workdir")
	logger.Info("status message sent")

	if strings.Contains(out.String(), "scanning workdir") {
		t.Fatalf("debug line should not reach terminal: %q", out.String())
	}
	if !strings.Contains(out.String(), "status message sent") {
		t.Fatalf("info line missing from terminal: %q", out.String())
	}
	if len(events) != 2 || events[0].Level != slog.LevelDebug {
		t.Fatalf("subscriber events = %#v", events)
	}

	logger.SetDebugEnabled(true)
	logger.Debugf("found %d videos", 2)
	if !strings.Contains(out.String(), "found 2 videos") {
		t.Fatalf("debug line missing after enabling debug: %q", out.String())
	}
}

func TestLogger_SecretIsMasked(t *testing.T) {
	var out bytes.Buffer
	logger := New(true)
	logger.SetOutput(&out)

	logger.Debug("resolved inputs", Secret("token", "EAAB-super-secret"), Secret("empty", ""))
	if strings.Contains(out.String(), "super-secret") {
		t.Fatalf("secret leaked: %q", out.String())
	}
	if !strings.Contains(out.String(), "token=***") || !strings.Contains(out.String(), "empty=<empty>") {
		t.Fatalf("unexpected masked output: %q", out.String())
	}
}

func TestLogger_UnsubscribeStopsDelivery(t *testing.T) {
	logger := New(false)
	logger.SetTerminalOutputEnabled(false)
	count := 0
	unsubscribe := logger.Subscribe(func(Event) { count++ })
	logger.Info("one")
	unsubscribe()
	logger.Info("two")
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}
