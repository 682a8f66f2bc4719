package logging_test

import (
	"context"
	"testing"
	"time"

	"hero-arena/server/logging"
	"hero-arena/server/logging/sinks"
)

func TestRouterFansOutAndAddsFields(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "arena"}
	fixed := time.Unix(100, 0)
	router, err := logging.NewRouter(logging.ClockFunc(func() time.Time { return fixed }), cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "test.event", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "test.debug", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the info event to reach the sink, got %d", len(events))
	}
	if events[0].Extra["service"] != "arena" {
		t.Fatalf("expected static field to be attached, got %+v", events[0].Extra)
	}
	if !events[0].Time.Equal(fixed) {
		t.Fatalf("expected router clock to stamp the event, got %v", events[0].Time)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if router.Sink("memory") != memory {
		t.Fatalf("expected named sink lookup to return the memory sink")
	}
}

func TestWithFieldsDoesNotOverrideExtra(t *testing.T) {
	var got logging.Event
	pub := logging.WithFields(logging.PublisherFunc(func(_ context.Context, e logging.Event) { got = e }), map[string]any{"session": "a", "k": "v"})
	pub.Publish(context.Background(), logging.Event{Type: "x", Extra: map[string]any{"session": "b"}})
	if got.Extra["session"] != "b" || got.Extra["k"] != "v" {
		t.Fatalf("unexpected extra %+v", got.Extra)
	}
}

func TestParseSeverity(t *testing.T) {
	cases := map[string]logging.Severity{"debug": logging.SeverityDebug, "WARN": logging.SeverityWarn, "error": logging.SeverityError, "": logging.SeverityInfo}
	for in, want := range cases {
		got, ok := logging.ParseSeverity(in)
		if !ok || got != want {
			t.Fatalf("ParseSeverity(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := logging.ParseSeverity("loud"); ok {
		t.Fatalf("expected unknown severity to be rejected")
	}
}

func TestMetricsAddAndStore(t *testing.T) {
	var m logging.Metrics
	m.TelemetryAdd("a", 2)
	m.TelemetryAdd("a", 3)
	m.TelemetryStore("b", 7)
	snap := m.Snapshot()
	if snap["a"] != 5 || snap["b"] != 7 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}
