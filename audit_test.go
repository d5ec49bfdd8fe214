package sessionguard

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestChannelSinkReceivesLoginEvents(t *testing.T) {
	sink := NewChannelSink(16)

	cfg := testConfig()
	cfg.Audit.Enabled = true
	engine, provider := newTestEngine(t, cfg, func(b *Builder) {
		b.WithAuditSink(sink)
	})
	seedPrincipal(t, engine, provider, "ada@school.example", "correct-horse-9", KindAdmin)

	ctx := WithClientIP(context.Background(), "203.0.113.9")
	if _, err := engine.Login(ctx, LoginRequest{
		Email:    "ada@school.example",
		Password: "correct-horse-9",
		Kind:     KindAdmin,
	}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != auditLogin {
			t.Fatalf("expected login event, got %s", event.EventType)
		}
		if !event.Success {
			t.Fatal("expected success event")
		}
		if event.IP != "203.0.113.9" {
			t.Fatalf("expected client IP on event, got %q", event.IP)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected event timestamp")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}

func TestJSONWriterSinkWritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp:   time.Now(),
		EventType:   auditUnlock,
		PrincipalID: "p-1",
		Success:     true,
	})
	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Now(),
		EventType: auditRateLimit,
		Success:   false,
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var event AuditEvent
	if err := json.Unmarshal([]byte(lines[0]), &event); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if event.EventType != auditUnlock || event.PrincipalID != "p-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(64)
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: auditLogin})
	}
	dispatcher.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 10 {
				t.Fatalf("expected 10 events after drain, got %d", received)
			}
			return
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// An unconsumed sink with buffer 1 stalls delivery and forces drops.
	blocked := NewChannelSink(1)
	dispatcher := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, blocked)

	for i := 0; i < 100; i++ {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: auditLogin})
	}

	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped events under backpressure")
	}

	// Unblock the delivery goroutine so Close can drain.
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-blocked.Events():
			case <-stop:
				return
			}
		}
	}()
	dispatcher.Close()
	close(stop)
}
