package admingate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDisabledDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("disabled audit must not start a dispatcher")
	}

	// The nil dispatcher is safe to use.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestAuditDeliversEvents(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditSignInSuccess})
	}
	d.Close()

	if got := sink.Count(); got != 5 {
		t.Fatalf("delivered %d events, want 5", got)
	}
}

func TestAuditDropIfFull(t *testing.T) {
	sink := newGateSink()
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event occupies the worker, one fills the buffer, the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditSignInFailure})
	}

	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}

	close(sink.gate)
	d.Close()
}

func TestAuditCloseDrainsQueue(t *testing.T) {
	sink := &countingSink{}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 64, DropIfFull: false}, sink)

	for i := 0; i < 20; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	}
	d.Close()

	if got := sink.Count(); got != 20 {
		t.Fatalf("delivered %d events after close, want 20", got)
	}

	// Emit after close is a no-op.
	d.Emit(context.Background(), AuditEvent{EventType: AuditLogout})
	if got := sink.Count(); got != 20 {
		t.Fatalf("post-close emit delivered, count %d", got)
	}
}

func TestAuthorityEmitsSignInEvents(t *testing.T) {
	sink := NewChannelSink(16)
	store := &fakeStore{}
	provider := newFakeProvider()
	provider.add("admin@example.com", "opensesame123", "u-admin", "admin")

	cfg := defaultConfig()
	cfg.Audit.Enabled = true

	authority, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithProvider(provider).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(authority.Close)

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	if err := authority.SignIn(ctx, "admin@example.com", "opensesame123"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != AuditSignInSuccess {
			t.Fatalf("EventType = %q, want %q", event.EventType, AuditSignInSuccess)
		}
		if event.UserID != "u-admin" || event.IP != "203.0.113.7" || !event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("event timestamp must be set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		EventType: AuditLogout,
		UserID:    "u-1",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var event AuditEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		t.Fatalf("unmarshal emitted line: %v", err)
	}
	if event.EventType != AuditLogout || event.UserID != "u-1" || !event.Success {
		t.Fatalf("unexpected event: %+v", event)
	}
}
