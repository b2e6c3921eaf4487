package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
	done   chan struct{}
}

func (c *captureEmitter) Emit(ctx context.Context, event *Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	if c.done != nil {
		close(c.done)
	}
	return c.err
}

func (c *captureEmitter) Close() error { return nil }

func TestEmitAsync_Delivers(t *testing.T) {
	em := &captureEmitter{done: make(chan struct{})}
	ev := New(TypeDeviceConnected, "session-1", 0, "")

	EmitAsync(em, ev)

	select {
	case <-em.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async emit never ran")
	}
	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 1 || em.events[0] != ev {
		t.Fatalf("events = %v, want the emitted event", em.events)
	}
}

func TestEmitAsync_NilEmitterAndEvent(t *testing.T) {
	// Must not panic or spawn anything.
	EmitAsync(nil, New(TypeDeviceConnected, "s", 0, ""))
	EmitAsync(&captureEmitter{}, nil)
}

func TestEmitAsync_EmitterErrorIsSwallowed(t *testing.T) {
	em := &captureEmitter{err: errors.New("kafka down"), done: make(chan struct{})}
	EmitAsync(em, New(TypeReadingStored, "s", 7, ""))
	select {
	case <-em.done:
	case <-time.After(2 * time.Second):
		t.Fatal("async emit never ran")
	}
}

func TestNew_PopulatesFields(t *testing.T) {
	ev := New(TypeDeviceAuthorized, "session-9", 12, "detail")
	if ev.ID == "" {
		t.Error("ID should be set")
	}
	if ev.Type != TypeDeviceAuthorized {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.SessionID != "session-9" || ev.DeviceID != 12 || ev.Detail != "detail" {
		t.Errorf("unexpected fields: %+v", ev)
	}
	if ev.OccurredAt.IsZero() {
		t.Error("OccurredAt should be set")
	}
}

func TestNewKafkaEmitter_DisabledWhenUnconfigured(t *testing.T) {
	em, err := NewKafkaEmitter(nil, "topic")
	if err != nil || em != nil {
		t.Errorf("no brokers: emitter = %v, err = %v, want nil, nil", em, err)
	}
	em, err = NewKafkaEmitter([]string{"localhost:9092"}, "")
	if err != nil || em != nil {
		t.Errorf("no topic: emitter = %v, err = %v, want nil, nil", em, err)
	}
}
