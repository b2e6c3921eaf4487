// Package events emits connection and ingestion lifecycle events,
// optionally to Kafka. Emission is best-effort everywhere: callers log and
// ignore failures.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the telemetry channel.
const (
	TypeDeviceConnected    = "device_connected"
	TypeDeviceAuthorized   = "device_authorized"
	TypeDeviceAuthRejected = "device_auth_rejected"
	TypeDeviceDisconnected = "device_disconnected"
	TypeReadingStored      = "reading_stored"
)

// Event is one lifecycle event on the telemetry channel.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id,omitempty"`
	DeviceID   int64     `json:"device_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event with a fresh id and the current time.
func New(eventType, sessionID string, deviceID int64, detail string) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		SessionID:  sessionID,
		DeviceID:   deviceID,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	}
}

// Emitter emits lifecycle events (e.g. to Kafka). Best-effort; callers log and ignore errors.
type Emitter interface {
	// Emit sends a single event. Implementations may block briefly; use
	// EmitAsync from request/frame paths.
	Emit(ctx context.Context, event *Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
