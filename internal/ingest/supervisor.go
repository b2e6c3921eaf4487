package ingest

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/events"
)

// Conn is the transport half the supervisor needs: sending replies and
// closing. *websocket.Conn wrapped by the server package satisfies it;
// tests use an in-memory fake.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// SessionHandle pairs a live session with its connection. It is handed back
// to the transport on connect and passed to every frame dispatch. Only the
// goroutine serving the connection may use it.
type SessionHandle struct {
	session *Session
	conn    Conn
}

// ID returns the session handle id.
func (h *SessionHandle) ID() string { return h.session.ID() }

// DeviceID returns the authenticated device id, or 0 before the handshake.
func (h *SessionHandle) DeviceID() int64 { return h.session.DeviceID() }

// Wire replies on the telemetry channel.
type authReply struct {
	Status   string `json:"status"`
	DeviceID int64  `json:"deviceId,omitempty"`
}

type errorReply struct {
	Error string `json:"error"`
}

const (
	statusAuthorized   = "Authorized"
	statusUnauthorized = "Unauthorized"
	invalidJSONMessage = "Invalid JSON format"
)

// Supervisor owns the set of live device sessions and routes each inbound
// frame through decode, handshake, and ingestion. The session registry is
// the only state shared across connection goroutines; everything else is
// owned by the goroutine serving the connection, so frames on one
// connection are processed strictly in arrival order and connections never
// block each other.
type Supervisor struct {
	handshake *Handshake
	ingestor  *Ingestor
	emitter   events.Emitter
	metrics   *Metrics

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSupervisor returns a Supervisor dispatching to the given handshake and
// ingestor. emitter and metrics may be nil.
func NewSupervisor(handshake *Handshake, ingestor *Ingestor, emitter events.Emitter, metrics *Metrics) *Supervisor {
	return &Supervisor{
		handshake: handshake,
		ingestor:  ingestor,
		emitter:   emitter,
		metrics:   metrics,
		sessions:  make(map[string]*Session),
	}
}

// OnConnect registers a new unauthenticated session for conn and returns its
// handle. No I/O is performed.
func (sv *Supervisor) OnConnect(conn Conn) *SessionHandle {
	s := NewSession()
	sv.mu.Lock()
	sv.sessions[s.ID()] = s
	sv.mu.Unlock()

	log.Printf("ingest: session %s connected", s.ID())
	events.EmitAsync(sv.emitter, events.New(events.TypeDeviceConnected, s.ID(), 0, ""))
	return &SessionHandle{session: s, conn: conn}
}

// OnFrame processes one inbound frame for the session. It never lets an
// error escape: decode failures are reported back on the connection, which
// stays open; a failed handshake closes the connection; everything else is
// logged. Only the goroutine serving the connection may call it, which is
// what preserves per-connection frame ordering.
func (sv *Supervisor) OnFrame(ctx context.Context, h *SessionHandle, raw []byte) {
	env, err := Decode(raw)
	if err != nil {
		sv.metrics.frameMalformed(ctx)
		sv.reply(h, errorReply{Error: invalidJSONMessage})
		return
	}
	sv.metrics.frameDecoded(ctx)

	switch env.Type {
	case FrameAuth:
		sv.handleAuth(ctx, h, env.Auth)
	case FrameSensorReading:
		sv.handleReading(ctx, h, env.Reading)
	default:
		// Valid JSON with a type this system does not speak; ignore.
	}
}

func (sv *Supervisor) handleAuth(ctx context.Context, h *SessionHandle, frame *AuthFrame) {
	deviceID, err := sv.handshake.Authenticate(ctx, h.session, frame.DeviceToken)
	switch {
	case err == nil:
		sv.metrics.authorized(ctx)
		log.Printf("ingest: session %s authorized as device %d", h.ID(), deviceID)
		events.EmitAsync(sv.emitter, events.New(events.TypeDeviceAuthorized, h.ID(), deviceID, ""))
		sv.reply(h, authReply{Status: statusAuthorized, DeviceID: deviceID})
	case errors.Is(err, ErrUnauthorized):
		sv.metrics.rejected(ctx)
		log.Printf("ingest: session %s rejected: unknown device token", h.ID())
		events.EmitAsync(sv.emitter, events.New(events.TypeDeviceAuthRejected, h.ID(), 0, "unknown token"))
		sv.reply(h, authReply{Status: statusUnauthorized})
		_ = h.conn.Close()
	default:
		// Credential store failure. Close with no determination so an
		// outage never reads as Unauthorized on the device side.
		log.Printf("ingest: session %s handshake aborted: %v", h.ID(), err)
		_ = h.conn.Close()
	}
}

func (sv *Supervisor) handleReading(ctx context.Context, h *SessionHandle, frame *ReadingFrame) {
	err := sv.ingestor.Ingest(ctx, h.session, frame)
	switch {
	case err == nil:
		sv.metrics.readingStored(ctx)
		events.EmitAsync(sv.emitter, events.New(events.TypeReadingStored, h.ID(), h.DeviceID(), ""))
	case errors.Is(err, ErrNotAuthenticated):
		// Unauthenticated telemetry is routine (reconnect race); drop it.
		sv.metrics.readingDropped(ctx)
	default:
		// Store failure: the device is fine, keep the connection.
		sv.metrics.storeFailure(ctx)
		log.Printf("ingest: session %s reading not stored: %v", h.ID(), err)
	}
}

// OnDisconnect removes the session from the registry. Idempotent; a handle
// that was never registered or already removed is a no-op. In-flight store
// calls from the last frame complete independently.
func (sv *Supervisor) OnDisconnect(h *SessionHandle) {
	if h == nil {
		return
	}
	sv.mu.Lock()
	_, known := sv.sessions[h.ID()]
	delete(sv.sessions, h.ID())
	sv.mu.Unlock()
	if !known {
		return
	}

	log.Printf("ingest: session %s (device %d) disconnected", h.ID(), h.DeviceID())
	events.EmitAsync(sv.emitter, events.New(events.TypeDeviceDisconnected, h.ID(), h.DeviceID(), ""))
}

// SessionCount returns the number of live sessions.
func (sv *Supervisor) SessionCount() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return len(sv.sessions)
}

// reply writes a JSON payload back on the session's connection. Write
// failures are logged; the read loop notices the broken connection on its
// next read.
func (sv *Supervisor) reply(h *SessionHandle, v any) {
	if err := h.conn.WriteJSON(v); err != nil {
		log.Printf("ingest: session %s reply failed: %v", h.ID(), err)
	}
}
