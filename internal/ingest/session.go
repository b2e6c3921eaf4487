package ingest

import "github.com/google/uuid"

// Session is the per-connection mutable state tracking authentication
// progress. It is owned exclusively by the goroutine serving its connection;
// the supervisor registry holds it only to count and evict it. No locking is
// needed because no other goroutine reads or writes it.
type Session struct {
	id       string
	deviceID int64 // 0 until authenticated
}

// NewSession returns an unauthenticated session with a fresh handle id.
func NewSession() *Session {
	return &Session{id: uuid.New().String()}
}

// ID returns the session's handle id, unique per connection.
func (s *Session) ID() string {
	return s.id
}

// Authenticated reports whether the session has completed the handshake.
func (s *Session) Authenticated() bool {
	return s.deviceID != 0
}

// DeviceID returns the authenticated device id, or 0 if the handshake has
// not completed.
func (s *Session) DeviceID() int64 {
	return s.deviceID
}

// promote sets the session's device identity. Identity is set at most once
// for the life of the connection: a session that is already authenticated
// keeps its existing device id and promote reports false. This is what makes
// a repeated auth frame a no-op and a forged later token unable to rebind
// the connection.
func (s *Session) promote(deviceID int64) bool {
	if s.deviceID != 0 || deviceID == 0 {
		return false
	}
	s.deviceID = deviceID
	return true
}
