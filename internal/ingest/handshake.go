package ingest

import (
	"context"
	"errors"
	"fmt"

	devicedomain "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/domain"
)

// Sentinel errors for the handshake; the supervisor maps them to wire
// behavior (Unauthorized reply vs. silent close).
var (
	// ErrUnauthorized means the token matched no registered device.
	ErrUnauthorized = errors.New("unauthorized device token")
	// ErrStoreUnavailable means the credential lookup itself failed. It must
	// never be surfaced to the peer as an auth rejection.
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// DeviceLookup is the minimal device repository needed by the handshake.
type DeviceLookup interface {
	GetByToken(ctx context.Context, token string) (*devicedomain.Device, error)
}

// Handshake validates device tokens and promotes sessions to authenticated.
type Handshake struct {
	devices DeviceLookup
}

// NewHandshake returns a Handshake backed by the given credential lookup.
func NewHandshake(devices DeviceLookup) *Handshake {
	return &Handshake{devices: devices}
}

// Authenticate resolves token to a device and promotes the session.
//
// A session authenticates at most once: calling Authenticate again on an
// authenticated session returns the existing device id without consulting
// the store, regardless of the token presented. On an unknown token it
// returns ErrUnauthorized; on a lookup failure it returns a wrapped
// ErrStoreUnavailable with no authorization determination made.
func (h *Handshake) Authenticate(ctx context.Context, s *Session, token string) (int64, error) {
	if s.Authenticated() {
		return s.DeviceID(), nil
	}

	device, err := h.devices.GetByToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if device == nil {
		return 0, ErrUnauthorized
	}

	s.promote(device.ID)
	return device.ID, nil
}
