package domain

import (
	"errors"
	"time"
)

// Device represents a registered sensor device owned by a user. The token is
// the device's long-lived credential for the telemetry channel; it resolves
// to at most one device.
type Device struct {
	ID        int64
	UserID    int64
	Name      string
	Type      string
	Token     string
	CreatedAt time.Time
}

// Validate validates the device for persistence. Returns an error describing the first validation failure.
func (d *Device) Validate() error {
	if d.UserID == 0 {
		return errors.New("user id is required")
	}
	if d.Name == "" {
		return errors.New("device name is required")
	}
	if d.Token == "" {
		return errors.New("device token is required")
	}
	return nil
}
