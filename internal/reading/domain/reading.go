package domain

import (
	"errors"
	"time"
)

// Reading is one persisted sensor measurement set from an authenticated
// device. Measurement fields are pointers because each is independently
// optional at the wire level; nil persists as SQL NULL. Rows are append-only.
type Reading struct {
	ID           int64
	DeviceID     int64
	Temperature  *float64
	Humidity     *float64
	LightLevel   *float64
	SoilMoisture *float64
	CO2PPM       *float64
	RainAnalog   *float64
	RecordedAt   time.Time
}

// Validate validates the reading for persistence. A reading with every
// measurement missing is still valid; only the device tag is required.
func (r *Reading) Validate() error {
	if r.DeviceID == 0 {
		return errors.New("device id is required")
	}
	return nil
}
