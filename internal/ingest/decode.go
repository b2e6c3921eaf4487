// Package ingest implements the device telemetry channel: frame decoding,
// per-connection session state, the authentication handshake, and durable
// recording of sensor readings. A Supervisor ties these together and owns
// the registry of live sessions.
package ingest

import (
	"encoding/json"
	"errors"
)

// Frame type discriminators on the wire.
const (
	FrameAuth          = "auth"
	FrameSensorReading = "sensor_reading"
)

// ErrMalformedFrame is returned by Decode for frames that are not valid JSON
// or carry no type discriminator.
var ErrMalformedFrame = errors.New("malformed frame")

// AuthFrame is the payload of an auth frame.
type AuthFrame struct {
	DeviceToken string `json:"device_token"`
}

// ReadingFrame is the payload of a sensor_reading frame. Every measurement is
// independently optional; absent or null fields decode to nil.
type ReadingFrame struct {
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	LightLevel   *float64 `json:"light_level"`
	SoilMoisture *float64 `json:"soil_moisture"`
	CO2PPM       *float64 `json:"co2_ppm"`
	RainAnalog   *float64 `json:"rain_analog"`
}

// Envelope is the decoded, typed representation of one frame. Exactly one of
// Auth and Reading is set, matching Type; both are nil for frame types this
// system does not recognize.
type Envelope struct {
	Type    string
	Auth    *AuthFrame
	Reading *ReadingFrame
}

// Decode parses a raw frame into an Envelope. It is a pure function: no I/O,
// deterministic for the same bytes. Invalid JSON or a missing type
// discriminator returns ErrMalformedFrame, never a partial envelope. An
// unrecognized type is not an error; callers ignore such envelopes.
func Decode(raw []byte) (*Envelope, error) {
	var frame struct {
		Type string `json:"type"`
		ReadingFrame
		DeviceToken string `json:"device_token"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, ErrMalformedFrame
	}
	if frame.Type == "" {
		return nil, ErrMalformedFrame
	}

	env := &Envelope{Type: frame.Type}
	switch frame.Type {
	case FrameAuth:
		env.Auth = &AuthFrame{DeviceToken: frame.DeviceToken}
	case FrameSensorReading:
		reading := frame.ReadingFrame
		env.Reading = &reading
	}
	return env, nil
}
