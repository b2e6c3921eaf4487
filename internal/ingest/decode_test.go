package ingest

import (
	"errors"
	"testing"
)

func TestDecode_Auth(t *testing.T) {
	env, err := Decode([]byte(`{"type":"auth","device_token":"T1"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != FrameAuth {
		t.Errorf("Type = %q, want %q", env.Type, FrameAuth)
	}
	if env.Auth == nil || env.Auth.DeviceToken != "T1" {
		t.Errorf("Auth = %+v, want device token T1", env.Auth)
	}
	if env.Reading != nil {
		t.Error("Reading should be nil for an auth frame")
	}
}

func TestDecode_SensorReading(t *testing.T) {
	raw := []byte(`{"type":"sensor_reading","temperature":21.5,"humidity":null,"co2_ppm":417}`)
	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != FrameSensorReading {
		t.Fatalf("Type = %q, want %q", env.Type, FrameSensorReading)
	}
	r := env.Reading
	if r == nil {
		t.Fatal("Reading is nil")
	}
	if r.Temperature == nil || *r.Temperature != 21.5 {
		t.Errorf("Temperature = %v, want 21.5", r.Temperature)
	}
	if r.Humidity != nil {
		t.Errorf("Humidity = %v, want nil (explicit null)", *r.Humidity)
	}
	if r.CO2PPM == nil || *r.CO2PPM != 417 {
		t.Errorf("CO2PPM = %v, want 417", r.CO2PPM)
	}
	if r.LightLevel != nil || r.SoilMoisture != nil || r.RainAnalog != nil {
		t.Error("absent measurements should decode to nil")
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "this is not json"},
		{"empty", ""},
		{"truncated", `{"type":"auth"`},
		{"no discriminator", `{"device_token":"T1"}`},
		{"empty discriminator", `{"type":""}`},
		{"null document", `null`},
		{"scalar document", `42`},
		{"wrong discriminator type", `{"type":7}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode([]byte(tc.raw))
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("Decode(%q) err = %v, want ErrMalformedFrame", tc.raw, err)
			}
			if env != nil {
				t.Errorf("Decode(%q) returned partial envelope %+v", tc.raw, env)
			}
		})
	}
}

func TestDecode_UnrecognizedType(t *testing.T) {
	env, err := Decode([]byte(`{"type":"firmware_update","url":"http://x"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Type != "firmware_update" {
		t.Errorf("Type = %q", env.Type)
	}
	if env.Auth != nil || env.Reading != nil {
		t.Error("unrecognized frames must carry no payload variant")
	}
}

func TestDecode_Deterministic(t *testing.T) {
	raw := []byte(`{"type":"sensor_reading","temperature":1}`)
	a, errA := Decode(raw)
	b, errB := Decode(raw)
	if errA != nil || errB != nil {
		t.Fatalf("Decode: %v, %v", errA, errB)
	}
	if a.Type != b.Type || *a.Reading.Temperature != *b.Reading.Temperature {
		t.Error("Decode is not deterministic for identical input")
	}
}
