package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	readingdomain "github.com/Roulerrr/server-iot-smart-home-ver.test/internal/reading/domain"
)

var (
	// ErrNotAuthenticated means a reading arrived before the handshake
	// completed. Routine during device reconnect races; the frame is dropped.
	ErrNotAuthenticated = errors.New("session is not authenticated")
	// ErrStoreFailure means the durable write failed. The connection
	// survives; the reading is lost (at-most-once ingestion).
	ErrStoreFailure = errors.New("reading store failure")
)

// ReadingStore is the minimal reading repository needed by the ingestor.
type ReadingStore interface {
	Create(ctx context.Context, r *readingdomain.Reading) error
}

// Ingestor records sensor readings for authenticated sessions.
type Ingestor struct {
	readings ReadingStore
	now      func() time.Time
}

// NewIngestor returns an Ingestor appending to the given store.
func NewIngestor(readings ReadingStore) *Ingestor {
	return &Ingestor{readings: readings, now: time.Now}
}

// Ingest persists one reading tagged with the session's device id and the
// current time. Returns ErrNotAuthenticated without touching the store if
// the session has not completed the handshake. Missing measurement fields
// are not an error; they persist as NULL. Repeated identical readings each
// produce an independent record.
func (i *Ingestor) Ingest(ctx context.Context, s *Session, frame *ReadingFrame) error {
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}

	reading := &readingdomain.Reading{
		DeviceID:     s.DeviceID(),
		Temperature:  frame.Temperature,
		Humidity:     frame.Humidity,
		LightLevel:   frame.LightLevel,
		SoilMoisture: frame.SoilMoisture,
		CO2PPM:       frame.CO2PPM,
		RainAnalog:   frame.RainAnalog,
		RecordedAt:   i.now().UTC(),
	}
	if err := i.readings.Create(ctx, reading); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}
