package repository

import (
	"context"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/reading/domain"
)

// Repository defines persistence for sensor readings. Readings are
// append-only; this subsystem never updates or deletes them.
type Repository interface {
	Create(ctx context.Context, r *domain.Reading) error
}
