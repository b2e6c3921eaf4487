package repository

import (
	"context"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/domain"
)

// Repository defines persistence for devices.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Device, error)
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
}
