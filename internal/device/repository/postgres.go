package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/device/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, device_name, device_type, device_token, created_at
		 FROM data_device WHERE id = $1`, id)
	return scanDevice(row)
}

// GetByToken returns the device holding the given credential token, or nil if
// no device matches. It returns an error only for database failures.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, device_name, device_type, device_token, created_at
		 FROM data_device WHERE device_token = $1`, token)
	return scanDevice(row)
}

// ListByUser returns all devices registered by the given user. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, device_name, device_type, device_token, created_at
		 FROM data_device WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Device
	for rows.Next() {
		var d domain.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.Token, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// Create persists the device and fills in its generated ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO data_device (user_id, device_name, device_type, device_token)
		 VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		d.UserID, d.Name, d.Type, d.Token,
	).Scan(&d.ID, &d.CreatedAt)
}

func scanDevice(row *sql.Row) (*domain.Device, error) {
	var d domain.Device
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.Token, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}
