package repository

import (
	"context"
	"database/sql"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/reading/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a reading repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends the reading and fills in its generated ID. Nil measurement
// fields are stored as NULL. RecordedAt must be set by the caller.
func (r *PostgresRepository) Create(ctx context.Context, rd *domain.Reading) error {
	if err := rd.Validate(); err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO sensor_data (device_id, temperature, humidity, light_level,
		                          soil_moisture, co2_ppm, rain_analog, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		rd.DeviceID,
		nullFloat(rd.Temperature), nullFloat(rd.Humidity), nullFloat(rd.LightLevel),
		nullFloat(rd.SoilMoisture), nullFloat(rd.CO2PPM), nullFloat(rd.RainAnalog),
		rd.RecordedAt,
	).Scan(&rd.ID)
}

func nullFloat(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}
