package repositories

import (
	"context"
	"database/sql"
	"errors"

	intdb "smartbus/internal/db"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type DriverLocationRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

const driverLocationSelect = `
	SELECT driver_id, latitude, longitude, COALESCE(speed_kmh, 0), updated_at
	FROM driver_locations
`

func scanDriverLocation(row rowScanner) (models.DriverLocation, error) {
	var loc models.DriverLocation
	var updated sql.NullTime
	if err := row.Scan(&loc.DriverID, &loc.Latitude, &loc.Longitude, &loc.SpeedKmh, &updated); err != nil {
		return models.DriverLocation{}, err
	}
	if updated.Valid {
		loc.UpdatedAt = updated.Time
	}
	return loc, nil
}

func (r DriverLocationRepository) List(ctx context.Context) ([]models.DriverLocation, error) {
	rows, err := r.DB.QueryContext(ctx, driverLocationSelect+` ORDER BY driver_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DriverLocation{}
	for rows.Next() {
		loc, err := scanDriverLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (r DriverLocationRepository) GetByDriverID(ctx context.Context, driverID int64) (models.DriverLocation, error) {
	loc, err := scanDriverLocation(r.DB.QueryRowContext(ctx,
		r.Dialect.Rebind(driverLocationSelect+` WHERE driver_id = ? LIMIT 1`), driverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DriverLocation{}, domain.NotFoundError{Resource: "driver location", Err: err}
		}
		return models.DriverLocation{}, err
	}
	return loc, nil
}
