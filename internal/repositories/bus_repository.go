package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	intdb "smartbus/internal/db"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// BusRepository reads and writes the active_buses table. Company names live
// in companies and are joined in on every read.
type BusRepository struct {
	DB      *sql.DB
	Dialect intdb.Dialect
}

const busSelect = `
	SELECT
		b.id,
		b.company_id,
		COALESCE(c.company_name, ''),
		COALESCE(b.route_from, ''),
		COALESCE(b.route_to, ''),
		b.departure_time,
		b.arrival_time,
		COALESCE(b.price, 0),
		COALESCE(b.seats, 0),
		COALESCE(b.status, ''),
		COALESCE(b.driver_id, 0),
		COALESCE(b.driver_name, ''),
		COALESCE(b.driver_contact, ''),
		b.created_at
	FROM active_buses b
	LEFT JOIN companies c ON c.id = b.company_id
`

func scanBus(row rowScanner) (models.Bus, error) {
	var b models.Bus
	var created sql.NullTime
	if err := row.Scan(
		&b.ID,
		&b.CompanyID,
		&b.Company,
		&b.From,
		&b.Destination,
		&b.DepartureTime,
		&b.ArrivalTime,
		&b.Price,
		&b.Seats,
		&b.Status,
		&b.DriverID,
		&b.DriverName,
		&b.DriverContact,
		&created,
	); err != nil {
		return models.Bus{}, err
	}
	if created.Valid {
		b.CreatedAt = created.Time
	}
	return b, nil
}

func (r BusRepository) queryBuses(ctx context.Context, query string, args ...any) ([]models.Bus, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Bus{}
	for rows.Next() {
		b, err := scanBus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns every active bus, optionally only those of one company
// (matched on company name, case-insensitive).
func (r BusRepository) List(ctx context.Context, company string) ([]models.Bus, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return r.queryBuses(ctx, busSelect+` ORDER BY b.departure_time ASC, b.id ASC`)
	}
	return r.queryBuses(ctx,
		busSelect+` WHERE LOWER(c.company_name) = LOWER(?) ORDER BY b.departure_time ASC, b.id ASC`,
		company)
}

// Companies lists the distinct company names that currently have buses.
func (r BusRepository) Companies(ctx context.Context) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT c.company_name
		FROM companies c
		JOIN active_buses b ON b.company_id = c.id
		WHERE c.company_name IS NOT NULL
		ORDER BY c.company_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, rows.Err()
}

func (r BusRepository) GetByID(ctx context.Context, id int64) (models.Bus, error) {
	b, err := scanBus(r.DB.QueryRowContext(ctx, r.Dialect.Rebind(busSelect+` WHERE b.id = ? LIMIT 1`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Bus{}, domain.NotFoundError{Resource: "bus", Err: err}
		}
		return models.Bus{}, err
	}
	return b, nil
}

// ListByCompany is the admin dashboard listing, earliest departure first.
func (r BusRepository) ListByCompany(ctx context.Context, companyID int64) ([]models.Bus, error) {
	return r.queryBuses(ctx, busSelect+` WHERE b.company_id = ? ORDER BY b.departure_time ASC, b.id ASC`, companyID)
}

func (r BusRepository) Insert(ctx context.Context, rec models.BusRecord) (int64, error) {
	args := []any{
		rec.CompanyID,
		rec.From,
		rec.Destination,
		rec.DepartureTime,
		rec.ArrivalTime,
		rec.Price,
		rec.Seats,
		rec.Status,
		intdb.NullIfEmpty(rec.DriverName),
		intdb.NullIfEmpty(rec.DriverContact),
	}
	insert := `
		INSERT INTO active_buses
			(company_id, route_from, route_to, departure_time, arrival_time, price, seats, status, driver_name, driver_contact, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

	if r.Dialect == intdb.Postgres {
		var id int64
		err := r.DB.QueryRowContext(ctx, r.Dialect.Rebind(insert+` RETURNING id`), args...).Scan(&id)
		return id, err
	}
	res, err := r.DB.ExecContext(ctx, insert, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites a bus owned by rec.CompanyID. A row of another company is
// reported as not found.
func (r BusRepository) Update(ctx context.Context, rec models.BusRecord) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`
		UPDATE active_buses SET
			route_from = ?,
			route_to = ?,
			departure_time = ?,
			arrival_time = ?,
			price = ?,
			seats = ?,
			status = ?,
			driver_name = ?,
			driver_contact = ?
		WHERE id = ? AND company_id = ?`),
		rec.From,
		rec.Destination,
		rec.DepartureTime,
		rec.ArrivalTime,
		rec.Price,
		rec.Seats,
		rec.Status,
		intdb.NullIfEmpty(rec.DriverName),
		intdb.NullIfEmpty(rec.DriverContact),
		rec.ID,
		rec.CompanyID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res, "bus")
}

func (r BusRepository) Delete(ctx context.Context, id, companyID int64) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.Rebind(`DELETE FROM active_buses WHERE id = ? AND company_id = ?`), id, companyID)
	if err != nil {
		return err
	}
	return requireAffected(res, "bus")
}

func requireAffected(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFoundError{Resource: resource}
	}
	return nil
}
