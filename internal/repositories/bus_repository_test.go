package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intdb "smartbus/internal/db"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

var busColumns = []string{
	"id", "company_id", "company_name", "route_from", "route_to",
	"departure_time", "arrival_time", "price", "seats", "status",
	"driver_id", "driver_name", "driver_contact", "created_at",
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func TestBusListFiltersByCompany(t *testing.T) {
	conn, mock := newMock(t)
	dep := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM active_buses b\s+LEFT JOIN companies c ON c.id = b.company_id\s+WHERE LOWER\(c.company_name\) = LOWER\(\?\)`).
		WithArgs("Volcano").
		WillReturnRows(sqlmock.NewRows(busColumns).
			AddRow(7, 2, "Volcano", "Kigali", "Huye", dep, dep.Add(3*time.Hour), 2500, 30, "", 4, "Eric", "0788", dep))

	repo := BusRepository{DB: conn, Dialect: intdb.MySQL}
	buses, err := repo.List(context.Background(), " Volcano ")
	require.NoError(t, err)
	require.Len(t, buses, 1)
	assert.Equal(t, "Huye", buses[0].Destination)
	assert.Equal(t, "Scheduled", buses[0].DisplayStatus())
	assert.Equal(t, int64(4), buses[0].DriverID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusListEmptyIsNotNil(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`FROM active_buses b`).WillReturnRows(sqlmock.NewRows(busColumns))

	buses, err := BusRepository{DB: conn}.List(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, buses)
	assert.Empty(t, buses)
}

func TestBusGetByIDNotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`WHERE b.id = \$1 LIMIT 1`).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

	_, err := BusRepository{DB: conn, Dialect: intdb.Postgres}.GetByID(context.Background(), 99)
	assert.True(t, domain.IsNotFound(err))
}

func TestBusCompanies(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`SELECT DISTINCT c.company_name`).
		WillReturnRows(sqlmock.NewRows([]string{"company_name"}).AddRow("Horizon").AddRow(" ").AddRow("Volcano"))

	names, err := BusRepository{DB: conn}.Companies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Horizon", "Volcano"}, names)
}

func TestBusInsertMySQLUsesLastInsertID(t *testing.T) {
	conn, mock := newMock(t)
	dep := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO active_buses`).
		WithArgs(int64(2), "Kigali", "Musanze", dep, dep.Add(2*time.Hour), int64(2000), 30, "Scheduled", nil, nil).
		WillReturnResult(sqlmock.NewResult(12, 1))

	id, err := BusRepository{DB: conn, Dialect: intdb.MySQL}.Insert(context.Background(), models.BusRecord{
		CompanyID: 2, From: "Kigali", Destination: "Musanze",
		DepartureTime: dep, ArrivalTime: dep.Add(2 * time.Hour),
		Price: 2000, Seats: 30, Status: "Scheduled",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBusInsertPostgresUsesReturning(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO active_buses .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, CURRENT_TIMESTAMP\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	id, err := BusRepository{DB: conn, Dialect: intdb.Postgres}.Insert(context.Background(), models.BusRecord{CompanyID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
}

func TestBusUpdateOtherCompanyIsNotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec(`UPDATE active_buses SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := BusRepository{DB: conn}.Update(context.Background(), models.BusRecord{ID: 3, CompanyID: 9})
	assert.True(t, domain.IsNotFound(err))
}

func TestBusDeleteScopedByCompany(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM active_buses WHERE id = \? AND company_id = \?`).
		WithArgs(int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, BusRepository{DB: conn}.Delete(context.Background(), 3, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}
