package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/session"
)

type memBusStore struct {
	rows   map[int64]models.BusRecord
	nextID int64
}

func newMemBusStore() *memBusStore {
	return &memBusStore{rows: map[int64]models.BusRecord{}}
}

func (m *memBusStore) GetByID(_ context.Context, id int64) (models.Bus, error) {
	r, ok := m.rows[id]
	if !ok {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	return models.Bus{
		ID: r.ID, CompanyID: r.CompanyID, From: r.From, Destination: r.Destination,
		DepartureTime: r.DepartureTime, ArrivalTime: r.ArrivalTime,
		Price: r.Price, Seats: r.Seats, Status: r.Status,
	}, nil
}

func (m *memBusStore) ListByCompany(ctx context.Context, companyID int64) ([]models.Bus, error) {
	out := []models.Bus{}
	for id, r := range m.rows {
		if r.CompanyID == companyID {
			b, _ := m.GetByID(ctx, id)
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBusStore) Insert(_ context.Context, rec models.BusRecord) (int64, error) {
	m.nextID++
	rec.ID = m.nextID
	m.rows[rec.ID] = rec
	return rec.ID, nil
}

func (m *memBusStore) Update(_ context.Context, rec models.BusRecord) error {
	cur, ok := m.rows[rec.ID]
	if !ok || cur.CompanyID != rec.CompanyID {
		return domain.NotFoundError{Resource: "bus"}
	}
	m.rows[rec.ID] = rec
	return nil
}

func (m *memBusStore) Delete(_ context.Context, id, companyID int64) error {
	cur, ok := m.rows[id]
	if !ok || cur.CompanyID != companyID {
		return domain.NotFoundError{Resource: "bus"}
	}
	delete(m.rows, id)
	return nil
}

func validBusInput() models.BusInput {
	return models.BusInput{
		From:          "Kigali",
		Destination:   "Huye",
		DepartureTime: "2025-03-01T08:00",
		ArrivalTime:   "2025-03-01T11:00",
		Price:         2500,
		Seats:         30,
	}
}

func TestValidateBusInput(t *testing.T) {
	rec, err := ValidateBusInput(validBusInput(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "Scheduled", rec.Status)
	assert.Equal(t, 3*time.Hour, rec.ArrivalTime.Sub(rec.DepartureTime))

	cases := map[string]func(*models.BusInput){
		"from":           func(in *models.BusInput) { in.From = " " },
		"to":             func(in *models.BusInput) { in.Destination = "kigali" },
		"departure_time": func(in *models.BusInput) { in.DepartureTime = "tomorrow" },
		"arrival_time":   func(in *models.BusInput) { in.ArrivalTime = "2025-03-01T07:00" },
	}
	for field, mutate := range cases {
		in := validBusInput()
		mutate(&in)
		_, err := ValidateBusInput(in, time.UTC)
		var ve domain.ValidationError
		require.True(t, errors.As(err, &ve), field)
		assert.Equal(t, field, ve.Field)
	}
}

func TestValidateBusInputClockArrival(t *testing.T) {
	in := validBusInput()
	in.ArrivalTime = "13:45"
	rec, err := ValidateBusInput(in, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 13, 45, 0, 0, time.UTC), rec.ArrivalTime)

	in.ArrivalTime = "07:30"
	_, err = ValidateBusInput(in, time.UTC)
	var ve domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "must be after departure", ve.Msg)

	in.ArrivalTime = "noon"
	_, err = ValidateBusInput(in, time.UTC)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "arrival_time", ve.Field)
}

func TestAdminServiceScopesWritesToSessionCompany(t *testing.T) {
	store := newMemBusStore()
	svc := AdminService{Buses: store, Location: time.UTC}
	ctx := context.Background()
	volcano := session.Session{CompanyID: 2}
	horizon := session.Session{CompanyID: 3}

	in := validBusInput()
	b, err := svc.Create(ctx, volcano, in)
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.CompanyID)

	in.Price = 3000
	_, err = svc.Update(ctx, horizon, b.ID, in)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, domain.IsNotFound(svc.Delete(ctx, horizon, b.ID)))

	b, err = svc.Update(ctx, volcano, b.ID, in)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), b.Price)

	list, err := svc.List(ctx, volcano)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, horizon)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(ctx, volcano, b.ID))
	assert.True(t, domain.IsValidation(svc.Delete(ctx, volcano, 0)))
}
