package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"smartbus/internal/booking"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/session"
	"smartbus/internal/utils"
)

type BusStore interface {
	BusReader
	ListByCompany(ctx context.Context, companyID int64) ([]models.Bus, error)
	Insert(ctx context.Context, rec models.BusRecord) (int64, error)
	Update(ctx context.Context, rec models.BusRecord) error
	Delete(ctx context.Context, id, companyID int64) error
}

// AdminService is the admin dashboard: CRUD over the buses of the
// signed-in admin's company. The company always comes from the session.
type AdminService struct {
	Buses    BusStore
	Location *time.Location
}

func (s AdminService) List(ctx context.Context, sess session.Session) ([]models.Bus, error) {
	return s.Buses.ListByCompany(ctx, sess.CompanyID)
}

func (s AdminService) Create(ctx context.Context, sess session.Session, in models.BusInput) (models.Bus, error) {
	rec, err := ValidateBusInput(in, s.Location)
	if err != nil {
		return models.Bus{}, err
	}
	rec.CompanyID = sess.CompanyID
	id, err := s.Buses.Insert(ctx, rec)
	if err != nil {
		return models.Bus{}, fmt.Errorf("insert bus: %w", err)
	}
	log.Printf("[ADMIN] bus created id=%d company_id=%d", id, sess.CompanyID)
	return s.Buses.GetByID(ctx, id)
}

func (s AdminService) Update(ctx context.Context, sess session.Session, id int64, in models.BusInput) (models.Bus, error) {
	if id <= 0 {
		return models.Bus{}, domain.ValidationError{Field: "id", Msg: "invalid bus id"}
	}
	rec, err := ValidateBusInput(in, s.Location)
	if err != nil {
		return models.Bus{}, err
	}
	rec.ID = id
	rec.CompanyID = sess.CompanyID
	if err := s.Buses.Update(ctx, rec); err != nil {
		return models.Bus{}, err
	}
	log.Printf("[ADMIN] bus updated id=%d company_id=%d", id, sess.CompanyID)
	return s.Buses.GetByID(ctx, id)
}

func (s AdminService) Delete(ctx context.Context, sess session.Session, id int64) error {
	if id <= 0 {
		return domain.ValidationError{Field: "id", Msg: "invalid bus id"}
	}
	if err := s.Buses.Delete(ctx, id, sess.CompanyID); err != nil {
		return err
	}
	log.Printf("[ADMIN] bus deleted id=%d company_id=%d", id, sess.CompanyID)
	return nil
}

// ValidateBusInput checks what the form's binding tags cannot: trimmed
// names, distinct endpoints and the times. Arrival may be a bare "HH:MM"
// on the departure date.
func ValidateBusInput(in models.BusInput, loc *time.Location) (models.BusRecord, error) {
	from := utils.NormalizeSpace(in.From)
	to := utils.NormalizeSpace(in.Destination)
	switch {
	case from == "":
		return models.BusRecord{}, domain.ValidationError{Field: "from", Msg: "required"}
	case to == "":
		return models.BusRecord{}, domain.ValidationError{Field: "to", Msg: "required"}
	case strings.EqualFold(from, to):
		return models.BusRecord{}, domain.ValidationError{Field: "to", Msg: "must differ from origin"}
	}

	dep, ok := utils.ParseDateTime(in.DepartureTime, loc)
	if !ok {
		return models.BusRecord{}, domain.ValidationError{Field: "departure_time", Msg: "invalid date/time"}
	}
	arr, err := booking.ParseArrival(dep, in.ArrivalTime)
	if err != nil {
		return models.BusRecord{}, err
	}
	if !arr.After(dep) {
		return models.BusRecord{}, domain.ValidationError{Field: "arrival_time", Msg: "must be after departure"}
	}

	status := utils.NormalizeSpace(in.Status)
	if status == "" {
		status = "Scheduled"
	}
	return models.BusRecord{
		From:          from,
		Destination:   to,
		DepartureTime: dep,
		ArrivalTime:   arr,
		Price:         in.Price,
		Seats:         in.Seats,
		Status:        status,
		DriverName:    utils.NormalizeSpace(in.DriverName),
		DriverContact: strings.TrimSpace(in.DriverContact),
	}, nil
}
