package services

import (
	"context"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/utils"
)

type BusLister interface {
	BusReader
	List(ctx context.Context, company string) ([]models.Bus, error)
	Companies(ctx context.Context) ([]string, error)
}

type LocationReader interface {
	List(ctx context.Context) ([]models.DriverLocation, error)
	GetByDriverID(ctx context.Context, driverID int64) (models.DriverLocation, error)
}

// BusCard is a bus as the listing shows it.
type BusCard struct {
	models.Bus
	StatusDisplay    string `json:"status_display"`
	DepartureDisplay string `json:"departure_display"`
	ArrivalDisplay   string `json:"arrival_display"`
	DayDisplay       string `json:"day_display"`
	PriceDisplay     string `json:"price_display"`
}

func NewBusCard(b models.Bus, defaultPrice int64) BusCard {
	price := b.Price
	if price <= 0 {
		price = defaultPrice
	}
	return BusCard{
		Bus:              b,
		StatusDisplay:    b.DisplayStatus(),
		DepartureDisplay: utils.FormatClock(b.DepartureTime),
		ArrivalDisplay:   utils.FormatClock(b.ArrivalTime),
		DayDisplay:       utils.FormatDay(b.DepartureTime),
		PriceDisplay:     utils.FormatRWF(price),
	}
}

type BusService struct {
	Buses        BusLister
	Locations    LocationReader
	DefaultPrice int64
}

func (s BusService) List(ctx context.Context, company string) ([]BusCard, error) {
	buses, err := s.Buses.List(ctx, company)
	if err != nil {
		return nil, err
	}
	out := make([]BusCard, 0, len(buses))
	for _, b := range buses {
		out = append(out, NewBusCard(b, s.DefaultPrice))
	}
	return out, nil
}

func (s BusService) Companies(ctx context.Context) ([]string, error) {
	return s.Buses.Companies(ctx)
}

func (s BusService) Get(ctx context.Context, id int64) (BusCard, error) {
	b, err := s.Buses.GetByID(ctx, id)
	if err != nil {
		return BusCard{}, err
	}
	return NewBusCard(b, s.DefaultPrice), nil
}

// Location is the last reported position of the bus's driver.
func (s BusService) Location(ctx context.Context, busID int64) (models.DriverLocation, error) {
	b, err := s.Buses.GetByID(ctx, busID)
	if err != nil {
		return models.DriverLocation{}, err
	}
	if b.DriverID <= 0 {
		return models.DriverLocation{}, domain.NotFoundError{Resource: "driver location"}
	}
	return s.Locations.GetByDriverID(ctx, b.DriverID)
}

func (s BusService) DriverLocations(ctx context.Context) ([]models.DriverLocation, error) {
	return s.Locations.List(ctx)
}
