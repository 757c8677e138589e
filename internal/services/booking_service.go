package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartbus/internal/booking"
	"smartbus/internal/clock"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/events"
	"smartbus/internal/utils"
)

// BusReader is the slice of the bus repository a booking needs.
type BusReader interface {
	GetByID(ctx context.Context, id int64) (models.Bus, error)
}

type BookingConfig struct {
	Flow          booking.FlowConfig
	OccupiedSeats []int
	PaymentDelay  time.Duration
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// BookingService holds the in-progress booking flows and the tickets they
// produced. Nothing here is persisted: tickets live for the process
// lifetime.
type BookingService struct {
	buses  BusReader
	clk    clock.Clock
	events events.Publisher
	cfg    BookingConfig

	mu      sync.Mutex
	flows   map[string]*flowEntry
	tickets map[string]*booking.Ticket
	taken   map[int64]map[int]struct{}
}

type flowEntry struct {
	flow *booking.Flow
}

type StartBookingRequest struct {
	BusID     int64  `json:"bus_id"`
	Direct    bool   `json:"direct"`
	Passenger string `json:"passenger"`
}

type TicketEvent struct {
	TicketID  string    `json:"ticket_id"`
	Reference string    `json:"reference"`
	BookingID string    `json:"booking_id"`
	BusID     int64     `json:"bus_id"`
	Seats     []int     `json:"seats"`
	Fare      int64     `json:"fare"`
	At        time.Time `json:"at"`
}

func NewBookingService(buses BusReader, clk clock.Clock, pub events.Publisher, cfg BookingConfig) *BookingService {
	if pub == nil {
		pub = events.Noop{}
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &BookingService{
		buses:   buses,
		clk:     clk,
		events:  pub,
		cfg:     cfg,
		flows:   map[string]*flowEntry{},
		tickets: map[string]*booking.Ticket{},
		taken:   map[int64]map[int]struct{}{},
	}
}

// Start opens a booking flow. With a bus id the bus is selected right away;
// without one the flow waits at the listing step.
func (s *BookingService) Start(ctx context.Context, req StartBookingRequest) (booking.FlowView, error) {
	f := booking.NewFlow(uuid.NewString(), s.cfg.Flow, s.occupiedSeats, s.clk.Now())
	f.SetPassenger(utils.NormalizeSpace(req.Passenger))
	if req.BusID > 0 {
		bus, err := s.buses.GetByID(ctx, req.BusID)
		if err != nil {
			return booking.FlowView{}, err
		}
		if err := f.SelectBus(bus, req.Direct); err != nil {
			return booking.FlowView{}, err
		}
	}

	s.mu.Lock()
	s.flows[f.ID] = &flowEntry{flow: f}
	s.mu.Unlock()

	log.Printf("[BOOKING] started flow=%s bus_id=%d direct=%t", f.ID, req.BusID, req.Direct)
	return f.View(), nil
}

func (s *BookingService) SelectBus(ctx context.Context, id string, busID int64, direct bool) (booking.FlowView, error) {
	f, err := s.flow(id)
	if err != nil {
		return booking.FlowView{}, err
	}
	bus, err := s.buses.GetByID(ctx, busID)
	if err != nil {
		return booking.FlowView{}, err
	}
	if err := f.SelectBus(bus, direct); err != nil {
		return booking.FlowView{}, err
	}
	return f.View(), nil
}

func (s *BookingService) Get(id string) (booking.FlowView, error) {
	f, err := s.flow(id)
	if err != nil {
		return booking.FlowView{}, err
	}
	return f.View(), nil
}

func (s *BookingService) Continue(id string) (booking.FlowView, error) {
	return s.apply(id, (*booking.Flow).Continue)
}

func (s *BookingService) ToggleSeat(id string, seat int) (booking.FlowView, error) {
	return s.apply(id, func(f *booking.Flow) error { return f.ToggleSeat(seat) })
}

func (s *BookingService) SelectMethod(id, method string) (booking.FlowView, error) {
	return s.apply(id, func(f *booking.Flow) error { return f.SelectMethod(method) })
}

func (s *BookingService) UpdatePayment(id string, in booking.PaymentInput) (booking.FlowView, error) {
	return s.apply(id, func(f *booking.Flow) error { return f.UpdatePayment(in) })
}

func (s *BookingService) Proceed(id string) (booking.FlowView, error) {
	return s.apply(id, (*booking.Flow).Proceed)
}

func (s *BookingService) Back(id string) (booking.FlowView, error) {
	return s.apply(id, (*booking.Flow).Back)
}

// Confirm submits the simulated payment. The ticket is issued once the
// configured delay has elapsed on the service clock.
func (s *BookingService) Confirm(id string) (booking.FlowView, error) {
	s.mu.Lock()
	e, ok := s.flows[id]
	s.mu.Unlock()
	if !ok {
		return booking.FlowView{}, domain.NotFoundError{Resource: "booking"}
	}
	if err := e.flow.Confirm(); err != nil {
		return booking.FlowView{}, err
	}
	e.flow.Touch(s.clk.Now())

	s.clk.AfterFunc(s.cfg.PaymentDelay, func() { s.completePayment(id) })

	log.Printf("[BOOKING] payment submitted flow=%s delay=%s", id, s.cfg.PaymentDelay)
	return e.flow.View(), nil
}

// Cancel drops the flow. A submitted payment runs to completion and is
// refused with a conflict until then.
func (s *BookingService) Cancel(id string) error {
	f, err := s.flow(id)
	if err != nil {
		return err
	}
	if err := f.Cancel(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.flows, id)
	s.mu.Unlock()
	log.Printf("[BOOKING] cancelled flow=%s", id)
	return nil
}

func (s *BookingService) completePayment(id string) {
	s.mu.Lock()
	e, ok := s.flows[id]
	s.mu.Unlock()
	if !ok {
		return
	}

	now := s.clk.Now()
	t, err := e.flow.Complete(now)
	if err != nil {
		utils.LogError("", "booking", "complete_payment", fmt.Errorf("flow=%s: %w", id, err))
		return
	}
	e.flow.Touch(now)

	s.mu.Lock()
	s.tickets[t.ID] = t
	seats := s.taken[t.BusID]
	if seats == nil {
		seats = map[int]struct{}{}
		s.taken[t.BusID] = seats
	}
	for _, n := range t.SeatNumbers() {
		seats[n] = struct{}{}
	}
	s.mu.Unlock()

	log.Printf("[BOOKING] ticket issued flow=%s ticket=%s ref=%s seats=%v", id, t.ID, t.Reference, t.SeatNumbers())
	s.publish(events.TicketIssued, t, now)
}

// occupiedSeats is the configured fixed set plus seats sold on this bus
// since startup.
func (s *BookingService) occupiedSeats(busID int64) []int {
	set := map[int]struct{}{}
	for _, n := range s.cfg.OccupiedSeats {
		set[n] = struct{}{}
	}
	s.mu.Lock()
	for n := range s.taken[busID] {
		set[n] = struct{}{}
	}
	s.mu.Unlock()

	out := make([]int, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (s *BookingService) Ticket(id string) (booking.TicketView, error) {
	t, err := s.ticket(id)
	if err != nil {
		return booking.TicketView{}, err
	}
	return t.View(s.clk.Now()), nil
}

// Scan consumes a ticket. Re-scanning is accepted without change.
func (s *BookingService) Scan(id string) (booking.TicketView, error) {
	t, err := s.ticket(id)
	if err != nil {
		return booking.TicketView{}, err
	}
	wasScanned := !t.ScannedAt().IsZero()
	now := s.clk.Now()
	if _, err := t.Scan(now); err != nil {
		return booking.TicketView{}, err
	}
	if !wasScanned {
		log.Printf("[BOOKING] ticket scanned ticket=%s ref=%s", t.ID, t.Reference)
		s.publish(events.TicketScanned, t, now)
	}
	return t.View(now), nil
}

// WatchTicket starts a once-per-second countdown for a ticket. The caller
// must Stop the watcher when the viewer goes away.
func (s *BookingService) WatchTicket(id string, onTick func(booking.Countdown)) (*booking.Watcher, error) {
	t, err := s.ticket(id)
	if err != nil {
		return nil, err
	}
	return booking.Watch(s.clk, t.Status, onTick), nil
}

// TicketRecord returns the ticket itself, for document rendering.
func (s *BookingService) TicketRecord(id string) (*booking.Ticket, error) {
	return s.ticket(id)
}

// RunBackgroundCleanup sweeps idle flows until ctx is done.
func (s *BookingService) RunBackgroundCleanup(ctx context.Context) {
	ticker := s.clk.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	log.Printf("[BOOKING] cleanup worker started, idle timeout %s", s.cfg.IdleTimeout)

	for {
		select {
		case <-ctx.Done():
			log.Println("[BOOKING] cleanup worker stopped")
			return
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}

// SweepIdle drops flows untouched for longer than the idle timeout.
// Flows still waiting on a payment timer are kept.
func (s *BookingService) SweepIdle() int {
	cutoff := s.clk.Now().Add(-s.cfg.IdleTimeout)

	s.mu.Lock()
	entries := make(map[string]*flowEntry, len(s.flows))
	for id, e := range s.flows {
		entries[id] = e
	}
	s.mu.Unlock()

	// flow locks are taken without s.mu held; enterSeats locks in the
	// opposite order.
	var stale []string
	for id, e := range entries {
		if e.flow.IdleSince().Before(cutoff) && e.flow.Cancel() == nil {
			stale = append(stale, id)
		}
	}

	swept := 0
	for _, id := range stale {
		s.mu.Lock()
		_, ok := s.flows[id]
		delete(s.flows, id)
		s.mu.Unlock()
		if ok {
			swept++
		}
	}
	if swept > 0 {
		log.Printf("[BOOKING] swept %d idle flows", swept)
	}
	return swept
}

func (s *BookingService) apply(id string, fn func(*booking.Flow) error) (booking.FlowView, error) {
	f, err := s.flow(id)
	if err != nil {
		return booking.FlowView{}, err
	}
	if err := fn(f); err != nil {
		return booking.FlowView{}, err
	}
	return f.View(), nil
}

func (s *BookingService) flow(id string) (*booking.Flow, error) {
	s.mu.Lock()
	e, ok := s.flows[strings.TrimSpace(id)]
	s.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError{Resource: "booking"}
	}
	e.flow.Touch(s.clk.Now())
	return e.flow, nil
}

func (s *BookingService) ticket(id string) (*booking.Ticket, error) {
	s.mu.Lock()
	t, ok := s.tickets[strings.TrimSpace(id)]
	s.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError{Resource: "ticket"}
	}
	return t, nil
}

func (s *BookingService) publish(key string, t *booking.Ticket, at time.Time) {
	err := s.events.Publish(key, TicketEvent{
		TicketID:  t.ID,
		Reference: t.Reference,
		BookingID: t.BookingID,
		BusID:     t.BusID,
		Seats:     t.SeatNumbers(),
		Fare:      t.Fare,
		At:        at,
	})
	if err != nil {
		utils.LogError("", "booking", "publish_"+key, err)
	}
}
