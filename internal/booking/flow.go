package booking

import (
	"sync"
	"time"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type Step string

const (
	StepListing Step = "listing"
	StepDetails Step = "details"
	StepSeats   Step = "seats"
	StepPayment Step = "payment"
	StepReview  Step = "review"
	StepResult  Step = "result"
)

var stepOrder = []Step{StepListing, StepDetails, StepSeats, StepPayment, StepReview, StepResult}

func (s Step) index() int {
	for i, v := range stepOrder {
		if v == s {
			return i
		}
	}
	return -1
}

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
)

// FlowConfig carries the defaults used when a bus row leaves them unset.
type FlowConfig struct {
	Capacity     int
	PricePerSeat int64
	LayoutRows   int
}

// OccupiedFunc reports the seats already taken on a bus. It is consulted
// once, when the flow enters seat selection.
type OccupiedFunc func(busID int64) []int

// Flow is one traveller's walk from the bus list to an issued ticket.
// Forward moves happen only on explicit actions and only when the current
// step's guard passes; Back returns to the immediately preceding step.
type Flow struct {
	ID string

	cfg      FlowConfig
	occupied OccupiedFunc

	mu        sync.Mutex
	step      Step
	bus       *models.Bus
	seats     *SeatSelection
	payment   PaymentSelection
	status    PaymentStatus
	ticket    *Ticket
	passenger string
	touched   time.Time
	cancelled bool
}

func NewFlow(id string, cfg FlowConfig, occupied OccupiedFunc, now time.Time) *Flow {
	if cfg.LayoutRows <= 0 {
		cfg.LayoutRows = 3
	}
	return &Flow{
		ID:       id,
		cfg:      cfg,
		occupied: occupied,
		step:     StepListing,
		status:   PaymentPending,
		touched:  now,
	}
}

// SelectBus moves listing -> details, or straight to seats when direct is
// set (the "Book Now" shortcut).
func (f *Flow) SelectBus(bus models.Bus, direct bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepListing); err != nil {
		return err
	}
	f.bus = &bus
	f.step = StepDetails
	if direct {
		f.enterSeats()
	}
	return nil
}

// Continue moves details -> seats, or seats -> payment once a seat is
// selected (the way forward after Back from payment).
func (f *Flow) Continue() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepDetails, StepSeats); err != nil {
		return err
	}
	if f.step == StepDetails {
		f.enterSeats()
		return nil
	}
	if f.seats.Count() == 0 {
		return domain.ValidationError{Field: "seats", Msg: "select at least one seat"}
	}
	f.step = StepPayment
	return nil
}

func (f *Flow) enterSeats() {
	var occupied []int
	if f.occupied != nil {
		occupied = f.occupied(f.bus.ID)
	}
	f.seats = NewSeatSelection(f.capacity(), occupied)
	f.step = StepSeats
}

// ToggleSeat flips a seat while seats or payment are on screen. Picking a
// seat advances seats -> payment; emptying the selection from payment
// falls back to seats.
func (f *Flow) ToggleSeat(n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepSeats, StepPayment); err != nil {
		return err
	}
	f.seats.Toggle(n)
	switch {
	case f.step == StepSeats && f.seats.Count() > 0:
		f.step = StepPayment
	case f.step == StepPayment && f.seats.Count() == 0:
		f.payment.Reset()
		f.step = StepSeats
	}
	return nil
}

func (f *Flow) SelectMethod(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepPayment); err != nil {
		return err
	}
	return f.payment.SelectMethod(name)
}

func (f *Flow) UpdatePayment(in PaymentInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepPayment); err != nil {
		return err
	}
	return f.payment.Update(in)
}

// SetPassenger records the name printed on the ticket.
func (f *Flow) SetPassenger(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passenger = name
}

// Proceed moves payment -> review once at least one seat is chosen and
// the payment selection is complete.
func (f *Flow) Proceed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.expect(StepPayment); err != nil {
		return err
	}
	if f.seats.Count() == 0 {
		return domain.ValidationError{Field: "seats", Msg: "select at least one seat"}
	}
	if err := f.payment.Ready(); err != nil {
		return err
	}
	f.step = StepReview
	return nil
}

// Confirm moves review -> result and marks the payment as processing. The
// caller completes it after the simulated delay.
func (f *Flow) Confirm() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled {
		return domain.ConflictError{Resource: "booking", Msg: "booking cancelled"}
	}
	if err := f.expect(StepReview); err != nil {
		return err
	}
	f.step = StepResult
	f.status = PaymentProcessing
	return nil
}

// Complete issues the ticket for a processing payment.
func (f *Flow) Complete(now time.Time) (*Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepResult || f.status != PaymentProcessing {
		return nil, domain.ConflictError{Resource: "booking", Msg: "no payment in progress"}
	}
	d := f.payment.Details()
	f.ticket = IssueTicket(TicketIssue{
		BookingID:     f.ID,
		BusID:         f.bus.ID,
		Company:       f.bus.Company,
		From:          f.bus.From,
		Destination:   f.bus.Destination,
		DepartureTime: f.bus.DepartureTime,
		ArrivalTime:   f.bus.ArrivalTime,
		Seats:         f.seats.Selected(),
		Passenger:     f.passenger,
		Fare:          f.seats.Fare(f.price()),
		PaymentMethod: d.Method(),
		PaymentItem:   d.Item(),
	}, now)
	f.status = PaymentCompleted
	return f.ticket, nil
}

// Cancel closes the flow. A payment in flight cannot be aborted; once it
// has completed the ticket stays valid.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == PaymentProcessing {
		return domain.ConflictError{Resource: "booking", Msg: "payment in progress"}
	}
	f.cancelled = true
	return nil
}

// Back returns to the preceding step and clears what the steps after it
// owned. A confirmed payment cannot be walked back.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.step {
	case StepListing:
		return domain.ConflictError{Resource: "booking", Msg: "already at the bus list"}
	case StepResult:
		return domain.ConflictError{Resource: "booking", Msg: "payment already submitted"}
	case StepDetails:
		f.bus = nil
		f.step = StepListing
	case StepSeats:
		f.seats = nil
		f.payment.Reset()
		f.step = StepDetails
	case StepPayment:
		f.payment.Reset()
		f.step = StepSeats
	case StepReview:
		f.step = StepPayment
	}
	return nil
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Ticket() *Ticket {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticket
}

// Touch records activity for idle sweeping.
func (f *Flow) Touch(now time.Time) {
	f.mu.Lock()
	f.touched = now
	f.mu.Unlock()
}

func (f *Flow) IdleSince() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched
}

func (f *Flow) expect(steps ...Step) error {
	for _, s := range steps {
		if f.step == s {
			return nil
		}
	}
	return domain.ConflictError{Resource: "booking", Msg: "not allowed at step " + string(f.step)}
}

func (f *Flow) capacity() int {
	if f.bus != nil && f.bus.Seats > 0 {
		return f.bus.Seats
	}
	return f.cfg.Capacity
}

func (f *Flow) price() int64 {
	if f.bus != nil && f.bus.Price > 0 {
		return f.bus.Price
	}
	return f.cfg.PricePerSeat
}

// SeatsView is the seat picker as displayed.
type SeatsView struct {
	Capacity int          `json:"capacity"`
	Selected []int        `json:"selected"`
	Occupied []int        `json:"occupied"`
	Layout   [][]SeatTile `json:"layout"`
}

// FlowView is a snapshot of the flow for rendering. The Can* flags are the
// enabled/disabled state of each forward action.
type FlowView struct {
	ID           string        `json:"id"`
	Step         Step          `json:"step"`
	Bus          *models.Bus   `json:"bus,omitempty"`
	Seats        *SeatsView    `json:"seats,omitempty"`
	PricePerSeat int64         `json:"price_per_seat"`
	Fare         int64         `json:"fare"`
	Payment      PaymentView   `json:"payment"`
	Methods      []Method      `json:"methods,omitempty"`
	Status       PaymentStatus `json:"payment_status"`
	TicketID     string        `json:"ticket_id,omitempty"`
	CanContinue  bool          `json:"can_continue"`
	CanProceed   bool          `json:"can_proceed"`
	CanConfirm   bool          `json:"can_confirm"`
	CanBack      bool          `json:"can_back"`
}

func (f *Flow) View() FlowView {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := FlowView{
		ID:           f.ID,
		Step:         f.step,
		Bus:          f.bus,
		PricePerSeat: f.price(),
		Payment:      f.payment.View(),
		Status:       f.status,
		CanContinue:  f.step == StepDetails || (f.step == StepSeats && f.seats != nil && f.seats.Count() > 0),
		CanConfirm:   f.step == StepReview,
		CanBack:      f.step.index() > 0 && f.step != StepResult,
	}
	if f.seats != nil {
		v.Seats = &SeatsView{
			Capacity: f.seats.Capacity(),
			Selected: f.seats.Selected(),
			Occupied: f.seats.Occupied(),
			Layout:   f.seats.Layout(f.cfg.LayoutRows),
		}
		v.Fare = f.seats.Fare(f.price())
		v.CanProceed = f.step == StepPayment && f.seats.Count() > 0 && f.payment.Ready() == nil
	}
	if f.step == StepPayment {
		v.Methods = Methods
	}
	if f.ticket != nil {
		v.TicketID = f.ticket.ID
	}
	return v
}
