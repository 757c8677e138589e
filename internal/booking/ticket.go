package booking

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartbus/internal/domain"
	"smartbus/internal/utils"
)

// SeatTicket is the per-seat reference shown to the driver.
type SeatTicket struct {
	Seat      int    `json:"seat"`
	Reference string `json:"reference"`
}

// Ticket is issued once the simulated payment completes. It changes state
// exactly once, when the driver scans it.
type Ticket struct {
	ID            string
	Reference     string
	BookingID     string
	BusID         int64
	Company       string
	From          string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	ExpiresAt     time.Time
	Seats         []SeatTicket
	Passenger     string
	Fare          int64
	PaymentMethod Method
	PaymentItem   string
	IssuedAt      time.Time

	mu        sync.Mutex
	scannedAt time.Time
}

// TicketIssue is what the flow knows at completion time.
type TicketIssue struct {
	BookingID     string
	BusID         int64
	Company       string
	From          string
	Destination   string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Seats         []int
	Passenger     string
	Fare          int64
	PaymentMethod Method
	PaymentItem   string
}

// IssueTicket builds a ticket whose expiry is derived from the arrival time.
func IssueTicket(in TicketIssue, now time.Time) *Ticket {
	seats := make([]SeatTicket, 0, len(in.Seats))
	for _, n := range in.Seats {
		seats = append(seats, SeatTicket{Seat: n, Reference: seatReference()})
	}
	return &Ticket{
		ID:            uuid.NewString(),
		Reference:     fmt.Sprintf("BUS-TICKET-%06d", 100000+rand.IntN(900000)),
		BookingID:     in.BookingID,
		BusID:         in.BusID,
		Company:       in.Company,
		From:          in.From,
		Destination:   in.Destination,
		DepartureTime: in.DepartureTime,
		ArrivalTime:   in.ArrivalTime,
		ExpiresAt:     ExpiryFor(in.ArrivalTime),
		Seats:         seats,
		Passenger:     in.Passenger,
		Fare:          in.Fare,
		PaymentMethod: in.PaymentMethod,
		PaymentItem:   in.PaymentItem,
		IssuedAt:      now,
	}
}

// two letters and three digits, e.g. "KQ417"
func seatReference() string {
	return fmt.Sprintf("%c%c%d", 'A'+rand.IntN(26), 'A'+rand.IntN(26), 100+rand.IntN(900))
}

// Status evaluates the countdown at now.
func (t *Ticket) Status(now time.Time) Countdown {
	t.mu.Lock()
	scanned := !t.scannedAt.IsZero()
	t.mu.Unlock()
	return Evaluate(t.ExpiresAt, now, scanned)
}

// Scan consumes the ticket. Scanning twice is a no-op; a disqualified
// ticket cannot be scanned.
func (t *Ticket) Scan(now time.Time) (Countdown, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.scannedAt.IsZero() {
		return Evaluate(t.ExpiresAt, now, true), nil
	}
	c := Evaluate(t.ExpiresAt, now, false)
	if c.State == StateDisqualified {
		return c, domain.ConflictError{Resource: "ticket", Msg: "ticket is disqualified"}
	}
	t.scannedAt = now
	return Evaluate(t.ExpiresAt, now, true), nil
}

// ScannedAt is zero until the ticket is scanned.
func (t *Ticket) ScannedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scannedAt
}

// SeatNumbers lists the ticket's seats in issue order.
func (t *Ticket) SeatNumbers() []int {
	out := make([]int, 0, len(t.Seats))
	for _, s := range t.Seats {
		out = append(out, s.Seat)
	}
	return out
}

// CountdownView is the JSON shape of a Countdown.
type CountdownView struct {
	State            TicketState `json:"state"`
	ExpiresAt        time.Time   `json:"expires_at"`
	RemainingSeconds int64       `json:"remaining_seconds"`
	Display          string      `json:"display"`
	Warning          bool        `json:"warning"`
}

func (c Countdown) View() CountdownView {
	return CountdownView{
		State:            c.State,
		ExpiresAt:        c.ExpiresAt,
		RemainingSeconds: c.RemainingSeconds(),
		Display:          c.Display(),
		Warning:          c.Warning,
	}
}

type TicketView struct {
	ID            string        `json:"id"`
	Reference     string        `json:"reference"`
	BookingID     string        `json:"booking_id"`
	BusID         int64         `json:"bus_id"`
	Company       string        `json:"company"`
	From          string        `json:"from"`
	Destination   string        `json:"to"`
	DepartureTime time.Time     `json:"departure_time"`
	ArrivalTime   time.Time     `json:"arrival_time"`
	Seats         []SeatTicket  `json:"seats"`
	Passenger     string        `json:"passenger"`
	Fare          int64         `json:"fare"`
	FareDisplay   string        `json:"fare_display"`
	PaymentMethod Method        `json:"payment_method"`
	PaymentItem   string        `json:"payment_item"`
	IssuedAt      time.Time     `json:"issued_at"`
	ScannedAt     *time.Time    `json:"scanned_at,omitempty"`
	Countdown     CountdownView `json:"countdown"`
}

func (t *Ticket) View(now time.Time) TicketView {
	v := TicketView{
		ID:            t.ID,
		Reference:     t.Reference,
		BookingID:     t.BookingID,
		BusID:         t.BusID,
		Company:       t.Company,
		From:          t.From,
		Destination:   t.Destination,
		DepartureTime: t.DepartureTime,
		ArrivalTime:   t.ArrivalTime,
		Seats:         t.Seats,
		Passenger:     t.Passenger,
		Fare:          t.Fare,
		FareDisplay:   utils.FormatRWF(t.Fare),
		PaymentMethod: t.PaymentMethod,
		PaymentItem:   t.PaymentItem,
		IssuedAt:      t.IssuedAt,
		Countdown:     t.Status(now).View(),
	}
	if at := t.ScannedAt(); !at.IsZero() {
		v.ScannedAt = &at
	}
	return v
}
