package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"smartbus/internal/booking"
	"smartbus/internal/clock"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/events"
)

type stubBuses map[int64]models.Bus

func (s stubBuses) GetByID(_ context.Context, id int64) (models.Bus, error) {
	b, ok := s[id]
	if !ok {
		return models.Bus{}, domain.NotFoundError{Resource: "bus"}
	}
	return b, nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(routingKey string, payload any) error {
	return m.Called(routingKey, payload).Error(0)
}

func (m *mockPublisher) Close() {}

var kigali = time.FixedZone("CAT", 2*60*60)

func newBookingFixture(t *testing.T) (*BookingService, *clock.FakeClock, *mockPublisher) {
	t.Helper()
	clk := clock.Fake(time.Date(2025, 3, 1, 12, 0, 0, 0, kigali))
	pub := &mockPublisher{}
	buses := stubBuses{
		7: {
			ID:            7,
			Company:       "Volcano Express",
			From:          "Kigali",
			Destination:   "Musanze",
			DepartureTime: time.Date(2025, 3, 1, 12, 30, 0, 0, kigali),
			ArrivalTime:   time.Date(2025, 3, 1, 14, 30, 0, 0, kigali),
		},
	}
	svc := NewBookingService(buses, clk, pub, BookingConfig{
		Flow:          booking.FlowConfig{Capacity: 30, PricePerSeat: 2000},
		OccupiedSeats: []int{5, 6, 15},
		PaymentDelay:  2 * time.Second,
	})
	return svc, clk, pub
}

func str(s string) *string { return &s }

// walkToResult books seats 1..3 with MTN and confirms.
func walkToResult(t *testing.T, svc *BookingService) string {
	t.Helper()
	v, err := svc.Start(context.Background(), StartBookingRequest{BusID: 7, Direct: true, Passenger: "Alice"})
	require.NoError(t, err)
	require.Equal(t, booking.StepSeats, v.Step)
	id := v.ID

	for _, n := range []int{5, 1, 2, 3} {
		_, err = svc.ToggleSeat(id, n)
		require.NoError(t, err)
	}
	v, err = svc.SelectMethod(id, "MTN Mobile Money")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, v.Seats.Selected)
	assert.Equal(t, int64(6000), v.Fare)

	_, err = svc.Proceed(id)
	require.NoError(t, err)
	v, err = svc.Confirm(id)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentProcessing, v.Status)
	return id
}

func TestBookingServiceIssuesTicketAfterDelay(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)
	pub.On("Publish", events.TicketIssued, mock.AnythingOfType("services.TicketEvent")).Return(nil).Once()

	id := walkToResult(t, svc)

	clk.Advance(1500 * time.Millisecond)
	v, err := svc.Get(id)
	require.NoError(t, err)
	assert.Empty(t, v.TicketID)

	clk.Advance(500 * time.Millisecond)
	v, err = svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentCompleted, v.Status)
	require.NotEmpty(t, v.TicketID)

	tv, err := svc.Ticket(v.TicketID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", tv.Passenger)
	assert.Equal(t, int64(6000), tv.Fare)
	assert.Equal(t, "RWF 6,000", tv.FareDisplay)
	assert.Equal(t, booking.StateQualified, tv.Countdown.State)
	assert.Regexp(t, `^BUS-TICKET-\d{6}$`, tv.Reference)
	pub.AssertExpectations(t)
}

func TestBookingServiceSoldSeatsBecomeOccupied(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)
	pub.On("Publish", events.TicketIssued, mock.Anything).Return(nil)

	walkToResult(t, svc)
	clk.Advance(2 * time.Second)

	v, err := svc.Start(context.Background(), StartBookingRequest{BusID: 7, Direct: true, Passenger: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 5, 6, 15}, v.Seats.Occupied)
}

func TestBookingServiceScan(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)
	pub.On("Publish", events.TicketIssued, mock.Anything).Return(nil)
	pub.On("Publish", events.TicketScanned, mock.Anything).Return(nil).Once()

	id := walkToResult(t, svc)
	clk.Advance(2 * time.Second)
	v, _ := svc.Get(id)

	tv, err := svc.Scan(v.TicketID)
	require.NoError(t, err)
	assert.Equal(t, booking.StateScanned, tv.Countdown.State)
	require.NotNil(t, tv.ScannedAt)

	tv, err = svc.Scan(v.TicketID)
	require.NoError(t, err)
	assert.Equal(t, booking.StateScanned, tv.Countdown.State)
	pub.AssertExpectations(t)
}

func TestBookingServiceScanDisqualified(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	id := walkToResult(t, svc)
	clk.Advance(2 * time.Second)
	v, _ := svc.Get(id)

	// arrival 14:30, expiry 15:00
	clk.Advance(3 * time.Hour)
	tv, err := svc.Ticket(v.TicketID)
	require.NoError(t, err)
	assert.Equal(t, booking.StateDisqualified, tv.Countdown.State)

	_, err = svc.Scan(v.TicketID)
	assert.True(t, domain.IsConflict(err))
}

func TestBookingServiceWatchTicket(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	id := walkToResult(t, svc)
	clk.Advance(2 * time.Second)
	v, _ := svc.Get(id)

	var ticks []booking.Countdown
	w, err := svc.WatchTicket(v.TicketID, func(c booking.Countdown) { ticks = append(ticks, c) })
	require.NoError(t, err)

	clk.Advance(3 * time.Second)
	w.Stop()
	clk.Advance(5 * time.Second)

	require.Len(t, ticks, 4)
	assert.Equal(t, ticks[0].RemainingSeconds()-3, ticks[3].RemainingSeconds())
}

func TestBookingServiceCancelRefusedWhilePaymentProcessing(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)
	pub.On("Publish", events.TicketIssued, mock.AnythingOfType("services.TicketEvent")).Return(nil).Once()

	id := walkToResult(t, svc)
	assert.True(t, domain.IsConflict(svc.Cancel(id)))

	clk.Advance(2 * time.Second)
	v, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, booking.PaymentCompleted, v.Status)
	require.NotEmpty(t, v.TicketID)
	pub.AssertExpectations(t)

	require.NoError(t, svc.Cancel(id))
	_, err = svc.Get(id)
	assert.True(t, domain.IsNotFound(err))
	_, err = svc.Ticket(v.TicketID)
	assert.NoError(t, err)
}

func TestBookingServiceCancelBeforeConfirm(t *testing.T) {
	svc, clk, pub := newBookingFixture(t)

	v, err := svc.Start(context.Background(), StartBookingRequest{BusID: 7, Direct: true})
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(v.ID))
	assert.True(t, domain.IsNotFound(svc.Cancel(v.ID)))

	_, err = svc.Confirm(v.ID)
	assert.True(t, domain.IsNotFound(err))
	clk.Advance(5 * time.Second)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestBookingServiceUnknownBus(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	_, err := svc.Start(context.Background(), StartBookingRequest{BusID: 99})
	assert.True(t, domain.IsNotFound(err))
}

func TestBookingServiceSelectBusAfterBack(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	v, err := svc.Start(context.Background(), StartBookingRequest{BusID: 7})
	require.NoError(t, err)
	assert.Equal(t, booking.StepDetails, v.Step)

	v, err = svc.Back(v.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StepListing, v.Step)
	assert.Nil(t, v.Bus)

	v, err = svc.SelectBus(context.Background(), v.ID, 7, true)
	require.NoError(t, err)
	assert.Equal(t, booking.StepSeats, v.Step)
}

func TestBookingServicePaymentGuard(t *testing.T) {
	svc, _, _ := newBookingFixture(t)
	v, err := svc.Start(context.Background(), StartBookingRequest{BusID: 7, Direct: true})
	require.NoError(t, err)

	_, err = svc.ToggleSeat(v.ID, 4)
	require.NoError(t, err)
	_, err = svc.SelectMethod(v.ID, "Card")
	require.NoError(t, err)
	_, err = svc.UpdatePayment(v.ID, booking.PaymentInput{CardNetwork: str("Visa"), AccountHolder: str("Jo")})
	require.NoError(t, err)

	_, err = svc.Proceed(v.ID)
	assert.True(t, domain.IsValidation(err))
}

func TestBookingServiceSweepIdle(t *testing.T) {
	svc, clk, _ := newBookingFixture(t)
	idle, err := svc.Start(context.Background(), StartBookingRequest{})
	require.NoError(t, err)

	clk.Advance(20 * time.Minute)
	active, err := svc.Start(context.Background(), StartBookingRequest{})
	require.NoError(t, err)

	clk.Advance(11 * time.Minute)
	assert.Equal(t, 1, svc.SweepIdle())

	_, err = svc.Get(idle.ID)
	assert.True(t, domain.IsNotFound(err))
	_, err = svc.Get(active.ID)
	assert.NoError(t, err)
}

func TestBookingServiceCleanupWorker(t *testing.T) {
	svc, clk, _ := newBookingFixture(t)
	_, err := svc.Start(context.Background(), StartBookingRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.RunBackgroundCleanup(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return clk.Pending() > 0 }, time.Second, time.Millisecond)
	clk.Advance(31 * time.Minute)
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.flows) == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
