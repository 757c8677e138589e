package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

var testBus = models.Bus{
	ID:            7,
	Company:       "Volcano Express",
	From:          "Kigali",
	Destination:   "Musanze",
	DepartureTime: at(12, 0, 0),
	ArrivalTime:   at(14, 30, 0),
}

func newTestFlow() *Flow {
	cfg := FlowConfig{Capacity: 30, PricePerSeat: 2000}
	return NewFlow("b1", cfg, func(int64) []int { return []int{5, 6, 15} }, at(10, 0, 0))
}

func TestFlowHappyPath(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, false))
	assert.Equal(t, StepDetails, f.Step())
	assert.True(t, f.View().CanContinue)

	require.NoError(t, f.Continue())
	assert.Equal(t, StepSeats, f.Step())

	require.NoError(t, f.ToggleSeat(5))
	assert.Equal(t, StepSeats, f.Step(), "occupied seat must not advance")

	require.NoError(t, f.ToggleSeat(1))
	assert.Equal(t, StepPayment, f.Step())
	require.NoError(t, f.ToggleSeat(2))
	require.NoError(t, f.ToggleSeat(3))

	v := f.View()
	assert.Equal(t, []int{1, 2, 3}, v.Seats.Selected)
	assert.Equal(t, int64(6000), v.Fare)
	assert.False(t, v.CanProceed)

	require.NoError(t, f.SelectMethod("Bank Transfer"))
	assert.True(t, domain.IsValidation(f.Proceed()))
	require.NoError(t, f.UpdatePayment(PaymentInput{Bank: str("Equity Bank"), AccountHolder: str("John Doe")}))
	assert.True(t, f.View().CanProceed)

	require.NoError(t, f.Proceed())
	assert.Equal(t, StepReview, f.Step())
	assert.True(t, f.View().CanConfirm)

	require.NoError(t, f.Confirm())
	assert.Equal(t, PaymentProcessing, f.View().Status)
	assert.Error(t, f.Back())

	ticket, err := f.Complete(at(12, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ticket.SeatNumbers())
	assert.Equal(t, at(15, 0, 0), ticket.ExpiresAt)
	assert.Equal(t, int64(6000), ticket.Fare)
	assert.Equal(t, "Equity Bank", ticket.PaymentItem)
	assert.Equal(t, PaymentCompleted, f.View().Status)
	assert.Equal(t, ticket.ID, f.View().TicketID)

	_, err = f.Complete(at(12, 2, 0))
	assert.True(t, domain.IsConflict(err))
}

func TestFlowDirectBookSkipsDetails(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, true))
	assert.Equal(t, StepSeats, f.Step())
	assert.Equal(t, []int{5, 6, 15}, f.View().Seats.Occupied)
}

func TestFlowUsesBusSeatsAndPrice(t *testing.T) {
	f := newTestFlow()
	bus := testBus
	bus.Seats = 12
	bus.Price = 3500
	require.NoError(t, f.SelectBus(bus, true))
	require.NoError(t, f.ToggleSeat(12))
	require.NoError(t, f.ToggleSeat(13))

	v := f.View()
	assert.Equal(t, 12, v.Seats.Capacity)
	assert.Equal(t, []int{12}, v.Seats.Selected)
	assert.Equal(t, int64(3500), v.Fare)
}

func TestFlowRejectsOutOfStepActions(t *testing.T) {
	f := newTestFlow()
	assert.True(t, domain.IsConflict(f.Continue()))
	assert.True(t, domain.IsConflict(f.ToggleSeat(1)))
	assert.True(t, domain.IsConflict(f.Proceed()))
	assert.True(t, domain.IsConflict(f.Confirm()))
	assert.True(t, domain.IsConflict(f.Back()))

	require.NoError(t, f.SelectBus(testBus, false))
	assert.True(t, domain.IsConflict(f.SelectBus(testBus, false)))
	assert.True(t, domain.IsConflict(f.SelectMethod("Card")))
}

func TestFlowEmptyingSeatsReturnsToSeatStep(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, true))
	require.NoError(t, f.ToggleSeat(9))
	require.NoError(t, f.SelectMethod("Airtel Money"))

	require.NoError(t, f.ToggleSeat(9))
	assert.Equal(t, StepSeats, f.Step())
	assert.Empty(t, f.View().Payment.Method)
}

func TestFlowBackClearsOnlyLaterSteps(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, false))
	require.NoError(t, f.Continue())
	require.NoError(t, f.ToggleSeat(4))
	require.NoError(t, f.SelectMethod("MTN Mobile Money"))
	require.NoError(t, f.Proceed())

	require.NoError(t, f.Back())
	v := f.View()
	assert.Equal(t, StepPayment, v.Step)
	assert.Equal(t, MethodMTN, v.Payment.Method)
	assert.Equal(t, []int{4}, v.Seats.Selected)

	require.NoError(t, f.Back())
	v = f.View()
	assert.Equal(t, StepSeats, v.Step)
	assert.Empty(t, v.Payment.Method)
	assert.Equal(t, []int{4}, v.Seats.Selected)

	require.NoError(t, f.Back())
	v = f.View()
	assert.Equal(t, StepDetails, v.Step)
	assert.Nil(t, v.Seats)
	require.NotNil(t, v.Bus)

	require.NoError(t, f.Back())
	v = f.View()
	assert.Equal(t, StepListing, v.Step)
	assert.Nil(t, v.Bus)
	assert.False(t, v.CanBack)
}

func TestFlowTouch(t *testing.T) {
	f := newTestFlow()
	later := at(11, 0, 0)
	f.Touch(later)
	assert.Equal(t, later, f.IdleSince())
	assert.True(t, f.IdleSince().After(at(10, 0, 0).Add(time.Minute)))
}

func TestFlowContinueFromSeatsAfterBack(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, true))
	assert.False(t, f.View().CanContinue)
	assert.True(t, domain.IsValidation(f.Continue()))

	require.NoError(t, f.ToggleSeat(1))
	require.NoError(t, f.Back())
	v := f.View()
	assert.Equal(t, StepSeats, v.Step)
	assert.Equal(t, []int{1}, v.Seats.Selected)
	assert.True(t, v.CanContinue)

	require.NoError(t, f.Continue())
	v = f.View()
	assert.Equal(t, StepPayment, v.Step)
	assert.Equal(t, []int{1}, v.Seats.Selected)
	assert.False(t, v.CanContinue)
}

func TestFlowCancel(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, true))
	require.NoError(t, f.ToggleSeat(1))
	require.NoError(t, f.SelectMethod("MTN Mobile Money"))
	require.NoError(t, f.Proceed())

	require.NoError(t, f.Cancel())
	assert.True(t, domain.IsConflict(f.Confirm()))
	assert.Equal(t, PaymentPending, f.View().Status)
}

func TestFlowCancelRefusedWhilePaymentProcessing(t *testing.T) {
	f := newTestFlow()
	require.NoError(t, f.SelectBus(testBus, true))
	require.NoError(t, f.ToggleSeat(1))
	require.NoError(t, f.SelectMethod("MTN Mobile Money"))
	require.NoError(t, f.Proceed())
	require.NoError(t, f.Confirm())

	assert.True(t, domain.IsConflict(f.Cancel()))

	_, err := f.Complete(at(12, 1, 0))
	require.NoError(t, err)
	assert.NoError(t, f.Cancel())
}
