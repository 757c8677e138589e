package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbus/internal/booking"
)

func sampleTicket(now time.Time) *booking.Ticket {
	return booking.IssueTicket(booking.TicketIssue{
		BookingID:     "b-1",
		BusID:         7,
		Company:       "Volcano Express",
		From:          "Kigali",
		Destination:   "Musanze",
		DepartureTime: now.Add(-time.Hour),
		ArrivalTime:   now.Add(time.Hour),
		Seats:         []int{1, 2},
		Passenger:     "Tester",
		Fare:          4000,
		PaymentMethod: booking.MethodBank,
		PaymentItem:   "BK",
	}, now)
}

func TestDocsServiceGenerate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tk := sampleTicket(now)
	svc := DocsService{RequestID: "req-1"}

	pdf, filename, err := svc.GenerateETicket(tk, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Contains(t, filename, tk.Reference)
	assert.Contains(t, filename, "Tester")

	png, err := svc.TicketQR(tk)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestPaymentLine(t *testing.T) {
	tk := sampleTicket(time.Now())
	assert.Equal(t, "Bank Transfer (BK)", paymentLine(tk))

	tk.PaymentMethod = booking.MethodMTN
	tk.PaymentItem = string(booking.MethodMTN)
	assert.Equal(t, string(booking.MethodMTN), paymentLine(tk))
}
