package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"smartbus/internal/booking"
	"smartbus/internal/utils"
)

const qrSize = 256

// DocsService renders what the traveller carries: the QR image the driver
// scans and the printable e-ticket.
type DocsService struct {
	RequestID string
}

// QRPayload is the text encoded in a ticket's QR code.
func QRPayload(t *booking.Ticket) string {
	return "SMARTBUS:" + t.ID
}

func (s DocsService) TicketQR(t *booking.Ticket) ([]byte, error) {
	png, err := qrcode.Encode(QRPayload(t), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	utils.LogEvent(s.RequestID, "docs", "ticket_qr", "ticket="+t.ID)
	return png, nil
}

func (s DocsService) GenerateETicket(t *booking.Ticket, now time.Time) ([]byte, string, error) {
	png, err := qrcode.Encode(QRPayload(t), qrcode.Medium, qrSize)
	if err != nil {
		return nil, "", fmt.Errorf("encode qr: %w", err)
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", "ticket="+t.ID)
	return buildETicketPDF(t, t.Status(now), png)
}

func buildETicketPDF(t *booking.Ticket, c booking.Countdown, qrPNG []byte) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+t.Reference, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 45, 45, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Ticket      : %s", t.Reference),
		fmt.Sprintf("Passenger   : %s", safe(t.Passenger, "-")),
		fmt.Sprintf("Company     : %s", safe(t.Company, "-")),
		fmt.Sprintf("Route       : %s -> %s", safe(t.From, "-"), safe(t.Destination, "-")),
		fmt.Sprintf("Date        : %s", safe(utils.FormatDay(t.DepartureTime), "-")),
		fmt.Sprintf("Departure   : %s", utils.FormatClock(t.DepartureTime)),
		fmt.Sprintf("Arrival     : %s", utils.FormatClock(t.ArrivalTime)),
		fmt.Sprintf("Seats       : %s", seatLine(t.Seats)),
		fmt.Sprintf("Fare        : %s", utils.FormatRWF(t.Fare)),
		fmt.Sprintf("Payment     : %s", paymentLine(t)),
		fmt.Sprintf("Valid until : %s", utils.FormatClock(t.ExpiresAt)),
		fmt.Sprintf("Status      : %s", c.State),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Show the QR code to the driver. The ticket stops qualifying 30 minutes after the scheduled arrival.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", utils.SafeFilenamePart(t.Reference), utils.SafeFilenamePart(t.Passenger))
	return buf.Bytes(), filename, nil
}

func seatLine(seats []booking.SeatTicket) string {
	if len(seats) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(seats))
	for _, s := range seats {
		parts = append(parts, fmt.Sprintf("%d (%s)", s.Seat, s.Reference))
	}
	return strings.Join(parts, ", ")
}

func paymentLine(t *booking.Ticket) string {
	if t.PaymentItem == "" || t.PaymentItem == string(t.PaymentMethod) {
		return string(t.PaymentMethod)
	}
	return fmt.Sprintf("%s (%s)", t.PaymentMethod, t.PaymentItem)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
