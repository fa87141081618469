// Package qr encodes ticket proof-of-purchase data into a scannable
// payload and decodes payloads back into the ticket code used for lookup.
package qr

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"time"

	"gevent/internal/models"

	"github.com/skip2/go-qrcode"
)

// Payload is the field set embedded in a ticket QR code. All fields are
// frozen at issuance; the payload never regenerates for an existing ticket.
type Payload struct {
	TicketCode string `json:"ticket_code"`
	EventTitle string `json:"event_title"`
	HolderName string `json:"holder_name"`
	EventDate  string `json:"event_date"`
	Seat       string `json:"seat"`
	Price      string `json:"price"`
	TaxAmount  string `json:"tax_amount"`
	PriceTTC   string `json:"price_ttc"`
	Currency   string `json:"currency"`
}

// Encode serializes the ticket's frozen fields into the QR payload string.
func Encode(ticket *models.Ticket, event *models.Event) (string, error) {
	p := Payload{
		TicketCode: ticket.Code,
		EventTitle: event.Title,
		HolderName: ticket.HolderName,
		EventDate:  event.Date.Format(time.RFC3339),
		Seat:       ticket.Seat,
		Price:      ticket.Price.StringFixed(2),
		TaxAmount:  ticket.TaxAmount.StringFixed(2),
		PriceTTC:   ticket.PriceTTC.StringFixed(2),
		Currency:   ticket.Currency,
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a QR payload. It returns the embedded ticket code, or a
// settlement error when the payload is malformed or carries no code.
// Decoding never touches ticket state; lookup and status checks belong to
// the caller.
func Decode(payload string) (string, error) {
	var p Payload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", ErrInvalidPayload
	}
	if p.TicketCode == "" {
		return "", ErrMissingCode
	}
	return p.TicketCode, nil
}

// Image renders the payload as a PNG QR code and returns it as a
// data-URI base64 string, the format stored alongside each ticket.
func Image(payload string) (string, error) {
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code.Image(256)); err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
