package qr

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gevent/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	eventDate := time.Date(2026, 10, 12, 19, 30, 0, 0, time.UTC)
	ticket := &models.Ticket{
		Code:       "TKT-0123456789AB",
		HolderName: "Aline Niyonkuru",
		Seat:       "A7",
		Price:      decimal.RequireFromString("1500"),
		TaxAmount:  decimal.RequireFromString("150"),
		PriceTTC:   decimal.RequireFromString("1650"),
		Currency:   "BIF",
	}
	event := &models.Event{
		Title: "Festival Amahoro",
		Date:  eventDate,
	}

	payload, err := Encode(ticket, event)
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal([]byte(payload), &p))
	assert.Equal(t, "TKT-0123456789AB", p.TicketCode)
	assert.Equal(t, "Festival Amahoro", p.EventTitle)
	assert.Equal(t, "Aline Niyonkuru", p.HolderName)
	assert.Equal(t, "2026-10-12T19:30:00Z", p.EventDate)
	assert.Equal(t, "1500.00", p.Price)
	assert.Equal(t, "150.00", p.TaxAmount)
	assert.Equal(t, "1650.00", p.PriceTTC)
	assert.Equal(t, "BIF", p.Currency)

	code, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, ticket.Code, code)
}

func TestDecodeInvalidPayload(t *testing.T) {
	_, err := Decode("}{ definitely not json")
	assert.Equal(t, ErrInvalidPayload, err)
}

func TestDecodeMissingCode(t *testing.T) {
	_, err := Decode(`{"event_title":"Festival Amahoro","seat":"A7"}`)
	assert.Equal(t, ErrMissingCode, err)
}

func TestImageIsDataURIPNG(t *testing.T) {
	image, err := Image(`{"ticket_code":"TKT-0123456789AB"}`)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(image, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(image, "data:image/png;base64,"))
	require.NoError(t, err)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}
