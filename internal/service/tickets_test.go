package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"gevent/internal/errors"
	"gevent/internal/models"
	"gevent/internal/qr"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qrPayloadForTest(t *testing.T) string {
	t.Helper()

	ticket := &models.Ticket{
		Code:       "TKT-A1B2C3D4E5F6",
		HolderName: "Jean Ndayizeye",
		Seat:       "A1",
		Price:      decimal.RequireFromString("1000.00"),
		TaxAmount:  decimal.RequireFromString("100.00"),
		PriceTTC:   decimal.RequireFromString("1100.00"),
		Currency:   "BIF",
	}
	event := &models.Event{
		Title: "Concert au stade",
		Date:  time.Now().Add(48 * time.Hour),
	}

	payload, err := qr.Encode(ticket, event)
	require.NoError(t, err)
	return payload
}

func TestValidateQRConfirmedTicket(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM tickets WHERE code = \$1`).
		WithArgs("TKT-A1B2C3D4E5F6").
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))

	ticket, message, err := services.Tickets.ValidateQR(context.Background(), qrPayloadForTest(t))
	require.NoError(t, err)

	assert.Equal(t, "valid ticket", message)
	require.NotNil(t, ticket)
	assert.Equal(t, "TKT-A1B2C3D4E5F6", ticket.Code)
}

func TestValidateQRRejectsByStatus(t *testing.T) {
	cases := []struct {
		status  string
		message string
	}{
		{models.TicketStatusCancelled, "this ticket has been cancelled"},
		{models.TicketStatusUsed, "this ticket has already been used"},
		{models.TicketStatusExpired, "this ticket has expired"},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			services, mock := newTestServices(t)

			mock.ExpectQuery(`FROM tickets WHERE code = \$1`).
				WithArgs("TKT-A1B2C3D4E5F6").
				WillReturnRows(ticketRow(tc.status))

			ticket, message, err := services.Tickets.ValidateQR(context.Background(), qrPayloadForTest(t))
			require.Error(t, err)

			assert.Nil(t, ticket)
			assert.Equal(t, tc.message, message)
			assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
		})
	}
}

func TestValidateQRUnknownTicket(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM tickets WHERE code = \$1`).
		WithArgs("TKT-A1B2C3D4E5F6").
		WillReturnRows(sqlmock.NewRows(ticketCols))

	ticket, message, err := services.Tickets.ValidateQR(context.Background(), qrPayloadForTest(t))
	require.Error(t, err)

	assert.Nil(t, ticket)
	assert.Equal(t, "ticket not found", message)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestValidateQRGarbagePayload(t *testing.T) {
	services, _ := newTestServices(t)

	_, message, err := services.Tickets.ValidateQR(context.Background(), "not json at all")
	require.Error(t, err)
	assert.Equal(t, "invalid QR payload", message)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))

	_, message, err = services.Tickets.ValidateQR(context.Background(), `{"event_title":"x"}`)
	require.Error(t, err)
	assert.Equal(t, "missing ticket code", message)
}

func TestRedeemMarksTicketUsed(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusOngoing))
	mock.ExpectExec(`UPDATE tickets SET status = 'used'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Caller 20 is the organizer
	ticket, err := services.Tickets.Redeem(context.Background(), 20, 5)
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusUsed, ticket.Status)
	assert.NotNil(t, ticket.UsedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemOrganizerOnly(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusOngoing))
	mock.ExpectRollback()

	_, err := services.Tickets.Redeem(context.Background(), 10, 5)
	require.Error(t, err)
	assert.Equal(t, errors.KindPermissionDenied, errors.KindOf(err))
}

func TestRedeemRequiresOngoingEvent(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))
	mock.ExpectRollback()

	_, err := services.Tickets.Redeem(context.Background(), 20, 5)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
}

func TestRedeemLosesRaceToStatusGuard(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusOngoing))
	// Guard matches zero rows: another transaction got there first
	mock.ExpectExec(`UPDATE tickets SET status = 'used'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := services.Tickets.Redeem(context.Background(), 20, 5)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
}

func TestNewCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := newCode("TKT")
		assert.True(t, strings.HasPrefix(code, "TKT-"))
		assert.Len(t, code, 16)
		assert.Equal(t, strings.ToUpper(code), code)
		assert.False(t, seen[code])
		seen[code] = true
	}
}
