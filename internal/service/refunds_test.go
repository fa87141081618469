package service

import (
	"context"
	"testing"

	"gevent/internal/errors"
	"gevent/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelTicketRefundsFortyFivePercent(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))

	// Deadlock-ordered locks: holder(10), organizer(20)
	expectWalletLock(mock, "0.00")
	expectWalletLock(mock, "2000.00")

	// Organizer affordability check for the 450.00 refund
	expectWalletLock(mock, "2000.00")

	// Organizer debit -450
	expectWalletLock(mock, "2000.00")
	expectLedgerWrite(mock, 1)
	// Holder credit +450
	expectWalletLock(mock, "0.00")
	expectLedgerWrite(mock, 2)

	mock.ExpectExec(`UPDATE tickets SET status = 'cancelled'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE events SET available_seats`).
		WithArgs(98, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ticket, err := services.Refunds.CancelTicket(context.Background(), 10, 5)
	require.NoError(t, err)

	assert.Equal(t, models.TicketStatusCancelled, ticket.Status)
	assert.NotNil(t, ticket.CancelledAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTicketRejectsForeignCaller(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))
	mock.ExpectRollback()

	// Caller 42 is neither the holder (10) nor the organizer (20)
	_, err := services.Refunds.CancelTicket(context.Background(), 42, 5)
	require.Error(t, err)
	assert.Equal(t, errors.KindPermissionDenied, errors.KindOf(err))
}

func TestCancelTicketRejectsUsedTicket(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusUsed))
	mock.ExpectQuery(`FROM events WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))
	mock.ExpectRollback()

	_, err := services.Refunds.CancelTicket(context.Background(), 10, 5)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
}

func TestCancelEventSplitsCommission(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(commissionID).
		WillReturnRows(buyerRow("5000.00"))
	mock.ExpectQuery(`SELECT id FROM tickets WHERE event_id = \$1 AND status = 'confirmed'`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))

	// Deadlock-ordered locks: buyer(10), organizer(20), commission(99)
	expectWalletLock(mock, "0.00")
	expectWalletLock(mock, "2000.00")
	expectWalletLock(mock, "5000.00")

	// Commission must cover the 10% share, organizer the base price
	expectWalletLock(mock, "5000.00")
	expectWalletLock(mock, "2000.00")

	// Buyer credit +1100 (100% + 10%)
	expectWalletLock(mock, "0.00")
	expectLedgerWrite(mock, 1)
	// Commission debit -100
	expectWalletLock(mock, "5000.00")
	expectLedgerWrite(mock, 2)
	// Organizer debit -1000
	expectWalletLock(mock, "2000.00")
	expectLedgerWrite(mock, 3)

	mock.ExpectExec(`UPDATE tickets SET status = 'cancelled'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE events`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := services.Refunds.CancelEvent(context.Background(), 20, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.EventID)
	assert.Equal(t, 1, result.RefundedTickets)
	assert.True(t, result.RefundedAmount.Equal(decimal.RequireFromString("1100.00")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelEventOrganizerOnly(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))

	_, err := services.Refunds.CancelEvent(context.Background(), 10, 1)
	require.Error(t, err)
	assert.Equal(t, errors.KindPermissionDenied, errors.KindOf(err))
}

func TestCancelEventAlreadyCancelled(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(100, models.EventStatusCancelled))

	_, err := services.Refunds.CancelEvent(context.Background(), 20, 1)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))
}

func TestCancelEventAbortsWhenCommissionCannotPay(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(commissionID).
		WillReturnRows(buyerRow("0.00"))
	mock.ExpectQuery(`SELECT id FROM tickets WHERE event_id = \$1 AND status = 'confirmed'`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM tickets WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(ticketRow(models.TicketStatusConfirmed))

	expectWalletLock(mock, "0.00")
	expectWalletLock(mock, "2000.00")
	expectWalletLock(mock, "0.00")
	// Commission account cannot cover the 100.00 share
	expectWalletLock(mock, "0.00")
	mock.ExpectRollback()

	result, err := services.Refunds.CancelEvent(context.Background(), 20, 1)
	require.Error(t, err)
	assert.Equal(t, errors.KindInsufficientFunds, errors.KindOf(err))
	assert.Equal(t, 0, result.RefundedTickets)

	assert.NoError(t, mock.ExpectationsWereMet())
}
