package service

import (
	"context"
	"testing"
	"time"

	"gevent/internal/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositCreditsWalletAndAppendsLedgerRow(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(buyerRow("100.00"))

	mock.ExpectBegin()
	expectWalletLock(mock, "100.00")
	expectLedgerWrite(mock, 1)
	mock.ExpectCommit()

	entry, err := services.Wallet.Deposit(context.Background(), 10, decimal.RequireFromString("50"))
	require.NoError(t, err)

	assert.Equal(t, "deposit", entry.Type)
	assert.True(t, entry.Amount.Equal(decimal.RequireFromString("50")))
	assert.True(t, entry.BalanceBefore.Equal(decimal.RequireFromString("100")))
	assert.True(t, entry.BalanceAfter.Equal(decimal.RequireFromString("150")))
	assert.Equal(t, "BIF", entry.Currency)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	services, mock := newTestServices(t)

	for _, amount := range []string{"0", "-25"} {
		_, err := services.Wallet.Deposit(context.Background(), 10, decimal.RequireFromString(amount))
		require.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	}

	// No SQL at all for rejected deposits
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepositUnknownUser(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := services.Wallet.Deposit(context.Background(), 404, decimal.RequireFromString("50"))
	require.Error(t, err)
	assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
}

func TestBalanceReturnsWalletSnapshot(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(buyerRow("1234.56"))

	wallet, err := services.Wallet.Balance(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, int64(10), wallet.UserID)
	assert.True(t, wallet.Balance.Equal(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "BIF", wallet.Currency)
}

func TestTransactionsListsLedgerNewestFirst(t *testing.T) {
	services, mock := newTestServices(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "transaction_type", "amount", "balance_before",
		"balance_after", "currency", "description", "ticket_id", "created_at"}).
		AddRow(int64(2), int64(10), "purchase", "-1100.00", "1150.00", "50.00", "BIF", "purchase", nil, now).
		AddRow(int64(1), int64(10), "deposit", "1150.00", "0.00", "1150.00", "BIF", "wallet deposit", nil, now.Add(-time.Hour))

	mock.ExpectQuery(`FROM wallet_transactions`).
		WithArgs(int64(10)).
		WillReturnRows(rows)

	transactions, err := services.Wallet.Transactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	assert.Equal(t, "purchase", transactions[0].Type)
	assert.True(t, transactions[0].Amount.IsNegative())
	assert.Equal(t, "deposit", transactions[1].Type)

	// Running balance invariant: each row's after equals before + amount
	for _, tr := range transactions {
		assert.True(t, tr.BalanceBefore.Add(tr.Amount).Equal(tr.BalanceAfter))
	}
}
