package service

import (
	"testing"
	"time"

	"gevent/internal/database"
	"gevent/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

const commissionID int64 = 99

func newTestServices(t *testing.T) (*Services, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.DB{DB: mockDB}
	repos := repository.NewRepositories(db)
	return NewServices(db, repos, nil, commissionID), mock
}

var (
	userCols = []string{"id", "email", "password_hash", "first_name", "last_name", "phone_number",
		"wallet_balance", "currency", "is_active", "created_at", "updated_at"}
	eventCols = []string{"id", "title", "description", "location", "date", "price", "tax_rate", "currency",
		"total_capacity", "available_seats", "status", "organizer_id", "created_at", "updated_at"}
	orderCols = []string{"id", "order_number", "user_id", "event_id", "quantity", "unit_price", "tax_rate",
		"total_ht", "total_tva", "total_ttc", "currency", "payment_method", "payment_status",
		"payment_date", "transaction_id", "created_at", "updated_at"}
	ticketCols = []string{"id", "code", "event_id", "user_id", "order_id", "holder_name", "holder_email",
		"holder_phone", "seat", "price", "tax_amount", "price_ttc", "currency", "qr_payload",
		"qr_image", "status", "purchase_date", "used_at", "cancelled_at", "created_at", "updated_at"}
)

func buyerRow(balance string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(int64(10), "jean@example.bi", "", "Jean", "Ndayizeye", nil,
			balance, "BIF", true, now, now)
}

func eventRow(availableSeats int, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(eventCols).
		AddRow(int64(1), "Concert au stade", nil, "Bujumbura", now.Add(48*time.Hour),
			"1000.00", "10.00", "BIF", 100, availableSeats, status, int64(20), now, now)
}

func ticketRow(status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(ticketCols).
		AddRow(int64(5), "TKT-A1B2C3D4E5F6", int64(1), int64(10), int64(77),
			"Jean Ndayizeye", "jean@example.bi", nil, "A1",
			"1000.00", "100.00", "1100.00", "BIF", "{}", "", status, now, nil, nil, now, now)
}

// expectWalletLock queues one SELECT ... FOR UPDATE on a wallet balance.
func expectWalletLock(mock sqlmock.Sqlmock, balance string) {
	mock.ExpectQuery(`SELECT wallet_balance FROM users WHERE id = \$1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"wallet_balance"}).AddRow(balance))
}

// expectLedgerWrite queues the balance update plus ledger append emitted
// by one recordTransactionTx call.
func expectLedgerWrite(mock sqlmock.Sqlmock, id int64) {
	mock.ExpectExec(`UPDATE users SET wallet_balance`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO wallet_transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now()))
}
