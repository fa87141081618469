package repository

import (
	"context"
	"database/sql"

	"gevent/internal/database"
	"gevent/internal/models"
)

type WalletRepository struct {
	db *database.DB
}

func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// InsertTx appends one ledger row inside tx. Rows are never updated or
// deleted after this point.
func (r *WalletRepository) InsertTx(tx *sql.Tx, t *models.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (user_id, transaction_type, amount, balance_before,
		                                 balance_after, currency, description, ticket_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	return tx.QueryRow(query,
		t.UserID,
		t.Type,
		t.Amount,
		t.BalanceBefore,
		t.BalanceAfter,
		t.Currency,
		t.Description,
		t.TicketID,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *WalletRepository) ListByUser(ctx context.Context, userID int64) ([]models.WalletTransaction, error) {
	var transactions []models.WalletTransaction
	query := `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
		       currency, description, ticket_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.WalletTransaction
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Type,
			&t.Amount,
			&t.BalanceBefore,
			&t.BalanceAfter,
			&t.Currency,
			&t.Description,
			&t.TicketID,
			&t.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

// LatestByUser returns the most recent ledger row for a user, or nil.
func (r *WalletRepository) LatestByUser(ctx context.Context, userID int64) (*models.WalletTransaction, error) {
	t := &models.WalletTransaction{}
	query := `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
		       currency, description, ticket_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&t.ID,
		&t.UserID,
		&t.Type,
		&t.Amount,
		&t.BalanceBefore,
		&t.BalanceAfter,
		&t.Currency,
		&t.Description,
		&t.TicketID,
		&t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}
