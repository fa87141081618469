package repository

import (
	"context"
	"database/sql"

	"gevent/internal/database"
	"gevent/internal/models"

	"github.com/shopspring/decimal"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone_number,
	       wallet_balance, currency, is_active, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.WalletBalance,
		&user.Currency,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, phone_number, wallet_balance, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.WalletBalance,
		user.Currency,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// LockWalletTx locks the user's wallet row for the duration of the
// transaction and returns the current balance. Every balance check that
// precedes a write goes through this lock.
func (r *UserRepository) LockWalletTx(tx *sql.Tx, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	query := `SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(query, userID).Scan(&balance)
	return balance, err
}

// UpdateBalanceTx writes the new running balance. Only the ledger calls
// this, paired with a wallet_transactions insert in the same transaction.
func (r *UserRepository) UpdateBalanceTx(tx *sql.Tx, userID int64, balance decimal.Decimal) error {
	query := `UPDATE users SET wallet_balance = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.Exec(query, balance, userID)
	return err
}
