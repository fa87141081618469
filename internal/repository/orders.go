package repository

import (
	"context"
	"database/sql"

	"gevent/internal/database"
	"gevent/internal/models"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_number, user_id, event_id, quantity, unit_price, tax_rate,
	       total_ht, total_tva, total_ttc, currency, payment_method, payment_status,
	       payment_date, transaction_id, created_at, updated_at`

func scanOrder(scan func(dest ...any) error) (*models.Order, error) {
	order := &models.Order{}
	err := scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.EventID,
		&order.Quantity,
		&order.UnitPrice,
		&order.TaxRate,
		&order.TotalHT,
		&order.TotalTVA,
		&order.TotalTTC,
		&order.Currency,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.PaymentDate,
		&order.TransactionID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateTx inserts the order row inside tx so that immediate settlement
// and the order itself commit together.
func (r *OrderRepository) CreateTx(tx *sql.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (order_number, user_id, event_id, quantity, unit_price, tax_rate,
		                    total_ht, total_tva, total_ttc, currency, payment_method,
		                    payment_status, payment_date, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	return tx.QueryRow(query,
		order.OrderNumber,
		order.UserID,
		order.EventID,
		order.Quantity,
		order.UnitPrice,
		order.TaxRate,
		order.TotalHT,
		order.TotalTVA,
		order.TotalTTC,
		order.Currency,
		order.PaymentMethod,
		order.PaymentStatus,
		order.PaymentDate,
		order.TransactionID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanOrder(row.Scan)
}

// LockTx locks the order row so that concurrent payment transitions
// serialize on it.
func (r *OrderRepository) LockTx(tx *sql.Tx, id int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	row := tx.QueryRow(query, id)
	return scanOrder(row.Scan)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	return orders, rows.Err()
}

// UpdatePaymentTx writes the payment fields of the order inside tx.
func (r *OrderRepository) UpdatePaymentTx(tx *sql.Tx, order *models.Order) error {
	query := `
		UPDATE orders
		SET payment_status = $1, payment_date = $2, transaction_id = $3, updated_at = NOW()
		WHERE id = $4`

	_, err := tx.Exec(query,
		order.PaymentStatus,
		order.PaymentDate,
		order.TransactionID,
		order.ID,
	)
	return err
}
