package repository

import (
	"context"
	"database/sql"
	"time"

	"gevent/internal/database"
	"gevent/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, code, event_id, user_id, order_id, holder_name, holder_email,
	       holder_phone, seat, price, tax_amount, price_ttc, currency, qr_payload,
	       qr_image, status, purchase_date, used_at, cancelled_at, created_at, updated_at`

func scanTicket(scan func(dest ...any) error) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	err := scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.EventID,
		&ticket.UserID,
		&ticket.OrderID,
		&ticket.HolderName,
		&ticket.HolderEmail,
		&ticket.HolderPhone,
		&ticket.Seat,
		&ticket.Price,
		&ticket.TaxAmount,
		&ticket.PriceTTC,
		&ticket.Currency,
		&ticket.QRPayload,
		&ticket.QRImage,
		&ticket.Status,
		&ticket.PurchaseDate,
		&ticket.UsedAt,
		&ticket.CancelledAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// InsertTx persists a freshly issued ticket inside tx.
func (r *TicketRepository) InsertTx(tx *sql.Tx, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (code, event_id, user_id, order_id, holder_name, holder_email,
		                     holder_phone, seat, price, tax_amount, price_ttc, currency,
		                     qr_payload, qr_image, status, purchase_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`

	return tx.QueryRow(query,
		ticket.Code,
		ticket.EventID,
		ticket.UserID,
		ticket.OrderID,
		ticket.HolderName,
		ticket.HolderEmail,
		ticket.HolderPhone,
		ticket.Seat,
		ticket.Price,
		ticket.TaxAmount,
		ticket.PriceTTC,
		ticket.Currency,
		ticket.QRPayload,
		ticket.QRImage,
		ticket.Status,
		ticket.PurchaseDate,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func ticketsFromRows(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	defer rows.Close()
	for rows.Next() {
		ticket, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

// ListByOrderTx returns the tickets already issued for an order, inside
// tx. This is the idempotency guard for repeated completion calls.
func (r *TicketRepository) ListByOrderTx(tx *sql.Tx, orderID int64) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE order_id = $1 ORDER BY id`
	rows, err := tx.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	return ticketsFromRows(rows)
}

func (r *TicketRepository) ListByOrder(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	return ticketsFromRows(rows)
}

func (r *TicketRepository) ListByUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = $1 ORDER BY purchase_date DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return ticketsFromRows(rows)
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanTicket(row.Scan)
}

func (r *TicketRepository) GetByCode(ctx context.Context, code string) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE code = $1`
	row := r.db.QueryRowContext(ctx, query, code)
	return scanTicket(row.Scan)
}

// LockTx locks a ticket row so that a status check and the following
// mutation are atomic against concurrent cancellations.
func (r *TicketRepository) LockTx(tx *sql.Tx, id int64) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1 FOR UPDATE`
	row := tx.QueryRow(query, id)
	return scanTicket(row.Scan)
}

// ConfirmedIDsByEvent lists the ids of confirmed tickets under an event.
// The ids are re-checked under lock when each ticket is processed.
func (r *TicketRepository) ConfirmedIDsByEvent(ctx context.Context, eventID int64) ([]int64, error) {
	query := `SELECT id FROM tickets WHERE event_id = $1 AND status = 'confirmed' ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkUsedTx flips a confirmed ticket to used. Returns false when the
// ticket was not in the confirmed state, so double redemption is caught
// under the row lock.
func (r *TicketRepository) MarkUsedTx(tx *sql.Tx, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE tickets SET status = 'used', used_at = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'confirmed'`
	res, err := tx.Exec(query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkCancelledTx flips a confirmed ticket to cancelled with the same
// status guard as MarkUsedTx.
func (r *TicketRepository) MarkCancelledTx(tx *sql.Tx, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE tickets SET status = 'cancelled', cancelled_at = $1, updated_at = NOW()
		WHERE id = $2 AND status = 'confirmed'`
	res, err := tx.Exec(query, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListExpirable returns confirmed tickets whose event date has passed.
func (r *TicketRepository) ListExpirable(ctx context.Context, cutoff time.Time) ([]models.Ticket, error) {
	query := `
		SELECT ` + qualifiedTicketColumns("t") + `
		FROM tickets t
		JOIN events e ON e.id = t.event_id
		WHERE t.status = 'confirmed' AND e.date < $1 AND e.status NOT IN ('cancelled', 'deleted')
		ORDER BY t.id`
	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	return ticketsFromRows(rows)
}

// MarkExpired flips a confirmed ticket to expired outside of any
// settlement transaction; the status guard makes the job idempotent.
func (r *TicketRepository) MarkExpired(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE tickets SET status = 'expired', updated_at = NOW() WHERE id = $1 AND status = 'confirmed'`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func qualifiedTicketColumns(alias string) string {
	return alias + `.id, ` + alias + `.code, ` + alias + `.event_id, ` + alias + `.user_id, ` +
		alias + `.order_id, ` + alias + `.holder_name, ` + alias + `.holder_email, ` +
		alias + `.holder_phone, ` + alias + `.seat, ` + alias + `.price, ` + alias + `.tax_amount, ` +
		alias + `.price_ttc, ` + alias + `.currency, ` + alias + `.qr_payload, ` + alias + `.qr_image, ` +
		alias + `.status, ` + alias + `.purchase_date, ` + alias + `.used_at, ` + alias + `.cancelled_at, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}
