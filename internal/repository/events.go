package repository

import (
	"context"
	"database/sql"

	"gevent/internal/database"
	"gevent/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, location, date, price, tax_rate, currency,
	       total_capacity, available_seats, status, organizer_id, created_at, updated_at`

func scanEvent(scan func(dest ...any) error) (*models.Event, error) {
	event := &models.Event{}
	err := scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.Date,
		&event.Price,
		&event.TaxRate,
		&event.Currency,
		&event.TotalCapacity,
		&event.AvailableSeats,
		&event.Status,
		&event.OrganizerID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (title, description, location, date, price, tax_rate, currency,
		                    total_capacity, available_seats, status, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.Title,
		event.Description,
		event.Location,
		event.Date,
		event.Price,
		event.TaxRate,
		event.Currency,
		event.TotalCapacity,
		event.AvailableSeats,
		event.Status,
		event.OrganizerID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanEvent(row.Scan)
}

func (r *EventRepository) List(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	var events []models.Event
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status NOT IN ('deleted')
		ORDER BY date DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		event, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}

	return events, rows.Err()
}

// LockTx locks the event row for seat-counter mutations inside tx.
func (r *EventRepository) LockTx(tx *sql.Tx, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	row := tx.QueryRow(query, id)
	return scanEvent(row.Scan)
}

// UpdateSeatsTx writes the new seat availability inside tx.
func (r *EventRepository) UpdateSeatsTx(tx *sql.Tx, id int64, availableSeats int) error {
	query := `UPDATE events SET available_seats = $1, updated_at = NOW() WHERE id = $2`
	_, err := tx.Exec(query, availableSeats, id)
	return err
}

// CancelTx marks the event cancelled and returns all seats to the pool.
func (r *EventRepository) CancelTx(tx *sql.Tx, id int64) error {
	query := `
		UPDATE events
		SET status = 'cancelled', available_seats = total_capacity, updated_at = NOW()
		WHERE id = $1`
	_, err := tx.Exec(query, id)
	return err
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}
