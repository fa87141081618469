package service

import (
	"context"
	"testing"
	"time"

	"gevent/internal/errors"
	"gevent/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventDefaults(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`INSERT INTO events`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(int64(1), time.Now(), time.Now()))

	event, err := services.Events.Create(context.Background(), 20, &models.CreateEventRequest{
		Title:         "Concert au stade",
		Location:      "Bujumbura",
		Date:          time.Now().Add(72 * time.Hour),
		Price:         decimal.RequireFromString("1000"),
		TaxRate:       decimal.RequireFromString("10"),
		TotalCapacity: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20), event.OrganizerID)
	assert.Equal(t, models.EventStatusUpcoming, event.Status)
	assert.Equal(t, "BIF", event.Currency)
	assert.Equal(t, 100, event.AvailableSeats)
}

func TestCreateEventValidation(t *testing.T) {
	services, _ := newTestServices(t)

	cases := []models.CreateEventRequest{
		{Title: "", Date: time.Now().Add(time.Hour)},
		{Title: "x", Date: time.Now().Add(-time.Hour)},
		{Title: "x", Date: time.Now().Add(time.Hour), Price: decimal.RequireFromString("-5")},
		{Title: "x", Date: time.Now().Add(time.Hour), TaxRate: decimal.RequireFromString("150")},
		{Title: "x", Date: time.Now().Add(time.Hour), TotalCapacity: -1},
	}
	for _, req := range cases {
		_, err := services.Events.Create(context.Background(), 20, &req)
		require.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	}
}

func TestSetStatusOrganizerMovesEventToOngoing(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))
	mock.ExpectExec(`UPDATE events SET status = \$1`).
		WithArgs(models.EventStatusOngoing, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	event, err := services.Events.SetStatus(context.Background(), 20, 1, models.EventStatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusOngoing, event.Status)
}

func TestSetStatusRejectsCancelledTarget(t *testing.T) {
	services, _ := newTestServices(t)

	_, err := services.Events.SetStatus(context.Background(), 20, 1, models.EventStatusCancelled)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
}

func TestSetStatusOrganizerOnly(t *testing.T) {
	services, mock := newTestServices(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(eventRow(97, models.EventStatusUpcoming))

	_, err := services.Events.SetStatus(context.Background(), 10, 1, models.EventStatusOngoing)
	require.Error(t, err)
	assert.Equal(t, errors.KindPermissionDenied, errors.KindOf(err))
}
