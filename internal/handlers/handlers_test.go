package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gevent/internal/database"
	"gevent/internal/models"
	"gevent/internal/repository"
	"gevent/internal/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRouter wires handlers against a sqlmock-backed stack with a stub
// auth middleware that pins the caller to user 10.
func setupRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := &database.DB{DB: mockDB}
	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil, 99)
	h := NewHandlers(services, nil)

	r := gin.New()
	api := r.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set("user_id", int64(10))
		c.Next()
	})
	{
		events := api.Group("/events")
		{
			events.POST("", h.CreateEvent)
			events.GET("", h.ListEvents)
			events.GET("/:id", h.GetEvent)
			events.POST("/:id/cancel", h.CancelEvent)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", h.CreateOrder)
			orders.GET("", h.ListOrders)
			orders.PUT("/:id/payment", h.UpdateOrderPayment)
		}

		tickets := api.Group("/tickets")
		{
			tickets.GET("", h.ListTickets)
			tickets.POST("/validate_qr", h.ValidateQR)
		}

		wallet := api.Group("/wallet")
		{
			wallet.GET("", h.GetWallet)
			wallet.POST("/deposit", h.Deposit)
		}
	}

	return r, mock
}

var userCols = []string{"id", "email", "password_hash", "first_name", "last_name", "phone_number",
	"wallet_balance", "currency", "is_active", "created_at", "updated_at"}

func TestGetWallet(t *testing.T) {
	r, mock := setupRouter(t)

	now := time.Now()
	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(10), "jean@example.bi", "", "Jean", "Ndayizeye", nil,
				"1500.00", "BIF", true, now, now))

	req, _ := http.NewRequest("GET", "/api/wallet", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response models.WalletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(10), response.UserID)
	assert.Equal(t, "1500", response.Balance.String())
	assert.Equal(t, "BIF", response.Currency)
}

func TestDepositValidationError(t *testing.T) {
	r, _ := setupRouter(t)

	body, _ := json.Marshal(models.DepositRequest{})
	req, _ := http.NewRequest("POST", "/api/wallet/deposit", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEventNotFound(t *testing.T) {
	r, mock := setupRouter(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req, _ := http.NewRequest("GET", "/api/events/404", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response.Error, "not found")
}

func TestGetEventBadID(t *testing.T) {
	r, _ := setupRouter(t)

	req, _ := http.NewRequest("GET", "/api/events/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateOrderRejectsMissingBody(t *testing.T) {
	r, _ := setupRouter(t)

	req, _ := http.NewRequest("POST", "/api/orders", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateQRInvalidPayloadAnswers400(t *testing.T) {
	r, _ := setupRouter(t)

	body, _ := json.Marshal(models.ValidateQRRequest{QRData: "garbage"})
	req, _ := http.NewRequest("POST", "/api/tickets/validate_qr", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEventPermissionDeniedAnswers403(t *testing.T) {
	r, mock := setupRouter(t)

	now := time.Now()
	eventCols := []string{"id", "title", "description", "location", "date", "price", "tax_rate", "currency",
		"total_capacity", "available_seats", "status", "organizer_id", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(eventCols).
			AddRow(int64(1), "Concert au stade", nil, "Bujumbura", now.Add(48*time.Hour),
				"1000.00", "10.00", "BIF", 100, 97, "upcoming", int64(20), now, now))

	// Caller 10 is not organizer 20
	req, _ := http.NewRequest("POST", "/api/events/1/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListOrdersEmpty(t *testing.T) {
	r, mock := setupRouter(t)

	orderCols := []string{"id", "order_number", "user_id", "event_id", "quantity", "unit_price", "tax_rate",
		"total_ht", "total_tva", "total_ttc", "currency", "payment_method", "payment_status",
		"payment_date", "transaction_id", "created_at", "updated_at"}
	mock.ExpectQuery(`FROM orders WHERE user_id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	req, _ := http.NewRequest("GET", "/api/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
