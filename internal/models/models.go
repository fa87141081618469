package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEventRequest - request body for event creation
type CreateEventRequest struct {
	Title         string          `json:"title" binding:"required"`
	Description   *string         `json:"description,omitempty"`
	Location      string          `json:"location"`
	Date          time.Time       `json:"date" binding:"required"`
	Price         decimal.Decimal `json:"price"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	Currency      string          `json:"currency,omitempty"`
	TotalCapacity int             `json:"total_capacity"`
}

// CreateEventResponse - response for event creation
type CreateEventResponse struct {
	ID int64 `json:"id"`
}

// ListEventsResponseItem - one event in the listing
type ListEventsResponseItem struct {
	ID             int64           `json:"id"`
	Title          string          `json:"title"`
	Date           time.Time       `json:"date"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	AvailableSeats int             `json:"available_seats"`
	Status         string          `json:"status"`
}

// ListEventsResponse - event listing
type ListEventsResponse []ListEventsResponseItem

// CreateOrderRequest - request body for order creation.
// PaymentStatus selects the initial state: pending, or completed for
// immediate wallet payment.
type CreateOrderRequest struct {
	EventID       int64  `json:"event_id" binding:"required"`
	Quantity      int    `json:"quantity" binding:"required"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status,omitempty"`
}

// CreateOrderResponse - created order plus any tickets issued on
// immediate completion
type CreateOrderResponse struct {
	Order   *Order   `json:"order"`
	Tickets []Ticket `json:"tickets,omitempty"`
}

// UpdatePaymentRequest - request body for the order payment transition
type UpdatePaymentRequest struct {
	PaymentStatus string  `json:"payment_status" binding:"required"`
	TransactionID *string `json:"transaction_id,omitempty"`
}

// UpdatePaymentResponse - result of a payment status transition
type UpdatePaymentResponse struct {
	Order   *Order   `json:"order"`
	Tickets []Ticket `json:"tickets,omitempty"`
}

// ValidateQRRequest - request body for QR validation
type ValidateQRRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// ValidateQRResponse - result of QR validation
type ValidateQRResponse struct {
	Valid   bool    `json:"valid"`
	Message string  `json:"message"`
	Ticket  *Ticket `json:"ticket,omitempty"`
}

// DepositRequest - request body for a wallet deposit
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// WalletResponse - wallet balance payload
type WalletResponse struct {
	UserID   int64           `json:"user_id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// CancelEventResponse - result of a whole-event cancellation pass
type CancelEventResponse struct {
	EventID         int64           `json:"event_id"`
	RefundedTickets int             `json:"refunded_tickets"`
	RefundedAmount  decimal.Decimal `json:"refunded_amount"`
}

// ErrorResponse - error payload returned by every handler
type ErrorResponse struct {
	Error string `json:"error"`
}
