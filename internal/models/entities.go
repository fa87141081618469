package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event statuses
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
	EventStatusDeleted   = "deleted"
)

// Order payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Ticket statuses
const (
	TicketStatusConfirmed = "confirmed"
	TicketStatusCancelled = "cancelled"
	TicketStatusUsed      = "used"
	TicketStatusExpired   = "expired"
)

// Wallet transaction types
const (
	TransactionDeposit    = "deposit"
	TransactionPurchase   = "purchase"
	TransactionRefund     = "refund"
	TransactionCommission = "commission"
)

// DefaultCurrency is the currency tag stamped on every monetary record.
const DefaultCurrency = "BIF"

// User represents a platform account with an embedded wallet balance.
// The balance is a derived cache: it must always equal the balance_after
// of the user's most recent wallet transaction.
type User struct {
	ID            int64           `json:"id" db:"id"`
	Email         string          `json:"email" db:"email"`
	PasswordHash  string          `json:"-" db:"password_hash"`
	FirstName     string          `json:"first_name" db:"first_name"`
	LastName      string          `json:"last_name" db:"last_name"`
	PhoneNumber   *string         `json:"phone_number" db:"phone_number"`
	WalletBalance decimal.Decimal `json:"wallet_balance" db:"wallet_balance"`
	Currency      string          `json:"currency" db:"currency"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// FullName returns the holder-facing name snapshot source.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Event represents a ticketed event. AvailableSeats stays within
// [0, TotalCapacity]: it decreases on issuance, increases on ticket
// cancellation and resets to TotalCapacity when the event is cancelled.
type Event struct {
	ID             int64           `json:"id" db:"id"`
	Title          string          `json:"title" db:"title"`
	Description    *string         `json:"description" db:"description"`
	Location       string          `json:"location" db:"location"`
	Date           time.Time       `json:"date" db:"date"`
	Price          decimal.Decimal `json:"price" db:"price"`
	TaxRate        decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	Currency       string          `json:"currency" db:"currency"`
	TotalCapacity  int             `json:"total_capacity" db:"total_capacity"`
	AvailableSeats int             `json:"available_seats" db:"available_seats"`
	Status         string          `json:"status" db:"status"`
	OrganizerID    int64           `json:"organizer_id" db:"organizer_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// IsSoldOut reports whether no seats remain.
func (e *Event) IsSoldOut() bool {
	return e.AvailableSeats <= 0
}

// Order represents a ticket order. Unit price and tax rate are snapshots
// taken from the event at creation time; later event price changes never
// drift into an existing order.
type Order struct {
	ID            int64           `json:"id" db:"id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	UserID        int64           `json:"user_id" db:"user_id"`
	EventID       int64           `json:"event_id" db:"event_id"`
	Quantity      int             `json:"quantity" db:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price" db:"unit_price"`
	TaxRate       decimal.Decimal `json:"tax_rate" db:"tax_rate"`
	TotalHT       decimal.Decimal `json:"total_ht" db:"total_ht"`
	TotalTVA      decimal.Decimal `json:"total_tva" db:"total_tva"`
	TotalTTC      decimal.Decimal `json:"total_ttc" db:"total_ttc"`
	Currency      string          `json:"currency" db:"currency"`
	PaymentMethod string          `json:"payment_method" db:"payment_method"`
	PaymentStatus string          `json:"payment_status" db:"payment_status"`
	PaymentDate   *time.Time      `json:"payment_date" db:"payment_date"`
	TransactionID *string         `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// Ticket represents a single issued ticket. Code and QRPayload are
// generated once at creation and never regenerate on subsequent saves.
// Holder fields are snapshots of the buyer at issuance time.
type Ticket struct {
	ID           int64           `json:"id" db:"id"`
	Code         string          `json:"code" db:"code"`
	EventID      int64           `json:"event_id" db:"event_id"`
	UserID       int64           `json:"user_id" db:"user_id"`
	OrderID      int64           `json:"order_id" db:"order_id"`
	HolderName   string          `json:"holder_name" db:"holder_name"`
	HolderEmail  string          `json:"holder_email" db:"holder_email"`
	HolderPhone  *string         `json:"holder_phone" db:"holder_phone"`
	Seat         string          `json:"seat" db:"seat"`
	Price        decimal.Decimal `json:"price" db:"price"`
	TaxAmount    decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	PriceTTC     decimal.Decimal `json:"price_ttc" db:"price_ttc"`
	Currency     string          `json:"currency" db:"currency"`
	QRPayload    string          `json:"qr_payload" db:"qr_payload"`
	QRImage      string          `json:"qr_image" db:"qr_image"`
	Status       string          `json:"status" db:"status"`
	PurchaseDate time.Time       `json:"purchase_date" db:"purchase_date"`
	UsedAt       *time.Time      `json:"used_at" db:"used_at"`
	CancelledAt  *time.Time      `json:"cancelled_at" db:"cancelled_at"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// WalletTransaction is one append-only ledger row. Amount is signed
// (positive credit, negative debit); BalanceBefore/BalanceAfter are
// snapshotted at write time and never recomputed.
type WalletTransaction struct {
	ID            int64           `json:"id" db:"id"`
	UserID        int64           `json:"user_id" db:"user_id"`
	Type          string          `json:"transaction_type" db:"transaction_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before" db:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after" db:"balance_after"`
	Currency      string          `json:"currency" db:"currency"`
	Description   string          `json:"description" db:"description"`
	TicketID      *int64          `json:"ticket_id" db:"ticket_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
