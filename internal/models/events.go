package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NATS event subjects
const (
	EventOrderCompleted  = "order.completed"
	EventOrderFailed     = "order.failed"
	EventTicketIssued    = "ticket.issued"
	EventTicketCancelled = "ticket.cancelled"
	EventTicketRedeemed  = "ticket.redeemed"
	EventTicketExpired   = "ticket.expired"
	EventEventCancelled  = "event.cancelled"
	EventWalletDeposited = "wallet.deposited"
)

// OrderCompletedEvent is published after an order settles into tickets
type OrderCompletedEvent struct {
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	EventID     int64           `json:"event_id"`
	TotalTTC    decimal.Decimal `json:"total_ttc"`
	Tickets     int             `json:"tickets"`
	Timestamp   time.Time       `json:"timestamp"`
}

// OrderFailedEvent is published when settlement of an order is rejected
type OrderFailedEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	EventID     int64     `json:"event_id"`
	Reason      string    `json:"reason"`
	Timestamp   time.Time `json:"timestamp"`
}

// TicketIssuedEvent is published once per issued ticket
type TicketIssuedEvent struct {
	TicketID  int64     `json:"ticket_id"`
	Code      string    `json:"code"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	OrderID   int64     `json:"order_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketCancelledEvent is published after a single-ticket refund
type TicketCancelledEvent struct {
	TicketID     int64           `json:"ticket_id"`
	Code         string          `json:"code"`
	EventID      int64           `json:"event_id"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Timestamp    time.Time       `json:"timestamp"`
}

// TicketRedeemedEvent is published when a ticket is marked used
type TicketRedeemedEvent struct {
	TicketID  int64     `json:"ticket_id"`
	Code      string    `json:"code"`
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TicketExpiredEvent is published by the expiration job
type TicketExpiredEvent struct {
	TicketID  int64     `json:"ticket_id"`
	Code      string    `json:"code"`
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

// EventCancelledEvent is published after a whole-event refund pass
type EventCancelledEvent struct {
	EventID         int64           `json:"event_id"`
	OrganizerID     int64           `json:"organizer_id"`
	RefundedTickets int             `json:"refunded_tickets"`
	RefundedAmount  decimal.Decimal `json:"refunded_amount"`
	Timestamp       time.Time       `json:"timestamp"`
}

// WalletDepositedEvent is published after a successful deposit
type WalletDepositedEvent struct {
	UserID    int64           `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Timestamp time.Time       `json:"timestamp"`
}
