package consumers

import (
	"context"
	"encoding/json"
	"log/slog"

	"gevent/internal/cache"
	"gevent/internal/models"
	"gevent/internal/repository"

	"github.com/nats-io/stan.go"
)

type Handlers struct {
	repos        *repository.Repositories
	valkeyClient *cache.ValkeyClient
}

func NewHandlers(repos *repository.Repositories, valkeyClient *cache.ValkeyClient) *Handlers {
	return &Handlers{
		repos:        repos,
		valkeyClient: valkeyClient,
	}
}

func (h *Handlers) HandleOrderCompleted(m *stan.Msg) {
	var event models.OrderCompletedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal order completed event", "error", err)
		return
	}

	slog.Info("Processing order completed event",
		"order_id", event.OrderID,
		"order_number", event.OrderNumber,
		"tickets", event.Tickets,
		"total_ttc", event.TotalTTC)

	// Seat counts changed, drop the cached event listings
	h.invalidateEventsCache()

	m.Ack()
}

func (h *Handlers) HandleOrderFailed(m *stan.Msg) {
	var event models.OrderFailedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal order failed event", "error", err)
		return
	}

	slog.Warn("Processing order failed event",
		"order_id", event.OrderID,
		"order_number", event.OrderNumber,
		"reason", event.Reason)

	m.Ack()
}

func (h *Handlers) HandleTicketIssued(m *stan.Msg) {
	var event models.TicketIssuedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket issued event", "error", err)
		return
	}

	slog.Info("Processing ticket issued event",
		"ticket_id", event.TicketID,
		"code", event.Code,
		"event_id", event.EventID)

	// Hook for confirmation emails and analytics

	m.Ack()
}

func (h *Handlers) HandleTicketCancelled(m *stan.Msg) {
	var event models.TicketCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket cancelled event", "error", err)
		return
	}

	slog.Info("Processing ticket cancelled event",
		"ticket_id", event.TicketID,
		"code", event.Code,
		"refund_amount", event.RefundAmount)

	// A seat was returned, drop the cached event listings
	h.invalidateEventsCache()

	m.Ack()
}

func (h *Handlers) HandleTicketRedeemed(m *stan.Msg) {
	var event models.TicketRedeemedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket redeemed event", "error", err)
		return
	}

	slog.Info("Processing ticket redeemed event",
		"ticket_id", event.TicketID,
		"code", event.Code,
		"event_id", event.EventID)

	m.Ack()
}

func (h *Handlers) HandleTicketExpired(m *stan.Msg) {
	var event models.TicketExpiredEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal ticket expired event", "error", err)
		return
	}

	slog.Info("Processing ticket expired event",
		"ticket_id", event.TicketID,
		"code", event.Code,
		"event_id", event.EventID)

	m.Ack()
}

func (h *Handlers) HandleEventCancelled(m *stan.Msg) {
	var event models.EventCancelledEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal event cancelled event", "error", err)
		return
	}

	slog.Info("Processing event cancelled event",
		"event_id", event.EventID,
		"refunded_tickets", event.RefundedTickets,
		"refunded_amount", event.RefundedAmount)

	h.invalidateEventsCache()

	m.Ack()
}

func (h *Handlers) HandleWalletDeposited(m *stan.Msg) {
	var event models.WalletDepositedEvent
	if err := json.Unmarshal(m.Data, &event); err != nil {
		slog.Error("Failed to unmarshal wallet deposited event", "error", err)
		return
	}

	slog.Info("Processing wallet deposited event",
		"user_id", event.UserID,
		"amount", event.Amount,
		"balance", event.Balance)

	m.Ack()
}

func (h *Handlers) invalidateEventsCache() {
	if h.valkeyClient == nil {
		return
	}
	h.valkeyClient.InvalidateEventsList(context.Background())
}
