package service

import (
	"gevent/internal/database"
	"gevent/internal/messaging"
	"gevent/internal/repository"
)

// Services bundles the business logic layer for handler wiring.
type Services struct {
	Events  *EventService
	Orders  *OrderService
	Tickets *TicketService
	Refunds *RefundService
	Wallet  *WalletService
}

func NewServices(db *database.DB, repos *repository.Repositories, natsClient *messaging.NATSClient, commissionAccountID int64) *Services {
	wallet := NewWalletService(db, repos.Users, repos.Wallet, natsClient)
	tickets := NewTicketService(db, repos, wallet, natsClient, commissionAccountID)
	return &Services{
		Events:  NewEventService(repos),
		Orders:  NewOrderService(db, repos, tickets, natsClient),
		Tickets: tickets,
		Refunds: NewRefundService(db, repos, wallet, natsClient, commissionAccountID),
		Wallet:  wallet,
	}
}
