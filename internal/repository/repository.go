package repository

import (
	"gevent/internal/database"
)

type Repositories struct {
	Users   *UserRepository
	Events  *EventRepository
	Orders  *OrderRepository
	Tickets *TicketRepository
	Wallet  *WalletRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:   NewUserRepository(db),
		Events:  NewEventRepository(db),
		Orders:  NewOrderRepository(db),
		Tickets: NewTicketRepository(db),
		Wallet:  NewWalletRepository(db),
	}
}
