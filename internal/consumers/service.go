package consumers

import (
	"context"
	"log/slog"

	"gevent/internal/cache"
	"gevent/internal/config"
	"gevent/internal/database"
	"gevent/internal/messaging"
	"gevent/internal/models"
	"gevent/internal/repository"
)

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	repos    *repository.Repositories
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	valkeyClient, err := cache.NewValkeyClient(cfg.Valkey)
	if err != nil {
		slog.Warn("Valkey unavailable, continuing without cache", "error", err)
		valkeyClient = nil
	}

	repos := repository.NewRepositories(db)
	handlers := NewHandlers(repos, valkeyClient)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		valkey:   valkeyClient,
		repos:    repos,
		handlers: handlers,
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	if _, err := cs.nats.SubscribeQueue(models.EventOrderCompleted, "consumers", cs.handlers.HandleOrderCompleted); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventOrderFailed, "consumers", cs.handlers.HandleOrderFailed); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventTicketIssued, "consumers", cs.handlers.HandleTicketIssued); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventTicketCancelled, "consumers", cs.handlers.HandleTicketCancelled); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventTicketRedeemed, "consumers", cs.handlers.HandleTicketRedeemed); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventTicketExpired, "consumers", cs.handlers.HandleTicketExpired); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventEventCancelled, "consumers", cs.handlers.HandleEventCancelled); err != nil {
		return err
	}
	if _, err := cs.nats.SubscribeQueue(models.EventWalletDeposited, "consumers", cs.handlers.HandleWalletDeposited); err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Repositories() *repository.Repositories {
	return cs.repos
}

func (cs *ConsumerService) NATS() *messaging.NATSClient {
	return cs.nats
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.valkey != nil {
		if err := cs.valkey.Close(); err != nil {
			slog.Error("Error closing Valkey connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
