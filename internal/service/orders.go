package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gevent/internal/database"
	"gevent/internal/errors"
	"gevent/internal/logger"
	"gevent/internal/messaging"
	"gevent/internal/metrics"
	"gevent/internal/models"
	"gevent/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OrderService drives the order payment state machine:
// pending -> {completed, failed}, completed -> refunded. Completion
// triggers ticket issuance exactly once.
type OrderService struct {
	db         *database.DB
	userRepo   *repository.UserRepository
	eventRepo  *repository.EventRepository
	orderRepo  *repository.OrderRepository
	ticketRepo *repository.TicketRepository
	ticketSvc  *TicketService
	natsClient *messaging.NATSClient
}

func NewOrderService(db *database.DB, repos *repository.Repositories, ticketSvc *TicketService, natsClient *messaging.NATSClient) *OrderService {
	return &OrderService{
		db:         db,
		userRepo:   repos.Users,
		eventRepo:  repos.Events,
		orderRepo:  repos.Orders,
		ticketRepo: repos.Tickets,
		ticketSvc:  ticketSvc,
		natsClient: natsClient,
	}
}

// Create places an order against an event. All monetary fields are
// snapshots of the event's price and tax rate at this moment; later event
// price changes never affect the order.
//
// With payment_status "completed" the order settles immediately: tickets
// are issued in the same transaction. When settlement is rejected the
// order row is still persisted, marked failed, for audit — but no tickets
// and no wallet movements exist.
func (s *OrderService) Create(ctx context.Context, userID int64, req *models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	defer metrics.ObserveSettlement("create_order", time.Now())

	if req.Quantity <= 0 {
		return nil, errors.Validation("quantity must be positive")
	}
	initialStatus := req.PaymentStatus
	if initialStatus == "" {
		initialStatus = models.PaymentStatusPending
	}
	if initialStatus != models.PaymentStatusPending && initialStatus != models.PaymentStatusCompleted {
		return nil, errors.Validation("initial payment status must be pending or completed")
	}

	buyer, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if buyer == nil {
		return nil, errors.NotFound("user %d not found", userID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	event, err := s.eventRepo.LockTx(tx, req.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}
	if event == nil {
		return nil, errors.NotFound("event %d not found", req.EventID)
	}
	switch event.Status {
	case models.EventStatusCancelled, models.EventStatusCompleted, models.EventStatusDeleted:
		return nil, errors.InvalidState("event %d is %s and cannot be ordered", event.ID, event.Status)
	}

	quantity := decimal.NewFromInt(int64(req.Quantity))
	totalHT := event.Price.Mul(quantity).Round(2)
	totalTVA := totalHT.Mul(event.TaxRate).Div(hundred).Round(2)

	order := &models.Order{
		OrderNumber:   newCode("ORD"),
		UserID:        userID,
		EventID:       event.ID,
		Quantity:      req.Quantity,
		UnitPrice:     event.Price,
		TaxRate:       event.TaxRate,
		TotalHT:       totalHT,
		TotalTVA:      totalTVA,
		TotalTTC:      totalHT.Add(totalTVA),
		Currency:      event.Currency,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := s.orderRepo.CreateTx(tx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if initialStatus == models.PaymentStatusPending {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit order: %w", err)
		}
		metrics.IncOrder(models.PaymentStatusPending)
		return &models.CreateOrderResponse{Order: order}, nil
	}

	// Immediate payment: settle inside the same transaction.
	tickets, issueErr := s.ticketSvc.issueForOrderTx(tx, order, event, buyer)
	if issueErr != nil {
		if errors.KindOf(issueErr) == "" {
			return nil, issueErr
		}
		// Settlement rejections happen before any wallet or ticket
		// write, so committing here persists only the failed order
		// row for audit.
		order.PaymentStatus = models.PaymentStatusFailed
		if err := s.orderRepo.UpdatePaymentTx(tx, order); err != nil {
			return nil, fmt.Errorf("failed to mark order failed: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit failed order: %w", err)
		}
		metrics.IncOrder(models.PaymentStatusFailed)
		s.publishOrderFailed(ctx, order, issueErr)
		return nil, issueErr
	}

	now := time.Now()
	order.PaymentStatus = models.PaymentStatusCompleted
	order.PaymentDate = &now
	if err := s.orderRepo.UpdatePaymentTx(tx, order); err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order settlement: %w", err)
	}

	metrics.IncOrder(models.PaymentStatusCompleted)
	s.publishOrderCompleted(ctx, order, len(tickets))
	s.ticketSvc.publishIssued(ctx, tickets)

	return &models.CreateOrderResponse{Order: order, Tickets: tickets}, nil
}

// SetPaymentStatus applies a payment transition to an order owned by the
// caller. Transitioning to completed issues tickets; if issuance is
// rejected the whole update rolls back and the order keeps its prior
// status — an order is never completed without its tickets.
func (s *OrderService) SetPaymentStatus(ctx context.Context, callerID, orderID int64, newStatus string, transactionID *string) (*models.UpdatePaymentResponse, error) {
	defer metrics.ObserveSettlement("set_payment_status", time.Now())

	switch newStatus {
	case models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusRefunded:
	default:
		return nil, errors.Validation("payment status %q is not a valid target", newStatus)
	}

	var (
		order   *models.Order
		tickets []models.Ticket
	)
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		var err error
		order, err = s.orderRepo.LockTx(tx, orderID)
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}
		if order == nil {
			return errors.NotFound("order %d not found", orderID)
		}
		if order.UserID != callerID {
			return errors.PermissionDenied("order %s does not belong to the caller", order.OrderNumber)
		}
		if transactionID != nil {
			order.TransactionID = transactionID
		}

		switch newStatus {
		case models.PaymentStatusCompleted:
			if order.PaymentStatus != models.PaymentStatusPending && order.PaymentStatus != models.PaymentStatusCompleted {
				return errors.InvalidState("order %s is %s and cannot be completed", order.OrderNumber, order.PaymentStatus)
			}

			event, err := s.eventRepo.LockTx(tx, order.EventID)
			if err != nil {
				return fmt.Errorf("failed to lock event: %w", err)
			}
			if event == nil {
				return errors.NotFound("event %d not found", order.EventID)
			}
			buyer, err := s.userRepo.GetByID(ctx, order.UserID)
			if err != nil {
				return fmt.Errorf("failed to get buyer: %w", err)
			}
			if buyer == nil {
				return errors.NotFound("user %d not found", order.UserID)
			}

			tickets, err = s.ticketSvc.issueForOrderTx(tx, order, event, buyer)
			if err != nil {
				return err
			}

			if order.PaymentDate == nil {
				now := time.Now()
				order.PaymentDate = &now
			}
			order.PaymentStatus = models.PaymentStatusCompleted

		case models.PaymentStatusFailed:
			if order.PaymentStatus != models.PaymentStatusPending {
				return errors.InvalidState("order %s is %s and cannot be failed", order.OrderNumber, order.PaymentStatus)
			}
			order.PaymentStatus = models.PaymentStatusFailed

		case models.PaymentStatusRefunded:
			if order.PaymentStatus != models.PaymentStatusCompleted {
				return errors.InvalidState("order %s is %s and cannot be refunded", order.OrderNumber, order.PaymentStatus)
			}
			order.PaymentStatus = models.PaymentStatusRefunded
		}

		return s.orderRepo.UpdatePaymentTx(tx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrder(order.PaymentStatus)
	if order.PaymentStatus == models.PaymentStatusCompleted {
		s.publishOrderCompleted(ctx, order, len(tickets))
		s.ticketSvc.publishIssued(ctx, tickets)
	}

	return &models.UpdatePaymentResponse{Order: order, Tickets: tickets}, nil
}

// Get returns an order owned by the caller, with its tickets.
func (s *OrderService) Get(ctx context.Context, callerID, orderID int64) (*models.Order, []models.Ticket, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, nil, errors.NotFound("order %d not found", orderID)
	}
	if order.UserID != callerID {
		return nil, nil, errors.PermissionDenied("order %s does not belong to the caller", order.OrderNumber)
	}

	tickets, err := s.ticketRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list order tickets: %w", err)
	}
	return order, tickets, nil
}

// List returns the caller's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) publishOrderCompleted(ctx context.Context, order *models.Order, tickets int) {
	event := models.OrderCompletedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		EventID:     order.EventID,
		TotalTTC:    order.TotalTTC,
		Tickets:     tickets,
		Timestamp:   time.Now(),
	}
	if err := s.natsClient.Publish(models.EventOrderCompleted, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish order completed event",
			"error", err,
			"order_id", order.ID)
	}
}

func (s *OrderService) publishOrderFailed(ctx context.Context, order *models.Order, cause error) {
	event := models.OrderFailedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		EventID:     order.EventID,
		Reason:      errors.MessageOf(cause),
		Timestamp:   time.Now(),
	}
	if err := s.natsClient.Publish(models.EventOrderFailed, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish order failed event",
			"error", err,
			"order_id", order.ID)
	}
}
