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

var (
	// ticketRefundRate is the share of the HT price returned to the
	// holder when a single ticket is cancelled. The organizer absorbs it.
	ticketRefundRate = decimal.RequireFromString("0.45")

	// eventCommissionRate is the commission share applied on top of the
	// HT price when a whole event is cancelled: the buyer gets back
	// 100% + this share, split between organizer and commission account.
	eventCommissionRate = decimal.RequireFromString("0.10")
)

// RefundService reverses settlement for one ticket or for every
// confirmed ticket of a cancelled event.
type RefundService struct {
	db                  *database.DB
	userRepo            *repository.UserRepository
	eventRepo           *repository.EventRepository
	ticketRepo          *repository.TicketRepository
	walletSvc           *WalletService
	natsClient          *messaging.NATSClient
	commissionAccountID int64
}

func NewRefundService(db *database.DB, repos *repository.Repositories, walletSvc *WalletService, natsClient *messaging.NATSClient, commissionAccountID int64) *RefundService {
	return &RefundService{
		db:                  db,
		userRepo:            repos.Users,
		eventRepo:           repos.Events,
		ticketRepo:          repos.Tickets,
		walletSvc:           walletSvc,
		natsClient:          natsClient,
		commissionAccountID: commissionAccountID,
	}
}

// CancelTicket refunds a single confirmed ticket at 45% of its HT price,
// moved from the organizer's wallet to the holder's. The status flip,
// both ledger entries and the seat return commit as one unit.
func (s *RefundService) CancelTicket(ctx context.Context, callerID, ticketID int64) (*models.Ticket, error) {
	defer metrics.ObserveSettlement("cancel_ticket", time.Now())

	var (
		cancelled *models.Ticket
		refund    decimal.Decimal
	)
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		ticket, err := s.ticketRepo.LockTx(tx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to lock ticket: %w", err)
		}
		if ticket == nil {
			return errors.NotFound("ticket %d not found", ticketID)
		}

		event, err := s.eventRepo.LockTx(tx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("failed to lock event: %w", err)
		}
		if event == nil {
			return errors.NotFound("event %d not found", ticket.EventID)
		}

		if callerID != ticket.UserID && callerID != event.OrganizerID {
			return errors.PermissionDenied("ticket %s does not belong to the caller", ticket.Code)
		}
		if ticket.Status != models.TicketStatusConfirmed {
			return errors.InvalidState("ticket %s is %s and cannot be cancelled", ticket.Code, ticket.Status)
		}

		refund = ticket.Price.Mul(ticketRefundRate).Round(2)

		if err := s.walletSvc.lockWallets(tx, event.OrganizerID, ticket.UserID); err != nil {
			return err
		}
		organizerBalance, err := s.userRepo.LockWalletTx(tx, event.OrganizerID)
		if err != nil {
			return fmt.Errorf("failed to read organizer wallet: %w", err)
		}
		if organizerBalance.LessThan(refund) {
			return errors.InsufficientFunds("organizer balance %s cannot cover refund %s for ticket %s",
				organizerBalance.StringFixed(2), refund.StringFixed(2), ticket.Code)
		}

		debitDesc := fmt.Sprintf("refund issued for ticket %s", ticket.Code)
		if _, err := s.walletSvc.recordTransactionTx(tx, event.OrganizerID, models.TransactionRefund, refund.Neg(), debitDesc, &ticket.ID); err != nil {
			return err
		}
		creditDesc := fmt.Sprintf("refund received for ticket %s", ticket.Code)
		if _, err := s.walletSvc.recordTransactionTx(tx, ticket.UserID, models.TransactionRefund, refund, creditDesc, &ticket.ID); err != nil {
			return err
		}

		now := time.Now()
		ok, err := s.ticketRepo.MarkCancelledTx(tx, ticket.ID, now)
		if err != nil {
			return fmt.Errorf("failed to mark ticket cancelled: %w", err)
		}
		if !ok {
			return errors.InvalidState("ticket %s is no longer confirmed", ticket.Code)
		}

		seats := event.AvailableSeats + 1
		if seats > event.TotalCapacity {
			seats = event.TotalCapacity
		}
		if event.TotalCapacity > 0 {
			if err := s.eventRepo.UpdateSeatsTx(tx, event.ID, seats); err != nil {
				return fmt.Errorf("failed to return seat: %w", err)
			}
		}

		ticket.Status = models.TicketStatusCancelled
		ticket.CancelledAt = &now
		cancelled = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncRefund("ticket")
	event := models.TicketCancelledEvent{
		TicketID:     cancelled.ID,
		Code:         cancelled.Code,
		EventID:      cancelled.EventID,
		RefundAmount: refund,
		Timestamp:    time.Now(),
	}
	if err := s.natsClient.Publish(models.EventTicketCancelled, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket cancelled event",
			"error", err,
			"ticket_id", cancelled.ID)
	}

	return cancelled, nil
}

// CancelEvent refunds every confirmed ticket of an event and cancels the
// event. Per ticket: the buyer receives 110% of the HT price, the
// commission account pays the 10% share and the organizer pays the base.
//
// Each ticket settles in its own transaction (best-effort per ticket): a
// failing ticket aborts the pass with an error reporting how many tickets
// were already refunded; those stay refunded. Re-running the operation
// resumes with the remaining confirmed tickets.
func (s *RefundService) CancelEvent(ctx context.Context, callerID, eventID int64) (*models.CancelEventResponse, error) {
	defer metrics.ObserveSettlement("cancel_event", time.Now())

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errors.NotFound("event %d not found", eventID)
	}
	if callerID != event.OrganizerID {
		return nil, errors.PermissionDenied("only the organizer may cancel event %d", eventID)
	}
	switch event.Status {
	case models.EventStatusCancelled, models.EventStatusCompleted, models.EventStatusDeleted:
		return nil, errors.InvalidState("event %d is %s and cannot be cancelled", eventID, event.Status)
	}

	commissionAccount, err := s.userRepo.GetByID(ctx, s.commissionAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get commission account: %w", err)
	}
	if commissionAccount == nil {
		return nil, errors.NotFound("commission account %d not found", s.commissionAccountID)
	}

	ticketIDs, err := s.ticketRepo.ConfirmedIDsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed tickets: %w", err)
	}

	result := &models.CancelEventResponse{
		EventID:        eventID,
		RefundedAmount: decimal.Zero,
	}

	for _, ticketID := range ticketIDs {
		payout, err := s.refundEventTicket(ctx, event, ticketID)
		if err != nil {
			return result, fmt.Errorf("event cancellation aborted after refunding %d of %d tickets: %w",
				result.RefundedTickets, len(ticketIDs), err)
		}
		if payout.IsPositive() {
			result.RefundedTickets++
			result.RefundedAmount = result.RefundedAmount.Add(payout)
		}
	}

	err = s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		return s.eventRepo.CancelTx(tx, eventID)
	})
	if err != nil {
		return result, fmt.Errorf("failed to cancel event: %w", err)
	}

	metrics.IncRefund("event")
	published := models.EventCancelledEvent{
		EventID:         eventID,
		OrganizerID:     event.OrganizerID,
		RefundedTickets: result.RefundedTickets,
		RefundedAmount:  result.RefundedAmount,
		Timestamp:       time.Now(),
	}
	if err := s.natsClient.Publish(models.EventEventCancelled, published); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event cancelled event",
			"error", err,
			"event_id", eventID)
	}

	return result, nil
}

// refundEventTicket settles one ticket of an event cancellation in its
// own transaction. A zero payout with no error means the ticket was no
// longer confirmed (a concurrent single-ticket cancellation won the race)
// and was skipped.
func (s *RefundService) refundEventTicket(ctx context.Context, event *models.Event, ticketID int64) (decimal.Decimal, error) {
	var payout decimal.Decimal

	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		ticket, err := s.ticketRepo.LockTx(tx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to lock ticket: %w", err)
		}
		if ticket == nil || ticket.Status != models.TicketStatusConfirmed {
			return nil
		}

		base := ticket.Price
		commission := base.Mul(eventCommissionRate).Round(2)
		payout = base.Add(commission)

		if err := s.walletSvc.lockWallets(tx, ticket.UserID, event.OrganizerID, s.commissionAccountID); err != nil {
			return err
		}

		commissionBalance, err := s.userRepo.LockWalletTx(tx, s.commissionAccountID)
		if err != nil {
			return fmt.Errorf("failed to read commission wallet: %w", err)
		}
		if commissionBalance.LessThan(commission) {
			return errors.InsufficientFunds("commission account balance %s cannot cover %s for ticket %s",
				commissionBalance.StringFixed(2), commission.StringFixed(2), ticket.Code)
		}

		organizerBalance, err := s.userRepo.LockWalletTx(tx, event.OrganizerID)
		if err != nil {
			return fmt.Errorf("failed to read organizer wallet: %w", err)
		}
		if organizerBalance.LessThan(base) {
			return errors.InsufficientFunds("organizer balance %s cannot cover %s for ticket %s",
				organizerBalance.StringFixed(2), base.StringFixed(2), ticket.Code)
		}

		creditDesc := fmt.Sprintf("full refund for ticket %s (event cancelled)", ticket.Code)
		if _, err := s.walletSvc.recordTransactionTx(tx, ticket.UserID, models.TransactionRefund, payout, creditDesc, &ticket.ID); err != nil {
			return err
		}
		commissionDesc := fmt.Sprintf("commission returned for ticket %s (event cancelled)", ticket.Code)
		if _, err := s.walletSvc.recordTransactionTx(tx, s.commissionAccountID, models.TransactionCommission, commission.Neg(), commissionDesc, &ticket.ID); err != nil {
			return err
		}
		debitDesc := fmt.Sprintf("refund issued for ticket %s (event cancelled)", ticket.Code)
		if _, err := s.walletSvc.recordTransactionTx(tx, event.OrganizerID, models.TransactionRefund, base.Neg(), debitDesc, &ticket.ID); err != nil {
			return err
		}

		ok, err := s.ticketRepo.MarkCancelledTx(tx, ticket.ID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to mark ticket cancelled: %w", err)
		}
		if !ok {
			return errors.InvalidState("ticket %s is no longer confirmed", ticket.Code)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return payout, nil
}
