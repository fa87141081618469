package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gevent/internal/database"
	"gevent/internal/errors"
	"gevent/internal/logger"
	"gevent/internal/messaging"
	"gevent/internal/metrics"
	"gevent/internal/models"
	"gevent/internal/qr"
	"gevent/internal/repository"

	"github.com/google/uuid"
)

// TicketService issues tickets for paid orders and handles QR
// validation and redemption.
type TicketService struct {
	db         *database.DB
	userRepo   *repository.UserRepository
	eventRepo  *repository.EventRepository
	ticketRepo *repository.TicketRepository
	walletSvc  *WalletService
	natsClient *messaging.NATSClient
	commission int64
}

func NewTicketService(db *database.DB, repos *repository.Repositories, walletSvc *WalletService, natsClient *messaging.NATSClient, commissionAccountID int64) *TicketService {
	return &TicketService{
		db:         db,
		userRepo:   repos.Users,
		eventRepo:  repos.Events,
		ticketRepo: repos.Tickets,
		walletSvc:  walletSvc,
		natsClient: natsClient,
		commission: commissionAccountID,
	}
}

// newCode builds a "PREFIX-XXXXXXXXXXXX" identifier the way ticket codes
// and order numbers are generated everywhere in the system.
func newCode(prefix string) string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(hex[:12])
}

// issueForOrderTx converts a paid order into tickets inside tx. The event
// row must already be locked by the caller. The whole sequence — buyer
// debit, organizer and commission credits, ticket rows, seat decrement —
// commits or rolls back as one unit.
//
// Repeated completion for an order that already has tickets returns the
// existing set unchanged.
func (s *TicketService) issueForOrderTx(tx *sql.Tx, order *models.Order, event *models.Event, buyer *models.User) ([]models.Ticket, error) {
	existing, err := s.ticketRepo.ListByOrderTx(tx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing tickets: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	if event.TotalCapacity > 0 && event.AvailableSeats < order.Quantity {
		return nil, errors.CapacityExceeded("event %d has %d seats left, %d requested",
			event.ID, event.AvailableSeats, order.Quantity)
	}

	// All wallets up front, ascending ids, so concurrent settlements
	// cannot deadlock.
	if err := s.walletSvc.lockWallets(tx, buyer.ID, event.OrganizerID, s.commission); err != nil {
		return nil, err
	}

	balance, err := s.userRepo.LockWalletTx(tx, buyer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read buyer wallet: %w", err)
	}
	if balance.LessThan(order.TotalTTC) {
		return nil, errors.InsufficientFunds("wallet balance %s cannot cover order total %s",
			balance.StringFixed(2), order.TotalTTC.StringFixed(2))
	}

	purchaseDesc := fmt.Sprintf("purchase of %d ticket(s) for %q (order %s)", order.Quantity, event.Title, order.OrderNumber)
	if _, err := s.walletSvc.recordTransactionTx(tx, buyer.ID, models.TransactionPurchase, order.TotalTTC.Neg(), purchaseDesc, nil); err != nil {
		return nil, err
	}

	saleDesc := fmt.Sprintf("sale of %d ticket(s) for %q (order %s)", order.Quantity, event.Title, order.OrderNumber)
	if _, err := s.walletSvc.recordTransactionTx(tx, event.OrganizerID, models.TransactionPurchase, order.TotalHT, saleDesc, nil); err != nil {
		return nil, err
	}

	if order.TotalTVA.IsPositive() {
		commissionDesc := fmt.Sprintf("commission on order %s", order.OrderNumber)
		if _, err := s.walletSvc.recordTransactionTx(tx, s.commission, models.TransactionCommission, order.TotalTVA, commissionDesc, nil); err != nil {
			return nil, err
		}
	}

	sold := event.TotalCapacity - event.AvailableSeats
	taxAmount := order.UnitPrice.Mul(order.TaxRate).Div(hundred).Round(2)
	now := time.Now()

	tickets := make([]models.Ticket, 0, order.Quantity)
	for i := 0; i < order.Quantity; i++ {
		ticket := models.Ticket{
			Code:         newCode("TKT"),
			EventID:      event.ID,
			UserID:       buyer.ID,
			OrderID:      order.ID,
			HolderName:   buyer.FullName(),
			HolderEmail:  buyer.Email,
			HolderPhone:  buyer.PhoneNumber,
			Seat:         seatLabel(event, sold+i),
			Price:        order.UnitPrice,
			TaxAmount:    taxAmount,
			PriceTTC:     order.UnitPrice.Add(taxAmount),
			Currency:     order.Currency,
			Status:       models.TicketStatusConfirmed,
			PurchaseDate: now,
		}

		payload, err := qr.Encode(&ticket, event)
		if err != nil {
			return nil, fmt.Errorf("failed to encode QR payload: %w", err)
		}
		ticket.QRPayload = payload

		image, err := qr.Image(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to render QR image: %w", err)
		}
		ticket.QRImage = image

		if err := s.ticketRepo.InsertTx(tx, &ticket); err != nil {
			return nil, fmt.Errorf("failed to insert ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if event.TotalCapacity > 0 {
		remaining := event.AvailableSeats - order.Quantity
		if remaining < 0 {
			remaining = 0
		}
		if err := s.eventRepo.UpdateSeatsTx(tx, event.ID, remaining); err != nil {
			return nil, fmt.Errorf("failed to decrement seats: %w", err)
		}
	}

	metrics.AddTicketsIssued(len(tickets))
	return tickets, nil
}

// seatLabel assigns "A{n}" labels for capacity-tracked events and
// "General" otherwise.
func seatLabel(event *models.Event, index int) string {
	if event.TotalCapacity <= 0 {
		return "General"
	}
	return fmt.Sprintf("A%d", index+1)
}

// publishIssued emits one ticket.issued event per ticket after commit.
func (s *TicketService) publishIssued(ctx context.Context, tickets []models.Ticket) {
	for _, ticket := range tickets {
		event := models.TicketIssuedEvent{
			TicketID:  ticket.ID,
			Code:      ticket.Code,
			EventID:   ticket.EventID,
			UserID:    ticket.UserID,
			OrderID:   ticket.OrderID,
			Timestamp: time.Now(),
		}
		if err := s.natsClient.Publish(models.EventTicketIssued, event); err != nil {
			logger.WithContext(ctx).Error("Failed to publish ticket issued event",
				"error", err,
				"ticket_id", ticket.ID)
		}
	}
}

// ValidateQR decodes a QR payload and checks it against live ticket
// state. It never mutates the ticket; the returned message is suitable
// for the scanning client.
func (s *TicketService) ValidateQR(ctx context.Context, qrData string) (*models.Ticket, string, error) {
	code, err := qr.Decode(qrData)
	if err != nil {
		switch err {
		case qr.ErrMissingCode:
			return nil, "missing ticket code", errors.Validation("missing ticket code")
		default:
			return nil, "invalid QR payload", errors.Validation("invalid QR payload")
		}
	}

	ticket, err := s.ticketRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up ticket: %w", err)
	}
	if ticket == nil {
		return nil, "ticket not found", errors.NotFound("ticket %s not found", code)
	}

	switch ticket.Status {
	case models.TicketStatusCancelled:
		return nil, "this ticket has been cancelled", errors.InvalidState("ticket %s is cancelled", code)
	case models.TicketStatusUsed:
		return nil, "this ticket has already been used", errors.InvalidState("ticket %s is already used", code)
	case models.TicketStatusExpired:
		return nil, "this ticket has expired", errors.InvalidState("ticket %s is expired", code)
	}

	return ticket, "valid ticket", nil
}

// Redeem marks a confirmed ticket as used. Only the event's organizer may
// redeem, and only while the event is ongoing. The status check and write
// happen under a row lock so a ticket cannot be redeemed twice.
func (s *TicketService) Redeem(ctx context.Context, callerID, ticketID int64) (*models.Ticket, error) {
	defer metrics.ObserveSettlement("redeem_ticket", time.Now())

	var redeemed *models.Ticket
	err := s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		ticket, err := s.ticketRepo.LockTx(tx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to lock ticket: %w", err)
		}
		if ticket == nil {
			return errors.NotFound("ticket %d not found", ticketID)
		}

		event, err := s.eventRepo.GetByID(ctx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("failed to get event: %w", err)
		}
		if event == nil {
			return errors.NotFound("event %d not found", ticket.EventID)
		}
		if event.OrganizerID != callerID {
			return errors.PermissionDenied("only the event organizer may redeem tickets")
		}
		if event.Status != models.EventStatusOngoing {
			return errors.InvalidState("event %d is %s, redemption requires an ongoing event", event.ID, event.Status)
		}

		now := time.Now()
		ok, err := s.ticketRepo.MarkUsedTx(tx, ticket.ID, now)
		if err != nil {
			return fmt.Errorf("failed to mark ticket used: %w", err)
		}
		if !ok {
			return errors.InvalidState("ticket %s is %s and cannot be used", ticket.Code, ticket.Status)
		}

		ticket.Status = models.TicketStatusUsed
		ticket.UsedAt = &now
		redeemed = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.TicketRedeemedEvent{
		TicketID:  redeemed.ID,
		Code:      redeemed.Code,
		EventID:   redeemed.EventID,
		Timestamp: time.Now(),
	}
	if err := s.natsClient.Publish(models.EventTicketRedeemed, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish ticket redeemed event",
			"error", err,
			"ticket_id", redeemed.ID)
	}

	return redeemed, nil
}

// ListForUser returns the caller's tickets.
func (s *TicketService) ListForUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	tickets, err := s.ticketRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}
