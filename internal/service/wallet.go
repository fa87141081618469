package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
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

// WalletService is the ledger. Every wallet balance mutation in the
// system goes through recordTransactionTx so the running balance always
// equals the balance_after of the user's most recent transaction row.
type WalletService struct {
	db         *database.DB
	userRepo   *repository.UserRepository
	walletRepo *repository.WalletRepository
	natsClient *messaging.NATSClient
}

func NewWalletService(db *database.DB, userRepo *repository.UserRepository, walletRepo *repository.WalletRepository, natsClient *messaging.NATSClient) *WalletService {
	return &WalletService{
		db:         db,
		userRepo:   userRepo,
		walletRepo: walletRepo,
		natsClient: natsClient,
	}
}

// lockWallets acquires row locks on all given wallets in ascending user-id
// order. Settlement flows touching several wallets call this once up front
// so concurrent settlements cannot deadlock on each other.
func (s *WalletService) lockWallets(tx *sql.Tx, userIDs ...int64) error {
	ids := make([]int64, len(userIDs))
	copy(ids, userIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var last int64 = -1
	for _, id := range ids {
		if id == last {
			continue
		}
		last = id
		if _, err := s.userRepo.LockWalletTx(tx, id); err != nil {
			return fmt.Errorf("failed to lock wallet of user %d: %w", id, err)
		}
	}
	return nil
}

// recordTransactionTx applies a signed amount to a wallet and appends the
// matching ledger row, both inside tx. balance_before/after are snapshotted
// here and never recomputed.
func (s *WalletService) recordTransactionTx(tx *sql.Tx, userID int64, txType string, amount decimal.Decimal, description string, ticketID *int64) (*models.WalletTransaction, error) {
	before, err := s.userRepo.LockWalletTx(tx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet of user %d: %w", userID, err)
	}

	after := before.Add(amount)
	if after.IsNegative() {
		return nil, errors.InsufficientFunds("wallet balance of user %d cannot cover %s", userID, amount.Abs().StringFixed(2))
	}

	if err := s.userRepo.UpdateBalanceTx(tx, userID, after); err != nil {
		return nil, fmt.Errorf("failed to update balance of user %d: %w", userID, err)
	}

	entry := &models.WalletTransaction{
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Currency:      models.DefaultCurrency,
		Description:   description,
		TicketID:      ticketID,
	}
	if err := s.walletRepo.InsertTx(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to append wallet transaction: %w", err)
	}

	metrics.IncWalletTransaction(txType)
	return entry, nil
}

// Deposit credits a wallet. Deposits are credit-only and always succeed
// once the amount passes validation.
func (s *WalletService) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (*models.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, errors.Validation("deposit amount must be positive")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.NotFound("user %d not found", userID)
	}

	var entry *models.WalletTransaction
	err = s.db.WithinTx(ctx, func(tx *sql.Tx) error {
		entry, err = s.recordTransactionTx(tx, userID, models.TransactionDeposit, amount.Round(2), "wallet deposit", nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	event := models.WalletDepositedEvent{
		UserID:    userID,
		Amount:    entry.Amount,
		Balance:   entry.BalanceAfter,
		Timestamp: time.Now(),
	}
	if err := s.natsClient.Publish(models.EventWalletDeposited, event); err != nil {
		logger.WithContext(ctx).Error("Failed to publish wallet deposited event",
			"error", err,
			"user_id", userID)
	}

	return entry, nil
}

// Balance returns the current wallet balance for a user.
func (s *WalletService) Balance(ctx context.Context, userID int64) (*models.WalletResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errors.NotFound("user %d not found", userID)
	}

	return &models.WalletResponse{
		UserID:   user.ID,
		Balance:  user.WalletBalance,
		Currency: user.Currency,
	}, nil
}

// Transactions returns the user's ledger history, newest first.
func (s *WalletService) Transactions(ctx context.Context, userID int64) ([]models.WalletTransaction, error) {
	transactions, err := s.walletRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	return transactions, nil
}
