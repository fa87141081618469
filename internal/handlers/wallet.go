package handlers

import (
	"net/http"

	"gevent/internal/models"

	"github.com/gin-gonic/gin"
)

// Wallet handlers

// Deposit - POST /api/wallet/deposit
func (h *Handlers) Deposit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	transaction, err := h.services.Wallet.Deposit(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondError(c, err, "Failed to deposit")
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

// GetWallet - GET /api/wallet
func (h *Handlers) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	wallet, err := h.services.Wallet.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to get wallet")
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// ListWalletTransactions - GET /api/wallet/transactions
func (h *Handlers) ListWalletTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	transactions, err := h.services.Wallet.Transactions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list wallet transactions")
		return
	}

	c.JSON(http.StatusOK, transactions)
}
