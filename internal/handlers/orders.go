package handlers

import (
	"net/http"
	"strconv"

	"gevent/internal/models"

	"github.com/gin-gonic/gin"
)

// Orders handlers

// CreateOrder - POST /api/orders
// Creates an order; payment_status=completed settles it immediately from
// the buyer's wallet and issues tickets in the same transaction
func (h *Handlers) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	response, err := h.services.Orders.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to create order")
		return
	}

	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}

	c.JSON(http.StatusCreated, response)
}

// ListOrders - GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orders, err := h.services.Orders.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetOrder - GET /api/orders/:id
func (h *Handlers) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	order, tickets, err := h.services.Orders.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		respondError(c, err, "Failed to get order")
		return
	}

	c.JSON(http.StatusOK, models.CreateOrderResponse{Order: order, Tickets: tickets})
}

// UpdateOrderPayment - PUT /api/orders/:id/payment
// Moves the order to completed, failed or refunded. Completion settles
// the wallets and issues tickets
func (h *Handlers) UpdateOrderPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid order id"})
		return
	}

	var req models.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	response, err := h.services.Orders.SetPaymentStatus(c.Request.Context(), userID, orderID, req.PaymentStatus, req.TransactionID)
	if err != nil {
		respondError(c, err, "Failed to update payment status")
		return
	}

	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}

	c.JSON(http.StatusOK, response)
}
