package handlers

import (
	"net/http"
	"strconv"

	"gevent/internal/models"

	"github.com/gin-gonic/gin"
)

// Tickets handlers

// ListTickets - GET /api/tickets
func (h *Handlers) ListTickets(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	tickets, err := h.services.Tickets.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list tickets")
		return
	}

	c.JSON(http.StatusOK, tickets)
}

// ValidateQR - POST /api/tickets/validate_qr
// Read-only gate check: reports whether the scanned payload belongs to a
// redeemable ticket. Always answers 200 with a valid flag and message
func (h *Handlers) ValidateQR(c *gin.Context) {
	var req models.ValidateQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	ticket, message, err := h.services.Tickets.ValidateQR(c.Request.Context(), req.QRData)
	if err != nil {
		respondError(c, err, "Failed to validate QR code")
		return
	}

	c.JSON(http.StatusOK, models.ValidateQRResponse{
		Valid:   ticket != nil,
		Message: message,
		Ticket:  ticket,
	})
}

// UseTicket - POST /api/tickets/:id/use
// Redeems a ticket at the door. Organizer-only, event must be ongoing
func (h *Handlers) UseTicket(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid ticket id"})
		return
	}

	ticket, err := h.services.Tickets.Redeem(c.Request.Context(), userID, ticketID)
	if err != nil {
		respondError(c, err, "Failed to use ticket")
		return
	}

	c.JSON(http.StatusOK, ticket)
}

// CancelTicket - POST /api/tickets/:id/cancel
// Cancels one confirmed ticket and refunds 45% of its price to the holder
func (h *Handlers) CancelTicket(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	ticketID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid ticket id"})
		return
	}

	ticket, err := h.services.Refunds.CancelTicket(c.Request.Context(), userID, ticketID)
	if err != nil {
		respondError(c, err, "Failed to cancel ticket")
		return
	}

	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}

	c.JSON(http.StatusOK, ticket)
}
