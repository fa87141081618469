package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"gevent/internal/cache"
	"gevent/internal/errors"
	"gevent/internal/models"
	"gevent/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services     *service.Services
	valkeyClient *cache.ValkeyClient
}

func NewHandlers(services *service.Services, valkeyClient *cache.ValkeyClient) *Handlers {
	return &Handlers{
		services:     services,
		valkeyClient: valkeyClient,
	}
}

// currentUserID returns the authenticated caller set by BasicAuth.
func currentUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// statusForKind maps the settlement error taxonomy to HTTP status codes.
func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case errors.KindPermissionDenied:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindCapacityExceeded, errors.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error as JSON. Typed settlement errors keep
// their message; anything else becomes an opaque 500.
func respondError(c *gin.Context, err error, fallback string) {
	if kind := errors.KindOf(err); kind != "" {
		c.JSON(statusForKind(kind), models.ErrorResponse{Error: errors.MessageOf(err)})
		return
	}
	slog.Error(fallback, "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
}

// Events handlers

// CreateEvent - POST /api/events
func (h *Handlers) CreateEvent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	event, err := h.services.Events.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "Failed to create event")
		return
	}

	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}

	c.JSON(http.StatusCreated, event)
}

// ListEvents - GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > 100 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "pageSize must be between 1 and 100"})
		return
	}

	// Serve raw cached JSON when available to skip the unmarshal round trip
	if h.valkeyClient != nil {
		rawJSON, err := h.valkeyClient.GetEventsListRaw(c.Request.Context(), page, pageSize)
		if err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	events, err := h.services.Events.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondError(c, err, "Failed to list events")
		return
	}

	response := make(models.ListEventsResponse, 0, len(events))
	for _, e := range events {
		response = append(response, models.ListEventsResponseItem{
			ID:             e.ID,
			Title:          e.Title,
			Date:           e.Date,
			Price:          e.Price,
			Currency:       e.Currency,
			AvailableSeats: e.AvailableSeats,
			Status:         e.Status,
		})
	}

	if h.valkeyClient != nil {
		h.valkeyClient.SetEventsList(c.Request.Context(), page, pageSize, response)
	}

	c.JSON(http.StatusOK, response)
}

// GetEvent - GET /api/events/:id
func (h *Handlers) GetEvent(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid event id"})
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// UpdateEventStatus - PUT /api/events/:id/status
func (h *Handlers) UpdateEventStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid event id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	event, err := h.services.Events.SetStatus(c.Request.Context(), userID, eventID, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update event status")
		return
	}

	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}

	c.JSON(http.StatusOK, event)
}

// CancelEvent - POST /api/events/:id/cancel
// Refunds every confirmed ticket and cancels the event
func (h *Handlers) CancelEvent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid event id"})
		return
	}

	response, err := h.services.Refunds.CancelEvent(c.Request.Context(), userID, eventID)
	if err != nil {
		respondError(c, err, "Failed to cancel event")
		return
	}

	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}

	c.JSON(http.StatusOK, response)
}
