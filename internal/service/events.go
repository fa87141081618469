package service

import (
	"context"
	"fmt"
	"time"

	"gevent/internal/errors"
	"gevent/internal/models"
	"gevent/internal/repository"
)

// EventService manages the event catalog. Settlement-heavy operations
// (ticket issuance, cancellation refunds) live in TicketService and
// RefundService.
type EventService struct {
	eventRepo  *repository.EventRepository
	ticketRepo *repository.TicketRepository
}

func NewEventService(repos *repository.Repositories) *EventService {
	return &EventService{
		eventRepo:  repos.Events,
		ticketRepo: repos.Tickets,
	}
}

func (s *EventService) Create(ctx context.Context, organizerID int64, req *models.CreateEventRequest) (*models.Event, error) {
	if req.Title == "" {
		return nil, errors.Validation("title is required")
	}
	if req.Date.Before(time.Now()) {
		return nil, errors.Validation("event date must be in the future")
	}
	if req.Price.IsNegative() {
		return nil, errors.Validation("price cannot be negative")
	}
	if req.TaxRate.IsNegative() || req.TaxRate.GreaterThan(hundred) {
		return nil, errors.Validation("tax rate must be between 0 and 100")
	}
	if req.TotalCapacity < 0 {
		return nil, errors.Validation("total capacity cannot be negative")
	}

	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	event := &models.Event{
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Date:           req.Date,
		Price:          req.Price.Round(2),
		TaxRate:        req.TaxRate,
		Currency:       currency,
		TotalCapacity:  req.TotalCapacity,
		AvailableSeats: req.TotalCapacity,
		Status:         models.EventStatusUpcoming,
		OrganizerID:    organizerID,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *EventService) Get(ctx context.Context, eventID int64) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errors.NotFound("event %d not found", eventID)
	}
	return event, nil
}

func (s *EventService) List(ctx context.Context, page, pageSize int) ([]models.Event, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	events, err := s.eventRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// SetStatus moves an event between upcoming, ongoing and completed.
// Redemption is only allowed while the event is ongoing, so organizers
// call this at the venue door. Cancellation goes through RefundService.
func (s *EventService) SetStatus(ctx context.Context, callerID, eventID int64, status string) (*models.Event, error) {
	switch status {
	case models.EventStatusUpcoming, models.EventStatusOngoing, models.EventStatusCompleted:
	default:
		return nil, errors.Validation("status must be one of upcoming, ongoing, completed")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, errors.NotFound("event %d not found", eventID)
	}
	if callerID != event.OrganizerID {
		return nil, errors.PermissionDenied("only the organizer may change event %d", eventID)
	}
	switch event.Status {
	case models.EventStatusCancelled, models.EventStatusDeleted:
		return nil, errors.InvalidState("event %d is %s", eventID, event.Status)
	}

	if err := s.eventRepo.UpdateStatus(ctx, eventID, status); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	event.Status = status
	return event, nil
}
