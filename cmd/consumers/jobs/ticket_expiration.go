package jobs

import (
	"context"
	"log/slog"
	"time"

	"gevent/internal/messaging"
	"gevent/internal/models"
	"gevent/internal/repository"
)

// TicketExpirationGrace is how long after the event date a confirmed
// ticket stays redeemable before it is marked expired.
const TicketExpirationGrace = 24 * time.Hour

// TicketExpirationJob marks confirmed tickets of past events as expired.
// No money moves: expiration is a bookkeeping status, not a refund.
type TicketExpirationJob struct {
	ticketRepo *repository.TicketRepository
	natsClient *messaging.NATSClient
	ticker     *time.Ticker
	done       chan bool
}

func NewTicketExpirationJob(ticketRepo *repository.TicketRepository, natsClient *messaging.NATSClient) *TicketExpirationJob {
	return &TicketExpirationJob{
		ticketRepo: ticketRepo,
		natsClient: natsClient,
		done:       make(chan bool),
	}
}

// Start begins the background job that sweeps for expirable tickets
func (j *TicketExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting ticket expiration job", "check_interval", "1m", "grace", TicketExpirationGrace)

	j.ticker = time.NewTicker(time.Minute)

	// Run initial sweep immediately
	go j.sweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.sweep(ctx)
			case <-j.done:
				slog.Info("Ticket expiration job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *TicketExpirationJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

// sweep finds confirmed tickets whose event ended past the grace period
// and marks them expired
func (j *TicketExpirationJob) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-TicketExpirationGrace)

	tickets, err := j.ticketRepo.ListExpirable(ctx, cutoff)
	if err != nil {
		slog.Error("Failed to list expirable tickets", "error", err)
		return
	}

	if len(tickets) == 0 {
		slog.Debug("No expirable tickets found")
		return
	}

	slog.Info("Found tickets to expire", "count", len(tickets))

	for _, ticket := range tickets {
		ok, err := j.ticketRepo.MarkExpired(ctx, ticket.ID)
		if err != nil {
			slog.Error("Failed to expire ticket",
				"error", err,
				"ticket_id", ticket.ID,
				"code", ticket.Code)
			continue
		}
		if !ok {
			// Lost the race to a concurrent cancellation or redemption
			continue
		}

		event := models.TicketExpiredEvent{
			TicketID:  ticket.ID,
			Code:      ticket.Code,
			EventID:   ticket.EventID,
			Timestamp: time.Now(),
		}
		if err := j.natsClient.Publish(models.EventTicketExpired, event); err != nil {
			slog.Error("Failed to publish ticket expired event",
				"error", err,
				"ticket_id", ticket.ID)
		}

		slog.Info("Ticket expired",
			"ticket_id", ticket.ID,
			"code", ticket.Code,
			"event_id", ticket.EventID)
	}
}
