// Package metrics exposes prometheus instrumentation for the settlement
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gevent_orders_total",
			Help: "Orders processed by resulting payment status",
		},
		[]string{"status"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gevent_tickets_issued_total",
			Help: "Tickets issued by the settlement pipeline",
		},
	)

	refundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gevent_refunds_total",
			Help: "Refund operations by kind (ticket, event)",
		},
		[]string{"kind"},
	)

	walletTransactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gevent_wallet_transactions_total",
			Help: "Ledger entries written by transaction type",
		},
		[]string{"type"},
	)

	settlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gevent_settlement_duration_seconds",
			Help:    "Duration of settlement operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation"},
	)
)

func IncOrder(status string) {
	ordersTotal.WithLabelValues(status).Inc()
}

func AddTicketsIssued(n int) {
	ticketsIssued.Add(float64(n))
}

func IncRefund(kind string) {
	refundsTotal.WithLabelValues(kind).Inc()
}

func IncWalletTransaction(txType string) {
	walletTransactions.WithLabelValues(txType).Inc()
}

// ObserveSettlement records the duration of one settlement operation.
// Use with defer: defer metrics.ObserveSettlement("create_order", time.Now())
func ObserveSettlement(operation string, start time.Time) {
	settlementDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
