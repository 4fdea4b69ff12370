package metrics

import (
	"context"
	"strconv"
	"time"

	"ticketnow/internal/database"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketnow_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	ordersPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketnow_orders_placed_total",
			Help: "Order placement attempts by result",
		},
		[]string{"result"},
	)

	ticketsSold = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketnow_tickets_sold_total",
			Help: "Tickets reserved by placed orders",
		},
	)

	ticketsRestored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketnow_tickets_restored_total",
			Help: "Tickets returned to inventory by reason",
		},
		[]string{"reason"},
	)

	paymentNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketnow_payment_notifications_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	dbConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticketnow_db_connections",
			Help: "Database pool connections by state",
		},
		[]string{"state"},
	)
)

func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// TrackOrderPlaced counts a placement attempt; result is "success" or the notification key
func TrackOrderPlaced(result string, tickets int) {
	ordersPlaced.WithLabelValues(result).Inc()
	if result == "success" {
		ticketsSold.Add(float64(tickets))
	}
}

func TrackTicketsRestored(reason string, tickets int) {
	ticketsRestored.WithLabelValues(reason).Add(float64(tickets))
}

func TrackPaymentNotification(outcome string) {
	paymentNotifications.WithLabelValues(outcome).Inc()
}

// CollectPoolStats samples the database pool until ctx is done
func CollectPoolStats(ctx context.Context, db *database.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats := db.Pool()
		dbConnections.WithLabelValues("open").Set(float64(stats.Open))
		dbConnections.WithLabelValues("in_use").Set(float64(stats.InUse))
		dbConnections.WithLabelValues("idle").Set(float64(stats.Idle))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
