package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicketsOpened is the total number of tickets opened.
	TicketsOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_opened",
			Help: "Total number of tickets opened",
		},
		[]string{"ticket_type"},
	)

	// TicketsClosed is the total number of tickets closed.
	TicketsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_closed",
			Help: "Total number of tickets closed",
		},
		[]string{"action"},
	)

	// TicketsDenied is the total number of ticket open requests denied by policy.
	TicketsDenied = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_tickets_denied",
			Help: "Total number of ticket open requests denied by policy",
		},
	)

	// SweepDuration is the duration of an auto close sweep pass.
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "ticketing_sweep_duration",
			Help: "Duration of an auto close sweep pass",
		},
	)
)
