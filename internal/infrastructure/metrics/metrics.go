package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loan_tracker",
		Name:      "payment_transitions_total",
		Help:      "Payment status changes by target status.",
	}, []string{"to"})

	PaymentsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loan_tracker",
		Name:      "payments_submitted_total",
		Help:      "Payments created, including auto-confirmed ones.",
	})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loan_tracker",
		Name:      "realtime_dropped_total",
		Help:      "Realtime events dropped because a subscriber was slow.",
	})

	PushFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "loan_tracker",
		Name:      "push_failures_total",
		Help:      "Push notifications that could not be handed off.",
	})
)

func Handler() http.Handler { return promhttp.Handler() }
