package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkhive",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	requestTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkhive",
			Name:      "request_transitions_total",
			Help:      "Parking request lifecycle transitions by target status.",
		},
		[]string{"status"},
	)

	walletOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkhive",
			Name:      "wallet_operations_total",
			Help:      "Wallet operations by kind and outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, requestTransitions, walletOperations)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition counts a lifecycle transition into the given status.
func IncTransition(status string) {
	requestTransitions.WithLabelValues(status).Inc()
}

// IncWalletOp counts a wallet operation with its outcome.
func IncWalletOp(operation, outcome string) {
	walletOperations.WithLabelValues(operation, outcome).Inc()
}
