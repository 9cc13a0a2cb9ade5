package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "avaportal"

var (
	// Registry holds every avaportal collector. It is separate from the
	// prometheus default registry so tests can read it in isolation.
	Registry = prometheus.NewRegistry()

	// AuthTransitions counts login state machine outcomes by transition.
	AuthTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_transitions_total",
		Help:      "Login state machine transitions by kind.",
	}, []string{"transition"})

	// DocumentOperations counts knowledge document operations by op and result.
	DocumentOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "document_operations_total",
		Help:      "Knowledge document store operations by operation and result.",
	}, []string{"op", "result"})

	// BackendRequests counts backend REST calls by endpoint and status code.
	BackendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Backend API requests by endpoint and HTTP status.",
	}, []string{"endpoint", "code"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		AuthTransitions,
		DocumentOperations,
		BackendRequests,
	)
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Result maps an error to the "ok"/"error" label used by the counters.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
