package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Route labels used by the command router.
const (
	RouteHelp          = "help"
	RouteOwnerSetup    = "owner_setup"
	RouteNewCompany    = "new_company"
	RouteMyCompanies   = "my_companies"
	RouteDeleteCompany = "delete_company"
	RouteJoinCompany   = "join_company"
	RouteLeaveCompany  = "leave_company"
	RouteJobCapture    = "job_capture"
)

// Metrics holds the routing counters.
//
// Metrics:
//   - artlix_messages_total{route} - messages dispatched per route
//   - artlix_route_failures_total{route} - messages answered with the generic failure notice
//   - artlix_jobs_captured_total - jobs persisted
type Metrics struct {
	MessagesTotal      *prometheus.CounterVec
	RouteFailuresTotal *prometheus.CounterVec
	JobsCapturedTotal  prometheus.Counter
}

// NewMetrics registers the counters with reg. Pass prometheus.DefaultRegisterer
// to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artlix_messages_total",
				Help: "Total number of inbound messages per route",
			},
			[]string{"route"},
		),
		RouteFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artlix_route_failures_total",
				Help: "Total number of messages that failed inside a route",
			},
			[]string{"route"},
		),
		JobsCapturedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "artlix_jobs_captured_total",
				Help: "Total number of jobs captured from chat messages",
			},
		),
	}
}

// ObserveMessage counts a dispatched message. A nil receiver is a no-op.
func (m *Metrics) ObserveMessage(route string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(route).Inc()
}

func (m *Metrics) ObserveFailure(route string) {
	if m == nil {
		return
	}
	m.RouteFailuresTotal.WithLabelValues(route).Inc()
}

func (m *Metrics) ObserveJobCaptured() {
	if m == nil {
		return
	}
	m.JobsCapturedTotal.Inc()
}
