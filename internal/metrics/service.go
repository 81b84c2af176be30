package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		RequestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rally_match_requests_created_total",
			Help: "The total number of match requests created.",
		}),
		Joins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rally_joins_total",
			Help: "The total number of successful join attempts.",
		}),
		MatchesMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rally_matches_made_total",
			Help: "The total number of requests that reached the matched state.",
		}),
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rally_sweep_runs_total",
			Help: "The total number of expiry sweep runs.",
		}),
		SweepExpired: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rally_sweep_expired_requests",
			Help:    "The number of requests expired per sweep run.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rally_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rally_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rally_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.RequestsCreated,
		s.Joins,
		s.MatchesMade,
		s.SweepRuns,
		s.SweepExpired,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRequestsCreated() {
	s.RequestsCreated.Inc()
}

func (s *Service) IncJoins() {
	s.Joins.Inc()
}

func (s *Service) IncMatchesMade() {
	s.MatchesMade.Inc()
}

func (s *Service) IncSweepRuns() {
	s.SweepRuns.Inc()
}

func (s *Service) ObserveSweepExpired(count float64) {
	s.SweepExpired.Observe(count)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
