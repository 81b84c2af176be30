package http

import (
	"net/http"
	"time"

	"github.com/opencourt/rally/internal/booking"
	"github.com/opencourt/rally/internal/config"
	"github.com/opencourt/rally/internal/dispatch"
	"github.com/opencourt/rally/internal/matching"
	"github.com/opencourt/rally/internal/metrics"
	"github.com/opencourt/rally/internal/notifier"
	"github.com/opencourt/rally/internal/pubsub"
)

func NewServer(
	engine *matching.Engine,
	bookings booking.BookingStore,
	dispatcher *dispatch.Dispatcher,
	notif notifier.Notifier,
	metricsSvc metrics.Metrics,
	metricsHandler http.Handler,
	cfg config.Config,
	ps pubsub.PubSubClient,
) *Server {
	server := &Server{
		Engine:         engine,
		Bookings:       bookings,
		Dispatcher:     dispatcher,
		Notifier:       notif,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		pubsub:         ps,
		now:            time.Now,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper so
	// request-scoped params (verbose, dry_run) work everywhere.
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/requests", Chain(s.ListRequestsHandler(), paramsMiddleware))
	s.Router.Handle("/requests/get", Chain(s.GetRequestHandler(), paramsMiddleware))
	s.Router.Handle("/requests/create", Chain(s.CreateRequestHandler(), paramsMiddleware))
	s.Router.Handle("/requests/join", Chain(s.JoinHandler(), paramsMiddleware))
	s.Router.Handle("/requests/accept", Chain(s.AcceptHandler(), paramsMiddleware))
	s.Router.Handle("/requests/reject", Chain(s.RejectHandler(), paramsMiddleware))
	s.Router.Handle("/requests/cancel", Chain(s.CancelHandler(), paramsMiddleware))
	s.Router.Handle("/bookings", Chain(s.ListBookingsHandler(), paramsMiddleware))
	s.Router.Handle("/bookings/create", Chain(s.CreateBookingHandler(), paramsMiddleware))
	s.Router.Handle("/sweep", Chain(s.SweepHandler(), paramsMiddleware))
	s.Router.Handle("/pubsub/notify", Chain(s.NotifyPushHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
