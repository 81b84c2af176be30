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

type Server struct {
	Engine         *matching.Engine
	Bookings       booking.BookingStore
	Dispatcher     *dispatch.Dispatcher
	Notifier       notifier.Notifier
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient

	// now is swappable in tests that drive the expiry sweep.
	now func() time.Time
}
