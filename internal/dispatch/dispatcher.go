package dispatch

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/opencourt/rally/internal/matching"
	"github.com/opencourt/rally/internal/metrics"
	"github.com/opencourt/rally/internal/pubsub"
)

// Dispatcher delivers the notification effects produced by engine
// operations. Delivery is fire-and-forget: each effect is published to the
// notify-user topic and the push endpoint hands it to the provider. Failures
// are logged and counted, never returned, so business operations cannot fail
// on notification trouble.
type Dispatcher struct {
	pubsub  pubsub.PubSubClient
	metrics metrics.Metrics
}

// New creates a new Dispatcher.
func New(ps pubsub.PubSubClient, metrics metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		pubsub:  ps,
		metrics: metrics,
	}
}

// Dispatch publishes every notification effect. Returns the number published.
func (d *Dispatcher) Dispatch(ctx context.Context, notifs []matching.Notification, dryRun bool) int {
	published := 0
	for _, n := range notifs {
		if dryRun {
			log.Info("[Dry Run] Would publish notification", "userID", n.UserID, "kind", n.Kind, "requestID", n.RequestID)
			continue
		}
		if err := d.pubsub.SendMessage(pubsub.TopicNotifyUser, n); err != nil {
			d.metrics.IncNotifFailed()
			log.Error("Failed to publish notification", "error", err, "userID", n.UserID, "kind", n.Kind, "requestID", n.RequestID)
			continue
		}
		published++
	}
	if published > 0 {
		log.Debug("Dispatched notifications", "count", published)
	}
	return published
}
