package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// Topic names a Pub/Sub destination for match events.
type Topic string

const (
	// TopicNotifyUser carries notification effects produced by the matching
	// engine; the push endpoint delivers them to the provider.
	TopicNotifyUser Topic = "notify-user"
	// TopicSweepExpire triggers an expiry sweep from the scheduler.
	TopicSweepExpire Topic = "sweep-expire"
)
