package pubsub

// PubSubClient publishes and decodes MessagePack-encoded match events.
type PubSubClient interface {
	SendMessage(topic Topic, data any) error
	ProcessMessage(data []byte, returnValue any) error
}
