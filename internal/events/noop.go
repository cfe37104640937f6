package events

import "context"

// NoopPublisher discards every event. Clients fall back to it when no
// event stream is configured, so lifecycle publishes stay unconditional.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
