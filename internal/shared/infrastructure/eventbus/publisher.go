package eventbus

import "context"

// Publisher carries domain events out of the process. The payload is an
// already-encoded event envelope; the routing key names the source context
// and event, like "projects.task.completed".
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}
