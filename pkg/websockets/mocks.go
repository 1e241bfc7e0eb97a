package websockets

import "context"

// NoOpPublisher is a publisher that does nothing, used when no WebSocket
// endpoint is configured (local single-host deployments).
type NoOpPublisher struct{}

// Publish does nothing.
func (p *NoOpPublisher) Publish(ctx context.Context, message Message) error {
	return nil
}
