package mqtt

import (
	"context"
	"fmt"
)

// Subscribe registers a handler for the given topic.
//
// The subscription is tracked and restored automatically on reconnect. If the
// link is currently down, the subscription is recorded and activated as soon
// as the connection comes up.
//
// Parameters:
//   - ctx: Context for timeout/cancellation of the subscribe operation
//   - topic: Topic filter (e.g. "438/NK6-EU-MHA0000A/status/current")
//   - qos: Quality of service (0, 1, or 2)
//   - handler: Callback invoked for each received message
//
// Returns:
//   - error: Subscribe failure; nil when recorded for a pending connection
func (c *Client) Subscribe(ctx context.Context, topic string, qos byte, handler MessageHandler) error {
	// Track subscription for restore on reconnect
	c.subMu.Lock()
	c.subscriptions[topic] = subscription{
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
	c.subMu.Unlock()

	if !c.IsConnected() {
		// restoreSubscriptions picks it up on connect.
		return nil
	}

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))

	select {
	case <-ctx.Done():
		return fmt.Errorf("subscribe to %s: %w", topic, ctx.Err())
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		return nil
	}
}

// Unsubscribe removes a subscription and stops restore tracking.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - topic: Topic filter to unsubscribe from
//
// Returns:
//   - error: Unsubscribe failure; nil when the link is down
func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()

	if !c.IsConnected() {
		return nil
	}

	token := c.client.Unsubscribe(topic)

	select {
	case <-ctx.Done():
		return fmt.Errorf("unsubscribe from %s: %w", topic, ctx.Err())
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("unsubscribe from %s: %w", topic, err)
		}
		return nil
	}
}
