package mqtt

import (
	"context"
	"fmt"
)

// Publish sends a message to the given topic and waits for completion.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - topic: Topic to publish to (e.g. "438/NK6-EU-MHA0000A/command")
//   - qos: Quality of service (0, 1, or 2)
//   - payload: Message payload (JSON envelope)
//
// Returns:
//   - error: ErrNotConnected if the link is down, or the publish failure
func (c *Client) Publish(ctx context.Context, topic string, qos byte, payload []byte) error {
	if !c.IsConnected() {
		return fmt.Errorf("publish to %s: %w", topic, ErrNotConnected)
	}

	token := c.client.Publish(topic, qos, false, payload)

	// Wait with context support
	select {
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
		return nil
	}
}
