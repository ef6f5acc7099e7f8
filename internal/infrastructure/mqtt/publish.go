package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20 // 1MB

// Publish sends a message and waits for completion up to the publish timeout.
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := c.validatePublish(topic, payload, qos); err != nil {
		return err
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishAsync hands a non-retained message to paho without waiting.
//
// Only argument validation errors are returned. Delivery failures while the
// broker is unreachable are logged from a background goroutine and otherwise
// dropped: the bridge has no acknowledgement channel to report them on.
func (c *Client) PublishAsync(topic string, payload []byte) error {
	qos := byte(c.cfg.QoS)
	if err := c.validatePublish(topic, payload, qos); err != nil {
		return err
	}

	token := c.client.Publish(topic, qos, false, payload)
	go c.await(token, "mqtt publish", topic)
	return nil
}

// publishRetained is the PublishFunc used by the connectivity state machine.
func (c *Client) publishRetained(topic string, payload []byte) {
	token := c.client.Publish(topic, byte(c.cfg.QoS), true, payload)
	go c.await(token, "mqtt publish", topic)
}

func (c *Client) validatePublish(topic string, payload []byte, qos byte) error {
	if err := ValidatePublishTopic(topic); err != nil {
		return fmt.Errorf("%w: %q", err, topic)
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	return nil
}
