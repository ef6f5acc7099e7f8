package mqtt

import (
	"errors"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/huebridge/internal/infrastructure/config"
)

// Client wraps paho.mqtt.golang with the bridge's bus semantics.
//
// It owns one long-lived broker connection, the {name}/connected liveness
// signal and the reserved {name}/set/# subscription. Reconnection is left to
// paho; the client only reacts to connect and connection-lost events.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are automatically restored on reconnection.
type Client struct {
	client   pahomqtt.Client
	cfg      config.MQTTConfig
	topics   Topics
	presence *Presence

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.RWMutex

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex

	// Callbacks for connection events (optional, set via SetOnConnect/SetOnDisconnect).
	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	logger Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// subscription holds subscription details for re-subscription on reconnect.
type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// MessageHandler is the callback signature for received messages.
//
// Handlers are invoked in separate goroutines by the paho library.
// They should not block for extended periods.
type MessageHandler func(topic string, payload []byte) error

// Connect creates the bus client and starts connecting in the background.
//
// It performs the following setup:
//  1. Builds connection options from config (broker URL, auth, TLS)
//  2. Configures the last will ({name}/connected = "0", retained)
//  3. Registers the reserved {name}/set/# subscription
//  4. Starts the paho connect loop (retries until the broker is reachable)
//
// An unreachable broker is not an error: the outcome is logged and paho keeps
// retrying. Only an unusable configuration is returned as an error.
func Connect(cfg config.MQTTConfig, name string, logger Logger) (*Client, error) {
	opts, err := buildClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	c := newClient(cfg, NewTopics(name), logger)
	configureLWT(opts, c.topics)

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})
	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.logger.Debug("mqtt reconnecting", "url", cfg.URL)
	})

	c.client = pahomqtt.NewClient(opts)
	c.logger.Info("mqtt trying to connect", "url", cfg.URL, "client_id", cfg.ClientID)
	c.start()

	return c, nil
}

// newClient builds a Client without a transport.
func newClient(cfg config.MQTTConfig, topics Topics, logger Logger) *Client {
	if logger == nil {
		logger = noopLogger{}
	}
	c := &Client{
		cfg:           cfg,
		topics:        topics,
		subscriptions: make(map[string]subscription),
		logger:        logger,
	}
	c.presence = NewPresence(topics.Connected(), c.publishRetained)

	// Reserved inbound namespace. Nothing is routed from it yet, but it is
	// subscribed so controllers can address the bridge. Not connected yet,
	// so this only records it for handleConnect.
	if err := c.Subscribe(topics.SetAll(), byte(cfg.QoS), c.handleSet); err != nil {
		c.logger.Error("mqtt subscribe", "topic", topics.SetAll(), "error", err)
	}
	return c
}

// start issues the connect and logs its eventual outcome.
func (c *Client) start() {
	token := c.client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			c.logger.Error("mqtt connect failed", "url", c.cfg.URL, "error", err)
		}
	}()
}

// handleConnect is called on every successful (re)connect.
func (c *Client) handleConnect() {
	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()

	c.logger.Info("mqtt connected", "url", c.cfg.URL)

	c.presence.Connected()
	c.restoreSubscriptions()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called when the connection is lost.
func (c *Client) handleDisconnect(err error) {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logger.Info("mqtt closed", "url", c.cfg.URL)
	}
	if err != nil {
		c.logger.Error("mqtt", "error", err)
	}
	c.presence.Disconnected()

	c.callbackMu.RLock()
	callback := c.onDisconnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// handleSet receives messages on the reserved {name}/set/# namespace.
func (c *Client) handleSet(topic string, payload []byte) error {
	c.logger.Debug("mqtt message on reserved topic ignored", "topic", topic, "bytes", len(payload))
	return nil
}

// restoreSubscriptions subscribes to all tracked topics after a connect.
func (c *Client) restoreSubscriptions() {
	c.subMu.RLock()
	defer c.subMu.RUnlock()

	for _, sub := range c.subscriptions {
		c.logger.Info("mqtt subscribe", "topic", sub.topic)
		token := c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
		go c.await(token, "mqtt subscribe", sub.topic)
	}
}

// Close disconnects cleanly from the broker.
//
// A clean disconnect suppresses the last will, so "0" is published
// explicitly first to keep {name}/connected truthful.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	err := c.Publish(c.topics.Connected(), []byte(ConnectivityDisconnected), byte(c.cfg.QoS), true)
	if err != nil && !errors.Is(err, ErrNotConnected) {
		c.logger.Warn("mqtt publish failed", "topic", c.topics.Connected(), "error", err)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)

	c.connMu.Lock()
	c.connected = false
	c.connMu.Unlock()
	c.presence.Disconnected()

	return nil
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// MarkActive records an inbound controller request. The first call after a
// (re)connect publishes "2" to {name}/connected.
func (c *Client) MarkActive() {
	if c.presence.Seen() {
		c.logger.Info("controller seen, connectivity active", "topic", c.topics.Connected())
	}
}

// SetOnConnect sets a callback to be invoked when connection is established.
// This is called on initial connect and on every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback to be invoked when connection is lost.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// wrapHandler wraps a MessageHandler with panic recovery and logging.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("MQTT handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.logger.Warn("MQTT handler returned error",
				"topic", msg.Topic(),
				"error", err,
			)
		}
	}
}

// await waits for a token with the publish timeout and logs the outcome.
func (c *Client) await(token pahomqtt.Token, op, topic string) {
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.logger.Warn(op+" timed out", "topic", topic, "timeout", defaultPublishTimeout)
		return
	}
	if err := token.Error(); err != nil {
		c.logger.Warn(op+" failed", "topic", topic, "error", err)
		return
	}
	c.logger.Debug(op+" complete", "topic", topic)
}
