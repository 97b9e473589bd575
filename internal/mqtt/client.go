package mqtt

import (
	"context"
	"fmt"
	"log/slog"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/logging"
	"github.com/tphakala/swingcam/internal/observability/metrics"
)

// client implements Client on top of the paho MQTT library.
type client struct {
	config         Config
	internalClient pahomqtt.Client
	metrics        *metrics.MQTTMetrics
	log            *slog.Logger
}

// NewClient creates a new MQTT client for the given broker configuration.
// The metrics argument may be nil.
func NewClient(config Config, mqttMetrics *metrics.MQTTMetrics) (Client, error) {
	if config.Broker == "" {
		return nil, errors.Newf("MQTT broker URL is empty").
			Component("mqtt").
			Category(errors.CategoryValidation).
			Build()
	}

	defaults := DefaultConfig()
	if config.ClientID == "" {
		config.ClientID = defaults.ClientID
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = defaults.PublishTimeout
	}
	if config.DisconnectTimeout <= 0 {
		config.DisconnectTimeout = defaults.DisconnectTimeout
	}

	log := logging.ForService("mqtt")
	if log == nil {
		log = slog.Default().With("service", "mqtt")
	}

	c := &client{
		config:  config,
		metrics: mqttMetrics,
		log:     log,
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.internalClient = pahomqtt.NewClient(opts)
	return c, nil
}

// Connect attempts to connect to the MQTT broker.
func (c *client) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	token := c.internalClient.Connect()
	if !token.WaitTimeout(c.config.ConnectTimeout) {
		c.metrics.RecordError()
		return errors.Newf("timeout connecting to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Context("broker", c.config.Broker).
			Build()
	}
	if err := token.Error(); err != nil {
		c.metrics.RecordError()
		return errors.New(fmt.Errorf("failed to connect to MQTT broker: %w", err)).
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Context("broker", c.config.Broker).
			Build()
	}
	return nil
}

// Publish sends a message to the given topic, honouring the configured
// publish timeout.
func (c *client) Publish(ctx context.Context, topic, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !c.IsConnected() {
		c.metrics.RecordError()
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Build()
	}

	token := c.internalClient.Publish(topic, 0, c.config.Retain, payload)
	if !token.WaitTimeout(c.config.PublishTimeout) {
		c.metrics.RecordError()
		return errors.Newf("timeout publishing MQTT message").
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Context("topic", topic).
			Build()
	}
	if err := token.Error(); err != nil {
		c.metrics.RecordError()
		return errors.New(fmt.Errorf("failed to publish MQTT message: %w", err)).
			Component("mqtt").
			Category(errors.CategoryMQTT).
			Context("topic", topic).
			Build()
	}

	c.metrics.RecordMessageDelivered()
	return nil
}

// IsConnected returns true if the client is currently connected to the broker.
func (c *client) IsConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the MQTT broker.
func (c *client) Disconnect() {
	if c.internalClient != nil && c.internalClient.IsConnected() {
		c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	}
	c.metrics.UpdateConnectionStatus(false)
}

func (c *client) onConnect(_ pahomqtt.Client) {
	c.log.Info("connected to MQTT broker", "broker", c.config.Broker)
	c.metrics.UpdateConnectionStatus(true)
}

func (c *client) onConnectionLost(_ pahomqtt.Client, err error) {
	c.log.Warn("MQTT connection lost", "broker", c.config.Broker, "error", err)
	c.metrics.UpdateConnectionStatus(false)
}
