package messaging

import (
	"fmt"
	"time"

	"github.com/brewgpio/brewgpio/internal/configuration"
	"github.com/brewgpio/brewgpio/internal/ui"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultClientId   = "brewgpio"
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

// Publisher sends payloads to a message broker
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MqttClient is a Publisher backed by a paho MQTT client
type MqttClient struct {
	client mqtt.Client
	broker string
}

func NewMqttClient(config configuration.MqttConfig) *MqttClient {
	c := &MqttClient{
		broker: config.Broker,
	}

	clientId := config.ClientId
	if len(clientId) <= 0 {
		clientId = defaultClientId
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(clientId)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(60 * time.Second)

	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetOnConnectHandler(c.onConnect)

	c.client = mqtt.NewClient(opts)
	return c
}

func (c *MqttClient) Connect() error {
	ui.Info("Connecting to MQTT broker %s...", c.broker)

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

func (c *MqttClient) Disconnect() {
	ui.Info("Disconnecting from MQTT broker...")
	c.client.Disconnect(disconnectQuiesce)
}

func (c *MqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publishing to %s timed out after %v", topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s failed: %w", topic, err)
	}
	return nil
}

func (c *MqttClient) onConnect(client mqtt.Client) {
	ui.Info("Connected to MQTT broker %s", c.broker)
}

func (c *MqttClient) onConnectionLost(client mqtt.Client, err error) {
	ui.Error("MQTT connection lost: %v", err)
}
