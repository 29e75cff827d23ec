package mqtt

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/config"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
)

const (
	COMMAND_KIND_SET    = entity.TOPIC_SUFFIX_SET
	COMMAND_KIND_ACTION = entity.TOPIC_SUFFIX_ACTION
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("hostagent_%s_%d", cfg.Device.Name, rand.IntN(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = entity.AvailabilityTopic(cfg.DiscoveryContext(), entity.DOMAIN_SENSOR)
	opts.WillQos = 0

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return NewMQTTClient(mqtt.NewClient(opts), cfg)
}

// NewMQTTClient wraps an existing paho client.
func NewMQTTClient(client mqtt.Client, cfg *config.Config) *MQTTClient {
	discovery := cfg.DiscoveryContext()
	return &MQTTClient{
		client:        client,
		discovery:     discovery,
		commandRegexp: commandExtractor(discovery.Prefix, discovery.Device.Name),
	}
}

type MQTTClient struct {
	client        mqtt.Client
	discovery     entity.DiscoveryContext
	commandRegexp *regexp.Regexp
}

// ParsedMQTTCommand is an inbound message addressed to a command entity.
type ParsedMQTTCommand struct {
	Domain   string
	ObjectId string
	Kind     string
	Payload  string
}

func (c *MQTTClient) Discovery() entity.DiscoveryContext {
	return c.discovery
}

// AvailabilityTopic is the shared availability topic the LWT is bound to.
func (c *MQTTClient) AvailabilityTopic() string {
	return entity.AvailabilityTopic(c.discovery, entity.DOMAIN_SENSOR)
}

// CommandTopics lists the subscription filters for command messages.
func (c *MQTTClient) CommandTopics() []string {
	return []string{
		fmt.Sprintf("%s/+/%s/+/%s", c.discovery.Prefix, c.discovery.Device.Name, COMMAND_KIND_SET),
		fmt.Sprintf("%s/+/%s/+/%s", c.discovery.Prefix, c.discovery.Device.Name, COMMAND_KIND_ACTION),
	}
}

func (c *MQTTClient) ParseMQTTCommand(msg mqtt.Message) (*ParsedMQTTCommand, error) {
	return c.ParseCommand(msg.Topic(), msg.Payload())
}

func (c *MQTTClient) ParseCommand(topic string, payload []byte) (*ParsedMQTTCommand, error) {
	matches := c.commandRegexp.FindStringSubmatch(topic)
	if len(matches) != 4 {
		return nil, errors.New("invalid command topic")
	}
	return &ParsedMQTTCommand{
		Domain:   matches[1],
		ObjectId: matches[2],
		Kind:     matches[3],
		Payload:  string(payload),
	}, nil
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// SubscribeToCommandTopics subscribes to both command filters in a single
// request.
func (c *MQTTClient) SubscribeToCommandTopics(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	filters := map[string]byte{}
	for _, topic := range c.CommandTopics() {
		filters[topic] = 1
	}
	token := c.client.SubscribeMultiple(filters, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func commandExtractor(prefix, device string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf("^%s/([^/]+)/%s/([^/]+)/(%s|%s)$",
		regexp.QuoteMeta(prefix), regexp.QuoteMeta(device), COMMAND_KIND_SET, COMMAND_KIND_ACTION))
}
