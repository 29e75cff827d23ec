package entity

import (
	"fmt"
	"sync"
)

const (
	TOPIC_SUFFIX_STATE        = "state"
	TOPIC_SUFFIX_ATTRIBUTES   = "attributes"
	TOPIC_SUFFIX_SET          = "set"
	TOPIC_SUFFIX_ACTION       = "action"
	TOPIC_SUFFIX_CONFIG       = "config"
	TOPIC_SUFFIX_AVAILABILITY = "availability"
)

type DeviceConfig struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SwVersion    string   `json:"sw_version,omitempty"`
}

// DiscoveryContext carries the broker/device information entities need to build
// their discovery payloads. A nil Device means no upstream context is available yet.
type DiscoveryContext struct {
	Prefix string
	Device *DeviceConfig
}

func (ctx DiscoveryContext) Available() bool {
	return ctx.Device != nil && ctx.Prefix != "" && ctx.Device.Name != ""
}

type DiscoveryConfig struct {
	Name                string       `json:"name,omitempty"`
	UniqueId            string       `json:"unique_id"`
	ObjectId            string       `json:"object_id,omitempty"`
	Device              DeviceConfig `json:"device"`
	StateTopic          string       `json:"state_topic"`
	AvailabilityTopic   string       `json:"availability_topic,omitempty"`
	JsonAttributesTopic string       `json:"json_attributes_topic,omitempty"`
	CommandTopic        string       `json:"command_topic,omitempty"`
	ActionTopic         string       `json:"action_topic,omitempty"`
	DeviceClass         string       `json:"device_class,omitempty"`
	StateClass          string       `json:"state_class,omitempty"`
	UnitOfMeasurement   string       `json:"unit_of_measurement,omitempty"`
	Icon                string       `json:"icon,omitempty"`
	PayloadOn           string       `json:"payload_on,omitempty"`
	PayloadOff          string       `json:"payload_off,omitempty"`
}

// SensorOptions are the optional presentation fields of a sensor discovery payload.
type SensorOptions struct {
	DeviceClass       string
	StateClass        string
	UnitOfMeasurement string
	Icon              string
	// AvailabilityDomain overrides the domain segment of the availability topic.
	AvailabilityDomain string
}

// Topic builds {prefix}/{domain}/{device}/{objectId}/{suffix}.
func Topic(ctx DiscoveryContext, domain, objectId, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", ctx.Prefix, domain, ctx.Device.Name, objectId, suffix)
}

// AvailabilityTopic builds {prefix}/{domain}/{device}/availability.
func AvailabilityTopic(ctx DiscoveryContext, domain string) string {
	return fmt.Sprintf("%s/%s/%s/%s", ctx.Prefix, domain, ctx.Device.Name, TOPIC_SUFFIX_AVAILABILITY)
}

func ConfigTopic(ctx DiscoveryContext, id *Identity) string {
	return Topic(ctx, id.Domain, id.ObjectId(), TOPIC_SUFFIX_CONFIG)
}

func StateTopic(ctx DiscoveryContext, id *Identity) string {
	return Topic(ctx, id.Domain, id.ObjectId(), TOPIC_SUFFIX_STATE)
}

func AttributesTopic(ctx DiscoveryContext, id *Identity) string {
	return Topic(ctx, id.Domain, id.ObjectId(), TOPIC_SUFFIX_ATTRIBUTES)
}

// BuildSensorDiscovery is the discovery builder for single-value sensors and
// aggregator children.
func BuildSensorDiscovery(ctx DiscoveryContext, id *Identity, opts SensorOptions) *DiscoveryConfig {
	if !ctx.Available() {
		return nil
	}
	avDomain := opts.AvailabilityDomain
	if avDomain == "" {
		avDomain = id.Domain
	}
	cfg := &DiscoveryConfig{
		Name:              id.Name,
		UniqueId:          id.Id,
		ObjectId:          id.ObjectId(),
		Device:            *ctx.Device,
		StateTopic:        StateTopic(ctx, id),
		DeviceClass:       opts.DeviceClass,
		StateClass:        opts.StateClass,
		UnitOfMeasurement: opts.UnitOfMeasurement,
		Icon:              opts.Icon,
	}
	if !id.IgnoreAvailability {
		cfg.AvailabilityTopic = AvailabilityTopic(ctx, avDomain)
	}
	if id.UseAttributes {
		cfg.JsonAttributesTopic = AttributesTopic(ctx, id)
	}
	if id.Domain == DOMAIN_BINARY_SENSOR {
		cfg.PayloadOn = STATE_ON
		cfg.PayloadOff = STATE_OFF
	}
	return cfg
}

// BuildCommandDiscovery is the discovery builder for commands. Command
// availability always lives under the literal "sensor" domain.
func BuildCommandDiscovery(ctx DiscoveryContext, id *Identity, icon string) *DiscoveryConfig {
	if !ctx.Available() {
		return nil
	}
	cfg := &DiscoveryConfig{
		Name:         id.Name,
		UniqueId:     id.Id,
		ObjectId:     id.ObjectId(),
		Device:       *ctx.Device,
		StateTopic:   StateTopic(ctx, id),
		CommandTopic: Topic(ctx, id.Domain, id.ObjectId(), TOPIC_SUFFIX_SET),
		ActionTopic:  Topic(ctx, id.Domain, id.ObjectId(), TOPIC_SUFFIX_ACTION),
		Icon:         icon,
	}
	if !id.IgnoreAvailability {
		cfg.AvailabilityTopic = AvailabilityTopic(ctx, DOMAIN_SENSOR)
	}
	if id.Domain == DOMAIN_SWITCH {
		cfg.PayloadOn = STATE_ON
		cfg.PayloadOff = STATE_OFF
	}
	return cfg
}

// discoveryCache memoizes a built discovery config until cleared.
type discoveryCache struct {
	mu     sync.Mutex
	config *DiscoveryConfig
}

func (c *discoveryCache) get(ctx DiscoveryContext, build func(DiscoveryContext) *DiscoveryConfig) *DiscoveryConfig {
	if !ctx.Available() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config != nil {
		return c.config
	}
	c.config = build(ctx)
	return c.config
}

func (c *discoveryCache) clear() {
	c.mu.Lock()
	c.config = nil
	c.mu.Unlock()
}
