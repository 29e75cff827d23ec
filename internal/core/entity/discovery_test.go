package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() DiscoveryContext {
	return DiscoveryContext{
		Prefix: "homeassistant",
		Device: &DeviceConfig{Identifiers: []string{"abc"}, Name: "desk"},
	}
}

func TestSensorDiscoveryTopics(t *testing.T) {

	assert := assert.New(t)

	id := NewIdentity(DOMAIN_SENSOR, "cpu load", "CPU", "uuid-1")
	id.UseAttributes = true
	cfg := BuildSensorDiscovery(testContext(), id, SensorOptions{UnitOfMeasurement: "%"})

	require.NotNil(t, cfg)
	assert.Equal("homeassistant/sensor/desk/cpu_load/state", cfg.StateTopic)
	assert.Equal("homeassistant/sensor/desk/cpu_load/attributes", cfg.JsonAttributesTopic)
	assert.Equal("homeassistant/sensor/desk/availability", cfg.AvailabilityTopic)
	assert.Equal("uuid-1", cfg.UniqueId)
	assert.Equal("%", cfg.UnitOfMeasurement)
	assert.Equal("homeassistant/sensor/desk/cpu_load/config", ConfigTopic(testContext(), id))
}

func TestBinarySensorDiscovery(t *testing.T) {

	assert := assert.New(t)

	id := NewIdentity(DOMAIN_BINARY_SENSOR, "mic", "", "2")
	id.IgnoreAvailability = true
	cfg := BuildSensorDiscovery(testContext(), id, SensorOptions{})

	assert.Equal("homeassistant/binary_sensor/desk/mic/state", cfg.StateTopic)
	assert.Empty(cfg.AvailabilityTopic)
	assert.Empty(cfg.JsonAttributesTopic)
	assert.Equal(STATE_ON, cfg.PayloadOn)
	assert.Equal(STATE_OFF, cfg.PayloadOff)
}

func TestAvailabilityDomainOverride(t *testing.T) {

	assert := assert.New(t)

	id := NewIdentity(DOMAIN_BINARY_SENSOR, "mic", "", "2")
	cfg := BuildSensorDiscovery(testContext(), id, SensorOptions{AvailabilityDomain: DOMAIN_SENSOR})

	assert.Equal("homeassistant/sensor/desk/availability", cfg.AvailabilityTopic)
}

func TestCommandDiscoveryUsesSensorAvailability(t *testing.T) {

	assert := assert.New(t)

	id := NewIdentity(DOMAIN_SWITCH, "Lock PC", "", "3")
	cfg := BuildCommandDiscovery(testContext(), id, "mdi:lock")

	assert.Equal("homeassistant/switch/desk/Lock_PC/set", cfg.CommandTopic)
	assert.Equal("homeassistant/switch/desk/Lock_PC/action", cfg.ActionTopic)
	assert.Equal("homeassistant/switch/desk/Lock_PC/state", cfg.StateTopic)
	assert.Equal("homeassistant/sensor/desk/availability", cfg.AvailabilityTopic)
	assert.Equal(STATE_ON, cfg.PayloadOn)
}

func TestDiscoveryAbsentWithoutContext(t *testing.T) {

	assert := assert.New(t)

	id := NewIdentity(DOMAIN_SENSOR, "x", "", "1")
	assert.Nil(BuildSensorDiscovery(DiscoveryContext{}, id, SensorOptions{}))
	assert.Nil(BuildCommandDiscovery(DiscoveryContext{Prefix: "ha"}, id, ""))
	assert.Nil(BuildSensorDiscovery(DiscoveryContext{Prefix: "ha", Device: &DeviceConfig{}}, id, SensorOptions{}))
}

func TestDiscoveryCachedUntilCleared(t *testing.T) {

	assert := assert.New(t)

	s := NewValueSensor(NewIdentity(DOMAIN_SENSOR, "x", "", "1"), 0, SensorOptions{}, nil)

	assert.Nil(s.GetAutoDiscoveryConfig(DiscoveryContext{}), "no context, nothing cached")

	first := s.GetAutoDiscoveryConfig(testContext())
	require.NotNil(t, first)

	other := DiscoveryContext{Prefix: "other", Device: &DeviceConfig{Name: "laptop"}}
	assert.Same(first, s.GetAutoDiscoveryConfig(other))

	s.ClearAutoDiscoveryConfig()
	rebuilt := s.GetAutoDiscoveryConfig(other)
	assert.NotSame(first, rebuilt)
	assert.Equal("other/sensor/laptop/x/state", rebuilt.StateTopic)
}
