package entity

import "time"

const (
	STATE_ON  = "ON"
	STATE_OFF = "OFF"
)

// Kind tags the entity variants sharing the Discoverable contract.
type Kind int

const (
	KIND_SENSOR Kind = iota
	KIND_MULTI_VALUE_SENSOR
	KIND_COMMAND
)

func (k Kind) String() string {
	switch k {
	case KIND_SENSOR:
		return "sensor"
	case KIND_MULTI_VALUE_SENSOR:
		return "multivalue"
	case KIND_COMMAND:
		return "command"
	default:
		return "unknown"
	}
}

type Discoverable interface {
	Identity() *Identity
	Kind() Kind
	// GetAutoDiscoveryConfig returns nil when ctx carries no device/broker info.
	GetAutoDiscoveryConfig(ctx DiscoveryContext) *DiscoveryConfig
	ClearAutoDiscoveryConfig()
}

type Sensor interface {
	Discoverable
	UpdateInterval() time.Duration
	State() string
	Attributes() string
}

type MultiValue interface {
	Sensor
	UpdateSensorValues()
	Sensors() map[string]Sensor
}

type Command interface {
	Discoverable
	State() string
	TurnOn()
	TurnOnWithAction(action string)
	TurnOff()
}

// ensure interface compliance
var (
	_ Sensor     = (*ValueSensor)(nil)
	_ MultiValue = (*MultiValueSensor)(nil)
	_ Command    = (*BaseCommand)(nil)
)
