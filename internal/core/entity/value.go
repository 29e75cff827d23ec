package entity

import (
	"strconv"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ValueSensor holds a value pushed into it (typically by an aggregator) and
// renders it on read.
type ValueSensor struct {
	*BaseSensor
	state      atomic.Pointer[string]
	attributes atomic.Pointer[string]
}

func NewValueSensor(id *Identity, interval time.Duration, opts SensorOptions, logger *zap.Logger) *ValueSensor {
	return &ValueSensor{
		BaseSensor: NewBaseSensor(id, interval, opts, logger),
	}
}

func (s *ValueSensor) SetString(value string) {
	s.state.Store(&value)
}

func (s *ValueSensor) SetInt(value int) {
	s.SetString(strconv.Itoa(value))
}

func (s *ValueSensor) SetFloat(value float64) {
	s.SetString(strconv.FormatFloat(value, 'f', -1, 64))
}

func (s *ValueSensor) SetBool(value bool) {
	if value {
		s.SetString(STATE_ON)
	} else {
		s.SetString(STATE_OFF)
	}
}

// SetAttributes stores a raw JSON blob; blank values become "{}".
func (s *ValueSensor) SetAttributes(value string) {
	value = NormalizeAttributes(value)
	s.attributes.Store(&value)
}

func (s *ValueSensor) SetAttributesValue(value any) {
	s.SetAttributes(MarshalAttributes(value))
}

func (s *ValueSensor) State() string {
	if v := s.state.Load(); v != nil {
		return *v
	}
	return ""
}

func (s *ValueSensor) Attributes() string {
	if v := s.attributes.Load(); v != nil {
		return *v
	}
	return EMPTY_ATTRIBUTES
}
