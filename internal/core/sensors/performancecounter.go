package sensors

import (
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const (
	DEFAULT_COUNTER_INTERVAL = 10 * time.Second
	DEFAULT_CPU_INTERVAL     = 30 * time.Second
)

// PerformanceCounterSensor reports one host counter, sampled on every read.
type PerformanceCounterSensor struct {
	*entity.BaseSensor
	source   port.CounterSource
	Category string
	Counter  string
	Instance string
	// Round is the number of decimals kept; nil rounds to a whole number.
	Round *int
}

func NewPerformanceCounterSensor(id *entity.Identity, interval time.Duration, source port.CounterSource,
	category, counter, instance string, round *int, opts entity.SensorOptions, logger *zap.Logger) *PerformanceCounterSensor {
	if interval == 0 {
		interval = DEFAULT_COUNTER_INTERVAL
	}
	if opts.StateClass == "" {
		opts.StateClass = STATE_CLASS_MEAS
	}
	return &PerformanceCounterSensor{
		BaseSensor: entity.NewBaseSensor(id, interval, opts, logger),
		source:     source,
		Category:   category,
		Counter:    counter,
		Instance:   instance,
		Round:      round,
	}
}

func NewCpuLoadSensor(id *entity.Identity, interval time.Duration, source port.CounterSource, round *int, logger *zap.Logger) *PerformanceCounterSensor {
	if interval == 0 {
		interval = DEFAULT_CPU_INTERVAL
	}
	return NewPerformanceCounterSensor(id, interval, source, "Processor", "% Processor Time", "_Total", round,
		entity.SensorOptions{Icon: ICON_CPU, UnitOfMeasurement: "%", StateClass: STATE_CLASS_MEAS}, logger)
}

func (s *PerformanceCounterSensor) State() string {
	ctx, cancel := readContext()
	defer cancel()
	v, err := s.source.Counter(ctx, s.Category, s.Counter, s.Instance)
	if err != nil {
		s.Logger.Error("counter read failed", zap.String("counter", s.Counter), zap.Error(err))
		v = 0
	}
	decimals := 0
	if s.Round != nil {
		decimals = *s.Round
	}
	return formatFloat(roundHalfAway(v, decimals))
}
