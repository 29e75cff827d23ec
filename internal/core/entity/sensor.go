package entity

import (
	"time"

	"go.uber.org/zap"
)

const (
	DEFAULT_UPDATE_INTERVAL = 30 * time.Second
	MIN_UPDATE_INTERVAL     = 1 * time.Second
)

// BaseSensor implements the Discoverable part of a sensor. Concrete sensors
// embed it and provide State.
type BaseSensor struct {
	id        *Identity
	interval  time.Duration
	options   SensorOptions
	discovery discoveryCache
	Logger    *zap.Logger
}

func NewBaseSensor(id *Identity, interval time.Duration, opts SensorOptions, logger *zap.Logger) *BaseSensor {
	if id.Domain == "" {
		id.Domain = DOMAIN_SENSOR
	}
	if interval < MIN_UPDATE_INTERVAL {
		interval = DEFAULT_UPDATE_INTERVAL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseSensor{
		id:       id,
		interval: interval,
		options:  opts,
		Logger:   logger.With(zap.String("entity", id.EntityName)),
	}
}

func (s *BaseSensor) Identity() *Identity {
	return s.id
}

func (s *BaseSensor) Kind() Kind {
	return KIND_SENSOR
}

func (s *BaseSensor) UpdateInterval() time.Duration {
	return s.interval
}

func (s *BaseSensor) Options() SensorOptions {
	return s.options
}

func (s *BaseSensor) GetAutoDiscoveryConfig(ctx DiscoveryContext) *DiscoveryConfig {
	return s.discovery.get(ctx, func(ctx DiscoveryContext) *DiscoveryConfig {
		return BuildSensorDiscovery(ctx, s.id, s.options)
	})
}

func (s *BaseSensor) ClearAutoDiscoveryConfig() {
	s.discovery.clear()
}

// Attributes defaults to an empty JSON object.
func (s *BaseSensor) Attributes() string {
	return EMPTY_ATTRIBUTES
}
