package sensors

import (
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const (
	DEFAULT_SERVICE_INTERVAL = 10 * time.Second
	SERVICE_NOT_FOUND        = "NotFound"
	SERVICE_UNKNOWN          = "Unknown"
)

type ServiceStateSensor struct {
	*entity.BaseSensor
	source      port.ServiceSource
	ServiceName string
}

func NewServiceStateSensor(id *entity.Identity, interval time.Duration, source port.ServiceSource, serviceName string, logger *zap.Logger) *ServiceStateSensor {
	if interval == 0 {
		interval = DEFAULT_SERVICE_INTERVAL
	}
	return &ServiceStateSensor{
		BaseSensor:  entity.NewBaseSensor(id, interval, entity.SensorOptions{Icon: ICON_SERVICE}, logger),
		source:      source,
		ServiceName: serviceName,
	}
}

func (s *ServiceStateSensor) State() string {
	ctx, cancel := readContext()
	defer cancel()
	state, found, err := s.source.ServiceState(ctx, s.ServiceName)
	if err != nil {
		s.Logger.Error("service state read failed", zap.String("service", s.ServiceName), zap.Error(err))
		return SERVICE_UNKNOWN
	}
	if !found {
		return SERVICE_NOT_FOUND
	}
	return state
}
