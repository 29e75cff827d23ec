package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const (
	DEFAULT_CAPTURE_INTERVAL = 10 * time.Second
	CAPTURE_IN_USE           = "on"
)

// CaptureSource is the part of audio.Manager the microphone sensor reads.
type CaptureSource interface {
	CaptureApplications(ctx context.Context) ([]string, error)
}

type captureLister func(ctx context.Context) ([]string, error)

// CaptureProcessSensor counts the applications using a capture device. Its
// attributes map each of them to "on", as computed by the latest State call.
type CaptureProcessSensor struct {
	*entity.BaseSensor
	list captureLister

	mu         sync.Mutex
	attributes string
}

func newCaptureProcessSensor(id *entity.Identity, interval time.Duration, icon string, list captureLister, logger *zap.Logger) *CaptureProcessSensor {
	if interval == 0 {
		interval = DEFAULT_CAPTURE_INTERVAL
	}
	id.UseAttributes = true
	return &CaptureProcessSensor{
		BaseSensor: entity.NewBaseSensor(id, interval, entity.SensorOptions{Icon: icon, StateClass: STATE_CLASS_MEAS}, logger),
		list:       list,
		attributes: entity.EMPTY_ATTRIBUTES,
	}
}

// NewMicrophoneProcessSensor reports the applications recording audio.
func NewMicrophoneProcessSensor(id *entity.Identity, interval time.Duration, source CaptureSource, logger *zap.Logger) *CaptureProcessSensor {
	return newCaptureProcessSensor(id, interval, ICON_MICROPHONE, source.CaptureApplications, logger)
}

// NewWebcamProcessSensor reports the processes holding a webcam open.
func NewWebcamProcessSensor(id *entity.Identity, interval time.Duration, source port.WebcamSource, logger *zap.Logger) *CaptureProcessSensor {
	return newCaptureProcessSensor(id, interval, ICON_WEBCAM, source.WebcamProcesses, logger)
}

func (s *CaptureProcessSensor) State() string {
	ctx, cancel := readContext()
	defer cancel()
	apps, err := s.list(ctx)
	if err != nil {
		s.Logger.Error("capture device users read failed", zap.Error(err))
		apps = []string{}
	}
	inUse := make(map[string]string, len(apps))
	for _, app := range apps {
		inUse[app] = CAPTURE_IN_USE
	}
	s.mu.Lock()
	s.attributes = entity.MarshalAttributes(inUse)
	s.mu.Unlock()
	return formatFloat(float64(len(inUse)))
}

func (s *CaptureProcessSensor) Attributes() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attributes
}

// WebcamActiveSensor is a binary sensor that is ON while any process holds a
// webcam open.
type WebcamActiveSensor struct {
	*entity.BaseSensor
	source port.WebcamSource
}

func NewWebcamActiveSensor(id *entity.Identity, interval time.Duration, source port.WebcamSource, logger *zap.Logger) *WebcamActiveSensor {
	if interval == 0 {
		interval = DEFAULT_CAPTURE_INTERVAL
	}
	id.Domain = entity.DOMAIN_BINARY_SENSOR
	return &WebcamActiveSensor{
		BaseSensor: entity.NewBaseSensor(id, interval, entity.SensorOptions{Icon: ICON_WEBCAM}, logger),
		source:     source,
	}
}

func (s *WebcamActiveSensor) State() string {
	ctx, cancel := readContext()
	defer cancel()
	procs, err := s.source.WebcamProcesses(ctx)
	if err != nil {
		s.Logger.Error("webcam users read failed", zap.Error(err))
		return entity.STATE_OFF
	}
	if len(procs) > 0 {
		return entity.STATE_ON
	}
	return entity.STATE_OFF
}
