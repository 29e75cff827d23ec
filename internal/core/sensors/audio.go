package sensors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"go.uber.org/zap"
)

const DEFAULT_AUDIO_INTERVAL = 20 * time.Second

// AudioSource is the part of audio.Manager the audio sensor reads.
type AudioSource interface {
	Devices(ctx context.Context, deviceType audio.DeviceType) ([]audio.Device, error)
	DefaultDeviceName(ctx context.Context, deviceType audio.DeviceType) (string, error)
	Sessions(ctx context.Context) ([]audio.Session, error)
}

// AudioSensors is a multi-value sensor over the audio stack that also asks
// for an early refresh whenever the hardware reports a change.
type AudioSensors struct {
	*entity.MultiValueSensor
	changes chan struct{}
}

func NewAudioSensors(id *entity.Identity, interval time.Duration, source AudioSource, logger *zap.Logger) *AudioSensors {
	if interval == 0 {
		interval = DEFAULT_AUDIO_INTERVAL
	}
	return &AudioSensors{
		MultiValueSensor: entity.NewMultiValueSensor(id, interval, logger, collectAudio(source)),
		changes:          make(chan struct{}, 1),
	}
}

// Attach subscribes to l. The handler only flags the change; the refresh runs
// on whoever drains Changes.
func (s *AudioSensors) Attach(l *audio.Listener) (detach func()) {
	return l.Subscribe(func(audio.Event) {
		s.MarkChanged()
	})
}

// MarkChanged coalesces change signals: at most one is pending at a time.
func (s *AudioSensors) MarkChanged() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *AudioSensors) Changes() <-chan struct{} {
	return s.changes
}

func collectAudio(source AudioSource) entity.Collector {
	return func(r *entity.Refresh) {
		ctx, cancel := readContext()
		defer cancel()

		for _, flow := range []struct {
			deviceType audio.DeviceType
			prefix     string
			label      string
			icon       string
		}{
			{audio.DEVICE_TYPE_OUTPUT, "audio_output", "Audio Output", ICON_SPEAKER},
			{audio.DEVICE_TYPE_INPUT, "audio_input", "Audio Input", ICON_MICROPHONE},
		} {
			r.Try(flow.prefix+"_default_device", func() error {
				name, err := source.DefaultDeviceName(ctx, flow.deviceType)
				if err != nil {
					return err
				}
				r.Value(flow.prefix+"_default_device", flow.label+" Default Device", entity.SensorOptions{Icon: flow.icon}, false).SetString(name)
				return nil
			})
			r.Try(flow.prefix+"_devices", func() error {
				devices, err := source.Devices(ctx, flow.deviceType)
				if err != nil {
					return err
				}
				names := []string{}
				active := 0
				for _, d := range devices {
					names = append(names, d.Name)
					if d.State == audio.DEVICE_STATE_ACTIVE {
						active++
					}
				}
				child := r.Value(flow.prefix+"_device_count", flow.label+" Device Count", entity.SensorOptions{Icon: flow.icon, StateClass: STATE_CLASS_MEAS}, true)
				child.SetInt(active)
				child.SetAttributesValue(map[string][]string{"devices": names})
				return nil
			})
		}

		sessions, err := source.Sessions(ctx)
		if err != nil {
			r.Fail(fmt.Errorf("audio session enumeration: %w", err))
			return
		}
		for _, session := range sessions {
			app := strings.ToLower(entity.DeriveObjectId(session.Application))
			if app == "" {
				continue
			}
			r.Try(session.Application, func() error {
				child := r.Value("audio_session_"+app, session.Application, entity.SensorOptions{Icon: ICON_AUDIO_APP, UnitOfMeasurement: "%"}, true)
				child.SetInt(session.MasterVolume)
				child.SetAttributesValue(session)
				return nil
			})
		}
		r.Count("audio_session_count", "Audio Session Count", ICON_AUDIO_APP, len(sessions))
	}
}
