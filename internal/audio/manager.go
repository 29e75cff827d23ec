package audio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Manager is the façade commands and sensors use to drive the audio stack.
type Manager struct {
	backend Backend
	logger  *zap.Logger
	mu      sync.Mutex
}

func NewManager(backend Backend, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		backend: backend,
		logger:  logger.With(zap.String("component", "audio")),
	}
}

func (m *Manager) Devices(ctx context.Context, deviceType DeviceType) ([]Device, error) {
	return m.backend.Devices(ctx, deviceType)
}

// DefaultDeviceName returns the name of the default device for the multimedia
// role, or "" when there is none.
func (m *Manager) DefaultDeviceName(ctx context.Context, deviceType DeviceType) (string, error) {
	device, err := m.backend.DefaultDevice(ctx, deviceType, DEVICE_ROLE_MULTIMEDIA)
	if errors.Is(err, ErrDeviceNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return device.Name, nil
}

// Sessions returns the current sessions, refreshing each one unless the
// backend lists snapshots. Sessions that vanish while being refreshed are
// skipped.
func (m *Manager) Sessions(ctx context.Context) ([]Session, error) {
	listed, err := m.backend.Sessions(ctx)
	if err != nil {
		return nil, err
	}
	if snap, ok := m.backend.(SessionSnapshotter); ok && snap.SessionsAreSnapshot() {
		return listed, nil
	}
	sessions := make([]Session, 0, len(listed))
	for _, s := range listed {
		fresh, err := m.backend.Session(ctx, s.Id)
		if errors.Is(err, ErrSessionNotFound) {
			m.logger.Debug("audio session vanished", zap.String("session", s.Id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("audio session %s: %w", s.Id, err)
		}
		sessions = append(sessions, fresh)
	}
	return sessions, nil
}

// CaptureApplications returns the distinct applications recording audio,
// sorted by name.
func (m *Manager) CaptureApplications(ctx context.Context) ([]string, error) {
	apps, err := m.backend.CaptureApplications(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, app := range apps {
		app = strings.TrimSpace(app)
		if app == "" || seen[app] {
			continue
		}
		seen[app] = true
		out = append(out, app)
	}
	sort.Strings(out)
	return out, nil
}

// ActivateDevice makes the device named name the default for its data flow,
// across all roles. Outputs are searched before inputs.
func (m *Manager) ActivateDevice(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("activate audio device: empty name: %w", ErrDeviceNotFound)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, deviceType := range []DeviceType{DEVICE_TYPE_OUTPUT, DEVICE_TYPE_INPUT} {
		devices, err := m.backend.Devices(ctx, deviceType)
		if err != nil {
			return fmt.Errorf("list %s devices: %w", deviceType, err)
		}
		for _, device := range devices {
			if !strings.EqualFold(device.Name, name) {
				continue
			}
			for _, role := range DEVICE_ROLE_ALL.Roles() {
				if err := m.backend.SetDefaultDevice(ctx, device, role); err != nil {
					return fmt.Errorf("activate audio device %q: %w", name, err)
				}
			}
			m.logger.Info("audio device activated", zap.String("device", device.Name), zap.Stringer("type", deviceType))
			return nil
		}
	}
	return fmt.Errorf("activate audio device %q: %w", name, ErrDeviceNotFound)
}

// SetDefaultDeviceProperties applies volume and/or mute to the default device of
// each role in roles. A device shared by several roles is touched once; roles
// with no default device are skipped.
func (m *Manager) SetDefaultDeviceProperties(ctx context.Context, deviceType DeviceType, roles DeviceRole, volume *int, mute *bool) error {
	if volume != nil && (*volume < 0 || *volume > 100) {
		return fmt.Errorf("volume %d: %w", *volume, ErrInvalidVolume)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	done := map[string]bool{}
	for _, role := range roles.Roles() {
		device, err := m.backend.DefaultDevice(ctx, deviceType, role)
		if errors.Is(err, ErrDeviceNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("default %s device: %w", deviceType, err)
		}
		if done[device.Id] {
			continue
		}
		done[device.Id] = true

		if volume != nil {
			if err := m.backend.SetDeviceVolume(ctx, device, *volume); err != nil {
				return fmt.Errorf("set volume of %q: %w", device.Name, err)
			}
		}
		if mute != nil {
			if err := m.backend.SetDeviceMute(ctx, device, *mute); err != nil {
				return fmt.Errorf("set mute of %q: %w", device.Name, err)
			}
		}
	}
	if len(done) == 0 {
		return fmt.Errorf("default %s device: %w", deviceType, ErrDeviceNotFound)
	}
	return nil
}
