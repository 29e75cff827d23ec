package audio

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend is an in-process audio stack. It backs the "memory" audio
// backend on hosts with no sound server and drives tests.
type MemoryBackend struct {
	mu       sync.Mutex
	devices  []Device
	defaults map[DeviceType]map[DeviceRole]string
	sessions []Session
	capture  []string
	notify   *NotificationClient
}

func NewMemoryBackend(notify *NotificationClient) *MemoryBackend {
	return &MemoryBackend{
		defaults: map[DeviceType]map[DeviceRole]string{
			DEVICE_TYPE_OUTPUT: {},
			DEVICE_TYPE_INPUT:  {},
		},
		notify: notify,
	}
}

// AddDevice registers a device; the first device of a type becomes its
// default for every role.
func (b *MemoryBackend) AddDevice(device Device) {
	b.mu.Lock()
	if device.State == "" {
		device.State = DEVICE_STATE_ACTIVE
	}
	b.devices = append(b.devices, device)
	if len(b.defaults[device.Type]) == 0 {
		for _, role := range DEVICE_ROLE_ALL.Roles() {
			b.defaults[device.Type][role] = device.Id
		}
	}
	b.mu.Unlock()
	if b.notify != nil {
		b.notify.OnDeviceAdded(device.Id)
	}
}

func (b *MemoryBackend) RemoveDevice(id string) {
	b.mu.Lock()
	kept := b.devices[:0]
	for _, d := range b.devices {
		if d.Id != id {
			kept = append(kept, d)
		}
	}
	b.devices = kept
	for _, roles := range b.defaults {
		for role, deviceId := range roles {
			if deviceId == id {
				delete(roles, role)
			}
		}
	}
	b.mu.Unlock()
	if b.notify != nil {
		b.notify.OnDeviceRemoved(id)
	}
}

func (b *MemoryBackend) SetSessions(sessions ...Session) {
	b.mu.Lock()
	b.sessions = append([]Session{}, sessions...)
	b.mu.Unlock()
}

// SetCaptureApplications replaces the applications reported as recording.
func (b *MemoryBackend) SetCaptureApplications(apps ...string) {
	b.mu.Lock()
	b.capture = append([]string{}, apps...)
	b.mu.Unlock()
}

func (b *MemoryBackend) CaptureApplications(ctx context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.capture...), nil
}

func (b *MemoryBackend) Device(id string) (Device, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, d := range b.devices {
		if d.Id == id {
			return d, true
		}
	}
	return Device{}, false
}

func (b *MemoryBackend) Devices(ctx context.Context, deviceType DeviceType) ([]Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []Device{}
	for _, d := range b.devices {
		if d.Type == deviceType {
			out = append(out, d)
		}
	}
	return out, nil
}

func (b *MemoryBackend) DefaultDevice(ctx context.Context, deviceType DeviceType, role DeviceRole) (Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.defaults[deviceType][role]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}
	for _, d := range b.devices {
		if d.Id == id {
			return d, nil
		}
	}
	return Device{}, ErrDeviceNotFound
}

func (b *MemoryBackend) SetDefaultDevice(ctx context.Context, device Device, role DeviceRole) error {
	b.mu.Lock()
	idx := b.indexOf(device.Id)
	if idx < 0 {
		b.mu.Unlock()
		return ErrDeviceNotFound
	}
	b.defaults[device.Type][role] = device.Id
	b.mu.Unlock()
	if b.notify != nil {
		b.notify.OnDefaultDeviceChanged(device.Type, role, device.Id)
	}
	return nil
}

func (b *MemoryBackend) SetDeviceVolume(ctx context.Context, device Device, volume int) error {
	return b.update(device.Id, "volume", func(d *Device) { d.Volume = volume })
}

func (b *MemoryBackend) SetDeviceMute(ctx context.Context, device Device, mute bool) error {
	return b.update(device.Id, "mute", func(d *Device) { d.Muted = mute })
}

func (b *MemoryBackend) Sessions(ctx context.Context) ([]Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Session{}, b.sessions...), nil
}

func (b *MemoryBackend) Session(ctx context.Context, id string) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.sessions {
		if s.Id == id {
			return s, nil
		}
	}
	return Session{}, fmt.Errorf("session %s: %w", id, ErrSessionNotFound)
}

func (b *MemoryBackend) update(id string, property string, fn func(*Device)) error {
	b.mu.Lock()
	idx := b.indexOf(id)
	if idx < 0 {
		b.mu.Unlock()
		return ErrDeviceNotFound
	}
	fn(&b.devices[idx])
	b.mu.Unlock()
	if b.notify != nil {
		b.notify.OnPropertyValueChanged(id, property)
	}
	return nil
}

func (b *MemoryBackend) indexOf(id string) int {
	for i, d := range b.devices {
		if d.Id == id {
			return i
		}
	}
	return -1
}
