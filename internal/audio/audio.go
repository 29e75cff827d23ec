package audio

import (
	"context"
	"errors"
)

type DeviceType int

const (
	DEVICE_TYPE_OUTPUT DeviceType = iota
	DEVICE_TYPE_INPUT
)

func (t DeviceType) String() string {
	if t == DEVICE_TYPE_INPUT {
		return "input"
	}
	return "output"
}

// DeviceRole is a bitmask of the roles a default device can be assigned to.
type DeviceRole int

const (
	DEVICE_ROLE_CONSOLE DeviceRole = 1 << iota
	DEVICE_ROLE_MULTIMEDIA
	DEVICE_ROLE_COMMUNICATIONS

	DEVICE_ROLE_ALL = DEVICE_ROLE_CONSOLE | DEVICE_ROLE_MULTIMEDIA | DEVICE_ROLE_COMMUNICATIONS
)

func (r DeviceRole) Has(role DeviceRole) bool {
	return r&role != 0
}

// Roles splits the mask into single roles, in declaration order.
func (r DeviceRole) Roles() []DeviceRole {
	roles := []DeviceRole{}
	for _, role := range []DeviceRole{DEVICE_ROLE_CONSOLE, DEVICE_ROLE_MULTIMEDIA, DEVICE_ROLE_COMMUNICATIONS} {
		if r.Has(role) {
			roles = append(roles, role)
		}
	}
	return roles
}

const (
	DEVICE_STATE_ACTIVE      = "Active"
	DEVICE_STATE_DISABLED    = "Disabled"
	DEVICE_STATE_NOT_PRESENT = "NotPresent"
	DEVICE_STATE_UNPLUGGED   = "Unplugged"
)

type Device struct {
	Id     string
	Name   string
	Type   DeviceType
	State  string
	Volume int
	Muted  bool
}

// Session is one application's audio stream. Sessions come and go with the
// applications owning them.
type Session struct {
	Id             string  `json:"id"`
	Application    string  `json:"application"`
	PlaybackDevice string  `json:"playback_device"`
	Muted          bool    `json:"muted"`
	Active         bool    `json:"active"`
	MasterVolume   int     `json:"master_volume"`
	PeakVolume     float64 `json:"peak_volume"`
}

var (
	ErrDeviceNotFound  = errors.New("audio device not found")
	ErrSessionNotFound = errors.New("audio session not found")
	ErrInvalidVolume   = errors.New("volume must be between 0 and 100")
)

// Backend is the host audio stack. Implementations return ErrDeviceNotFound /
// ErrSessionNotFound when the target vanished between enumeration and access.
type Backend interface {
	Devices(ctx context.Context, deviceType DeviceType) ([]Device, error)
	DefaultDevice(ctx context.Context, deviceType DeviceType, role DeviceRole) (Device, error)
	SetDefaultDevice(ctx context.Context, device Device, role DeviceRole) error
	SetDeviceVolume(ctx context.Context, device Device, volume int) error
	SetDeviceMute(ctx context.Context, device Device, mute bool) error
	Sessions(ctx context.Context) ([]Session, error)
	Session(ctx context.Context, id string) (Session, error)
	// CaptureApplications lists the applications currently recording from an
	// input device.
	CaptureApplications(ctx context.Context) ([]string, error)
}

// SessionSnapshotter is implemented by backends whose Sessions listing is a
// single consistent read. The manager then uses the listed values as they are.
type SessionSnapshotter interface {
	SessionsAreSnapshot() bool
}
