package commands

import (
	"context"
	"errors"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
)

// EFFECT_TIMEOUT bounds synchronous side effects.
const EFFECT_TIMEOUT = 10 * time.Second

const (
	ICON_CUSTOM        = "mdi:console"
	ICON_KEY           = "mdi:keyboard"
	ICON_MULTIPLE_KEYS = "mdi:keyboard-variant"
	ICON_LAUNCH_URL    = "mdi:web"
	ICON_VOLUME        = "mdi:volume-high"
	ICON_AUDIO_OUTPUT  = "mdi:speaker"
	ICON_AUDIO_INPUT   = "mdi:microphone"
	ICON_DESKTOP       = "mdi:monitor-multiple"
)

// ErrActionOnly is logged when a command without preconfigured action is
// triggered without payload.
var ErrActionOnly = errors.New("command is configured as action-only")

// AudioController is the part of audio.Manager commands drive.
type AudioController interface {
	ActivateDevice(ctx context.Context, name string) error
	SetDefaultDeviceProperties(ctx context.Context, deviceType audio.DeviceType, roles audio.DeviceRole, volume *int, mute *bool) error
}

func effectContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), EFFECT_TIMEOUT)
}
