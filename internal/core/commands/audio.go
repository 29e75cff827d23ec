package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"go.uber.org/zap"
)

const NO_VOLUME = -1

// ParseVolume reads a 0-100 volume level.
func ParseVolume(value string) (int, error) {
	volume, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return NO_VOLUME, fmt.Errorf("volume %q is not an integer", value)
	}
	if volume < 0 || volume > 100 {
		return NO_VOLUME, fmt.Errorf("volume %d: %w", volume, audio.ErrInvalidVolume)
	}
	return volume, nil
}

// SetVolumeCommand sets the volume of the default output device. TurnOn uses
// the configured level; TurnOnWithAction applies the level parsed from the
// payload.
type SetVolumeCommand struct {
	*entity.BaseCommand
	Volume int
	audio  AudioController
}

func NewSetVolumeCommand(id *entity.Identity, volume string, controller AudioController, logger *zap.Logger) *SetVolumeCommand {
	if id.Domain == "" {
		id.Domain = entity.DOMAIN_BUTTON
	}
	c := &SetVolumeCommand{
		BaseCommand: entity.NewBaseCommand(id, ICON_VOLUME, volume, logger),
		Volume:      NO_VOLUME,
		audio:       controller,
	}
	if strings.TrimSpace(volume) != "" {
		parsed, err := ParseVolume(volume)
		if err != nil {
			c.Logger.Error("unable to parse configured volume level", zap.Error(err))
		}
		c.Volume = parsed
	}
	return c
}

func (c *SetVolumeCommand) TurnOn() {
	c.Run("turn_on", func() error {
		if c.Volume == NO_VOLUME {
			c.Logger.Warn("unable to set volume", zap.Error(ErrActionOnly))
			return nil
		}
		return c.apply(c.Volume)
	})
}

func (c *SetVolumeCommand) TurnOnWithAction(action string) {
	c.Run("turn_on_with_action", func() error {
		volume, err := ParseVolume(action)
		if err != nil {
			return err
		}
		return c.apply(volume)
	})
}

func (c *SetVolumeCommand) apply(volume int) error {
	ctx, cancel := effectContext()
	defer cancel()
	return c.audio.SetDefaultDeviceProperties(ctx, audio.DEVICE_TYPE_OUTPUT,
		audio.DEVICE_ROLE_MULTIMEDIA|audio.DEVICE_ROLE_CONSOLE, &volume, nil)
}

// SetAudioDeviceCommand makes a named output or input device the default.
type SetAudioDeviceCommand struct {
	*entity.BaseCommand
	DeviceType audio.DeviceType
	audio      AudioController
}

func NewSetAudioOutputCommand(id *entity.Identity, device string, controller AudioController, logger *zap.Logger) *SetAudioDeviceCommand {
	return newSetAudioDeviceCommand(id, audio.DEVICE_TYPE_OUTPUT, ICON_AUDIO_OUTPUT, device, controller, logger)
}

func NewSetAudioInputCommand(id *entity.Identity, device string, controller AudioController, logger *zap.Logger) *SetAudioDeviceCommand {
	return newSetAudioDeviceCommand(id, audio.DEVICE_TYPE_INPUT, ICON_AUDIO_INPUT, device, controller, logger)
}

func newSetAudioDeviceCommand(id *entity.Identity, deviceType audio.DeviceType, icon, device string, controller AudioController, logger *zap.Logger) *SetAudioDeviceCommand {
	if id.Domain == "" {
		id.Domain = entity.DOMAIN_BUTTON
	}
	return &SetAudioDeviceCommand{
		BaseCommand: entity.NewBaseCommand(id, icon, strings.TrimSpace(device), logger),
		DeviceType:  deviceType,
		audio:       controller,
	}
}

func (c *SetAudioDeviceCommand) TurnOn() {
	c.Run("turn_on", func() error {
		if c.CommandConfig == "" {
			return fmt.Errorf("%s device name cannot be blank", c.DeviceType)
		}
		return c.activate(c.CommandConfig)
	})
}

func (c *SetAudioDeviceCommand) TurnOnWithAction(action string) {
	c.Run("turn_on_with_action", func() error {
		return c.activate(action)
	})
}

func (c *SetAudioDeviceCommand) activate(name string) error {
	ctx, cancel := effectContext()
	defer cancel()
	return c.audio.ActivateDevice(ctx, name)
}
