package commands

import (
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

// Key names understood by port.KeySender implementations.
const (
	KEY_MEDIA_PLAY_PAUSE = "media_play_pause"
	KEY_MEDIA_NEXT       = "media_next"
	KEY_MEDIA_PREVIOUS   = "media_previous"
	KEY_MEDIA_STOP       = "media_stop"
	KEY_VOLUME_UP        = "volume_up"
	KEY_VOLUME_DOWN      = "volume_down"
	KEY_VOLUME_MUTE      = "volume_mute"
	KEY_UP               = "up"
)

// KeyCommandType is a predefined key command: the key it sends and the
// domain it is announced under unless the entity type is configured.
type KeyCommandType struct {
	Key    string
	Domain string
}

// KeyCommands maps the predefined key command types to their key. Monitor
// wake nudges the display with a harmless arrow key.
var KeyCommands = map[string]KeyCommandType{
	"mediaplaypause":  {KEY_MEDIA_PLAY_PAUSE, entity.DOMAIN_SWITCH},
	"medianext":       {KEY_MEDIA_NEXT, entity.DOMAIN_SWITCH},
	"mediaprevious":   {KEY_MEDIA_PREVIOUS, entity.DOMAIN_SWITCH},
	"mediastop":       {KEY_MEDIA_STOP, entity.DOMAIN_SWITCH},
	"mediavolumeup":   {KEY_VOLUME_UP, entity.DOMAIN_SWITCH},
	"mediavolumedown": {KEY_VOLUME_DOWN, entity.DOMAIN_SWITCH},
	"mediamute":       {KEY_VOLUME_MUTE, entity.DOMAIN_SWITCH},
	"monitorwake":     {KEY_UP, entity.DOMAIN_BUTTON},
}

// KeyCommand sends one fixed key. The action payload is ignored.
type KeyCommand struct {
	*entity.BaseCommand
	Key    string
	sender port.KeySender
}

// NewKeyCommand uses defaultDomain when id carries none.
func NewKeyCommand(id *entity.Identity, key, defaultDomain string, sender port.KeySender, logger *zap.Logger) *KeyCommand {
	if id.Domain == "" {
		id.Domain = defaultDomain
	}
	return &KeyCommand{
		BaseCommand: entity.NewBaseCommand(id, ICON_KEY, key, logger),
		Key:         key,
		sender:      sender,
	}
}

func (c *KeyCommand) TurnOn() {
	c.Run("turn_on", func() error {
		return c.sender.SendKey(c.Key)
	})
}

func (c *KeyCommand) TurnOnWithAction(action string) {
	c.TurnOn()
}
