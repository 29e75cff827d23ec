package commands

import (
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

// SwitchDesktopCommand moves the session to a virtual desktop. A configured
// desktop takes precedence over the action payload.
type SwitchDesktopCommand struct {
	*entity.BaseCommand
	Desktop  string
	switcher port.DesktopSwitcher
}

func NewSwitchDesktopCommand(id *entity.Identity, desktop string, switcher port.DesktopSwitcher, logger *zap.Logger) *SwitchDesktopCommand {
	return &SwitchDesktopCommand{
		BaseCommand: entity.NewBaseCommand(id, ICON_DESKTOP, desktop, logger),
		Desktop:     strings.TrimSpace(desktop),
		switcher:    switcher,
	}
}

func (c *SwitchDesktopCommand) TurnOn() {
	if c.Desktop == "" {
		c.Logger.Warn("unable to switch desktop, none configured")
		return
	}
	c.Run("turn_on", func() error {
		return c.switcher.SwitchDesktop(c.Desktop)
	})
}

func (c *SwitchDesktopCommand) TurnOnWithAction(action string) {
	desktop := c.Desktop
	if desktop == "" {
		desktop = strings.TrimSpace(action)
	} else if strings.TrimSpace(action) != "" {
		c.Logger.Warn("desktop is configured, action ignored", zap.String("action", action))
	}
	if desktop == "" {
		c.Logger.Warn("unable to switch desktop, empty action")
		return
	}
	c.Run("turn_on_with_action", func() error {
		return c.switcher.SwitchDesktop(desktop)
	})
}
