package commands

import (
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

// CustomCommand runs a shell command line; an action is appended to it.
type CustomCommand struct {
	*entity.BaseCommand
	launcher port.ProcessLauncher
}

func NewCustomCommand(id *entity.Identity, command string, launcher port.ProcessLauncher, logger *zap.Logger) *CustomCommand {
	return &CustomCommand{
		BaseCommand: entity.NewBaseCommand(id, ICON_CUSTOM, strings.TrimSpace(command), logger),
		launcher:    launcher,
	}
}

func (c *CustomCommand) TurnOn() {
	c.Run("turn_on", func() error {
		if c.CommandConfig == "" {
			c.Logger.Warn("unable to launch command", zap.Error(ErrActionOnly))
			return nil
		}
		return c.launcher.Launch(c.CommandConfig)
	})
}

func (c *CustomCommand) TurnOnWithAction(action string) {
	c.Run("turn_on_with_action", func() error {
		command := strings.TrimSpace(action)
		if c.CommandConfig != "" {
			command = strings.TrimSpace(c.CommandConfig + " " + action)
		}
		if command == "" {
			c.Logger.Warn("unable to launch command, empty action")
			return nil
		}
		return c.launcher.Launch(command)
	})
}
