package entity

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// BaseCommand implements the OFF -> ON -> OFF cycle shared by all commands.
// Concrete commands embed it and override TurnOn/TurnOnWithAction.
type BaseCommand struct {
	id            *Identity
	icon          string
	CommandConfig string
	state         atomic.Value
	discovery     discoveryCache
	Logger        *zap.Logger
}

func NewBaseCommand(id *Identity, icon string, commandConfig string, logger *zap.Logger) *BaseCommand {
	if id.Domain == "" {
		id.Domain = DOMAIN_SWITCH
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &BaseCommand{
		id:            id,
		icon:          icon,
		CommandConfig: commandConfig,
		Logger:        logger.With(zap.String("entity", id.EntityName)),
	}
	c.state.Store(STATE_OFF)
	return c
}

func (c *BaseCommand) Identity() *Identity {
	return c.id
}

func (c *BaseCommand) Kind() Kind {
	return KIND_COMMAND
}

func (c *BaseCommand) State() string {
	return c.state.Load().(string)
}

func (c *BaseCommand) GetAutoDiscoveryConfig(ctx DiscoveryContext) *DiscoveryConfig {
	return c.discovery.get(ctx, func(ctx DiscoveryContext) *DiscoveryConfig {
		return BuildCommandDiscovery(ctx, c.id, c.icon)
	})
}

func (c *BaseCommand) ClearAutoDiscoveryConfig() {
	c.discovery.clear()
}

// TurnOn without an override has nothing to run.
func (c *BaseCommand) TurnOn() {
	c.Run("turn_on", func() error {
		c.Logger.Info("command has no preconfigured action, ignoring")
		return nil
	})
}

func (c *BaseCommand) TurnOnWithAction(action string) {
	c.Run("turn_on_with_action", func() error {
		c.Logger.Info("command does not accept actions, ignoring", zap.String("action", action))
		return nil
	})
}

func (c *BaseCommand) TurnOff() {
	c.state.Store(STATE_OFF)
}

// Run flips the state to ON, executes effect and always lands back on OFF.
// Errors and panics raised by effect are logged and swallowed.
func (c *BaseCommand) Run(op string, effect func() error) {
	c.state.Store(STATE_ON)
	defer c.state.Store(STATE_OFF)
	defer func() {
		if r := recover(); r != nil {
			c.Logger.Error("command panicked", zap.String("op", op), zap.Error(fmt.Errorf("%v", r)))
		}
	}()
	if err := effect(); err != nil {
		c.Logger.Error("command failed", zap.String("op", op), zap.Error(err))
	}
}
