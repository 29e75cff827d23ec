package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCommandRunReturnsToOff(t *testing.T) {

	assert := assert.New(t)

	c := NewBaseCommand(NewIdentity("", "cmd", "", "1"), "", "", nil)
	assert.Equal(DOMAIN_SWITCH, c.Identity().Domain)
	assert.Equal(STATE_OFF, c.State())

	var during string
	c.Run("test", func() error {
		during = c.State()
		return nil
	})
	assert.Equal(STATE_ON, during)
	assert.Equal(STATE_OFF, c.State())
}

func TestCommandRunLogsErrorsAndPanics(t *testing.T) {

	assert := assert.New(t)

	core, logs := observer.New(zapcore.InfoLevel)
	c := NewBaseCommand(NewIdentity(DOMAIN_BUTTON, "cmd", "", "1"), "", "", zap.New(core))

	c.Run("fails", func() error { return errors.New("boom") })
	assert.Equal(STATE_OFF, c.State())

	assert.NotPanics(func() {
		c.Run("panics", func() error { panic("kaboom") })
	})
	assert.Equal(STATE_OFF, c.State())

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	assert.Len(errs, 2)
	assert.Equal("cmd", errs[0].ContextMap()["entity"])
}

func TestBaseCommandTurnOnIsNoop(t *testing.T) {

	assert := assert.New(t)

	core, logs := observer.New(zapcore.InfoLevel)
	c := NewBaseCommand(NewIdentity(DOMAIN_SWITCH, "cmd", "", "1"), "", "", zap.New(core))

	c.TurnOn()
	c.TurnOnWithAction("x")
	c.TurnOff()

	assert.Equal(STATE_OFF, c.State())
	assert.Equal(0, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Equal(KIND_COMMAND, c.Kind())
}
