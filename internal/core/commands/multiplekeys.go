package commands

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const KEY_DELAY = 50 * time.Millisecond

// ParseMultipleKeys extracts the [key] tokens of s. A bracket preceded by a
// backslash does not open or close a token; left_bracket and right_bracket
// inside a token stand for literal brackets.
func ParseMultipleKeys(s string) []string {
	keys := []string{}
	for i := 0; i < len(s); i++ {
		if s[i] != '[' || (i > 0 && s[i-1] == '\\') {
			continue
		}
		end := -1
		for j := i + 1; j < len(s); j++ {
			if s[j] == ']' && s[j-1] != '\\' {
				end = j
				break
			}
		}
		if end < 0 {
			break
		}
		key := s[i+1 : end]
		key = strings.ReplaceAll(key, "left_bracket", "[")
		key = strings.ReplaceAll(key, "right_bracket", "]")
		keys = append(keys, key)
		i = end
	}
	return keys
}

// MultipleKeysCommand sends a key sequence in the background, KEY_DELAY
// apart. The state returns to OFF as soon as the sequence is scheduled.
type MultipleKeysCommand struct {
	*entity.BaseCommand
	Keys     []string
	sender   port.KeySender
	delay    time.Duration
	inflight sync.WaitGroup
}

func NewMultipleKeysCommand(id *entity.Identity, keys []string, sender port.KeySender, logger *zap.Logger) *MultipleKeysCommand {
	return &MultipleKeysCommand{
		BaseCommand: entity.NewBaseCommand(id, ICON_MULTIPLE_KEYS, strings.Join(keys, " "), logger),
		Keys:        keys,
		sender:      sender,
		delay:       KEY_DELAY,
	}
}

func (c *MultipleKeysCommand) TurnOn() {
	c.Run("turn_on", func() error {
		if len(c.Keys) == 0 {
			c.Logger.Warn("unable to send keys", zap.Error(ErrActionOnly))
			return nil
		}
		c.send(c.Keys)
		return nil
	})
}

func (c *MultipleKeysCommand) TurnOnWithAction(action string) {
	c.Run("turn_on_with_action", func() error {
		keys := ParseMultipleKeys(action)
		if len(keys) == 0 {
			return fmt.Errorf("no [key] tokens in %q", action)
		}
		c.send(keys)
		return nil
	})
}

func (c *MultipleKeysCommand) send(keys []string) {
	keys = append([]string{}, keys...)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				c.Logger.Error("key sequence panicked", zap.Error(fmt.Errorf("%v", r)))
			}
		}()
		for i, key := range keys {
			if key == "" {
				continue
			}
			if i > 0 {
				time.Sleep(c.delay)
			}
			if err := c.sender.SendKey(key); err != nil {
				c.Logger.Error("sending key failed", zap.String("key", key), zap.Error(err))
				return
			}
		}
	}()
}

// Wait blocks until every scheduled sequence has been sent.
func (c *MultipleKeysCommand) Wait() {
	c.inflight.Wait()
}
