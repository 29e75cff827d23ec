package host

import (
	"errors"
	"strings"

	"go.uber.org/zap"
)

var ErrEmptyCommand = errors.New("empty command")

// Launch runs command through the shell and returns once it has started.
func (h *Host) Launch(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return ErrEmptyCommand
	}
	h.logger.Debug("launching command", zap.String("command", command))
	return h.start("sh", "-c", command)
}
