package pulse

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"go.uber.org/zap"
)

var subscribeLine = regexp.MustCompile(`^Event '(\w+)' on ([\w-]+) #(-?\d+)`)

// Dispatch translates one `pactl subscribe` line into a notification.
// It reports false for lines that carry no device notification.
func Dispatch(line string, client *audio.NotificationClient) bool {
	m := subscribeLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return false
	}
	event, facility, index := m[1], m[2], m[3]
	switch facility {
	case "sink", "source":
		switch event {
		case "new":
			client.OnDeviceAdded(index)
		case "remove":
			client.OnDeviceRemoved(index)
		case "change":
			client.OnPropertyValueChanged(index, facility)
		default:
			return false
		}
	case "server":
		if event != "change" {
			return false
		}
		// the server facility changes when a default sink/source moves
		client.OnDefaultDeviceChanged(audio.DEVICE_TYPE_OUTPUT, audio.DEVICE_ROLE_ALL, "")
	case "card":
		client.OnDeviceStateChanged(index, event)
	default:
		return false
	}
	return true
}

// Pump feeds lines read from r into client until r is exhausted.
func Pump(r io.Reader, client *audio.NotificationClient) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		Dispatch(scanner.Text(), client)
	}
	return scanner.Err()
}

// Subscribe runs `pactl subscribe` until ctx is done, feeding its events into
// client.
func Subscribe(ctx context.Context, client *audio.NotificationClient, logger *zap.Logger) error {
	cmd := exec.CommandContext(ctx, "pactl", "subscribe")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := Pump(stdout, client); err != nil {
			logger.Warn("pactl subscribe stream failed", zap.Error(err))
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			logger.Warn("pactl subscribe exited", zap.Error(err))
		}
	}()
	return nil
}
