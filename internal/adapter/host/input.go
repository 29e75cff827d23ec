package host

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/commands"

	"go.uber.org/zap"
)

var ErrNoBrowser = errors.New("no browser found")

// keysyms maps agent key names to X keysyms; anything else is passed to
// xdotool unchanged.
var keysyms = map[string]string{
	commands.KEY_MEDIA_PLAY_PAUSE: "XF86AudioPlay",
	commands.KEY_MEDIA_NEXT:       "XF86AudioNext",
	commands.KEY_MEDIA_PREVIOUS:   "XF86AudioPrev",
	commands.KEY_MEDIA_STOP:       "XF86AudioStop",
	commands.KEY_VOLUME_UP:        "XF86AudioRaiseVolume",
	commands.KEY_VOLUME_DOWN:      "XF86AudioLowerVolume",
	commands.KEY_VOLUME_MUTE:      "XF86AudioMute",
	commands.KEY_UP:               "Up",
	"[":                           "bracketleft",
	"]":                           "bracketright",
	" ":                           "space",
}

func Keysym(key string) string {
	if sym, ok := keysyms[strings.ToLower(key)]; ok {
		return sym
	}
	return key
}

// SendKey types one key through xdotool.
func (h *Host) SendKey(key string) error {
	if key == "" {
		return errors.New("empty key")
	}
	sym := Keysym(key)
	h.logger.Debug("sending key", zap.String("key", key), zap.String("keysym", sym))
	return h.start("xdotool", "key", "--clearmodifiers", sym)
}

// SwitchDesktop moves the session to the zero-based virtual desktop through
// xdotool.
func (h *Host) SwitchDesktop(desktop string) error {
	desktop = strings.TrimSpace(desktop)
	n, err := strconv.Atoi(desktop)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid desktop %q", desktop)
	}
	h.logger.Debug("switching desktop", zap.Int("desktop", n))
	return h.start("xdotool", "set_desktop", strconv.Itoa(n))
}

// privateBrowsers are tried in order for incognito launches.
var privateBrowsers = []struct {
	name string
	flag string
}{
	{"firefox", "--private-window"},
	{"google-chrome", "--incognito"},
	{"chromium", "--incognito"},
	{"chromium-browser", "--incognito"},
	{"brave-browser", "--incognito"},
}

// LaunchURL opens url with the desktop default handler, or in a private
// window of the first browser found when incognito is set.
func (h *Host) LaunchURL(url string, incognito bool) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("empty url")
	}
	if !incognito {
		return h.start("xdg-open", url)
	}
	for _, b := range privateBrowsers {
		if _, err := h.lookup(b.name); err == nil {
			return h.start(b.name, b.flag, url)
		}
	}
	return fmt.Errorf("%w for an incognito launch of %s", ErrNoBrowser, url)
}
