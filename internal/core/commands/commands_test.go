package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func commandId(name string) *entity.Identity {
	return entity.NewIdentity("", name, "", name+"-id")
}

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return zap.New(core), logs
}

func errorCount(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.ErrorLevel).Len()
}

func newAudio() (*audio.MemoryBackend, *audio.Manager) {
	b := audio.NewMemoryBackend(nil)
	b.AddDevice(audio.Device{Id: "spk", Name: "Speakers", Type: audio.DEVICE_TYPE_OUTPUT, Volume: 30})
	b.AddDevice(audio.Device{Id: "hdmi", Name: "HDMI", Type: audio.DEVICE_TYPE_OUTPUT, Volume: 30})
	b.AddDevice(audio.Device{Id: "mic", Name: "USB Mic", Type: audio.DEVICE_TYPE_INPUT})
	b.AddDevice(audio.Device{Id: "cam", Name: "Webcam", Type: audio.DEVICE_TYPE_INPUT})
	return b, audio.NewManager(b, nil)
}

func TestCustomCommand(t *testing.T) {

	assert := assert.New(t)

	launcher := &fakeLauncher{}
	c := NewCustomCommand(commandId("custom"), "notify-send", launcher, nil)
	assert.Equal(entity.DOMAIN_SWITCH, c.Identity().Domain)

	c.TurnOn()
	c.TurnOnWithAction("hello")
	assert.Equal([]string{"notify-send", "notify-send hello"}, launcher.launched)
	assert.Equal(entity.STATE_OFF, c.State())
}

func TestCustomCommandActionOnly(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	launcher := &fakeLauncher{}
	c := NewCustomCommand(commandId("custom"), "  ", launcher, logger)

	c.TurnOn()
	assert.Empty(launcher.launched)
	assert.Equal(1, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	c.TurnOnWithAction("reboot")
	assert.Equal([]string{"reboot"}, launcher.launched)

	launcher.err = errors.New("exit status 1")
	c.TurnOnWithAction("false")
	assert.Equal(1, errorCount(logs))
	assert.Equal(entity.STATE_OFF, c.State())
}

func TestKeyCommand(t *testing.T) {

	assert := assert.New(t)

	keys := &fakeKeys{}
	wake := KeyCommands["monitorwake"]
	c := NewKeyCommand(commandId("monitorwake"), wake.Key, wake.Domain, keys, nil)
	assert.Equal(entity.DOMAIN_BUTTON, c.Identity().Domain)

	c.TurnOn()
	c.TurnOnWithAction("ignored")
	assert.Equal([]string{KEY_UP, KEY_UP}, keys.keys())
}

func TestKeyCommandDefaultDomains(t *testing.T) {

	assert := assert.New(t)

	for name, kc := range KeyCommands {
		c := NewKeyCommand(commandId(name), kc.Key, kc.Domain, &fakeKeys{}, nil)
		if name == "monitorwake" {
			assert.Equal(entity.DOMAIN_BUTTON, c.Identity().Domain, name)
		} else {
			assert.Equal(entity.DOMAIN_SWITCH, c.Identity().Domain, name)
		}
	}

	id := entity.NewIdentity(entity.DOMAIN_BUTTON, "playpause", "", "pp-id")
	play := KeyCommands["mediaplaypause"]
	c := NewKeyCommand(id, play.Key, play.Domain, &fakeKeys{}, nil)
	assert.Equal(entity.DOMAIN_BUTTON, c.Identity().Domain, "configured entity type wins")
}

func TestParseMultipleKeys(t *testing.T) {

	assert := assert.New(t)

	assert.Equal([]string{"ctrl+c", "a", "b"}, ParseMultipleKeys("[ctrl+c] [a][b]"))
	assert.Equal([]string{"["}, ParseMultipleKeys("[left_bracket]"))
	assert.Equal([]string{"]", "x"}, ParseMultipleKeys("[right_bracket] junk [x]"))
	assert.Equal([]string{"b"}, ParseMultipleKeys(`\[a] [b]`))
	assert.Equal([]string{`a\]b`}, ParseMultipleKeys(`[a\]b]`))
	assert.Equal([]string{""}, ParseMultipleKeys("[]"))
	assert.Empty(ParseMultipleKeys("no tokens"))
	assert.Empty(ParseMultipleKeys("[unterminated"))
	assert.Empty(ParseMultipleKeys(""))
}

func TestMultipleKeysFireAndForget(t *testing.T) {

	assert := assert.New(t)

	keys := &fakeKeys{}
	c := NewMultipleKeysCommand(commandId("keys"), []string{"a", "b"}, keys, nil)
	c.delay = 0

	c.TurnOn()
	assert.Equal(entity.STATE_OFF, c.State())
	c.Wait()
	assert.Equal([]string{"a", "b"}, keys.keys())

	c.TurnOnWithAction("[x][left_bracket]")
	c.Wait()
	assert.Equal([]string{"a", "b", "x", "["}, keys.keys())
}

func TestMultipleKeysFailures(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	keys := &fakeKeys{fail: "bad"}
	c := NewMultipleKeysCommand(commandId("keys"), nil, keys, logger)
	c.delay = 0

	c.TurnOn()
	assert.Equal(0, errorCount(logs))

	c.TurnOnWithAction("no tokens here")
	assert.Equal(1, errorCount(logs))

	c.TurnOnWithAction("[ok][bad][never]")
	c.Wait()
	assert.Equal([]string{"ok"}, keys.keys())
	assert.Equal(2, errorCount(logs))
	assert.Equal(entity.STATE_OFF, c.State())
}

func TestLaunchUrl(t *testing.T) {

	assert := assert.New(t)

	browser := &fakeBrowser{}
	c := NewLaunchUrlCommand(commandId("launchurl"), `{"url": "https://example.org/search?q=", "incognito": true}`, browser, nil)

	c.TurnOn()
	c.TurnOnWithAction("golang")
	assert.Equal([]launchedUrl{
		{"https://example.org/search?q=", true},
		{"https://example.org/search?q= golang", true},
	}, browser.opened)
	assert.Equal(UrlInfo{Url: "https://example.org/search?q=", Incognito: true}, c.Info())
}

func TestLaunchUrlBadConfig(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	browser := &fakeBrowser{}
	c := NewLaunchUrlCommand(commandId("launchurl"), `{not json`, browser, logger)
	assert.Equal(1, errorCount(logs))

	c.TurnOn()
	assert.Empty(browser.opened)
	assert.Equal(2, errorCount(logs))

	c.TurnOnWithAction("https://example.org")
	assert.Equal([]launchedUrl{{"https://example.org", false}}, browser.opened)
}

func TestSetVolumeAppliesParsedPayload(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	backend, manager := newAudio()
	c := NewSetVolumeCommand(commandId("setvolume"), "", manager, logger)

	c.TurnOnWithAction("55")
	spk, _ := backend.Device("spk")
	assert.Equal(55, spk.Volume)
	assert.Equal(entity.STATE_OFF, c.State())
	assert.Equal(0, errorCount(logs))

	c.TurnOnWithAction("loud")
	spk, _ = backend.Device("spk")
	assert.Equal(55, spk.Volume, "volume unchanged")
	assert.Equal(entity.STATE_OFF, c.State())
	assert.Equal(1, errorCount(logs))

	c.TurnOnWithAction("150")
	assert.Equal(2, errorCount(logs))

	c.TurnOn()
	assert.Equal(1, logs.FilterLevelExact(zapcore.WarnLevel).Len(), "action-only")
}

func TestSetVolumeConfigured(t *testing.T) {

	assert := assert.New(t)

	backend, manager := newAudio()
	c := NewSetVolumeCommand(commandId("setvolume"), "20", manager, nil)
	assert.Equal(entity.DOMAIN_BUTTON, c.Identity().Domain)

	c.TurnOn()
	spk, _ := backend.Device("spk")
	hdmi, _ := backend.Device("hdmi")
	assert.Equal(20, spk.Volume)
	assert.Equal(30, hdmi.Volume)

	logger, logs := observed()
	bad := NewSetVolumeCommand(commandId("setvolume"), "loud", manager, logger)
	assert.Equal(NO_VOLUME, bad.Volume)
	assert.Equal(1, errorCount(logs))
}

func TestSetAudioDevices(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	backend, manager := newAudio()

	out := NewSetAudioOutputCommand(commandId("setaudiooutput"), "HDMI", manager, logger)
	out.TurnOn()
	d, _ := backend.DefaultDevice(context.Background(), audio.DEVICE_TYPE_OUTPUT, audio.DEVICE_ROLE_MULTIMEDIA)
	assert.Equal("hdmi", d.Id)

	in := NewSetAudioInputCommand(commandId("setaudioinput"), "", manager, logger)
	in.TurnOn()
	assert.Equal(1, errorCount(logs), "blank device name")

	in.TurnOnWithAction("Webcam")
	d, _ = backend.DefaultDevice(context.Background(), audio.DEVICE_TYPE_INPUT, audio.DEVICE_ROLE_COMMUNICATIONS)
	assert.Equal("cam", d.Id)

	in.TurnOnWithAction("Nonexistent")
	assert.Equal(2, errorCount(logs))
	assert.Equal(entity.STATE_OFF, in.State())
}

func TestSwitchDesktop(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	desktops := &fakeDesktops{}
	c := NewSwitchDesktopCommand(commandId("desktop"), " 2 ", desktops, logger)
	assert.Equal(entity.DOMAIN_SWITCH, c.Identity().Domain)

	c.TurnOn()
	c.TurnOnWithAction("5")
	assert.Equal([]string{"2", "2"}, desktops.switched, "configured desktop wins over the action")
	assert.Equal(1, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	desktops.err = errors.New("xdotool: invalid desktop")
	c.TurnOn()
	assert.Equal(1, errorCount(logs))
	assert.Equal(entity.STATE_OFF, c.State())
}

func TestSwitchDesktopActionOnly(t *testing.T) {

	assert := assert.New(t)

	logger, logs := observed()
	desktops := &fakeDesktops{}
	c := NewSwitchDesktopCommand(commandId("desktop"), "", desktops, logger)

	c.TurnOn()
	c.TurnOnWithAction("  ")
	assert.Empty(desktops.switched)
	assert.Equal(2, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	c.TurnOnWithAction("1")
	assert.Equal([]string{"1"}, desktops.switched)
}

func TestCommandsSatisfyInterface(t *testing.T) {

	var _ entity.Command = NewCustomCommand(commandId("a"), "", nil, nil)
	var _ entity.Command = NewKeyCommand(commandId("b"), KEY_UP, entity.DOMAIN_BUTTON, nil, nil)
	var _ entity.Command = NewMultipleKeysCommand(commandId("c"), nil, nil, nil)
	var _ entity.Command = NewLaunchUrlCommand(commandId("d"), "", nil, nil)
	var _ entity.Command = NewSetVolumeCommand(commandId("e"), "", nil, nil)
	var _ entity.Command = NewSetAudioOutputCommand(commandId("f"), "", nil, nil)
	var _ entity.Command = NewSwitchDesktopCommand(commandId("g"), "", nil, nil)
}
