package pulse

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sinksJSON = `[
 {"index": 1, "name": "alsa_output.pci.analog-stereo", "description": "Built-in Audio", "state": "RUNNING", "mute": false,
  "volume": {"front-left": {"value_percent": "40%"}, "front-right": {"value_percent": "60%"}}},
 {"index": 2, "name": "alsa_output.hdmi", "description": "HDMI", "state": "SUSPENDED", "mute": true,
  "volume": {"mono": {"value_percent": "100%"}}}
]`

const sourcesJSON = `[
 {"index": 3, "name": "alsa_output.pci.analog-stereo.monitor", "description": "Monitor of Built-in Audio", "monitor_of_sink": "1"},
 {"index": 4, "name": "alsa_input.usb-mic", "description": "USB Mic", "state": "IDLE", "monitor_of_sink": "n/a"}
]`

const sinkInputsJSON = `[
 {"index": 12, "sink": 1, "mute": false, "corked": false, "volume": {"front-left": {"value_percent": "80%"}},
  "properties": {"application.name": "Firefox"}},
 {"index": 13, "sink": 2, "mute": true, "corked": true, "volume": {},
  "properties": {"application.process.binary": "mpv"}}
]`

const sourceOutputsJSON = `[
 {"index": 30, "source": 4, "corked": false, "properties": {"application.name": "Zoom"}},
 {"index": 31, "source": 3, "corked": false, "properties": {"application.name": "OBS"}},
 {"index": 32, "source": 4, "corked": true, "properties": {"application.process.binary": "arecord"}}
]`

type fakePactl struct {
	calls   []string
	defSink string
}

func (f *fakePactl) run(ctx context.Context, args ...string) ([]byte, error) {
	joined := strings.Join(args, " ")
	f.calls = append(f.calls, joined)
	switch joined {
	case "--format=json list sinks":
		return []byte(sinksJSON), nil
	case "--format=json list sources":
		return []byte(sourcesJSON), nil
	case "--format=json list sink-inputs":
		return []byte(sinkInputsJSON), nil
	case "--format=json list source-outputs":
		return []byte(sourceOutputsJSON), nil
	case "get-default-sink":
		return []byte(f.defSink + "\n"), nil
	case "get-default-source":
		return []byte("\n"), nil
	}
	if strings.HasPrefix(joined, "set-") {
		return nil, nil
	}
	return nil, errors.New("unexpected pactl call: " + joined)
}

func TestDevices(t *testing.T) {

	assert := assert.New(t)

	f := &fakePactl{}
	b := NewBackend(f.run)

	outputs, err := b.Devices(context.Background(), audio.DEVICE_TYPE_OUTPUT)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal("Built-in Audio", outputs[0].Name)
	assert.Equal("alsa_output.pci.analog-stereo", outputs[0].Id)
	assert.Equal(50, outputs[0].Volume)
	assert.Equal(audio.DEVICE_STATE_ACTIVE, outputs[0].State)
	assert.True(outputs[1].Muted)

	inputs, err := b.Devices(context.Background(), audio.DEVICE_TYPE_INPUT)
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal("USB Mic", inputs[0].Name)
}

func TestDefaultDevice(t *testing.T) {

	assert := assert.New(t)

	f := &fakePactl{defSink: "alsa_output.hdmi"}
	b := NewBackend(f.run)

	d, err := b.DefaultDevice(context.Background(), audio.DEVICE_TYPE_OUTPUT, audio.DEVICE_ROLE_MULTIMEDIA)
	require.NoError(t, err)
	assert.Equal("HDMI", d.Name)

	_, err = b.DefaultDevice(context.Background(), audio.DEVICE_TYPE_INPUT, audio.DEVICE_ROLE_MULTIMEDIA)
	assert.ErrorIs(err, audio.ErrDeviceNotFound)

	f.defSink = "gone"
	_, err = b.DefaultDevice(context.Background(), audio.DEVICE_TYPE_OUTPUT, audio.DEVICE_ROLE_MULTIMEDIA)
	assert.ErrorIs(err, audio.ErrDeviceNotFound)
}

func TestManagerOverPactl(t *testing.T) {

	assert := assert.New(t)

	f := &fakePactl{defSink: "alsa_output.pci.analog-stereo"}
	m := audio.NewManager(NewBackend(f.run), nil)
	volume := 55

	require.NoError(t, m.SetDefaultDeviceProperties(context.Background(), audio.DEVICE_TYPE_OUTPUT, audio.DEVICE_ROLE_MULTIMEDIA|audio.DEVICE_ROLE_CONSOLE, &volume, nil))
	assert.Contains(f.calls, "set-sink-volume alsa_output.pci.analog-stereo 55%")

	require.NoError(t, m.ActivateDevice(context.Background(), "HDMI"))
	assert.Contains(f.calls, "set-default-sink alsa_output.hdmi")
}

func TestSessions(t *testing.T) {

	assert := assert.New(t)

	b := NewBackend((&fakePactl{}).run)

	sessions, err := b.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(audio.Session{Id: "12", Application: "Firefox", PlaybackDevice: "Built-in Audio", Active: true, MasterVolume: 80}, sessions[0])
	assert.Equal("mpv", sessions[1].Application)
	assert.False(sessions[1].Active)

	_, err = b.Session(context.Background(), "99")
	assert.ErrorIs(err, audio.ErrSessionNotFound)
}

func TestManagerSessionsListOnce(t *testing.T) {

	assert := assert.New(t)

	f := &fakePactl{}
	m := audio.NewManager(NewBackend(f.run), nil)

	sessions, err := m.Sessions(context.Background())
	require.NoError(t, err)
	assert.Len(sessions, 2)
	assert.Equal([]string{"--format=json list sink-inputs", "--format=json list sinks"}, f.calls)
}

func TestCaptureApplications(t *testing.T) {

	assert := assert.New(t)

	f := &fakePactl{}
	m := audio.NewManager(NewBackend(f.run), nil)

	apps, err := m.CaptureApplications(context.Background())
	require.NoError(t, err)
	assert.Equal([]string{"Zoom", "arecord"}, apps)
}

func TestDispatch(t *testing.T) {

	assert := assert.New(t)

	c := audio.NewNotificationClient(16)
	lines := "Event 'new' on sink #5\n" +
		"Event 'remove' on source #6\n" +
		"Event 'change' on sink #5\n" +
		"Event 'change' on server #-1\n" +
		"Event 'change' on card #0\n" +
		"Event 'new' on client #44\n" +
		"garbage\n"
	require.NoError(t, Pump(strings.NewReader(lines), c))
	c.Close()

	kinds := []audio.EventKind{}
	for ev := range c.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal([]audio.EventKind{
		audio.EVENT_DEVICE_ADDED,
		audio.EVENT_DEVICE_REMOVED,
		audio.EVENT_DEVICE_PROPERTY_CHANGED,
		audio.EVENT_DEFAULT_DEVICE_CHANGED,
		audio.EVENT_DEVICE_STATE_CHANGED,
	}, kinds)
}
