package registry

import (
	"context"
	"testing"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
	"github.com/berfenger/hostagent2mqtt/internal/config"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type nopHost struct{}

func (nopHost) Counter(context.Context, string, string, string) (float64, error) { return 42, nil }
func (nopHost) Sessions(context.Context) ([]port.UserSession, error)             { return nil, nil }
func (nopHost) ServiceState(context.Context, string) (string, bool, error) {
	return "active", true, nil
}
func (nopHost) Volumes(context.Context) ([]port.Volume, error)           { return nil, nil }
func (nopHost) NetworkCards(context.Context) ([]port.NetworkCard, error) { return nil, nil }
func (nopHost) Displays(context.Context) ([]port.Display, error)         { return nil, nil }
func (nopHost) Launch(string) error                                      { return nil }
func (nopHost) SendKey(string) error                                     { return nil }
func (nopHost) LaunchURL(string, bool) error                             { return nil }
func (nopHost) SwitchDesktop(string) error                               { return nil }
func (nopHost) WebcamProcesses(context.Context) ([]string, error) {
	return []string{"cheese"}, nil
}

func allSources() Sources {
	h := nopHost{}
	return Sources{
		Counters:  h,
		Users:     h,
		Services:  h,
		Storage:   h,
		Network:   h,
		Displays:  h,
		Audio:     audio.NewManager(audio.NewMemoryBackend(nil), nil),
		Webcam:    h,
		Processes: h,
		Keys:      h,
		Browser:   h,
		Desktops:  h,
	}
}

func TestBuildAllTypes(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	defs := config.EntitiesConfig{
		Sensors: []config.SensorDefinition{
			{Type: SENSOR_TYPE_CPU_LOAD, EntityName: "cpu", Id: "cpu-id"},
			{Type: SENSOR_TYPE_PERFORMANCE_COUNTER, EntityName: "ctr", Category: "Memory", Counter: "Available MBytes"},
			{Type: SENSOR_TYPE_LOGGED_USER, EntityName: "user"},
			{Type: SENSOR_TYPE_LOGGED_USERS, EntityName: "users"},
			{Type: SENSOR_TYPE_SERVICE_STATE, EntityName: "svc", Query: "sshd"},
			{Type: SENSOR_TYPE_STORAGE, EntityName: "disks"},
			{Type: SENSOR_TYPE_NETWORK, EntityName: "nics", Query: "*"},
			{Type: SENSOR_TYPE_DISPLAY, EntityName: "screens"},
			{Type: SENSOR_TYPE_AUDIO, EntityName: "audio"},
			{Type: SENSOR_TYPE_MICROPHONE_PROCESS, EntityName: "mic"},
			{Type: SENSOR_TYPE_WEBCAM_ACTIVE, EntityName: "cam", Id: "cam-id"},
			{Type: SENSOR_TYPE_WEBCAM_PROCESS, EntityName: "camapps"},
		},
		Commands: []config.CommandDefinition{
			{Type: COMMAND_TYPE_CUSTOM, EntityName: "run", Command: "true"},
			{Type: COMMAND_TYPE_KEY, EntityName: "key", KeyCode: "a"},
			{Type: "mediaplaypause", EntityName: "play"},
			{Type: COMMAND_TYPE_MULTIPLE_KEYS, EntityName: "keys", Command: "[a] [b]"},
			{Type: COMMAND_TYPE_LAUNCH_URL, EntityName: "url", Command: `{"url":"https://example.org"}`},
			{Type: COMMAND_TYPE_SET_VOLUME, EntityName: "volume", Command: "30"},
			{Type: COMMAND_TYPE_SET_AUDIO_OUTPUT, EntityName: "out", EntityType: entity.DOMAIN_SWITCH},
			{Type: COMMAND_TYPE_SET_AUDIO_INPUT, EntityName: "in"},
			{Type: "monitorwake", EntityName: "wake"},
			{Type: COMMAND_TYPE_SWITCH_DESKTOP, EntityName: "desktop", Command: "1"},
		},
	}

	r, err := New(defs, allSources(), nil)
	require.NoError(err)
	assert.Len(r.Sensors(), 12)
	assert.Len(r.Commands(), 10)
	assert.Len(r.AudioSensors(), 1)

	s, ok := r.Sensor("cpu-id")
	require.True(ok)
	assert.Equal("42", s.State())
	assert.Equal("cpu", s.Identity().Name, "name defaults to entity name")

	// generated ids are uuids
	_, err = uuid.Parse(r.Sensors()[1].Identity().Id)
	assert.NoError(err)

	s, ok = r.Sensor("cam-id")
	require.True(ok)
	assert.Equal(entity.DOMAIN_BINARY_SENSOR, s.Identity().Domain)
	assert.Equal(entity.STATE_ON, s.State())

	c, ok := r.Command(entity.DOMAIN_SWITCH, "play")
	require.True(ok, "media keys default to switch")
	assert.Equal("play", c.Identity().EntityName)

	_, ok = r.Command(entity.DOMAIN_BUTTON, "play")
	assert.False(ok)

	c, ok = r.Command(entity.DOMAIN_BUTTON, "wake")
	require.True(ok, "monitor wake defaults to button")
	assert.Equal("wake", c.Identity().EntityName)

	_, ok = r.Command(entity.DOMAIN_SWITCH, "key")
	require.True(ok)

	c, ok = r.Command(entity.DOMAIN_SWITCH, "out")
	require.True(ok)
	assert.Equal(entity.STATE_OFF, c.State())

	assert.Equal([]string{entity.DOMAIN_BINARY_SENSOR, entity.DOMAIN_BUTTON, entity.DOMAIN_SENSOR, entity.DOMAIN_SWITCH}, r.Domains())
	assert.Len(r.Info(), 22)
}

func TestUnknownTypes(t *testing.T) {

	assert := assert.New(t)

	_, err := New(config.EntitiesConfig{
		Sensors: []config.SensorDefinition{{Type: "battery", EntityName: "b"}},
	}, allSources(), nil)
	assert.ErrorIs(err, ErrUnknownType)

	_, err = New(config.EntitiesConfig{
		Commands: []config.CommandDefinition{{Type: COMMAND_TYPE_CUSTOM, EntityName: "c", EntityType: "light"}},
	}, allSources(), nil)
	assert.ErrorIs(err, ErrUnknownType)
}

func TestMissingSource(t *testing.T) {

	assert := assert.New(t)

	_, err := New(config.EntitiesConfig{
		Sensors: []config.SensorDefinition{{Type: SENSOR_TYPE_AUDIO, EntityName: "audio"}},
	}, Sources{}, nil)
	assert.ErrorIs(err, ErrMissingCollector)
}

func TestObjectIdCollisionLastWins(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	core, logs := observer.New(zap.WarnLevel)

	r, err := New(config.EntitiesConfig{
		Commands: []config.CommandDefinition{
			{Type: COMMAND_TYPE_CUSTOM, EntityName: "open app", Command: "first"},
			{Type: COMMAND_TYPE_CUSTOM, EntityName: "open/app", Command: "second"},
		},
	}, allSources(), zap.New(core))
	require.NoError(err)

	assert.Len(r.Commands(), 2)
	c, ok := r.Command(entity.DOMAIN_SWITCH, "open_app")
	require.True(ok)
	assert.Equal("open/app", c.Identity().EntityName)
	assert.Equal(1, logs.FilterMessage("command object id collision, the last definition wins").Len())
}

func TestDiscoverablesIncludeChildren(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	backend := audio.NewMemoryBackend(nil)
	backend.AddDevice(audio.Device{Id: "spk", Name: "Speakers", Type: audio.DEVICE_TYPE_OUTPUT, State: audio.DEVICE_STATE_ACTIVE})
	src := allSources()
	src.Audio = audio.NewManager(backend, nil)

	r, err := New(config.EntitiesConfig{
		Sensors: []config.SensorDefinition{{Type: SENSOR_TYPE_AUDIO, EntityName: "audio", Id: "aud"}},
	}, src, nil)
	require.NoError(err)

	assert.Len(r.Discoverables(), 1)

	r.AudioSensors()[0].UpdateSensorValues()
	all := r.Discoverables()
	assert.Greater(len(all), 1)
	assert.Equal("aud", all[0].Identity().Id)
	for _, d := range all[1:] {
		assert.Equal(entity.KIND_SENSOR, d.Kind())
	}
}
