package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/config"
	"github.com/berfenger/hostagent2mqtt/internal/core/commands"
	"github.com/berfenger/hostagent2mqtt/internal/core/domain"
	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"github.com/berfenger/hostagent2mqtt/internal/core/sensors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SENSOR_TYPE_CPU_LOAD            = "cpuload"
	SENSOR_TYPE_PERFORMANCE_COUNTER = "performancecounter"
	SENSOR_TYPE_LOGGED_USER         = "loggeduser"
	SENSOR_TYPE_LOGGED_USERS        = "loggedusers"
	SENSOR_TYPE_SERVICE_STATE       = "servicestate"
	SENSOR_TYPE_STORAGE             = "storage"
	SENSOR_TYPE_NETWORK             = "network"
	SENSOR_TYPE_DISPLAY             = "display"
	SENSOR_TYPE_AUDIO               = "audio"
	SENSOR_TYPE_MICROPHONE_PROCESS  = "microphoneprocess"
	SENSOR_TYPE_WEBCAM_ACTIVE       = "webcamactive"
	SENSOR_TYPE_WEBCAM_PROCESS      = "webcamprocess"
)

const (
	COMMAND_TYPE_CUSTOM           = "custom"
	COMMAND_TYPE_KEY              = "key"
	COMMAND_TYPE_MULTIPLE_KEYS    = "multiplekeys"
	COMMAND_TYPE_LAUNCH_URL       = "launchurl"
	COMMAND_TYPE_SET_VOLUME       = "setvolume"
	COMMAND_TYPE_SET_AUDIO_OUTPUT = "setaudiooutput"
	COMMAND_TYPE_SET_AUDIO_INPUT  = "setaudioinput"
	COMMAND_TYPE_SWITCH_DESKTOP   = "switchdesktop"
)

var (
	ErrUnknownType      = errors.New("unknown entity type")
	ErrMissingCollector = errors.New("no data source for entity type")
)

// AudioService is what the audio sensors and audio commands need from the
// audio subsystem.
type AudioService interface {
	sensors.AudioSource
	sensors.CaptureSource
	commands.AudioController
}

// Sources are the host collaborators entities read from and act upon. A nil
// source disables the entity types that depend on it.
type Sources struct {
	Counters  port.CounterSource
	Users     port.UserSource
	Services  port.ServiceSource
	Storage   port.StorageSource
	Network   port.NetworkSource
	Displays  port.DisplaySource
	Audio     AudioService
	Webcam    port.WebcamSource
	Processes port.ProcessLauncher
	Keys      port.KeySender
	Browser   port.URLLauncher
	Desktops  port.DesktopSwitcher
}

// Registry holds the configured entities. It is built once and never mutated,
// a configuration reload builds a new one.
type Registry struct {
	sensors      []entity.Sensor
	sensorsById  map[string]entity.Sensor
	commands     []entity.Command
	commandIndex map[string]entity.Command
	audio        []*sensors.AudioSensors
	logger       *zap.Logger
}

func New(defs config.EntitiesConfig, src Sources, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		sensorsById:  map[string]entity.Sensor{},
		commandIndex: map[string]entity.Command{},
		logger:       logger,
	}
	for _, def := range defs.Sensors {
		s, err := r.buildSensor(def, src)
		if err != nil {
			return nil, fmt.Errorf("sensor %s: %w", def.EntityName, err)
		}
		r.sensors = append(r.sensors, s)
		r.sensorsById[s.Identity().Id] = s
		if a, ok := s.(*sensors.AudioSensors); ok {
			r.audio = append(r.audio, a)
		}
	}
	for _, def := range defs.Commands {
		c, err := r.buildCommand(def, src)
		if err != nil {
			return nil, fmt.Errorf("command %s: %w", def.EntityName, err)
		}
		key := domain.CommandKey(c.Identity().Domain, c.Identity().ObjectId())
		if prev, ok := r.commandIndex[key]; ok {
			logger.Warn("command object id collision, the last definition wins",
				zap.String("key", key), zap.String("previous", prev.Identity().EntityName),
				zap.String("entity", c.Identity().EntityName))
		}
		r.commands = append(r.commands, c)
		r.commandIndex[key] = c
	}
	return r, nil
}

func identity(entityDomain, entityName, name, id string, ignoreAvailability bool) *entity.Identity {
	entityName = strings.TrimSpace(entityName)
	if name == "" {
		name = entityName
	}
	if id == "" {
		id = uuid.NewString()
	}
	ident := entity.NewIdentity(entityDomain, entityName, name, id)
	ident.IgnoreAvailability = ignoreAvailability
	return ident
}

func (r *Registry) buildSensor(def config.SensorDefinition, src Sources) (entity.Sensor, error) {
	id := identity(entity.DOMAIN_SENSOR, def.EntityName, def.Name, def.Id, def.IgnoreAvailability)
	interval := time.Duration(def.UpdateInterval) * time.Second
	logger := r.logger

	switch def.Type {
	case SENSOR_TYPE_CPU_LOAD:
		if src.Counters == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewCpuLoadSensor(id, interval, src.Counters, def.Round, logger), nil
	case SENSOR_TYPE_PERFORMANCE_COUNTER:
		if src.Counters == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewPerformanceCounterSensor(id, interval, src.Counters, def.Category, def.Counter, def.Instance,
			def.Round, entity.SensorOptions{}, logger), nil
	case SENSOR_TYPE_LOGGED_USER:
		if src.Users == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewLoggedUserSensor(id, interval, src.Users, logger), nil
	case SENSOR_TYPE_LOGGED_USERS:
		if src.Users == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewLoggedUsersSensor(id, interval, src.Users, logger), nil
	case SENSOR_TYPE_SERVICE_STATE:
		if src.Services == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewServiceStateSensor(id, interval, src.Services, def.Query, logger), nil
	case SENSOR_TYPE_STORAGE:
		if src.Storage == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewStorageSensors(id, interval, src.Storage, logger), nil
	case SENSOR_TYPE_NETWORK:
		if src.Network == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewNetworkSensors(id, interval, src.Network, def.Query, logger), nil
	case SENSOR_TYPE_DISPLAY:
		if src.Displays == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewDisplaySensors(id, interval, src.Displays, logger), nil
	case SENSOR_TYPE_AUDIO:
		if src.Audio == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewAudioSensors(id, interval, src.Audio, logger), nil
	case SENSOR_TYPE_MICROPHONE_PROCESS:
		if src.Audio == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewMicrophoneProcessSensor(id, interval, src.Audio, logger), nil
	case SENSOR_TYPE_WEBCAM_ACTIVE:
		if src.Webcam == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewWebcamActiveSensor(id, interval, src.Webcam, logger), nil
	case SENSOR_TYPE_WEBCAM_PROCESS:
		if src.Webcam == nil {
			return nil, ErrMissingCollector
		}
		return sensors.NewWebcamProcessSensor(id, interval, src.Webcam, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, def.Type)
	}
}

func (r *Registry) buildCommand(def config.CommandDefinition, src Sources) (entity.Command, error) {
	switch def.EntityType {
	case "", entity.DOMAIN_SWITCH, entity.DOMAIN_BUTTON:
	default:
		return nil, fmt.Errorf("%w: entity_type %s", ErrUnknownType, def.EntityType)
	}
	id := identity(def.EntityType, def.EntityName, def.Name, def.Id, def.IgnoreAvailability)
	logger := r.logger

	if key, ok := commands.KeyCommands[def.Type]; ok {
		if src.Keys == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewKeyCommand(id, key.Key, key.Domain, src.Keys, logger), nil
	}

	switch def.Type {
	case COMMAND_TYPE_CUSTOM:
		if src.Processes == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewCustomCommand(id, def.Command, src.Processes, logger), nil
	case COMMAND_TYPE_KEY:
		if src.Keys == nil {
			return nil, ErrMissingCollector
		}
		key := def.KeyCode
		if key == "" {
			key = def.Command
		}
		return commands.NewKeyCommand(id, key, entity.DOMAIN_SWITCH, src.Keys, logger), nil
	case COMMAND_TYPE_MULTIPLE_KEYS:
		if src.Keys == nil {
			return nil, ErrMissingCollector
		}
		keys := def.Keys
		if len(keys) == 0 && def.Command != "" {
			keys = commands.ParseMultipleKeys(def.Command)
		}
		return commands.NewMultipleKeysCommand(id, keys, src.Keys, logger), nil
	case COMMAND_TYPE_LAUNCH_URL:
		if src.Browser == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewLaunchUrlCommand(id, def.Command, src.Browser, logger), nil
	case COMMAND_TYPE_SET_VOLUME:
		if src.Audio == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewSetVolumeCommand(id, def.Command, src.Audio, logger), nil
	case COMMAND_TYPE_SET_AUDIO_OUTPUT:
		if src.Audio == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewSetAudioOutputCommand(id, def.Command, src.Audio, logger), nil
	case COMMAND_TYPE_SET_AUDIO_INPUT:
		if src.Audio == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewSetAudioInputCommand(id, def.Command, src.Audio, logger), nil
	case COMMAND_TYPE_SWITCH_DESKTOP:
		if src.Desktops == nil {
			return nil, ErrMissingCollector
		}
		return commands.NewSwitchDesktopCommand(id, def.Command, src.Desktops, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, def.Type)
	}
}

func (r *Registry) Sensors() []entity.Sensor {
	return r.sensors
}

func (r *Registry) Sensor(id string) (entity.Sensor, bool) {
	s, ok := r.sensorsById[id]
	return s, ok
}

func (r *Registry) Commands() []entity.Command {
	return r.commands
}

// Command resolves the command a topic addresses.
func (r *Registry) Command(entityDomain, objectId string) (entity.Command, bool) {
	c, ok := r.commandIndex[domain.CommandKey(entityDomain, objectId)]
	return c, ok
}

func (r *Registry) AudioSensors() []*sensors.AudioSensors {
	return r.audio
}

// Discoverables lists the configured entities followed by the current
// children of every aggregator.
func (r *Registry) Discoverables() []entity.Discoverable {
	out := []entity.Discoverable{}
	for _, s := range r.sensors {
		out = append(out, s)
	}
	for _, c := range r.commands {
		out = append(out, c)
	}
	for _, s := range r.sensors {
		if mv, ok := s.(entity.MultiValue); ok {
			for _, child := range sortedChildren(mv) {
				out = append(out, child)
			}
		}
	}
	return out
}

// Domains lists the distinct domains of the configured entities.
func (r *Registry) Domains() []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, s := range r.sensors {
		add(s.Identity().Domain)
	}
	for _, c := range r.commands {
		add(c.Identity().Domain)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Info() []domain.EntityInfo {
	out := []domain.EntityInfo{}
	for _, s := range r.sensors {
		info := info(s, s.State())
		info.UpdateInterval = s.UpdateInterval().Seconds()
		if mv, ok := s.(interface {
			entity.MultiValue
			Stale() []string
		}); ok {
			for _, child := range sortedChildren(mv) {
				info.Children = append(info.Children, child.Identity().Id)
			}
			info.Stale = mv.Stale()
		}
		out = append(out, info)
	}
	for _, c := range r.commands {
		out = append(out, info(c, c.State()))
	}
	return out
}

func info(e entity.Discoverable, state string) domain.EntityInfo {
	id := e.Identity()
	return domain.EntityInfo{
		Id:         id.Id,
		Name:       id.Name,
		EntityName: id.EntityName,
		ObjectId:   id.ObjectId(),
		Domain:     id.Domain,
		Kind:       e.Kind().String(),
		State:      state,
	}
}

func sortedChildren(mv entity.MultiValue) []entity.Sensor {
	children := mv.Sensors()
	keys := make([]string, 0, len(children))
	for k := range children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]entity.Sensor, 0, len(keys))
	for _, k := range keys {
		out = append(out, children[k])
	}
	return out
}
