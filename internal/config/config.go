package config

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"

	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap/zapcore"
)

const (
	AUDIO_BACKEND_PULSE  = "pulse"
	AUDIO_BACKEND_MEMORY = "memory"
	AUDIO_BACKEND_NONE   = "none"
)

type Config struct {
	LogLevel     zapcore.Level
	Device       DeviceConfig `mapstructure:"device"`
	MQTT         MQTTConfig   `mapstructure:"mqtt"`
	Audio        AudioConfig  `mapstructure:"audio"`
	EntitiesFile string       `mapstructure:"entities_file"`
	PruneStale   bool         `mapstructure:"prune_stale"`
	Port         uint         `mapstructure:"port"`
	HttpLog      bool         `mapstructure:"http_log"`

	Entities EntitiesConfig `mapstructure:"-"`
}

type DeviceConfig struct {
	Name string
}

type MQTTConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
	DiscoveryEnable bool   `mapstructure:"discovery_enable"`
}

type AudioConfig struct {
	Backend     string
	EventBuffer int `mapstructure:"event_buffer"`
}

var topicSegmentRegexp = regexp.MustCompile("^[a-z0-9_-]+$")

// CheckTopicSegment lowercases value and checks it is usable as a single
// topic level.
func CheckTopicSegment(value string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(value))
	if !topicSegmentRegexp.MatchString(lower) {
		return "", errors.New("invalid topic. can only contain letters, numbers, dashes and underscores")
	}
	return lower, nil
}

// NormalizeDeviceName turns a host name into a topic-safe device name.
func NormalizeDeviceName(name string) string {
	return strings.ToLower(entity.DeriveObjectId(strings.TrimSpace(name)))
}

// Validate normalizes the topic related fields in place.
func (c *Config) Validate() error {
	prefix, err := CheckTopicSegment(c.MQTT.DiscoveryPrefix)
	if err != nil {
		return fmt.Errorf("mqtt.discovery_prefix: %w", err)
	}
	c.MQTT.DiscoveryPrefix = prefix

	device, err := CheckTopicSegment(NormalizeDeviceName(c.Device.Name))
	if err != nil {
		return fmt.Errorf("device.name: %w", err)
	}
	c.Device.Name = device

	switch c.Audio.Backend {
	case AUDIO_BACKEND_PULSE, AUDIO_BACKEND_MEMORY, AUDIO_BACKEND_NONE:
	case "":
		c.Audio.Backend = AUDIO_BACKEND_NONE
	default:
		return fmt.Errorf("audio.backend: unknown backend %q", c.Audio.Backend)
	}
	return nil
}

// DiscoveryContext is the broker/device context entities build their
// discovery payloads from.
func (c *Config) DiscoveryContext() entity.DiscoveryContext {
	return entity.DiscoveryContext{
		Prefix: c.MQTT.DiscoveryPrefix,
		Device: &entity.DeviceConfig{
			Identifiers:  []string{fmt.Sprintf("hostagent_%s", c.Device.Name)},
			Name:         c.Device.Name,
			Manufacturer: "hostagent2mqtt",
			Model:        runtime.GOOS,
			SwVersion:    versioninfo.Short(),
		},
	}
}
