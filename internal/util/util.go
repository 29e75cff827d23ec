package util

import (
	"github.com/berfenger/hostagent2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Device: config.DeviceConfig{
			Name: "testhost",
		},
		MQTT: config.MQTTConfig{
			Host:            "localhost",
			Port:            1883,
			DiscoveryPrefix: "homeassistant",
			DiscoveryEnable: true,
		},
		Audio: config.AudioConfig{
			Backend:     config.AUDIO_BACKEND_MEMORY,
			EventBuffer: 16,
		},
		Port: 8080,
	}
}
