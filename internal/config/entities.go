package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SensorDefinition is one configured sensor in the entities file.
type SensorDefinition struct {
	Type               string `yaml:"type"`
	Name               string `yaml:"name"`
	EntityName         string `yaml:"entity_name"`
	Id                 string `yaml:"id"`
	UpdateInterval     int    `yaml:"update_interval"`
	Query              string `yaml:"query"`
	Category           string `yaml:"category"`
	Counter            string `yaml:"counter"`
	Instance           string `yaml:"instance"`
	Round              *int   `yaml:"round"`
	IgnoreAvailability bool   `yaml:"ignore_availability"`
}

// CommandDefinition is one configured command in the entities file.
type CommandDefinition struct {
	Type               string   `yaml:"type"`
	EntityType         string   `yaml:"entity_type"`
	Name               string   `yaml:"name"`
	EntityName         string   `yaml:"entity_name"`
	Id                 string   `yaml:"id"`
	Command            string   `yaml:"command"`
	KeyCode            string   `yaml:"key"`
	Keys               []string `yaml:"keys"`
	IgnoreAvailability bool     `yaml:"ignore_availability"`
}

type EntitiesConfig struct {
	Sensors  []SensorDefinition  `yaml:"sensors"`
	Commands []CommandDefinition `yaml:"commands"`
}

func LoadEntities(path string) (EntitiesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EntitiesConfig{}, err
	}
	return ParseEntities(data)
}

// ParseEntities decodes an entities file. Types are lowercased and every
// definition needs a type and an entity name.
func ParseEntities(data []byte) (EntitiesConfig, error) {
	var cfg EntitiesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EntitiesConfig{}, err
	}
	for i := range cfg.Sensors {
		def := &cfg.Sensors[i]
		def.Type = strings.ToLower(strings.TrimSpace(def.Type))
		if def.Type == "" || strings.TrimSpace(def.EntityName) == "" {
			return EntitiesConfig{}, fmt.Errorf("sensor #%d: type and entity_name are required", i)
		}
		if def.UpdateInterval < 0 {
			return EntitiesConfig{}, fmt.Errorf("sensor %s: update_interval must be positive", def.EntityName)
		}
	}
	for i := range cfg.Commands {
		def := &cfg.Commands[i]
		def.Type = strings.ToLower(strings.TrimSpace(def.Type))
		def.EntityType = strings.ToLower(strings.TrimSpace(def.EntityType))
		if def.Type == "" || strings.TrimSpace(def.EntityName) == "" {
			return EntitiesConfig{}, fmt.Errorf("command #%d: type and entity_name are required", i)
		}
	}
	return cfg, nil
}
