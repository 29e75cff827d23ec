package actor

import (
	"context"
	"sync"
	"testing"

	"github.com/berfenger/hostagent2mqtt/internal/config"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"github.com/berfenger/hostagent2mqtt/internal/core/registry"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeHost serves fixed readings and records launched commands.
type fakeHost struct {
	mu       sync.Mutex
	volumes  []port.Volume
	volErr   error
	launched []string
}

func (h *fakeHost) Counter(context.Context, string, string, string) (float64, error) {
	return 42, nil
}

func (h *fakeHost) Volumes(context.Context) ([]port.Volume, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.volErr != nil {
		return nil, h.volErr
	}
	return append([]port.Volume(nil), h.volumes...), nil
}

func (h *fakeHost) failVolumes(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volErr = err
}

func (h *fakeHost) setVolumes(volumes ...port.Volume) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volumes = volumes
}

func (h *fakeHost) Launch(command string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.launched = append(h.launched, command)
	return nil
}

func (h *fakeHost) Launched() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.launched...)
}

func dataVolume() port.Volume {
	return port.Volume{
		Name:           "/data",
		FileSystem:     "ext4",
		Fixed:          true,
		Ready:          true,
		TotalBytes:     100_000_000,
		AvailableBytes: 25_000_000,
	}
}

func testDefinitions() config.EntitiesConfig {
	return config.EntitiesConfig{
		Sensors: []config.SensorDefinition{
			{Type: registry.SENSOR_TYPE_CPU_LOAD, EntityName: "cpu", Id: "cpu-id", UpdateInterval: 1},
			{Type: registry.SENSOR_TYPE_STORAGE, EntityName: "disks", Id: "disks-id", UpdateInterval: 1},
		},
		Commands: []config.CommandDefinition{
			{Type: registry.COMMAND_TYPE_CUSTOM, EntityName: "run", Id: "run-id", Command: "echo hi"},
		},
	}
}

func testRegistry(t *testing.T, host *fakeHost, logger *zap.Logger) *registry.Registry {
	r, err := registry.New(testDefinitions(), registry.Sources{
		Counters:  host,
		Storage:   host,
		Processes: host,
	}, logger)
	require.NoError(t, err)
	return r
}
