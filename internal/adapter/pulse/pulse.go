package pulse

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/audio"
)

// Runner executes pactl with args and returns its stdout.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func ExecRunner(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "pactl", args...).Output()
	if err != nil {
		return nil, fmt.Errorf("pactl %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// Backend drives PulseAudio (or PipeWire's pulse server) through pactl.
// Pulse keeps one default per data flow, so roles collapse onto it.
type Backend struct {
	run Runner
}

func NewBackend(run Runner) *Backend {
	if run == nil {
		run = ExecRunner
	}
	return &Backend{run: run}
}

type channelVolume struct {
	ValuePercent string `json:"value_percent"`
}

type pactlDevice struct {
	Index       int                      `json:"index"`
	Name        string                   `json:"name"`
	Description string                   `json:"description"`
	State       string                   `json:"state"`
	Mute        bool                     `json:"mute"`
	Volume      map[string]channelVolume `json:"volume"`
	MonitorOf   string                   `json:"monitor_of_sink"`
}

type pactlSinkInput struct {
	Index      int                      `json:"index"`
	Sink       int                      `json:"sink"`
	Mute       bool                     `json:"mute"`
	Corked     bool                     `json:"corked"`
	Volume     map[string]channelVolume `json:"volume"`
	Properties map[string]string        `json:"properties"`
}

type pactlSourceOutput struct {
	Index      int               `json:"index"`
	Source     int               `json:"source"`
	Corked     bool              `json:"corked"`
	Properties map[string]string `json:"properties"`
}

// isMonitor reports sink loopback sources, which are not capture devices.
func (d pactlDevice) isMonitor() bool {
	if strings.HasSuffix(d.Name, ".monitor") {
		return true
	}
	return d.MonitorOf != "" && d.MonitorOf != "n/a"
}

func kindOf(deviceType audio.DeviceType) string {
	if deviceType == audio.DEVICE_TYPE_INPUT {
		return "source"
	}
	return "sink"
}

func (b *Backend) list(ctx context.Context, deviceType audio.DeviceType) ([]pactlDevice, error) {
	out, err := b.run(ctx, "--format=json", "list", kindOf(deviceType)+"s")
	if err != nil {
		return nil, err
	}
	var devices []pactlDevice
	if err := json.Unmarshal(out, &devices); err != nil {
		return nil, fmt.Errorf("decode %ss: %w", kindOf(deviceType), err)
	}
	return devices, nil
}

func (b *Backend) Devices(ctx context.Context, deviceType audio.DeviceType) ([]audio.Device, error) {
	raw, err := b.list(ctx, deviceType)
	if err != nil {
		return nil, err
	}
	devices := make([]audio.Device, 0, len(raw))
	for _, d := range raw {
		if deviceType == audio.DEVICE_TYPE_INPUT && d.isMonitor() {
			continue
		}
		devices = append(devices, toDevice(d, deviceType))
	}
	return devices, nil
}

func (b *Backend) DefaultDevice(ctx context.Context, deviceType audio.DeviceType, role audio.DeviceRole) (audio.Device, error) {
	out, err := b.run(ctx, "get-default-"+kindOf(deviceType))
	if err != nil {
		return audio.Device{}, err
	}
	name := strings.TrimSpace(string(out))
	if name == "" {
		return audio.Device{}, audio.ErrDeviceNotFound
	}
	raw, err := b.list(ctx, deviceType)
	if err != nil {
		return audio.Device{}, err
	}
	for _, d := range raw {
		if d.Name == name {
			return toDevice(d, deviceType), nil
		}
	}
	return audio.Device{}, audio.ErrDeviceNotFound
}

func (b *Backend) SetDefaultDevice(ctx context.Context, device audio.Device, role audio.DeviceRole) error {
	_, err := b.run(ctx, "set-default-"+kindOf(device.Type), device.Id)
	return err
}

func (b *Backend) SetDeviceVolume(ctx context.Context, device audio.Device, volume int) error {
	_, err := b.run(ctx, "set-"+kindOf(device.Type)+"-volume", device.Id, fmt.Sprintf("%d%%", volume))
	return err
}

func (b *Backend) SetDeviceMute(ctx context.Context, device audio.Device, mute bool) error {
	flag := "0"
	if mute {
		flag = "1"
	}
	_, err := b.run(ctx, "set-"+kindOf(device.Type)+"-mute", device.Id, flag)
	return err
}

func (b *Backend) sinkInputs(ctx context.Context) ([]pactlSinkInput, map[int]string, error) {
	out, err := b.run(ctx, "--format=json", "list", "sink-inputs")
	if err != nil {
		return nil, nil, err
	}
	var inputs []pactlSinkInput
	if err := json.Unmarshal(out, &inputs); err != nil {
		return nil, nil, fmt.Errorf("decode sink-inputs: %w", err)
	}
	sinks, err := b.list(ctx, audio.DEVICE_TYPE_OUTPUT)
	if err != nil {
		return nil, nil, err
	}
	names := map[int]string{}
	for _, s := range sinks {
		names[s.Index] = s.Description
	}
	return inputs, names, nil
}

func (b *Backend) Sessions(ctx context.Context) ([]audio.Session, error) {
	inputs, sinkNames, err := b.sinkInputs(ctx)
	if err != nil {
		return nil, err
	}
	sessions := make([]audio.Session, 0, len(inputs))
	for _, in := range inputs {
		sessions = append(sessions, toSession(in, sinkNames))
	}
	return sessions, nil
}

// SessionsAreSnapshot is true: one sink-inputs listing already carries every
// session's current values.
func (b *Backend) SessionsAreSnapshot() bool {
	return true
}

func (b *Backend) Session(ctx context.Context, id string) (audio.Session, error) {
	inputs, sinkNames, err := b.sinkInputs(ctx)
	if err != nil {
		return audio.Session{}, err
	}
	for _, in := range inputs {
		if strconv.Itoa(in.Index) == id {
			return toSession(in, sinkNames), nil
		}
	}
	return audio.Session{}, fmt.Errorf("sink-input %s: %w", id, audio.ErrSessionNotFound)
}

// CaptureApplications lists the applications of the source outputs recording
// from a real input. Streams reading a sink monitor are skipped.
func (b *Backend) CaptureApplications(ctx context.Context) ([]string, error) {
	out, err := b.run(ctx, "--format=json", "list", "source-outputs")
	if err != nil {
		return nil, err
	}
	var outputs []pactlSourceOutput
	if err := json.Unmarshal(out, &outputs); err != nil {
		return nil, fmt.Errorf("decode source-outputs: %w", err)
	}
	if len(outputs) == 0 {
		return []string{}, nil
	}
	sources, err := b.list(ctx, audio.DEVICE_TYPE_INPUT)
	if err != nil {
		return nil, err
	}
	monitors := map[int]bool{}
	for _, src := range sources {
		if src.isMonitor() {
			monitors[src.Index] = true
		}
	}
	apps := []string{}
	for _, o := range outputs {
		if monitors[o.Source] {
			continue
		}
		apps = append(apps, applicationName(o.Properties))
	}
	return apps, nil
}

func applicationName(props map[string]string) string {
	if app := props["application.name"]; app != "" {
		return app
	}
	return props["application.process.binary"]
}

func toDevice(d pactlDevice, deviceType audio.DeviceType) audio.Device {
	name := d.Description
	if name == "" {
		name = d.Name
	}
	return audio.Device{
		Id:     d.Name,
		Name:   name,
		Type:   deviceType,
		State:  deviceState(d.State),
		Volume: averageVolume(d.Volume),
		Muted:  d.Mute,
	}
}

func toSession(in pactlSinkInput, sinkNames map[int]string) audio.Session {
	return audio.Session{
		Id:             strconv.Itoa(in.Index),
		Application:    applicationName(in.Properties),
		PlaybackDevice: sinkNames[in.Sink],
		Muted:          in.Mute,
		Active:         !in.Corked,
		MasterVolume:   averageVolume(in.Volume),
	}
}

func deviceState(state string) string {
	switch strings.ToUpper(state) {
	case "RUNNING", "IDLE", "SUSPENDED":
		return audio.DEVICE_STATE_ACTIVE
	case "":
		return audio.DEVICE_STATE_NOT_PRESENT
	default:
		return audio.DEVICE_STATE_DISABLED
	}
}

// averageVolume averages the per-channel percentages.
func averageVolume(channels map[string]channelVolume) int {
	if len(channels) == 0 {
		return 0
	}
	total := 0
	for _, ch := range channels {
		v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(ch.ValuePercent), "%"))
		if err == nil {
			total += v
		}
	}
	return total / len(channels)
}
