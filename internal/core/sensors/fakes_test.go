package sensors

import (
	"context"
	"sync"

	"github.com/berfenger/hostagent2mqtt/internal/core/port"
)

type fakeCounters struct {
	value float64
	err   error
	asked []string
}

func (f *fakeCounters) Counter(ctx context.Context, category, counter, instance string) (float64, error) {
	f.asked = append(f.asked, category+"/"+counter+"/"+instance)
	return f.value, f.err
}

type fakeUsers struct {
	sessions []port.UserSession
	err      error
}

func (f *fakeUsers) Sessions(ctx context.Context) ([]port.UserSession, error) {
	return f.sessions, f.err
}

type fakeServices struct {
	states map[string]string
	err    error
}

func (f *fakeServices) ServiceState(ctx context.Context, name string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	state, ok := f.states[name]
	return state, ok, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	volumes []port.Volume
	err     error
}

func (f *fakeStorage) set(volumes ...port.Volume) {
	f.mu.Lock()
	f.volumes = volumes
	f.mu.Unlock()
}

func (f *fakeStorage) Volumes(ctx context.Context) ([]port.Volume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volumes, f.err
}

type fakeNetwork struct {
	cards []port.NetworkCard
}

func (f *fakeNetwork) NetworkCards(ctx context.Context) ([]port.NetworkCard, error) {
	return f.cards, nil
}

type fakeDisplays struct {
	displays []port.Display
}

func (f *fakeDisplays) Displays(ctx context.Context) ([]port.Display, error) {
	return f.displays, nil
}

type fakeCapture struct {
	apps []string
	err  error
}

func (f *fakeCapture) CaptureApplications(ctx context.Context) ([]string, error) {
	return f.apps, f.err
}

func (f *fakeCapture) WebcamProcesses(ctx context.Context) ([]string, error) {
	return f.apps, f.err
}
