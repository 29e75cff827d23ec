package commands

import (
	"errors"
	"sync"
)

type fakeLauncher struct {
	mu       sync.Mutex
	launched []string
	err      error
}

func (f *fakeLauncher) Launch(command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launched = append(f.launched, command)
	return f.err
}

type fakeKeys struct {
	mu   sync.Mutex
	sent []string
	fail string
}

func (f *fakeKeys) SendKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.fail {
		return errors.New("xdotool: unknown key")
	}
	f.sent = append(f.sent, key)
	return nil
}

func (f *fakeKeys) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.sent...)
}

type launchedUrl struct {
	url       string
	incognito bool
}

type fakeBrowser struct {
	opened []launchedUrl
}

func (f *fakeBrowser) LaunchURL(url string, incognito bool) error {
	f.opened = append(f.opened, launchedUrl{url, incognito})
	return nil
}

type fakeDesktops struct {
	switched []string
	err      error
}

func (f *fakeDesktops) SwitchDesktop(desktop string) error {
	if f.err != nil {
		return f.err
	}
	f.switched = append(f.switched, desktop)
	return nil
}
