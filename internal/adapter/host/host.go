package host

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/port"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/sysfs"
	"go.uber.org/zap"
)

// Runner executes name with args and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Starter launches name with args without waiting for it to exit.
type Starter func(name string, args ...string) error

func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

func ExecStarter(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	// reap the child
	go cmd.Wait()
	return nil
}

// Host reads the local Linux machine: procfs, sysfs and a handful of
// well-known tools. It implements every source and effect port.
type Host struct {
	root   string
	run    Runner
	start  Starter
	lookup func(string) (string, error)
	cpu    cpuSampler

	logger *zap.Logger
}

var (
	_ port.CounterSource   = (*Host)(nil)
	_ port.UserSource      = (*Host)(nil)
	_ port.ServiceSource   = (*Host)(nil)
	_ port.StorageSource   = (*Host)(nil)
	_ port.NetworkSource   = (*Host)(nil)
	_ port.DisplaySource   = (*Host)(nil)
	_ port.WebcamSource    = (*Host)(nil)
	_ port.ProcessLauncher = (*Host)(nil)
	_ port.KeySender       = (*Host)(nil)
	_ port.URLLauncher     = (*Host)(nil)
	_ port.DesktopSwitcher = (*Host)(nil)
)

type Option func(*Host)

// WithRoot resolves /proc, /sys, /etc and /dev below root.
func WithRoot(root string) Option {
	return func(h *Host) { h.root = root }
}

func WithRunner(run Runner) Option {
	return func(h *Host) { h.run = run }
}

func WithStarter(start Starter) Option {
	return func(h *Host) { h.start = start }
}

// WithLookPath replaces the PATH lookup used to pick a browser.
func WithLookPath(lookup func(string) (string, error)) Option {
	return func(h *Host) { h.lookup = lookup }
}

func New(logger *zap.Logger, opts ...Option) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Host{
		root:   "/",
		run:    ExecRunner,
		start:  ExecStarter,
		lookup: exec.LookPath,
		logger: logger.With(zap.String("adapter", "host")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Host) path(elem ...string) string {
	return filepath.Join(append([]string{h.root}, elem...)...)
}

// procFS opens the proc mount below root.
func (h *Host) procFS() (procfs.FS, error) {
	return procfs.NewFS(h.path("proc"))
}

func (h *Host) sysFS() (sysfs.FS, error) {
	return sysfs.NewFS(h.path("sys"))
}

func (h *Host) readString(elem ...string) (string, error) {
	b, err := os.ReadFile(h.path(elem...))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
