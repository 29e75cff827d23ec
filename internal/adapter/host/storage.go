package host

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/port"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type mount struct {
	device     string
	mountPoint string
	fileSystem string
}

// Volumes lists the block-device mounts from /proc/self/mountinfo. A volume is fixed
// when its device is not removable, and ready when statfs succeeds on it.
func (h *Host) Volumes(ctx context.Context) ([]port.Volume, error) {
	mounts, err := h.mounts()
	if err != nil {
		return nil, err
	}
	labels := h.labels()
	volumes := []port.Volume{}
	seen := map[string]bool{}
	for _, m := range mounts {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !strings.HasPrefix(m.device, "/dev/") || strings.HasPrefix(m.device, "/dev/loop") || seen[m.device] {
			continue
		}
		seen[m.device] = true
		v := port.Volume{
			Name:       m.mountPoint,
			FileSystem: m.fileSystem,
			Label:      labels[resolveDevice(m.device)],
			Fixed:      !h.removable(m.device),
		}
		var st unix.Statfs_t
		if err := unix.Statfs(m.mountPoint, &st); err == nil {
			v.Ready = true
			v.TotalBytes = st.Blocks * uint64(st.Bsize)
			v.AvailableBytes = st.Bavail * uint64(st.Bsize)
		} else {
			h.logger.Debug("statfs failed", zap.String("mount", m.mountPoint), zap.Error(err))
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}

// mounts reads the mount table of the agent's own mount namespace.
func (h *Host) mounts() ([]mount, error) {
	fs, err := h.procFS()
	if err != nil {
		return nil, err
	}
	self, err := fs.Self()
	if err != nil {
		return nil, err
	}
	infos, err := self.MountInfo()
	if err != nil {
		return nil, err
	}
	out := make([]mount, 0, len(infos))
	for _, info := range infos {
		out = append(out, mount{
			device:     info.Source,
			mountPoint: unescapeMount(info.MountPoint),
			fileSystem: info.FSType,
		})
	}
	return out, nil
}

// unescapeMount decodes the octal escapes the kernel uses for blanks in
// mount points.
func unescapeMount(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}

// labels maps a device path to its filesystem label.
func (h *Host) labels() map[string]string {
	out := map[string]string{}
	dir := h.path("dev", "disk", "by-label")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		target, err := filepath.EvalSymlinks(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out[target] = unescapeMount(strings.ReplaceAll(e.Name(), `\x20`, " "))
	}
	return out
}

func resolveDevice(device string) string {
	if target, err := filepath.EvalSymlinks(device); err == nil {
		return target
	}
	return device
}

// removable checks /sys/class/block/{dev}/removable, falling back to the
// parent disk for partitions.
func (h *Host) removable(device string) bool {
	dir := h.path("sys", "class", "block", filepath.Base(resolveDevice(device)))
	if real, err := filepath.EvalSymlinks(dir); err == nil {
		dir = real
	}
	for _, candidate := range []string{
		filepath.Join(dir, "removable"),
		filepath.Join(filepath.Dir(dir), "removable"),
	} {
		if b, err := os.ReadFile(candidate); err == nil {
			return strings.TrimSpace(string(b)) == "1"
		}
	}
	return false
}
