package host

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// VIDEO_DEVICE_PREFIX matches the V4L2 capture nodes.
const VIDEO_DEVICE_PREFIX = "/dev/video"

// WebcamProcesses lists the distinct command names of the processes holding a
// video device open. Processes whose descriptors cannot be read, usually
// those of other users, are skipped.
func (h *Host) WebcamProcesses(ctx context.Context) ([]string, error) {
	fs, err := h.procFS()
	if err != nil {
		return nil, err
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	out := []string{}
	for _, p := range procs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		targets, err := p.FileDescriptorTargets()
		if err != nil {
			continue
		}
		if !holdsVideoDevice(targets) {
			continue
		}
		comm, err := p.Comm()
		if err != nil {
			h.logger.Debug("process name read failed", zap.Int("pid", p.PID), zap.Error(err))
			continue
		}
		if comm == "" || seen[comm] {
			continue
		}
		seen[comm] = true
		out = append(out, comm)
	}
	sort.Strings(out)
	return out, nil
}

func holdsVideoDevice(targets []string) bool {
	for _, t := range targets {
		if strings.HasPrefix(t, VIDEO_DEVICE_PREFIX) {
			return true
		}
	}
	return false
}
