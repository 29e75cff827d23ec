package host

import (
	"bufio"
	"bytes"
	"context"
	"strings"
)

// ServiceState maps the systemd unit state onto the service control names:
// Running, Stopped, StartPending, StopPending.
func (h *Host) ServiceState(ctx context.Context, name string) (string, bool, error) {
	out, err := h.run(ctx, "systemctl", "show", "--property=LoadState,ActiveState", "--", name)
	if err != nil {
		return "", false, err
	}
	props := parseProperties(out)
	if props["LoadState"] == "not-found" || props["LoadState"] == "" {
		return "", false, nil
	}
	return serviceState(props["ActiveState"]), true, nil
}

func serviceState(active string) string {
	switch active {
	case "active", "reloading":
		return "Running"
	case "activating":
		return "StartPending"
	case "deactivating":
		return "StopPending"
	default:
		return "Stopped"
	}
}

func parseProperties(out []byte) map[string]string {
	props := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if k, v, ok := strings.Cut(scanner.Text(), "="); ok {
			props[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return props
}
