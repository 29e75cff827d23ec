package host

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/berfenger/hostagent2mqtt/internal/core/port"

	"go.uber.org/zap"
)

const DEFAULT_BITS_PER_PIXEL = 32

// Displays lists the connected DRM connectors. The first connected one is
// reported as primary; its preferred mode gives the resolution.
func (h *Host) Displays(ctx context.Context) ([]port.Display, error) {
	entries, err := os.ReadDir(h.path("sys", "class", "drm"))
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		// connectors look like card0-HDMI-A-1
		if strings.HasPrefix(e.Name(), "card") && strings.Contains(e.Name(), "-") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	displays := []port.Display{}
	for _, name := range names {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		status, _ := h.readString("sys", "class", "drm", name, "status")
		if status != "connected" {
			continue
		}
		d := port.Display{
			DeviceName:   name,
			Name:         strings.SplitN(name, "-", 2)[1],
			Primary:      len(displays) == 0,
			BitsPerPixel: DEFAULT_BITS_PER_PIXEL,
		}
		modes, _ := h.readString("sys", "class", "drm", name, "modes")
		if first, _, _ := strings.Cut(modes, "\n"); first != "" {
			if _, err := fmt.Sscanf(first, "%dx%d", &d.Width, &d.Height); err != nil {
				h.logger.Debug("unparsable mode", zap.String("connector", name), zap.String("mode", first))
			}
		}
		d.VirtualWidth, d.VirtualHeight = d.Width, d.Height
		d.WorkingAreaWidth, d.WorkingAreaHeight = d.Width, d.Height
		displays = append(displays, d)
	}
	return displays, nil
}
