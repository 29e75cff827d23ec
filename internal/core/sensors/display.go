package sensors

import (
	"fmt"
	"strings"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const DEFAULT_DISPLAY_INTERVAL = 30 * time.Second

type DisplayInfo struct {
	Name              string `json:"name"`
	Resolution        string `json:"resolution"`
	VirtualResolution string `json:"virtual_resolution"`
	Width             int    `json:"width"`
	VirtualWidth      int    `json:"virtual_width"`
	Height            int    `json:"height"`
	VirtualHeight     int    `json:"virtual_height"`
	BitsPerPixel      int    `json:"bits_per_pixel"`
	PrimaryDisplay    bool   `json:"primary_display"`
	WorkingArea       string `json:"working_area"`
	WorkingAreaWidth  int    `json:"working_area_width"`
	WorkingAreaHeight int    `json:"working_area_height"`
	RotatedDegrees    int    `json:"rotated_degrees"`
}

// displayName is the last segment of a path-like device name.
func displayName(d port.Display) string {
	if d.Name != "" {
		return d.Name
	}
	name := d.DeviceName
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func NewDisplayInfo(d port.Display) DisplayInfo {
	vw, vh := d.VirtualWidth, d.VirtualHeight
	if vw == 0 && vh == 0 {
		vw, vh = d.Width, d.Height
	}
	return DisplayInfo{
		Name:              displayName(d),
		Resolution:        fmt.Sprintf("%dx%d", d.Width, d.Height),
		VirtualResolution: fmt.Sprintf("%dx%d", vw, vh),
		Width:             d.Width,
		VirtualWidth:      vw,
		Height:            d.Height,
		VirtualHeight:     vh,
		BitsPerPixel:      d.BitsPerPixel,
		PrimaryDisplay:    d.Primary,
		WorkingArea:       fmt.Sprintf("%dx%d", d.WorkingAreaWidth, d.WorkingAreaHeight),
		WorkingAreaWidth:  d.WorkingAreaWidth,
		WorkingAreaHeight: d.WorkingAreaHeight,
		RotatedDegrees:    d.RotatedDegrees,
	}
}

// NewDisplaySensors exposes display_count, primary_display and one child per
// display.
func NewDisplaySensors(id *entity.Identity, interval time.Duration, source port.DisplaySource, logger *zap.Logger) *entity.MultiValueSensor {
	if interval == 0 {
		interval = DEFAULT_DISPLAY_INTERVAL
	}
	return entity.NewMultiValueSensor(id, interval, logger, func(r *entity.Refresh) {
		ctx, cancel := readContext()
		defer cancel()
		displays, err := source.Displays(ctx)
		if err != nil {
			r.Fail(fmt.Errorf("display enumeration: %w", err))
			return
		}
		r.Count("display_count", "Display Count", ICON_MONITOR, len(displays))
		if len(displays) == 0 {
			return
		}

		primary := ""
		for _, d := range displays {
			if d.Primary {
				primary = displayName(d)
				break
			}
		}
		r.Value("primary_display", "Primary Display", entity.SensorOptions{Icon: ICON_MONITOR}, false).SetString(primary)

		for _, d := range displays {
			key := entity.DeriveObjectId(d.DeviceName)
			if strings.TrimSpace(key) == "" {
				continue
			}
			r.Try(d.DeviceName, func() error {
				info := NewDisplayInfo(d)
				child := r.Value(key, info.Name, entity.SensorOptions{Icon: ICON_MONITOR}, true)
				child.SetString(info.Name)
				child.SetAttributesValue(info)
				return nil
			})
		}
	})
}
