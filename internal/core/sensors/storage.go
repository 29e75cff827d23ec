package sensors

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/berfenger/hostagent2mqtt/internal/core/entity"
	"github.com/berfenger/hostagent2mqtt/internal/core/port"
	"go.uber.org/zap"
)

const (
	DEFAULT_STORAGE_INTERVAL = 30 * time.Second
	// BYTES_PER_MB is a decimal megabyte.
	BYTES_PER_MB = 1_000_000
)

type StorageInfo struct {
	Name                     string  `json:"name"`
	Label                    string  `json:"label"`
	FileSystem               string  `json:"file_system"`
	TotalSizeMB              float64 `json:"total_size_mb"`
	AvailableSpaceMB         float64 `json:"available_space_mb"`
	UsedSpaceMB              float64 `json:"used_space_mb"`
	AvailableSpacePercentage int     `json:"available_space_percentage"`
	UsedSpacePercentage      int     `json:"used_space_percentage"`
}

func bytesToMB(bytes uint64) float64 {
	return math.Round(float64(bytes) / BYTES_PER_MB)
}

// NewStorageInfo derives the whole-MB figures of a volume. Used space is
// total minus available, both already rounded, so the two always add up.
func NewStorageInfo(v port.Volume) StorageInfo {
	total := bytesToMB(v.TotalBytes)
	available := bytesToMB(v.AvailableBytes)
	used := total - available
	percentage := func(size float64) int {
		if total == 0 {
			return 0
		}
		return int(math.Round(size / total * 100))
	}
	label := v.Label
	if label == "" {
		label = "-"
	}
	return StorageInfo{
		Name:                     volumeName(v.Name),
		Label:                    label,
		FileSystem:               v.FileSystem,
		TotalSizeMB:              total,
		AvailableSpaceMB:         available,
		UsedSpaceMB:              used,
		AvailableSpacePercentage: percentage(available),
		UsedSpacePercentage:      percentage(used),
	}
}

// volumeName shortens drive roots such as `C:\` to `C`; mount points are kept.
func volumeName(name string) string {
	if len(name) >= 2 && name[1] == ':' {
		return strings.ToUpper(name[:1])
	}
	return name
}

func validVolume(v port.Volume) bool {
	return v.Ready && v.Fixed && strings.TrimSpace(v.Name) != ""
}

// NewStorageSensors exposes one child per fixed, ready volume plus a
// total_disk_count child.
func NewStorageSensors(id *entity.Identity, interval time.Duration, source port.StorageSource, logger *zap.Logger) *entity.MultiValueSensor {
	if interval == 0 {
		interval = DEFAULT_STORAGE_INTERVAL
	}
	return entity.NewMultiValueSensor(id, interval, logger, func(r *entity.Refresh) {
		ctx, cancel := readContext()
		defer cancel()
		volumes, err := source.Volumes(ctx)
		if err != nil {
			r.Fail(fmt.Errorf("storage enumeration: %w", err))
			return
		}
		valid := []port.Volume{}
		for _, v := range volumes {
			if validVolume(v) {
				valid = append(valid, v)
			}
		}
		for _, v := range valid {
			r.Try(v.Name, func() error {
				if v.TotalBytes < v.AvailableBytes {
					return errors.New("available space exceeds volume size")
				}
				info := NewStorageInfo(v)
				state := v.Label
				if state == "" {
					state = info.Name
				}
				key := strings.ToLower(entity.DeriveObjectId(info.Name))
				child := r.Value(key, info.Name, entity.SensorOptions{Icon: ICON_HARDDISK}, true)
				child.SetString(state)
				child.SetAttributesValue(info)
				return nil
			})
		}
		r.Count("total_disk_count", "Total Disk Count", ICON_HARDDISK, len(valid))
	})
}
