package sensors

import (
	"context"
	"math"
	"strconv"
	"time"
)

// READ_TIMEOUT bounds every host query made while computing a state.
const READ_TIMEOUT = 5 * time.Second

const (
	ICON_CPU         = "mdi:chart-areaspline"
	ICON_USERS       = "mdi:account-group"
	ICON_SERVICE     = "mdi:file-eye-outline"
	ICON_HARDDISK    = "mdi:harddisk"
	ICON_LAN         = "mdi:lan"
	ICON_MONITOR     = "mdi:monitor"
	ICON_SPEAKER     = "mdi:speaker"
	ICON_MICROPHONE  = "mdi:microphone"
	ICON_AUDIO_APP   = "mdi:music-note"
	ICON_WEBCAM      = "mdi:webcam"
	STATE_CLASS_MEAS = "measurement"
)

func readContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), READ_TIMEOUT)
}

// roundHalfAway rounds to the given number of decimals, halves away from zero.
func roundHalfAway(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
