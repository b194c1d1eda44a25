package util

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration with one decimal in the largest
// fitting unit: seconds below a minute, minutes below an hour, else hours.
func FormatDuration(d time.Duration) string {
	s := d.Seconds()
	switch {
	case s < 60:
		return fmt.Sprintf("%.1fs", s)
	case s < 3600:
		return fmt.Sprintf("%.1f min", s/60)
	default:
		return fmt.Sprintf("%.1f h", s/3600)
	}
}
