package utils

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration into H:MM:SS format
func FormatDuration(d time.Duration) string {
	totalSeconds := int64(d.Seconds())
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Seconds renders a duration as a whole number of seconds, the unit every
// announcement uses.
func Seconds(d time.Duration) int64 {
	return int64(d.Seconds())
}
