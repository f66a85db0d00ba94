package printer

import (
	"fmt"
	"time"
)

// FormatDuration returns a compact human-readable duration.
// Examples: "850ms", "4.3s", "1m 05s", "2h 03m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	if d < time.Hour {
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) - minutes*60
		return fmt.Sprintf("%dm %02ds", minutes, seconds)
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) - hours*60
	return fmt.Sprintf("%dh %02dm", hours, minutes)
}

// FormatRemaining renders a projected remaining time, or a placeholder while
// no estimate exists yet.
func FormatRemaining(remaining *time.Duration) string {
	if remaining == nil {
		return "calculating..."
	}
	return "~" + FormatDuration(*remaining) + " remaining"
}
