package utils

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// clockLayout is the vendor's 12-hour clock-with-meridiem format.
const clockLayout = "3:04PM"

// AdjustTime combines a scheduled time string with vendor delay text into a
// display string, e.g. ("3:15PM", "7 min") → "3:15PM (Now: 3:22PM)".
// "On time" returns the scheduled time unchanged. Any parse failure returns
// an empty string; callers display a blank adjusted time rather than crash.
func AdjustTime(scheduled, delay string) string {
	if strings.EqualFold(strings.TrimSpace(delay), "On time") {
		return scheduled
	}

	parsed, err := time.Parse(clockLayout, scheduled)
	if err != nil {
		slog.Debug("unparseable scheduled time", slog.String("scheduled", scheduled))
		return ""
	}

	fields := strings.Fields(delay)
	if len(fields) == 0 {
		slog.Debug("empty delay text", slog.String("scheduled", scheduled))
		return ""
	}
	minutes, err := strconv.Atoi(fields[0])
	if err != nil {
		slog.Debug("unparseable delay text", slog.String("delay", delay))
		return ""
	}

	adjusted := parsed.Add(time.Duration(minutes) * time.Minute)
	return fmt.Sprintf("%s (Now: %s)", scheduled, adjusted.Format(clockLayout))
}
