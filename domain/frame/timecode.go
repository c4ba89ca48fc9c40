package frame

import (
	"fmt"
	"regexp"
	"strconv"
)

// timecodeRegex matches the HH:MM:SS.000 seek format handed to ffmpeg.
// Hours are unbounded and may use more than two digits.
var timecodeRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})\.(\d{3})$`)

// splitSeconds breaks a total second count into hours, minutes and seconds
func splitSeconds(total int) (hours, minutes, seconds int) {
	hours = total / 3600
	total = total % 3600
	minutes = total / 60
	seconds = total % 60
	return hours, minutes, seconds
}

// TimecodeString formats total seconds as HH:MM:SS.000 for use as an ffmpeg seek offset
func TimecodeString(total int) string {
	h, m, s := splitSeconds(total)
	return fmt.Sprintf("%02d:%02d:%02d.000", h, m, s)
}

// ParseTimecode parses an HH:MM:SS.mmm timecode back into whole seconds.
// Milliseconds are accepted but discarded.
func ParseTimecode(s string) (int, error) {
	matches := timecodeRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid timecode format %q: expected HH:MM:SS.mmm", s)
	}

	hours, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, fmt.Errorf("invalid timecode %q: %w", s, err)
	}
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	if minutes > 59 {
		return 0, fmt.Errorf("invalid timecode %q: minutes must be 0-59", s)
	}
	if seconds > 59 {
		return 0, fmt.Errorf("invalid timecode %q: seconds must be 0-59", s)
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// TimeString formats total seconds for display in reports, e.g. 1h:01m:01s.
// Hours are not padded.
func TimeString(total int) string {
	h, m, s := splitSeconds(total)
	return fmt.Sprintf("%dh:%02dm:%02ds", h, m, s)
}
