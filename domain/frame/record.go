package frame

import (
	"fmt"
	"strings"
)

// Label is a named concept detected in a frame
type Label struct {
	Name              string
	ConfidencePercent int // truncated, 0-100
}

// Record pairs an uploaded frame with the labels detected in it
type Record struct {
	Filename      string
	OffsetSeconds int
	LabelSummary  string
	Labels        []Label
}

// NewRecord builds a Record and its summary string from the detected labels
func NewRecord(filename string, offsetSeconds int, labels []Label) Record {
	return Record{
		Filename:      filename,
		OffsetSeconds: offsetSeconds,
		LabelSummary:  Summarize(labels),
		Labels:        labels,
	}
}

// Time returns the offset formatted for display
func (r Record) Time() string {
	return TimeString(r.OffsetSeconds)
}

// TruncatePercent converts a confidence percentage to an int, dropping the fraction.
// Values outside 0-100 are clamped.
func TruncatePercent(confidence float64) int {
	switch {
	case confidence <= 0:
		return 0
	case confidence >= 100:
		return 100
	}
	return int(confidence)
}

// Summarize concatenates labels as 'Name:NN%' entries, each followed by a space
func Summarize(labels []Label) string {
	var b strings.Builder
	for _, l := range labels {
		fmt.Fprintf(&b, "'%s:%d%%' ", l.Name, l.ConfidencePercent)
	}
	return b.String()
}
