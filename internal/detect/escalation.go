package detect

import "strings"

// EscalationDetector decides whether a line of output means the command
// needs elevated privileges. Implementations must be pure and safe for
// concurrent use.
type EscalationDetector interface {
	NeedsEscalation(line string) bool
}

// SudoMarkers are the messages sudo prints when it cannot prompt for a
// password inside a non-interactive pipe.
var SudoMarkers = []string{
	"sudo: a password is required",
	"sudo: a terminal is required",
}

// MarkerDetector implements EscalationDetector with case-sensitive
// substring markers.
type MarkerDetector struct {
	markers []string
}

// NewEscalationDetector creates a detector for SudoMarkers.
func NewEscalationDetector() *MarkerDetector {
	return NewMarkerDetector(SudoMarkers...)
}

// NewMarkerDetector creates a detector for custom markers. Empty markers
// are ignored.
func NewMarkerDetector(markers ...string) *MarkerDetector {
	kept := make([]string, 0, len(markers))
	for _, m := range markers {
		if m != "" {
			kept = append(kept, m)
		}
	}
	return &MarkerDetector{markers: kept}
}

// NeedsEscalation reports whether line contains any marker.
func (d *MarkerDetector) NeedsEscalation(line string) bool {
	for _, m := range d.markers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// EscalationFunc adapts a function to the EscalationDetector interface.
type EscalationFunc func(line string) bool

// NeedsEscalation calls f(line).
func (f EscalationFunc) NeedsEscalation(line string) bool {
	return f(line)
}

var _ EscalationDetector = (*MarkerDetector)(nil)
