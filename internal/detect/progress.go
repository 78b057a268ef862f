package detect

import (
	"regexp"
	"strconv"

	"github.com/caskdeck/caskdeck/internal/task"
)

// ProgressParser extracts a progress sample from one line of output.
// Implementations must be pure and safe for concurrent use.
type ProgressParser interface {
	// Parse returns the sample carried by line, or false if the line
	// carries none.
	Parse(line string) (task.Progress, bool)
}

// DownloadingText is the label attached to download progress samples.
const DownloadingText = "Downloading..."

// ProgressPatterns match download progress bars. Each pattern has exactly
// one capture group holding the percentage.
var ProgressPatterns = []string{
	// curl's hash bar as printed by brew: "#####          23.4%"
	`#+ *(\d{1,3}(?:\.\d+)?)`,
}

// RegexProgressParser implements ProgressParser with a list of regular
// expressions, tried in order.
type RegexProgressParser struct {
	patterns []*regexp.Regexp
	text     string
}

// NewProgressParser creates a parser for ProgressPatterns.
func NewProgressParser() *RegexProgressParser {
	return NewRegexProgressParser(ProgressPatterns, DownloadingText)
}

// NewRegexProgressParser creates a parser for custom patterns. Patterns
// that fail to compile or have no capture group are skipped.
func NewRegexProgressParser(patterns []string, text string) *RegexProgressParser {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, re := range compilePatterns(patterns) {
		if re.NumSubexp() >= 1 {
			compiled = append(compiled, re)
		}
	}
	return &RegexProgressParser{patterns: compiled, text: text}
}

// Parse returns {floor(value), text} for the first matching pattern.
// Values above 100 are clamped to 100.
func (p *RegexProgressParser) Parse(line string) (task.Progress, bool) {
	for _, re := range p.patterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return task.Progress{Percent: task.ClampPercent(v), Text: p.text}, true
	}
	return task.Progress{}, false
}

// ProgressFunc adapts a function to the ProgressParser interface.
type ProgressFunc func(line string) (task.Progress, bool)

// Parse calls f(line).
func (f ProgressFunc) Parse(line string) (task.Progress, bool) {
	return f(line)
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

var _ ProgressParser = (*RegexProgressParser)(nil)
