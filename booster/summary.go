package booster

import (
	"strings"
)

// Summary is the human readable outcome of an operation, shown verbatim by the front end.
type Summary struct {
	Headline  string   `json:"headline"`
	Successes []string `json:"successes,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (s *Summary) ok(line string) {
	s.Successes = append(s.Successes, "✓ "+line)
}

func (s *Summary) fail(line string) {
	s.Warnings = append(s.Warnings, "✗ "+line)
}

func (s *Summary) skip(line string) {
	s.Warnings = append(s.Warnings, "⚠ "+line)
}

func (s Summary) Empty() bool {
	return s.Headline == "" && len(s.Successes) == 0 && len(s.Warnings) == 0
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(s.Headline)
	if len(s.Successes) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(s.Successes, "\n"))
	}
	if len(s.Warnings) > 0 {
		b.WriteString("\n\nWarnings:\n")
		b.WriteString(strings.Join(s.Warnings, "\n"))
	}
	return b.String()
}
