package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

// LogLine is one ingested line. It is immutable once appended.
type LogLine struct {
	Seq       int       `json:"seq"`
	Source    string    `json:"source"`
	Raw       string    `json:"raw"`
	Severity  Severity  `json:"severity"`
	HasANSI   bool      `json:"has_ansi"`
	IsJSON    bool      `json:"is_json"`
	ArrivedAt time.Time `json:"arrived_at"`
}

// NewLogLine builds a LogLine, computing its derived attributes once.
func NewLogLine(seq int, source, raw string, at time.Time) LogLine {
	plain := raw
	hasANSI := strings.IndexByte(raw, '\x1b') >= 0
	if hasANSI {
		plain = ansi.Strip(raw)
	}
	isJSON := looksLikeJSON(plain)
	return LogLine{
		Seq:       seq,
		Source:    source,
		Raw:       raw,
		Severity:  Classify(plain, isJSON),
		HasANSI:   hasANSI,
		IsJSON:    isJSON,
		ArrivedAt: at,
	}
}

// Plain returns the line text with escape sequences removed.
func (l LogLine) Plain() string {
	if !l.HasANSI {
		return l.Raw
	}
	return ansi.Strip(l.Raw)
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	if !(s[0] == '{' && s[len(s)-1] == '}') && !(s[0] == '[' && s[len(s)-1] == ']') {
		return false
	}
	return json.Valid([]byte(s))
}
