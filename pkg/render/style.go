package render

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/TylerBrock/colorjson"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/modoterra/bark/pkg/core"
)

var levelStyles = map[core.Severity]lipgloss.Style{
	core.SeverityTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	core.SeverityDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	core.SeverityInfo:  lipgloss.NewStyle(),
	core.SeverityWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	core.SeverityError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	core.SeverityFatal: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

// LevelStyle returns the text style for a severity.
func LevelStyle(sev core.Severity) lipgloss.Style {
	if s, ok := levelStyles[sev]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// TimeLabel formats an arrival time, either as a clock time or relative
// to now ("5 minutes ago").
func TimeLabel(at, now time.Time, relative bool) string {
	if relative {
		return humanize.RelTime(at, now, "ago", "from now")
	}
	return at.Format("15:04:05")
}

// Count formats a line count with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// PrettyJSON indents a JSON document, one output line per element. It
// reports false when s is not valid JSON.
func PrettyJSON(s string, color bool) ([]string, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	f := colorjson.NewFormatter()
	f.Indent = 2
	f.DisabledColor = !color
	out, err := f.Marshal(v)
	if err != nil {
		return nil, false
	}
	return strings.Split(string(out), "\n"), true
}
