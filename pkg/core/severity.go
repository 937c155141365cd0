package core

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Severity is the level classification derived from a line's text.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityTrace
	SeverityDebug
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityTrace:
		return "trace"
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity as its lower-case name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var levelWords = map[string]Severity{
	"trace":     SeverityTrace,
	"debug":     SeverityDebug,
	"info":      SeverityInfo,
	"notice":    SeverityInfo,
	"warn":      SeverityWarn,
	"warning":   SeverityWarn,
	"error":     SeverityError,
	"fatal":     SeverityFatal,
	"panic":     SeverityFatal,
	"critical":  SeverityFatal,
	"emergency": SeverityFatal,
	"alert":     SeverityFatal,
}

// Abbreviations only count when written in upper case.
var levelAbbrevs = map[string]Severity{
	"TRC":   SeverityTrace,
	"DBG":   SeverityDebug,
	"INF":   SeverityInfo,
	"WRN":   SeverityWarn,
	"ERR":   SeverityError,
	"FTL":   SeverityFatal,
	"CRIT":  SeverityFatal,
	"EMERG": SeverityFatal,
}

var jsonLevelKeys = []string{"level", "severity", "lvl", "log.level", "levelname"}

// Classify derives a severity from plain (escape-free) line text.
// JSON lines are classified by their level field; other lines by the
// leftmost level keyword.
func Classify(plain string, isJSON bool) Severity {
	if isJSON {
		if sev, ok := classifyJSON(plain); ok {
			return sev
		}
	}
	for _, tok := range strings.FieldsFunc(plain, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if sev, ok := levelAbbrevs[tok]; ok {
			return sev
		}
		if len(tok) < 4 || len(tok) > 9 {
			continue
		}
		if sev, ok := levelWords[strings.ToLower(tok)]; ok {
			return sev
		}
	}
	return SeverityUnknown
}

// ParseSeverity maps a level name such as "WARNING" or "err" to a Severity.
func ParseSeverity(name string) Severity {
	name = strings.TrimSpace(name)
	if sev, ok := levelAbbrevs[strings.ToUpper(name)]; ok {
		return sev
	}
	if sev, ok := levelWords[strings.ToLower(name)]; ok {
		return sev
	}
	return SeverityUnknown
}

func classifyJSON(s string) (Severity, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return SeverityUnknown, false
	}
	for _, key := range jsonLevelKeys {
		switch v := obj[key].(type) {
		case string:
			if sev := ParseSeverity(v); sev != SeverityUnknown {
				return sev, true
			}
		case float64:
			// pino/bunyan numeric levels
			return numericLevel(int(v)), true
		}
	}
	return SeverityUnknown, false
}

func numericLevel(n int) Severity {
	switch {
	case n >= 60:
		return SeverityFatal
	case n >= 50:
		return SeverityError
	case n >= 40:
		return SeverityWarn
	case n >= 30:
		return SeverityInfo
	case n >= 20:
		return SeverityDebug
	case n >= 10:
		return SeverityTrace
	default:
		return SeverityUnknown
	}
}
