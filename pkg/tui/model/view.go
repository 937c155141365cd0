package model

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/modoterra/bark/pkg/core"
	"github.com/modoterra/bark/pkg/render"
	"github.com/modoterra/bark/pkg/session"
)

const sideWidth = 28

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	modeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("220"))

	statusStreaming = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusEnded     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	sideStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("240"))

	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI.
func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "loading..."
	}

	h := a.logHeight()
	w := a.width
	var side string
	if a.sidePanel {
		side = sideStyle.Height(h).Render(a.renderSide(h))
		w -= lipgloss.Width(side)
	}

	var main string
	if a.showHelp {
		main = a.renderHelp(w, h)
	} else {
		main = strings.Join(a.renderLogs(w, h), "\n")
	}
	body := main
	if side != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, main)
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, a.renderStatusBar(), a.renderBottomLine())
}

// renderLogs returns exactly h lines.
func (a App) renderLogs(w, h int) []string {
	filtered, total := a.sess.Counts()
	switch {
	case total == 0:
		return pad([]string{dimStyle.Render("Waiting for log lines...")}, h)
	case filtered == 0:
		return pad([]string{dimStyle.Render("No lines match the current filter")}, h)
	}

	multi := len(a.sess.Sources()) > 1
	var out []string
	for _, r := range a.sess.Rows() {
		prefix, pw := a.rowPrefix(r, multi)
		textW := max(1, w-pw)
		indent := strings.Repeat(" ", pw)

		base := lipgloss.NewStyle()
		if a.levelColors {
			base = render.LevelStyle(r.Severity)
		}

		if a.jsonPretty && r.IsJSON {
			raw := r.Raw
			if r.HasANSI {
				raw = ansi.Strip(raw)
			}
			if lines, ok := render.PrettyJSON(raw, a.levelColors); ok {
				for i, l := range lines {
					lead := indent
					if i == 0 {
						lead = prefix
					}
					out = append(out, lead+ansi.Truncate(l, textW, "…"))
				}
				continue
			}
		}

		chunks := []render.Chunk{render.Fit(r.Text, r.Matches, textW)}
		if a.sess.View().Wrap() {
			chunks = render.Split(r.Text, r.Matches, textW)
		}
		for i, c := range chunks {
			lead := indent
			if i == 0 {
				lead = prefix
			}
			out = append(out, lead+render.Highlight(c, base, matchStyle))
		}
	}

	// Multi-row lines can overflow; keep the end in view while following.
	if len(out) > h {
		if a.sess.View().Following() {
			out = out[len(out)-h:]
		} else {
			out = out[:h]
		}
	}
	return pad(out, h)
}

// rowPrefix renders the bookmark marker, time label and source name. It
// returns the rendered prefix and its width in cells.
func (a App) rowPrefix(r session.Row, multi bool) (string, int) {
	var b strings.Builder
	width := 0

	switch {
	case r.Bookmarked:
		b.WriteString(markStyle.Render("▌"))
	case r.Current && !a.sess.View().Following():
		b.WriteString(dimStyle.Render("›"))
	default:
		b.WriteString(" ")
	}
	width++

	if a.relativeTime {
		label := render.Pad(render.Truncate(render.TimeLabel(r.ArrivedAt, a.now(), true), 16), 16) + " "
		b.WriteString(dimStyle.Render(label))
		width += runewidth.StringWidth(label)
	}

	if multi {
		label := render.Pad(render.Truncate(r.Source, 14), 14) + " "
		b.WriteString(sourceStyle.Render(label))
		width += runewidth.StringWidth(label)
	}

	return b.String(), width
}

func (a App) renderSide(h int) string {
	w := sideWidth - 1
	var lines []string

	title := func(name string, pane Pane) string {
		if a.activePane == pane {
			return titleStyle.Render(name)
		}
		return dimStyle.Render(name)
	}

	lines = append(lines, title("Sources", PaneSources))
	for i, st := range a.sess.Sources() {
		count := render.Count(st.Lines)
		nameW := max(1, w-3-runewidth.StringWidth(count))
		line := fmt.Sprintf("%s %s %s", statusIndicator(st.Status), render.Pad(render.Truncate(st.Name, nameW), nameW), dimStyle.Render(count))
		if a.activePane == PaneSources && i == a.sourceIdx {
			line = selectedStyle.Render(ansi.Strip(line))
		}
		lines = append(lines, line)
		if st.Status == core.StatusFailed && st.LastError != "" {
			lines = append(lines, "  "+statusFailed.Render(render.Truncate(st.LastError, w-2)))
		}
	}

	lines = append(lines, "", title("Filters", PaneFilters))
	saved := a.sess.Saved()
	if len(saved) == 0 {
		lines = append(lines, dimStyle.Render("  (none, press s)"))
	}
	active := a.sess.ActivePattern()
	for i, sf := range saved {
		marker := "  "
		if active != "" && sf.Pattern == active && sf.IsRegex == a.sess.Regex() {
			marker = "● "
		}
		line := marker + render.Truncate(sf.Name, w-2)
		if a.activePane == PaneFilters && i == a.filterIdx {
			line = selectedStyle.Render(render.Pad(line, w))
		}
		lines = append(lines, line)
	}

	if len(lines) > h {
		lines = lines[:h]
	}
	return lipgloss.NewStyle().Width(w).Render(strings.Join(lines, "\n"))
}

func (a App) renderHelp(w, h int) string {
	groups := a.keys.FullHelp()
	hm := a.help
	hm.Width = max(0, w-4)
	content := titleStyle.Render("Keys") + "\n\n" +
		hm.FullHelpView(groups[:3]) + "\n\n" + hm.FullHelpView(groups[3:])
	box := helpBoxStyle.MaxWidth(w).Render(content)
	return lipgloss.NewStyle().MaxHeight(h).Render(lipgloss.Place(w, h, lipgloss.Center, lipgloss.Top, box))
}

func (a App) renderStatusBar() string {
	filtered, total := a.sess.Counts()
	v := a.sess.View()

	left := modeStyle.Render(" "+a.mode.String()+" ") + " " +
		fmt.Sprintf("%s/%s lines", render.Count(filtered), render.Count(total))

	var flags []string
	flag := func(on bool, label string) {
		if on {
			flags = append(flags, label)
		}
	}
	flag(v.Following(), "[F]")
	flag(a.sess.Regex(), "[.*]")
	flag(v.Wrap(), "[W]")
	flag(a.levelColors, "[C]")
	flag(a.relativeTime, "[T]")
	flag(a.jsonPretty, "[J]")
	if hs := v.EffectiveHScroll(); hs > 0 {
		flags = append(flags, fmt.Sprintf("[+%d]", hs))
	}
	if len(flags) > 0 {
		left += " " + strings.Join(flags, "")
	}

	if p := a.sess.ActivePattern(); p != "" {
		label := " filter: " + p
		if a.sess.Degraded() {
			label += " (literal)"
		}
		left += titleStyle.Render(label)
	}
	if _, _, pending := a.sess.Index().Pending(); pending {
		left += dimStyle.Render(" …")
	}

	right := a.help.ShortHelpView(a.keys.ShortHelp())
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return ansi.Truncate(left, a.width, "…")
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a App) renderBottomLine() string {
	switch a.mode {
	case ModeFilter:
		return a.filter.View()
	case ModeSave:
		if a.form != nil {
			return a.form.View()
		}
	}
	msg := a.sess.Status()
	if strings.HasPrefix(msg, "Error: ") || strings.Contains(msg, ": Error: ") {
		return statusFailed.Render(render.Truncate(msg, a.width))
	}
	return helpStyle.Render(render.Truncate(msg, a.width))
}

func statusIndicator(status core.Status) string {
	switch status {
	case core.StatusStreaming:
		return statusStreaming.Render("●")
	case core.StatusFailed:
		return statusFailed.Render("✖")
	case core.StatusEnded:
		return statusEnded.Render("○")
	default:
		return dimStyle.Render("?")
	}
}

func pad(lines []string, h int) []string {
	for len(lines) < h {
		lines = append(lines, "")
	}
	return lines
}
