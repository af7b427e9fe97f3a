package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

var (
	severityStyles = map[rule.Severity]lipgloss.Style{
		rule.Blocking:      lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		rule.Advisory:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		rule.Informational: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
	verdictStyles = map[Verdict]lipgloss.Style{
		Pass:       lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("28")).Bold(true).Padding(0, 1),
		Fail:       lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("160")).Bold(true).Padding(0, 1),
		Incomplete: lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(true).Padding(0, 1),
	}
	locationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteText writes one line per finding followed by a summary. Styles are
// applied only when color is set. The message's own file:line prefix is
// dropped since the line already starts with the location.
func WriteText(w io.Writer, r *Report, color bool) error {
	render := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	for _, f := range r.Findings {
		fmt.Fprintf(&b, "%s %s %s %s\n",
			render(locationStyle, location(f)),
			render(severityStyles[f.Severity], fmt.Sprintf("[%s]", f.Severity)),
			f.RuleID,
			strings.TrimPrefix(f.Message, fmt.Sprintf("%s:%d: ", f.File, f.Line)))
	}
	for _, u := range r.Units {
		if !u.Complete {
			fmt.Fprintf(&b, "%s\n", render(dimStyle, u.Name+": not analyzed"))
		}
	}
	if len(r.Suppressed) > 0 {
		fmt.Fprintf(&b, "%s\n", render(dimStyle, fmt.Sprintf("%d finding(s) suppressed", len(r.Suppressed))))
	}
	fmt.Fprintf(&b, "%s %d blocking, %d advisory, %d informational in %d unit(s)\n",
		render(verdictStyles[r.Verdict], string(r.Verdict)),
		r.Counts[rule.Blocking], r.Counts[rule.Advisory], r.Counts[rule.Informational],
		len(r.Units))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func location(f rule.Finding) string {
	loc := fmt.Sprintf("%s:%d", f.File, f.Line)
	if f.Unit != "" {
		loc = f.Unit + "/" + loc
	}
	return loc
}
