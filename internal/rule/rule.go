// Package rule defines rule definitions, findings and the per-rule
// evaluation pass.
package rule

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// Severity is one of the three finding tiers.
type Severity string

const (
	Blocking      Severity = "blocking"
	Advisory      Severity = "advisory"
	Informational Severity = "informational"
)

// Rank orders severities: lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case Blocking:
		return 0
	case Advisory:
		return 1
	}
	return 2
}

// Engine-generated rule IDs.
const (
	FatalParse          = "FATAL_PARSE"
	UnusedSuppression   = "UNUSED_SUPPRESSION"
	UnsupportedBelowMin = "UNSUPPORTED_BELOW_MIN"
	RemovedAboveMax     = "REMOVED_ABOVE_MAX"
	InternalError       = "INTERNAL_ERROR"
)

// Definition is one catalog entry. Message is a text/template rendered
// with [Data].
type Definition struct {
	ID       string         `yaml:"id" json:"id"`
	Category string         `yaml:"category" json:"category"`
	Severity Severity       `yaml:"severity" json:"severity"`
	Title    string         `yaml:"title" json:"title"`
	Message  string         `yaml:"message" json:"message"`
	Params   map[string]int `yaml:"params,omitempty" json:"params,omitempty"`

	tmpl *template.Template
}

// Param returns a numeric parameter, or def when unset.
func (d *Definition) Param(name string, def int) int {
	if v, ok := d.Params[name]; ok {
		return v
	}
	return def
}

// Data is the template input of a finding message.
type Data struct {
	Symbol    string
	Call      string
	File      string
	Line      int
	Count     int
	Threshold int
	Detail    string
}

// Render renders the message template. A template error falls back to the
// title so a finding is never lost.
func (d *Definition) Render(data Data) string {
	if d.tmpl == nil {
		return d.Title
	}
	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, data); err != nil {
		return d.Title
	}
	return buf.String()
}

func (d *Definition) compile() error {
	t, err := template.New(d.ID).Option("missingkey=zero").Parse(d.Message)
	if err != nil {
		return fmt.Errorf("rule %s: message template: %w", d.ID, err)
	}
	d.tmpl = t
	return nil
}

// Finding is one reported rule violation.
type Finding struct {
	RuleID     string   `json:"rule"`
	Severity   Severity `json:"severity"`
	File       string   `json:"file"`
	Line       int      `json:"line"`
	EndLine    int      `json:"end_line,omitempty"`
	Message    string   `json:"message"`
	Suppressed bool     `json:"suppressed"`
	Unit       string   `json:"unit,omitempty"`
}

// Matcher evaluates one rule against a unit.
type Matcher interface {
	Check(p *Pass) error
}

// MatcherFunc adapts a function to [Matcher].
type MatcherFunc func(p *Pass) error

// Check calls f(p).
func (f MatcherFunc) Check(p *Pass) error {
	return f(p)
}

// Pass is the input of one matcher run. Matchers only read Unit and
// Graph; findings go through Reportf.
type Pass struct {
	Unit  *unit.Unit
	Graph *lifecycle.Graph
	Rule  *Definition

	findings []Finding
}

// NewPass returns a pass for one rule.
func NewPass(u *unit.Unit, g *lifecycle.Graph, def *Definition) *Pass {
	return &Pass{Unit: u, Graph: g, Rule: def}
}

// Reportf records a finding at file:line with the rule's rendered
// message. File and Line are filled into data.
func (p *Pass) Reportf(file string, line int, data Data) {
	data.File, data.Line = file, line
	if data.Threshold == 0 {
		data.Threshold = p.Rule.Param("threshold", 0)
	}
	p.findings = append(p.findings, Finding{
		RuleID:   p.Rule.ID,
		Severity: p.Rule.Severity,
		File:     file,
		Line:     line,
		Message:  p.Rule.Render(data),
		Unit:     p.Unit.Name,
	})
}

// Findings returns what the pass reported so far.
func (p *Pass) Findings() []Finding {
	return p.findings
}
