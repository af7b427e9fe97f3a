// Package report merges unit results into a run report and renders it.
package report

import (
	"sort"

	"github.com/google/uuid"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

// Verdict is the outcome of a run.
type Verdict string

const (
	Pass       Verdict = "PASS"
	Fail       Verdict = "FAIL"
	Incomplete Verdict = "INCOMPLETE"
)

// Exit codes.
const (
	ExitPass       = 0
	ExitFail       = 1
	ExitFatalParse = 2
	ExitIncomplete = 3
)

// UnitResult is the complete outcome of one unit. A unit that was never
// analyzed has Complete unset and no findings.
type UnitResult struct {
	Name       string
	Files      int
	Complete   bool
	FatalEntry bool
	Findings   []rule.Finding
	Suppressed []rule.Finding
}

// UnitSummary is the per-unit line of a report.
type UnitSummary struct {
	Name       string  `json:"name"`
	Files      int     `json:"files"`
	Complete   bool    `json:"complete"`
	FatalEntry bool    `json:"fatal_entry,omitempty"`
	Verdict    Verdict `json:"verdict"`
	Findings   int     `json:"findings"`
	Suppressed int     `json:"suppressed"`
}

// Report is the result of a run.
type Report struct {
	RunID      string                `json:"run_id"`
	Verdict    Verdict               `json:"verdict"`
	Counts     map[rule.Severity]int `json:"counts"`
	Units      []UnitSummary         `json:"units"`
	Findings   []rule.Finding        `json:"findings"`
	Suppressed []rule.Finding        `json:"suppressed"`
}

// Aggregate merges unit results into one report.
func Aggregate(results []UnitResult) *Report {
	r := &Report{
		RunID:      uuid.NewString(),
		Counts:     map[rule.Severity]int{rule.Blocking: 0, rule.Advisory: 0, rule.Informational: 0},
		Findings:   []rule.Finding{},
		Suppressed: []rule.Finding{},
	}
	for _, res := range results {
		r.Units = append(r.Units, UnitSummary{
			Name:       res.Name,
			Files:      res.Files,
			Complete:   res.Complete,
			FatalEntry: res.FatalEntry,
			Verdict:    res.Verdict(),
			Findings:   len(res.Findings),
			Suppressed: len(res.Suppressed),
		})
		r.Findings = append(r.Findings, res.Findings...)
		r.Suppressed = append(r.Suppressed, res.Suppressed...)
	}
	for _, f := range r.Findings {
		r.Counts[f.Severity]++
	}
	sort.Slice(r.Units, func(i, j int) bool { return r.Units[i].Name < r.Units[j].Name })
	Sort(r.Findings)
	Sort(r.Suppressed)

	r.Verdict = Pass
	for _, u := range r.Units {
		switch {
		case !u.Complete:
			r.Verdict = Incomplete
		case u.Verdict == Fail && r.Verdict == Pass:
			r.Verdict = Fail
		}
	}
	return r
}

// Verdict returns the verdict of this unit alone.
func (res UnitResult) Verdict() Verdict {
	if !res.Complete {
		return Incomplete
	}
	for _, f := range res.Findings {
		if f.Severity == rule.Blocking && !f.Suppressed {
			return Fail
		}
	}
	return Pass
}

// Sort orders findings by severity, then unit, file, line and rule ID.
func Sort(fs []rule.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra < rb
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.RuleID < b.RuleID
	})
}

// ExitCode maps a report to the process exit status. A unit whose entry
// module did not parse outranks ordinary failures.
func ExitCode(r *Report) int {
	if r.Verdict == Incomplete {
		return ExitIncomplete
	}
	for _, u := range r.Units {
		if u.FatalEntry {
			return ExitFatalParse
		}
	}
	if r.Verdict == Fail {
		return ExitFail
	}
	return ExitPass
}
