// Package ignore handles // ego-lint-ignore directives.
package ignore

import (
	"sort"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

const (
	nextLinePrefix = "ego-lint-ignore-next-line"
	sameLinePrefix = "ego-lint-ignore"
)

// Scope is the line a directive applies to.
type Scope int

const (
	// SameLine directives target their own line.
	SameLine Scope = iota
	// NextLine directives target the following line.
	NextLine
)

// Entry tracks an ignore directive and its usage.
type Entry struct {
	Line   int      // Line of the directive comment
	Target int      // Line whose findings it suppresses
	Scope  Scope
	Rules  []string // Rule IDs (empty = all)

	used    map[string]bool
	usedAny bool
}

// Map tracks ignore entries of one file by target line.
type Map map[int][]*Entry

// Build scans a file for ignore comments and returns a map.
func Build(f *source.File) Map {
	m := make(Map)
	for _, c := range f.Comments {
		rules, scope, ok := parseComment(c.Text)
		if !ok {
			continue
		}
		e := &Entry{
			Line:   c.Line,
			Target: c.Line,
			Scope:  scope,
			Rules:  rules,
			used:   make(map[string]bool),
		}
		if scope == NextLine {
			e.Target = c.Line + 1
		}
		m[e.Target] = append(m[e.Target], e)
	}
	return m
}

// parseComment parses an ignore directive and returns the rule IDs.
// Returns nil slice if no specific rules are named (ignore all).
// Returns false if not an ignore comment.
func parseComment(text string) ([]string, Scope, bool) {
	if !strings.HasPrefix(text, "//") {
		return nil, SameLine, false
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "//"))

	var rest string
	var scope Scope
	switch {
	case strings.HasPrefix(text, nextLinePrefix):
		rest, scope = strings.TrimPrefix(text, nextLinePrefix), NextLine
	case strings.HasPrefix(text, sameLinePrefix):
		rest, scope = strings.TrimPrefix(text, sameLinePrefix), SameLine
	default:
		return nil, SameLine, false
	}

	// Rule IDs only follow a colon. Without one, the directive covers every
	// rule and only a reason may follow.
	if !strings.HasPrefix(rest, ":") {
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			return nil, SameLine, false // "ego-lint-ignored" and the like
		}
		if reason := strings.TrimSpace(rest); reason != "" && !isReason(reason) {
			return nil, SameLine, false
		}
		return nil, scope, true
	}
	rest = stripReason(strings.TrimPrefix(rest, ":"))
	if rest == "" || isReason(rest) {
		return nil, scope, true
	}

	parts := strings.Split(rest, ",")
	rules := make([]string, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			rules = append(rules, id)
		}
	}
	return rules, scope, true
}

func isReason(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ") || strings.HasPrefix(text, "//")
}

// stripReason cuts a trailing " - reason" or " // comment".
func stripReason(rest string) string {
	if idx := strings.Index(rest, " - "); idx >= 0 {
		rest = rest[:idx]
	}
	if idx := strings.Index(rest, " //"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// ShouldIgnore reports whether a finding of rule id on line is suppressed,
// and marks the matching directives used.
func (m Map) ShouldIgnore(line int, id string) bool {
	if id == rule.UnusedSuppression {
		return false
	}
	ignored := false
	for _, e := range m[line] {
		if e.matches(id) {
			ignored = true
		}
	}
	return ignored
}

func (e *Entry) matches(id string) bool {
	if len(e.Rules) == 0 {
		e.usedAny = true
		return true
	}
	for _, r := range e.Rules {
		if r == id {
			e.used[id] = true
			return true
		}
	}
	return false
}

// Unused is a directive, or the part of one, that suppressed nothing.
type Unused struct {
	Line  int
	Rules []string // Unused rule IDs (empty if the whole ignore-all directive is unused)
}

// Unused returns the directives that were not used, ordered by line.
func (m Map) Unused() []Unused {
	var unused []Unused
	for _, entries := range m {
		for _, e := range entries {
			if len(e.Rules) == 0 {
				if !e.usedAny {
					unused = append(unused, Unused{Line: e.Line})
				}
				continue
			}
			var rules []string
			for _, r := range e.Rules {
				if !e.used[r] {
					rules = append(rules, r)
				}
			}
			if len(rules) > 0 {
				unused = append(unused, Unused{Line: e.Line, Rules: rules})
			}
		}
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i].Line < unused[j].Line })
	return unused
}

// Set holds the ignore maps of every file of a unit.
type Set map[string]Map

// BuildUnit scans every parsed file of u.
func BuildUnit(u *unit.Unit) Set {
	s := make(Set, len(u.Files))
	for _, f := range u.Files {
		if m := Build(f); len(m) > 0 {
			s[f.Name] = m
		}
	}
	return s
}

// Apply splits findings of the map's file into kept and suppressed ones.
// Suppressed findings are returned with Suppressed set.
func (m Map) Apply(findings []rule.Finding) (kept, suppressed []rule.Finding) {
	for _, f := range findings {
		if m.ShouldIgnore(f.Line, f.RuleID) {
			f.Suppressed = true
			suppressed = append(suppressed, f)
			continue
		}
		kept = append(kept, f)
	}
	return kept, suppressed
}

// Apply is Map.Apply with each finding routed to the map of its file.
func (s Set) Apply(findings []rule.Finding) (kept, suppressed []rule.Finding) {
	for _, f := range findings {
		k, sup := s[f.File].Apply([]rule.Finding{f})
		kept = append(kept, k...)
		suppressed = append(suppressed, sup...)
	}
	return kept, suppressed
}

// Findings reports every unused directive of the set as an
// UNUSED_SUPPRESSION finding. Rule IDs in disabled never fired, so they
// are not reported. Call it after Apply.
func (s Set) Findings(cat *rule.Catalog, unitName string, disabled map[string]bool) []rule.Finding {
	files := make([]string, 0, len(s))
	for name := range s {
		files = append(files, name)
	}
	sort.Strings(files)

	var out []rule.Finding
	for _, name := range files {
		for _, u := range s[name].Unused() {
			detail := "for all rules"
			if len(u.Rules) > 0 {
				var ids []string
				for _, id := range u.Rules {
					if !disabled[id] {
						ids = append(ids, id)
					}
				}
				if len(ids) == 0 {
					continue
				}
				detail = strings.Join(ids, ",")
			}
			out = append(out, cat.New(rule.UnusedSuppression, unitName, name, u.Line, rule.Data{Detail: detail}))
		}
	}
	return out
}
