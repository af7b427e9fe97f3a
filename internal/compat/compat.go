// Package compat cross-references the shell APIs a unit uses with the
// GNOME versions it declares in metadata.json.
package compat

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/version"
)

//go:embed versions.yaml
var versionsYAML []byte

// Range is the span of shell versions providing a symbol. Empty bounds
// are open.
type Range struct {
	Symbol string `yaml:"symbol"`
	Min    string `yaml:"min"`
	Max    string `yaml:"max"`
	Note   string `yaml:"note"`
}

// Matches reports whether a member path or constructor names the symbol.
func (r Range) Matches(path string) bool {
	if method, ok := strings.CutPrefix(r.Symbol, "*."); ok {
		return path == method || strings.HasSuffix(path, "."+method)
	}
	return path == r.Symbol
}

// Table is the set of known availability ranges.
type Table []Range

// Load parses a YAML range table.
func Load(data []byte) (Table, error) {
	var doc struct {
		Ranges Table `yaml:"ranges"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("compat table: %w", err)
	}
	for _, r := range doc.Ranges {
		if r.Symbol == "" {
			return nil, fmt.Errorf("compat table: range without symbol")
		}
		for _, b := range []string{r.Min, r.Max} {
			if b != "" && !version.Valid(b) {
				return nil, fmt.Errorf("compat table: %s: invalid version %q", r.Symbol, b)
			}
		}
	}
	return doc.Ranges, nil
}

var (
	defaultOnce  sync.Once
	defaultTable Table
)

// Default returns the embedded table.
func Default() Table {
	defaultOnce.Do(func() {
		t, err := Load(versionsYAML)
		if err != nil {
			panic(err)
		}
		defaultTable = t
	})
	return defaultTable
}

// Compare orders two shell versions numerically.
func Compare(a, b string) int {
	return version.Compare(a, b)
}

// Checker matches unit symbols against a table.
type Checker struct {
	table Table
	cat   *rule.Catalog
}

// New creates a new compatibility checker.
func New(table Table, cat *rule.Catalog) *Checker {
	return &Checker{table: table, cat: cat}
}

// Check is New(table, rule.Default()).Check(u).
func Check(u *unit.Unit, table Table) []rule.Finding {
	return New(table, rule.Default()).Check(u)
}

// Check reports every reference to a symbol outside the declared
// shell-version range. Units without a declared range are skipped.
func (c *Checker) Check(u *unit.Unit) []rule.Finding {
	lo, hi, ok := u.Metadata.VersionRange()
	if !u.HasMetadata || !ok {
		return nil
	}

	var out []rule.Finding
	for _, f := range u.Files {
		type at struct {
			symbol string
			line   int
		}
		seen := make(map[at]bool)
		check := func(path string, line int) {
			for _, r := range c.table {
				if !r.Matches(path) || seen[at{r.Symbol, line}] {
					continue
				}
				seen[at{r.Symbol, line}] = true
				if r.Min != "" && Compare(lo, r.Min) < 0 {
					out = append(out, c.cat.New(rule.UnsupportedBelowMin, u.Name, f.Name, line,
						rule.Data{Symbol: path, Detail: r.Min, Call: lo}))
				}
				if r.Max != "" && Compare(hi, r.Max) > 0 {
					out = append(out, c.cat.New(rule.RemovedAboveMax, u.Name, f.Name, line,
						rule.Data{Symbol: path, Detail: r.Max, Call: hi}))
				}
			}
		}
		for _, m := range f.Symbols.Members {
			check(m.Path, m.Line)
		}
		for _, call := range f.Symbols.Calls {
			if call.IsNew {
				check(call.Callee, call.Line)
			}
		}
	}
	return out
}
