// Package quality checks code-quality signals reviewers ask about: defensive
// try/catch, teardown flags, mock code, constructor side effects, private
// shell API and undisclosed clipboard access.
package quality

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// teardownFlags are the fields hand-rolled teardown coordination uses.
var teardownFlags = map[string]bool{
	"_destroyed":      true,
	"_pendingDestroy": true,
	"_initializing":   true,
}

var mockSwitch = regexp.MustCompile(`(?i)use_mock|mock_trigger|MOCK_MODE|\.mock\b`)

// Checker checks quality rules.
type Checker struct{}

// New creates a new quality checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the quality rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-QUAL-01", c.tryDensity)
	reg.RegisterFunc("R-QUAL-03", c.pendulum)
	reg.RegisterFunc("R-QUAL-06", c.flagDensity)
	reg.RegisterFunc("R-QUAL-07", c.mocks)
	reg.RegisterFunc("R-QUAL-08", c.constructorResources)
	reg.RegisterFunc("R-QUAL-15", c.privateAPI)
	reg.RegisterFunc("R-QUAL-18", c.destroyGuards)
	reg.RegisterFunc("R-QUAL-22", c.clipboard)
}

func isDefinition(n *source.Node) bool {
	return n.Is("function_declaration", "generator_function_declaration", "method_definition",
		"function_expression", "function")
}

// tryDensity reports a unit where try blocks outnumber half its named
// functions, and every try/catch wrapped around a lone destroy() call.
func (*Checker) tryDensity(p *rule.Pass) error {
	least := p.Rule.Param("min", 3)
	tries, funcs := 0, 0
	var first struct {
		file string
		line int
	}
	for _, f := range p.Unit.Files {
		n := 0
		source.Walk(f.Root, func(node *source.Node) bool {
			switch {
			case isDefinition(node):
				n++
			case node.Kind == "try_statement":
				tries++
				if first.file == "" {
					first.file, first.line = f.Name, node.StartLine
				}
				if wrapsDestroy(f, node) {
					p.Reportf(f.Name, node.StartLine, rule.Data{Detail: "try/catch around a single destroy() call is usually unnecessary"})
				}
			}
			return true
		})
		funcs += max(n, 1)
	}
	if tries >= least && 2*tries > funcs {
		p.Reportf(first.file, first.line, rule.Data{
			Count:  tries,
			Detail: fmt.Sprintf("%d try blocks across %d functions; review each for necessity", tries, funcs),
		})
	}
	return nil
}

func wrapsDestroy(f *source.File, try *source.Node) bool {
	if try.Field("handler") == nil {
		return false
	}
	body := try.Field("body")
	if body == nil || len(body.Children) != 1 || body.Children[0].Kind != "expression_statement" {
		return false
	}
	stmt := body.Children[0]
	if len(stmt.Children) != 1 {
		return false
	}
	c := f.Symbols.CallAt(source.Unwrap(stmt.Children[0]))
	return c != nil && c.Name() == "destroy"
}

// flagMembers calls fn for every member access to one of the teardown
// flags.
func flagMembers(p *rule.Pass, fn func(f *source.File, m source.Member, name string)) {
	for _, f := range p.Unit.Files {
		for _, m := range f.Symbols.Members {
			if _, name := source.SplitPath(m.Path); teardownFlags[name] {
				fn(f, m, name)
			}
		}
	}
}

func (*Checker) pendulum(p *rule.Pass) error {
	var file string
	line := 0
	initializing := false
	flagMembers(p, func(f *source.File, m source.Member, name string) {
		switch name {
		case "_pendingDestroy":
			if file == "" {
				file, line = f.Name, m.Line
			}
		case "_initializing":
			initializing = true
		}
	})
	if file != "" && initializing {
		p.Reportf(file, line, rule.Data{Symbol: "_pendingDestroy", Detail: "_initializing"})
	}
	return nil
}

func nonBlank(f *source.File) int {
	n := 0
	for i := 1; i <= f.Lines(); i++ {
		if strings.TrimSpace(f.Line(i)) != "" {
			n++
		}
	}
	return n
}

// flagDensity reports teardown flags that show up in more than per_mille
// of the unit's non-blank lines, once there are at least count of them.
func (*Checker) flagDensity(p *rule.Pass) error {
	least := p.Rule.Param("count", 10)
	perMille := p.Rule.Param("per_mille", 20)

	lines := 0
	for _, f := range p.Unit.Files {
		lines += nonBlank(f)
	}
	count := 0
	var file string
	line := 0
	flagMembers(p, func(f *source.File, m source.Member, _ string) {
		count++
		if file == "" {
			file, line = f.Name, m.Line
		}
	})
	if count >= least && count*1000 > perMille*lines {
		p.Reportf(file, line, rule.Data{Count: count, Detail: fmt.Sprintf("%d non-blank lines", lines)})
	}
	return nil
}

func mockFile(name string) bool {
	base := strings.ToLower(path.Base(name))
	return strings.HasPrefix(base, "mock") || strings.HasPrefix(base, "test") || strings.HasPrefix(base, "spec") ||
		strings.HasSuffix(base, ".test.js") || strings.HasSuffix(base, ".spec.js")
}

func (*Checker) mocks(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		if mockFile(f.Name) {
			p.Reportf(f.Name, 1, rule.Data{Detail: "mock or test file " + f.Name})
		}
		for i := 1; i <= f.Lines(); i++ {
			if m := mockSwitch.FindString(f.Line(i)); m != "" {
				p.Reportf(f.Name, i, rule.Data{Detail: "runtime mock switch " + strings.TrimPrefix(m, ".")})
			}
		}
	}
	return nil
}
