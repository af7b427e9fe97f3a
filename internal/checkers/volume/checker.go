// Package volume checks logging, notification and defensive-code volume.
package volume

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

var (
	logging = map[string]bool{
		"console.debug": true,
		"console.info":  true,
		"console.warn":  true,
		"console.error": true,
		"log":           true,
		"logError":      true,
	}
	notifications = map[string]bool{"Main.notify": true, "Main.notifyError": true}
	debugs        = map[string]bool{"console.debug": true}
)

// Checker checks volume and code-quality rules.
type Checker struct{}

// New creates a new volume checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the volume rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-LOG-01", c.consoleLog)
	reg.RegisterFunc("R-QUAL-05", c.emptyCatch)
	reg.RegisterFunc("R-QUAL-13", c.volume(debugs, 15))
	reg.RegisterFunc("R-QUAL-14", c.volume(notifications, 3))
	reg.RegisterFunc("R-QUAL-17", c.volume(logging, 30))
	reg.RegisterFunc("R-QUAL-21", c.runDispose)
	reg.RegisterFunc("R-QUAL-23", c.nullChecks)
}

func (*Checker) consoleLog(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if c.Callee == "console.log" {
				p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
			}
		}
	}
	return nil
}

// volume counts calls to callees across the unit and reports once, at
// the first call past the threshold.
func (*Checker) volume(callees map[string]bool, def int) func(*rule.Pass) error {
	return func(p *rule.Pass) error {
		limit := p.Rule.Param("threshold", def)
		count := 0
		var file string
		line := 0
		for _, f := range p.Unit.Files {
			for _, c := range f.Symbols.Calls {
				if c.IsNew || !callees[c.Callee] {
					continue
				}
				count++
				if count == limit+1 {
					file, line = f.Name, c.Line
				}
			}
		}
		if count > limit {
			p.Reportf(file, line, rule.Data{Count: count, Threshold: limit})
		}
		return nil
	}
}

func (*Checker) emptyCatch(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		source.Walk(f.Root, func(n *source.Node) bool {
			if n.Kind != "catch_clause" {
				return true
			}
			body := n.Field("body")
			if body != nil && len(body.Children) == 0 && !hasComment(body) {
				p.Reportf(f.Name, n.StartLine, rule.Data{})
			}
			return true
		})
	}
	return nil
}

// hasComment reports whether an empty block holds a comment. Comments are
// not children, so the block text is all that is left of them.
func hasComment(block *source.Node) bool {
	t := block.Text()
	return strings.Contains(t, "//") || strings.Contains(t, "/*")
}

func (*Checker) runDispose(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if c.Name() != "run_dispose" {
				continue
			}
			if len(f.CommentOn(c.Line)) > 0 || ownLineComment(f, c.Line-1) {
				continue
			}
			p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
		}
	}
	return nil
}

func ownLineComment(f *source.File, line int) bool {
	for _, c := range f.CommentOn(line) {
		if !c.Trailing {
			return true
		}
	}
	return false
}
