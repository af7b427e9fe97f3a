// Package lifecycle checks the structure of the extension class: its
// enable()/disable() pair, timer callbacks and the shape of disable().
package lifecycle

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// Checker checks lifecycle structure rules.
type Checker struct{}

// New creates a new lifecycle structure checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the structure rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-LIFE-03", c.missingMethods)
	reg.RegisterFunc("R-LIFE-04", c.manualDisconnects)
	reg.RegisterFunc("R-FILE-07", c.noDefaultClass)
	reg.RegisterFunc("R-LIFE-05", c.timerReturn)
	reg.RegisterFunc("R-LIFE-09", c.unlockDialog)
	reg.RegisterFunc("R-LIFE-17", c.oneShot)
	reg.RegisterFunc("R-LIFE-18", c.earlyReturn)
	reg.RegisterFunc("R-META-01", c.metadata)
}

func (*Checker) missingMethods(p *rule.Pass) error {
	if p.Graph == nil || p.Graph.Extension == nil {
		return nil
	}
	ext := p.Graph.Extension
	for _, name := range []string{"enable", "disable"} {
		if ext.Method(name) == nil {
			p.Reportf(unit.EntryFile, ext.Line, rule.Data{Symbol: ext.Name, Detail: name})
		}
	}
	return nil
}

func (*Checker) manualDisconnects(p *rule.Pass) error {
	limit := p.Rule.Param("threshold", 5)
	count := 0
	var at *source.Call
	var file string
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if c.Name() != "disconnect" || len(c.Args) != 1 {
				continue
			}
			count++
			if count == limit+1 {
				at, file = c, f.Name
			}
		}
	}
	if at != nil {
		p.Reportf(file, at.Line, rule.Data{Count: count})
	}
	return nil
}

func (*Checker) noDefaultClass(p *rule.Pass) error {
	entry := p.Unit.Entry()
	if entry == nil || entry.Symbols.DefaultClass() != nil {
		return nil
	}
	p.Reportf(entry.Name, 1, rule.Data{})
	return nil
}

// timerReturn flags repeating GLib timers whose callback block never
// returns a value; the source then repeats or stops by accident.
func (*Checker) timerReturn(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if !isGLibTimer(c.Callee) || strings.HasSuffix(c.Name(), "_once") {
				continue
			}
			cb := c.Arg(len(c.Args) - 1)
			if cb == nil || !cb.Is("arrow_function", "function", "function_expression") {
				continue
			}
			body := cb.Field("body")
			if body == nil || body.Kind != "statement_block" || returnsValue(body) {
				continue
			}
			p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
		}
	}
	return nil
}

func isGLibTimer(callee string) bool {
	for _, prefix := range []string{"GLib.timeout_add", "GLib.idle_add", "Mainloop.timeout_add", "Mainloop.idle_add"} {
		if strings.HasPrefix(callee, prefix) {
			return true
		}
	}
	return false
}

func returnsValue(body *source.Node) bool {
	found := false
	source.Walk(body, func(n *source.Node) bool {
		if found || source.IsFunction(n) {
			return false
		}
		if n.Kind == "return_statement" && len(n.Children) > 0 {
			found = true
		}
		return !found
	})
	return found
}

func (*Checker) unlockDialog(p *rule.Pass) error {
	md := p.Unit.Metadata
	if !p.Unit.HasMetadata || !md.HasSessionMode("unlock-dialog") {
		return nil
	}
	if p.Graph == nil || p.Graph.Extension == nil || p.Graph.Extension.Method("disable") != nil {
		return nil
	}
	p.Reportf(unit.MetadataFile, md.KeyLine("session-modes"), rule.Data{})
	return nil
}

func (*Checker) oneShot(p *rule.Pass) error {
	if p.Graph == nil {
		return nil
	}
	for _, h := range p.Graph.HandlesOf(lifecycle.KindTimer) {
		if h.Exempt == lifecycle.ExemptOneShot && !h.Released {
			p.Reportf(h.Acquire.File, h.Acquire.Line, rule.Data{Symbol: h.Symbol, Call: h.Callee})
		}
	}
	return nil
}

// earlyReturn flags a disable() whose first statement leaves the method
// before the cleanup that follows it. A guard testing a field that the
// rest of the method uses is a self-guard and is fine.
func (*Checker) earlyReturn(p *rule.Pass) error {
	if p.Graph == nil {
		return nil
	}
	for _, m := range p.Graph.MethodsWithRole(lifecycle.RoleDeactivation) {
		body := m.Node.Field("body")
		if body == nil || len(body.Children) == 0 {
			continue
		}
		first, rest := body.Children[0], body.Children[1:]
		switch {
		case first.Kind == "return_statement":
		case first.Kind == "if_statement" && onlyReturns(first.Field("consequence")) && first.Field("alternative") == nil:
			if len(rest) == 0 || guardsRest(first.Field("condition"), rest) {
				continue
			}
		default:
			continue
		}
		p.Reportf(m.File, first.StartLine, rule.Data{Symbol: m.Class})
	}
	return nil
}

func onlyReturns(n *source.Node) bool {
	if n == nil {
		return false
	}
	if n.Kind == "statement_block" {
		return len(n.Children) == 1 && n.Children[0].Kind == "return_statement"
	}
	return n.Kind == "return_statement"
}

// guardsRest reports whether cond tests a this-field the remaining
// statements touch.
func guardsRest(cond *source.Node, rest []*source.Node) bool {
	fields := make(map[string]bool)
	source.Walk(cond, func(n *source.Node) bool {
		if n.Kind == "member_expression" {
			if p := source.Path(n); strings.HasPrefix(p, "this.") {
				fields[p] = true
			}
		}
		return true
	})
	for f := range fields {
		for _, s := range rest {
			if source.Mentions(s, f) {
				return true
			}
		}
	}
	return false
}
