// Package gobject checks GObject subclasses: chaining up in overridden
// methods, unique GType names and Cairo contexts in drawing code.
package gobject

import (
	"fmt"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// Checker checks GObject class rules.
type Checker struct{}

// New creates a new GObject checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the GObject rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-GOBJ-01", c.chainUp("_init", func(cls *source.Class) bool { return cls.Registered }))
	reg.RegisterFunc("R-GOBJ-02", c.typeNames)
	reg.RegisterFunc("R-GOBJ-03", c.chainUp("destroy", func(cls *source.Class) bool { return cls.Extends != "" }))
	reg.RegisterFunc("R-GOBJ-04", c.missingTypeName)
	reg.RegisterFunc("R-GOBJ-05", c.cairoDispose)
}

// chainUp flags overrides of method that never call super.method. Only
// classes accepted by applies are checked.
func (*Checker) chainUp(method string, applies func(*source.Class) bool) func(*rule.Pass) error {
	super := "super." + method
	return func(p *rule.Pass) error {
		for _, f := range p.Unit.Files {
			for _, cls := range f.Symbols.Classes {
				m := cls.Method(method)
				if m == nil || !applies(cls) {
					continue
				}
				if !callsSuper(f, cls, method, super) {
					p.Reportf(f.Name, m.StartLine, rule.Data{Symbol: cls.Name})
				}
			}
		}
		return nil
	}
}

func callsSuper(f *source.File, cls *source.Class, method, super string) bool {
	for _, c := range f.Symbols.CallsIn(cls.Name, method) {
		if c.Callee == super {
			return true
		}
	}
	return false
}

func (*Checker) typeNames(p *rule.Pass) error {
	first := make(map[string]string)
	for _, f := range p.Unit.Files {
		for _, cls := range f.Symbols.Classes {
			if cls.GTypeName == "" {
				continue
			}
			where := fmt.Sprintf("%s in %s", cls.Name, f.Name)
			if prev, ok := first[cls.GTypeName]; ok {
				p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.GTypeName, Detail: prev})
				continue
			}
			first[cls.GTypeName] = where
		}
	}
	return nil
}

func (*Checker) missingTypeName(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, cls := range f.Symbols.Classes {
			if cls.Registered && cls.GTypeName == "" {
				p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.Name})
			}
		}
	}
	return nil
}

// cairoDispose flags drawing code that takes a Cairo context and never
// disposes it: vfunc_repaint overrides and set_draw_func callbacks.
func (*Checker) cairoDispose(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		check := func(fn *source.Node, what string) {
			if fn == nil {
				return
			}
			if calls(f, fn, "get_context") && !calls(f, fn, "$dispose") {
				p.Reportf(f.Name, fn.StartLine, rule.Data{Symbol: what})
			}
		}
		for _, cls := range f.Symbols.Classes {
			check(cls.Method("vfunc_repaint"), cls.Name+".vfunc_repaint()")
		}
		for _, c := range f.Symbols.Calls {
			if c.Name() != "set_draw_func" {
				continue
			}
			for _, a := range c.Args {
				if source.IsFunction(a) {
					check(a, c.Callee+"()")
				}
			}
		}
	}
	return nil
}

// calls reports whether a call to a method named name sits inside fn.
func calls(f *source.File, fn *source.Node, name string) bool {
	for _, c := range f.Symbols.Calls {
		if c.Name() == name && fn.Contains(c.Node) {
			return true
		}
	}
	return false
}
