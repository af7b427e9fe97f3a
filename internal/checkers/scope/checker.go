// Package scope checks that an extension does no work before enable() and
// leaves no module state behind after disable().
package scope

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// shellGlobals are the Main members that modify the running shell.
var shellGlobals = []string{
	"panel",
	"overview",
	"layoutManager",
	"sessionMode",
	"messageTray",
	"wm",
	"extensionManager",
	"notify",
}

// gobjectNamespaces are the introspected libraries whose constructors
// create GObjects.
var gobjectNamespaces = map[string]bool{
	"St": true, "Clutter": true, "Gio": true, "GLib": true, "GObject": true, "Meta": true,
	"Shell": true, "Pango": true, "Soup": true, "Cogl": true, "Atk": true, "GdkPixbuf": true,
}

const (
	atModuleScope = "at module scope"
	inConstructor = "in the constructor"
)

// Checker checks initialization scope.
type Checker struct{}

// New creates a new scope checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the scope rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-INIT-01", c.earlyWork)
	reg.RegisterFunc("R-INIT-02", c.promisifyInEnable)
	reg.RegisterFunc("R-INIT-03", c.moduleState)
}

func shellGlobal(path string) bool {
	for _, g := range shellGlobals {
		m := "Main." + g
		if path == m || strings.HasPrefix(path, m+".") {
			return true
		}
	}
	return false
}

// initContext reports whether n runs when the module loads or when the
// extension object is constructed. Constructors of registered GObject
// classes run from enable() and are not counted.
func initContext(f *source.File, n *source.Node) (string, bool) {
	fn := source.EnclosingFunction(n)
	if fn == nil {
		if n.Ancestor("class_body") != nil {
			return "", false
		}
		return atModuleScope, true
	}
	if fn.Kind != "method_definition" || fn.Field("name").Text() != "constructor" {
		return "", false
	}
	cls := fn.Ancestor("class_declaration", "class")
	for _, c := range f.Symbols.Classes {
		if c.Node == cls {
			if c.Registered {
				return "", false
			}
			return inConstructor, true
		}
	}
	return "", false
}

func (*Checker) earlyWork(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		if f.Role == source.RolePrefs {
			continue
		}
		seen := make(map[int]bool)
		report := func(line int, what, where string) {
			if seen[line] {
				return
			}
			seen[line] = true
			p.Reportf(f.Name, line, rule.Data{Call: what, Detail: where})
		}

		for _, m := range f.Symbols.Members {
			if !shellGlobal(m.Path) || seen[m.Line] {
				continue
			}
			if where, ok := initContext(f, m.Node); ok {
				report(m.Line, m.Path, where)
			}
		}
		for _, c := range f.Symbols.Calls {
			if !c.IsNew || seen[c.Line] {
				continue
			}
			root, _, _ := strings.Cut(c.Callee, ".")
			if !gobjectNamespaces[root] {
				continue
			}
			if where, ok := initContext(f, c.Node); ok {
				report(c.Line, "new "+c.Callee+"()", where)
			}
		}
	}
	return nil
}

func (*Checker) promisifyInEnable(p *rule.Pass) error {
	if p.Graph == nil || p.Graph.Extension == nil {
		return nil
	}
	entry := p.Unit.Entry()
	if entry == nil {
		return nil
	}
	for _, c := range entry.Symbols.CallsIn(p.Graph.Extension.Name, "enable") {
		if c.Callee == "Gio._promisify" {
			p.Reportf(entry.Name, c.Line, rule.Data{Call: c.Callee})
		}
	}
	return nil
}

func (*Checker) moduleState(p *rule.Pass) error {
	entry := p.Unit.Entry()
	if entry == nil {
		return nil
	}
	ext := entry.Symbols.DefaultClass()
	enable, disable := ext.Method("enable"), ext.Method("disable")
	if enable == nil {
		return nil
	}
	mutable := make(map[string]bool)
	for _, b := range entry.Symbols.Bindings {
		if b.Kind == "let" || b.Kind == "var" {
			mutable[b.Name] = true
		}
	}
	if len(mutable) == 0 {
		return nil
	}

	reset := make(map[string]bool)
	for _, a := range assignments(disable, mutable) {
		reset[a.name] = true
	}
	for _, a := range assignments(enable, mutable) {
		if !reset[a.name] {
			p.Reportf(entry.Name, a.line, rule.Data{Symbol: a.name})
		}
	}
	return nil
}

type assignment struct {
	name string
	line int
}

// assignments returns the first assignment to each of names inside fn,
// in source order. Declarations in fn shadow the module binding.
func assignments(fn *source.Node, names map[string]bool) []assignment {
	if fn == nil {
		return nil
	}
	var out []assignment
	seen := make(map[string]bool)
	shadowed := make(map[string]bool)
	source.Walk(fn, func(n *source.Node) bool {
		switch n.Kind {
		case "variable_declarator":
			shadowed[n.Field("name").Text()] = true
		case "assignment_expression", "augmented_assignment_expression":
			left := source.Unwrap(n.Field("left"))
			if left == nil || left.Kind != "identifier" {
				return true
			}
			name := left.Text()
			if !names[name] || shadowed[name] || seen[name] {
				return true
			}
			seen[name] = true
			out = append(out, assignment{name: name, line: n.StartLine})
		}
		return true
	})
	return out
}
