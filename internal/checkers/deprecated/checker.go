// Package deprecated checks for APIs and imports that GNOME 45+ extensions
// can no longer use.
package deprecated

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// legacyImports are the imports.* roots replaced by ES module imports.
var legacyImports = map[string]bool{
	"gi":       true,
	"misc":     true,
	"ui":       true,
	"lang":     true,
	"mainloop": true,
}

// removedRoots are globals of the pre-45 API.
var removedRoots = map[string]bool{
	"ExtensionUtils": true,
	"Mainloop":       true,
	"Tweener":        true,
}

var gtkModules = []string{"gi://Gtk", "gi://Gdk", "gi://Adw"}

const shellUI = "resource:///org/gnome/shell/ui/"

// Checker checks deprecated API usage.
type Checker struct{}

// New creates a new deprecated API checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the deprecation rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-DEPR-01", c.legacyImports)
	reg.RegisterFunc("R-DEPR-02", c.removedAPIs)
	reg.RegisterFunc("R-DEPR-03", c.gtkInShell)
	reg.RegisterFunc("R-DEPR-04", c.shellUIInPrefs)
}

func (*Checker) legacyImports(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		if !isModule(f) {
			continue
		}
		seen := make(map[int]bool)
		for _, m := range f.Symbols.Members {
			parts := strings.SplitN(m.Path, ".", 3)
			if len(parts) < 2 || parts[0] != "imports" || !legacyImports[parts[1]] || seen[m.Line] {
				continue
			}
			seen[m.Line] = true
			p.Reportf(f.Name, m.Line, rule.Data{Symbol: parts[0] + "." + parts[1]})
		}
	}
	return nil
}

// isModule reports whether f is an ES module.
func isModule(f *source.File) bool {
	if len(f.Symbols.Imports) > 0 {
		return true
	}
	for _, n := range f.Root.Children {
		if n.Kind == "export_statement" {
			return true
		}
	}
	return false
}

func (*Checker) removedAPIs(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		type at struct {
			sym  string
			line int
		}
		seen := make(map[at]bool)
		for _, m := range f.Symbols.Members {
			root, _, _ := strings.Cut(m.Path, ".")
			sym := ""
			switch {
			case removedRoots[root]:
				sym = root
			case m.Path == "Lang.Class" || m.Path == "Lang.bind":
				sym = m.Path
			default:
				continue
			}
			k := at{sym, m.Line}
			if seen[k] {
				continue
			}
			seen[k] = true
			p.Reportf(f.Name, m.Line, rule.Data{Symbol: sym})
		}
	}
	return nil
}

func (*Checker) gtkInShell(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		if p.Unit.PrefsSide(f) {
			continue
		}
		for _, imp := range f.Symbols.Imports {
			for _, mod := range gtkModules {
				if imp.Source == mod || strings.HasPrefix(imp.Source, mod+"?") {
					p.Reportf(f.Name, imp.Line, rule.Data{Symbol: strings.TrimPrefix(mod, "gi://")})
				}
			}
		}
	}
	return nil
}

func (*Checker) shellUIInPrefs(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		if !p.Unit.PrefsSide(f) {
			continue
		}
		seen := make(map[int]bool)
		for _, imp := range f.Symbols.Imports {
			if strings.HasPrefix(imp.Source, shellUI) && !seen[imp.Line] {
				seen[imp.Line] = true
				p.Reportf(f.Name, imp.Line, rule.Data{Symbol: imp.Source})
			}
		}
	}
	return nil
}
