// Package prefs checks the preferences module: its entry point, its base
// class, its widgets and GTK 4 usage.
package prefs

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

const (
	fillWindow = "fillPreferencesWindow"
	getWidget  = "getPreferencesWidget"
)

// windows are top-level window classes; prefs pages belong in the window
// the shell provides.
var windows = map[string]bool{
	"Gtk.Window":            true,
	"Gtk.ApplicationWindow": true,
	"Gtk.Dialog":            true,
	"Gtk.MessageDialog":     true,
	"Adw.Window":            true,
	"Adw.ApplicationWindow": true,
}

// replaceable are widgets whose job the preferences window already does,
// mapped to what to use instead.
var replaceable = map[string]string{
	"Gtk.HeaderBar":     "the header bar of the preferences window",
	"Gtk.Notebook":      "one Adw.PreferencesPage per tab",
	"Gtk.StackSwitcher": "one Adw.PreferencesPage per view",
	"Gtk.StackSidebar":  "one Adw.PreferencesPage per view",
	"Gtk.AboutDialog":   "Adw.AboutWindow or an about page",
}

// adwaita maps GTK widgets to the Adwaita rows that replace them.
var adwaita = map[string]string{
	"Gtk.ComboBoxText": "Adw.ComboRow",
	"Gtk.ComboBox":     "Adw.ComboRow",
	"Gtk.Expander":     "Adw.ExpanderRow",
	"Gtk.SpinButton":   "Adw.SpinRow",
	"Gtk.Entry":        "Adw.EntryRow",
	"Gtk.InfoBar":      "Adw.Banner",
	"Gtk.ListBox":      "Adw.PreferencesGroup",
}

// layouts are GTK containers with legitimate uses in prefs that still
// deserve a look.
var layouts = map[string]bool{
	"Gtk.ScrolledWindow": true,
	"Gtk.Viewport":       true,
	"Gtk.Grid":           true,
	"Gtk.Paned":          true,
	"Gtk.Frame":          true,
}

// gtk3Methods were removed in GTK 4.
var gtk3Methods = map[string]bool{
	"show_all":          true,
	"pack_start":        true,
	"pack_end":          true,
	"set_border_width":  true,
	"get_toplevel":      true,
	"add_with_viewport": true,
}

// gtk3Classes were removed in GTK 4.
var gtk3Classes = map[string]bool{
	"Gtk.HBox":      true,
	"Gtk.VBox":      true,
	"Gtk.Table":     true,
	"Gtk.Alignment": true,
	"Gtk.Arrow":     true,
}

// Checker checks preferences rules.
type Checker struct{}

// New creates a new prefs checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the prefs rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-PREFS-01", c.dualEntry)
	reg.RegisterFunc("R-PREFS-02", c.noEntry)
	reg.RegisterFunc("R-PREFS-03", c.baseClass)
	reg.RegisterFunc("R-PREFS-04", c.widgets(func(name string) (string, bool) {
		r, ok := replaceable[name]
		return r, ok
	}))
	reg.RegisterFunc("R-PREFS-04b", c.widgets(func(name string) (string, bool) {
		r, ok := adwaita[name]
		return r, ok
	}))
	reg.RegisterFunc("R-PREFS-04c", c.widgets(func(name string) (string, bool) {
		return "", layouts[name]
	}))
	reg.RegisterFunc("R-PREFS-05", c.separateWindows)
	reg.RegisterFunc("R-PREFS-06", c.gtk3)
	reg.RegisterFunc("R-PREFS-08", c.application)
	reg.RegisterFunc("R-PREFS-07", c.windowSettings)
}

func (*Checker) dualEntry(p *rule.Pass) error {
	f := p.Unit.Prefs()
	if f == nil {
		return nil
	}
	cls := f.Symbols.DefaultClass()
	if cls.Method(fillWindow) != nil && cls.Method(getWidget) != nil {
		p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.Name})
	}
	return nil
}

func (*Checker) noEntry(p *rule.Pass) error {
	f := p.Unit.Prefs()
	if f == nil {
		return nil
	}
	cls := f.Symbols.DefaultClass()
	if cls == nil {
		p.Reportf(f.Name, 1, rule.Data{})
		return nil
	}
	if cls.Method(fillWindow) == nil && cls.Method(getWidget) == nil {
		p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.Name})
	}
	return nil
}

func (*Checker) baseClass(p *rule.Pass) error {
	f := p.Unit.Prefs()
	if f == nil {
		return nil
	}
	cls := f.Symbols.DefaultClass()
	if cls == nil {
		return nil
	}
	if _, name := source.SplitPath(cls.Extends); name != "ExtensionPreferences" {
		p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.Name})
	}
	return nil
}

// prefsFiles calls fn for every file that runs in the preferences process.
func prefsFiles(p *rule.Pass, fn func(f *source.File)) {
	for _, f := range p.Unit.Files {
		if p.Unit.PrefsSide(f) {
			fn(f)
		}
	}
}

// widgets reports every construction of a GTK widget that match knows,
// with the replacement it returns.
func (*Checker) widgets(match func(name string) (string, bool)) func(*rule.Pass) error {
	return func(p *rule.Pass) error {
		prefsFiles(p, func(f *source.File) {
			for _, c := range f.Symbols.Calls {
				if !c.IsNew {
					continue
				}
				if instead, ok := match(c.Callee); ok {
					p.Reportf(f.Name, c.Line, rule.Data{Symbol: c.Callee, Detail: instead})
				}
			}
		})
		return nil
	}
}

func (*Checker) separateWindows(p *rule.Pass) error {
	prefsFiles(p, func(f *source.File) {
		for _, cls := range f.Symbols.Classes {
			if windows[cls.Extends] {
				p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.Extends})
			}
		}
		for _, c := range f.Symbols.Calls {
			if c.IsNew && windows[c.Callee] {
				p.Reportf(f.Name, c.Line, rule.Data{Symbol: "new " + c.Callee + "()"})
			}
		}
	})
	return nil
}

func (*Checker) gtk3(p *rule.Pass) error {
	prefsFiles(p, func(f *source.File) {
		for _, c := range f.Symbols.Calls {
			switch {
			case c.IsNew && gtk3Classes[c.Callee]:
				p.Reportf(f.Name, c.Line, rule.Data{Symbol: c.Callee})
			case !c.IsNew && gtk3Methods[c.Name()]:
				p.Reportf(f.Name, c.Line, rule.Data{Symbol: c.Name() + "()"})
			}
		}
	})
	return nil
}

func (*Checker) application(p *rule.Pass) error {
	prefsFiles(p, func(f *source.File) {
		seen := make(map[int]bool)
		for _, m := range f.Symbols.Members {
			if m.Path != "Gtk.Application" && !strings.HasPrefix(m.Path, "Gtk.Application.") {
				continue
			}
			if !seen[m.Line] {
				seen[m.Line] = true
				p.Reportf(f.Name, m.Line, rule.Data{Symbol: m.Path})
			}
		}
		for _, cls := range f.Symbols.Classes {
			if cls.Extends == "Gtk.Application" && !seen[cls.Line] {
				seen[cls.Line] = true
				p.Reportf(f.Name, cls.Line, rule.Data{Symbol: cls.Name})
			}
		}
	})
	return nil
}
