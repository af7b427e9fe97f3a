package quality

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// widgetBases are classes whose constructors run inside enable(), when
// the widget is built.
var widgetBases = map[string]bool{
	"St.Widget": true, "St.BoxLayout": true, "St.Button": true, "St.Label": true, "St.Bin": true,
	"St.Icon": true, "St.Entry": true, "St.ScrollView": true, "St.Viewport": true,
	"Clutter.Actor": true, "Clutter.LayoutManager": true,
	"GObject.Object":   true,
	"QuickToggle":      true,
	"QuickMenuToggle":  true,
	"QuickSlider":      true,
	"SystemIndicator":  true,
	"PanelMenu.Button": true, "PanelMenu.ButtonBox": true,
	"PopupMenu.PopupBaseMenuItem": true, "PopupMenu.PopupMenuItem": true,
	"PopupMenu.PopupSwitchMenuItem": true, "PopupMenu.PopupSubMenuMenuItem": true,
	"Adw.PreferencesPage": true, "Adw.PreferencesGroup": true,
	"Gtk.Widget": true, "Gtk.Box": true, "Gtk.Button": true,
}

var widgetNames = func() map[string]bool {
	out := make(map[string]bool, len(widgetBases))
	for b := range widgetBases {
		_, name := source.SplitPath(b)
		out[name] = true
	}
	return out
}()

func isWidget(extends string) bool {
	_, name := source.SplitPath(extends)
	return widgetBases[extends] || widgetNames[name]
}

// allocation describes c when it acquires a resource, or returns "".
func allocation(c *source.Call) string {
	switch {
	case c.IsNew:
		if c.Callee == "Gio.DBusProxy" {
			return "new Gio.DBusProxy()"
		}
	case c.Callee == "this.getSettings":
		return "this.getSettings()"
	case c.Name() == "connect", c.Name() == "connectObject", strings.Contains(c.Name(), "timeout_add"):
		return c.Callee + "()"
	}
	return ""
}

func (*Checker) constructorResources(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, cls := range f.Symbols.Classes {
			if isWidget(cls.Extends) {
				continue
			}
			for _, method := range []string{"constructor", "_init"} {
				if cls.Method(method) == nil {
					continue
				}
				for _, c := range f.Symbols.CallsIn(cls.Name, method) {
					if what := allocation(c); what != "" {
						p.Reportf(f.Name, c.Line, rule.Data{Call: what, Symbol: cls.Name + "." + method + "()"})
					}
				}
			}
		}
	}
	return nil
}

// privateRoots are the shell objects whose underscore members are private.
var privateRoots = []string{"Main.panel", "Main.overview", "Main.layoutManager", "Main.wm"}

func shellObject(recv string) bool {
	for _, r := range privateRoots {
		if recv == r || strings.HasPrefix(recv, r+".") {
			return true
		}
	}
	for _, seg := range strings.Split(recv, ".") {
		if seg == "statusArea" || seg == "quickSettings" {
			return true
		}
	}
	return false
}

// privateAPI reports the shortest private path reached on each line.
func (*Checker) privateAPI(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		byLine := make(map[int]string)
		for _, m := range f.Symbols.Members {
			recv, name := source.SplitPath(m.Path)
			if !strings.HasPrefix(name, "_") || !shellObject(recv) {
				continue
			}
			if prev, ok := byLine[m.Line]; !ok || len(m.Path) < len(prev) {
				byLine[m.Line] = m.Path
			}
		}
		lines := make([]int, 0, len(byLine))
		for l := range byLine {
			lines = append(lines, l)
		}
		sort.Ints(lines)
		for _, l := range lines {
			p.Reportf(f.Name, l, rule.Data{Symbol: byLine[l]})
		}
	}
	return nil
}

// guardedDestroy reports whether n is `if (this._x) { ... this._x.destroy() ... }`.
func guardedDestroy(f *source.File, n *source.Node) bool {
	if n.Kind != "if_statement" {
		return false
	}
	cond := source.Unwrap(n.Field("condition"))
	if cond == nil || cond.Kind != "member_expression" || !strings.HasPrefix(source.Path(cond), "this._") {
		return false
	}
	body := n.Field("consequence")
	if body == nil || body.Kind != "statement_block" {
		return false
	}
	for _, stmt := range body.Children {
		if stmt.Kind != "expression_statement" || len(stmt.Children) != 1 {
			continue
		}
		if c := f.Symbols.CallAt(source.Unwrap(stmt.Children[0])); c != nil && c.Name() == "destroy" {
			return true
		}
	}
	return false
}

func optionalDestroy(c *source.Call) bool {
	fn := c.Node.Field("function")
	return c.Name() == "destroy" && strings.HasSuffix(strings.Join(strings.Fields(fn.Text()), ""), "?.destroy")
}

// destroyGuards reports a unit that mostly wraps destroy() in if-guards
// where optional chaining would do.
func (*Checker) destroyGuards(p *rule.Pass) error {
	least := p.Rule.Param("min", 4)
	verbose, idiomatic := 0, 0
	var file string
	line := 0
	for _, f := range p.Unit.Files {
		source.Walk(f.Root, func(n *source.Node) bool {
			if guardedDestroy(f, n) {
				verbose++
				if file == "" {
					file, line = f.Name, n.StartLine
				}
			}
			return true
		})
		for _, c := range f.Symbols.Calls {
			if !c.IsNew && optionalDestroy(c) {
				idiomatic++
			}
		}
	}
	total := verbose + idiomatic
	if total >= least && 10*verbose > 6*total {
		p.Reportf(file, line, rule.Data{Count: verbose, Detail: fmt.Sprint(idiomatic)})
	}
	return nil
}

func (*Checker) clipboard(p *rule.Pass) error {
	if strings.Contains(strings.ToLower(p.Unit.Metadata.Description), "clipboard") {
		return nil
	}
	for _, f := range p.Unit.Files {
		for _, m := range f.Symbols.Members {
			if m.Path == "St.Clipboard" || strings.HasPrefix(m.Path, "St.Clipboard.") {
				p.Reportf(f.Name, m.Line, rule.Data{})
				return nil
			}
		}
	}
	return nil
}
