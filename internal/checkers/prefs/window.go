package prefs

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// windowSettings flags settings signals connected while filling the
// preferences window when nothing disconnects them on close-request. The
// settings object outlives the window otherwise.
func (*Checker) windowSettings(p *rule.Pass) error {
	f := p.Unit.Prefs()
	if f == nil {
		return nil
	}
	cls := f.Symbols.DefaultClass()
	fill := cls.Method(fillWindow)
	if fill == nil {
		return nil
	}
	window := firstParam(fill)
	settings := settingsSymbols(f, fill)
	if len(settings) == 0 {
		return nil
	}

	calls := f.Symbols.CallsIn(cls.Name, fillWindow)
	for _, c := range calls {
		if window != "" && c.Callee == window+".connect" && disconnectsOnClose(f, c) {
			return nil
		}
	}
	for _, c := range calls {
		if (c.Name() == "connect" || c.Name() == "connect_after") && settings[c.Receiver()] {
			p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
		}
	}
	return nil
}

func firstParam(fn *source.Node) string {
	params := fn.Field("parameters")
	if params == nil || len(params.Children) == 0 {
		return ""
	}
	if id := params.Children[0]; id.Kind == "identifier" {
		return id.Text()
	}
	return ""
}

// settingsSymbols returns the names bound to a GSettings object inside fn.
func settingsSymbols(f *source.File, fn *source.Node) map[string]bool {
	out := make(map[string]bool)
	for _, c := range f.Symbols.Calls {
		if !fn.Contains(c.Node) || c.AssignedTo == "" {
			continue
		}
		if c.Name() == "getSettings" || c.IsNew && c.Callee == "Gio.Settings" {
			out[c.AssignedTo] = true
		}
	}
	return out
}

func disconnectsOnClose(f *source.File, c *source.Call) bool {
	if sig, _ := source.StringValue(c.Arg(0)); sig != "close-request" {
		return false
	}
	found := false
	source.Walk(c.Arg(1), func(n *source.Node) bool {
		if n.Kind != "call_expression" {
			return !found
		}
		if inner := f.Symbols.CallAt(n); inner != nil && strings.HasPrefix(inner.Name(), "disconnect") {
			found = true
		}
		return !found
	})
	return found
}
