package lifecycle

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// Shape is one acquisition call shape. Pattern is a member path where
// "*" stands for any receiver ("*.connect"), any final segment ("St.*"),
// or a final-segment prefix ("GLib.timeout_add*"). A lone "*" matches any
// bare name.
type Shape struct {
	Pattern string
	// New restricts the shape to `new` expressions.
	New     bool
	MinArgs int
	Kind    Kind
	// When narrows the shape past its callee.
	When func(env *shapeEnv, c *source.Call) bool
}

// specificity orders shapes when several match one call.
func (s Shape) specificity() int {
	n := len(strings.ReplaceAll(s.Pattern, "*", ""))
	if s.New {
		n++
	}
	if s.When != nil {
		n += 2
	}
	return n
}

func (s Shape) matches(env *shapeEnv, c *source.Call) bool {
	if s.New && !c.IsNew {
		return false
	}
	if len(c.Args) < s.MinArgs {
		return false
	}
	if !matchPattern(s.Pattern, c.Callee) {
		return false
	}
	return s.When == nil || s.When(env, c)
}

func matchPattern(pattern, callee string) bool {
	if callee == "" || strings.Contains(callee, "?") {
		return false
	}
	if pattern == "*" {
		return !strings.Contains(callee, ".")
	}
	precv, pname := source.SplitPath(pattern)
	crecv, cname := source.SplitPath(callee)
	if precv == "*" {
		if crecv == "" {
			return false
		}
	} else if precv != crecv {
		return false
	}
	if prefix, ok := strings.CutSuffix(pname, "*"); ok {
		return strings.HasPrefix(cname, prefix)
	}
	return pname == cname
}

// DefaultShapes is the acquisition table. Order does not matter: the most
// specific matching shape wins.
var DefaultShapes = []Shape{
	{Pattern: "GLib.timeout_add*", MinArgs: 2, Kind: KindTimer},
	{Pattern: "GLib.idle_add*", MinArgs: 1, Kind: KindTimer},
	{Pattern: "Mainloop.timeout_add*", MinArgs: 2, Kind: KindTimer},
	{Pattern: "Mainloop.idle_add", MinArgs: 1, Kind: KindTimer},
	{Pattern: "setTimeout", MinArgs: 1, Kind: KindTimer},
	{Pattern: "setInterval", MinArgs: 1, Kind: KindTimer},

	{Pattern: "*.connect", MinArgs: 2, Kind: KindSignal},
	{Pattern: "*.connect_after", MinArgs: 2, Kind: KindSignal},
	{Pattern: "*.connectObject", MinArgs: 2, Kind: KindSignal},

	{Pattern: "Gio.Subprocess.new", MinArgs: 1, Kind: KindSubprocess},
	{Pattern: "Gio.Subprocess", New: true, Kind: KindSubprocess},
	{Pattern: "GLib.spawn_async*", MinArgs: 1, Kind: KindSubprocess},
	{Pattern: "*.spawnv", MinArgs: 1, Kind: KindSubprocess},

	{Pattern: "*.export", MinArgs: 2, Kind: KindDBusExport, When: exportsWrapped},
	{Pattern: "*.export_action_group", MinArgs: 2, Kind: KindDBusExport},
	{Pattern: "*.export_menu_model", MinArgs: 2, Kind: KindDBusExport},
	{Pattern: "Gio.bus_own_name*", MinArgs: 3, Kind: KindDBusName},
	{Pattern: "Gio.DBus.own_name", MinArgs: 3, Kind: KindDBusName},

	{Pattern: "St.*", New: true, Kind: KindWidget},
	{Pattern: "Clutter.Actor", New: true, Kind: KindWidget},
	{Pattern: "Clutter.Text", New: true, Kind: KindWidget},
	{Pattern: "Clutter.Clone", New: true, Kind: KindWidget},
	{Pattern: "PopupMenu.*", New: true, Kind: KindWidget},
	{Pattern: "PanelMenu.*", New: true, Kind: KindWidget},
	{Pattern: "ModalDialog.ModalDialog", New: true, Kind: KindWidget},

	{Pattern: "*.monitor_file", MinArgs: 1, Kind: KindFileMonitor},
	{Pattern: "*.monitor_directory", MinArgs: 1, Kind: KindFileMonitor},
	{Pattern: "*.monitor", MinArgs: 2, Kind: KindFileMonitor},

	{Pattern: "Main.wm.addKeybinding", MinArgs: 4, Kind: KindKeybinding},
	{Pattern: "InjectionManager", New: true, Kind: KindInjection},
	{Pattern: "Soup.Session", New: true, Kind: KindSoupSession},

	{Pattern: "Gio.DBusProxy.new*", MinArgs: 1, Kind: KindDBusProxy},
	{Pattern: "Gio.DBusProxy", New: true, Kind: KindDBusProxy},
	{Pattern: "*", Kind: KindDBusProxy, When: callsProxyWrapper},

	{Pattern: "this.getSettings", Kind: KindSettings},
	{Pattern: "ExtensionUtils.getSettings", Kind: KindSettings},
	{Pattern: "Gio.Settings", New: true, Kind: KindSettings},
}

// shapeEnv carries per-file facts that shapes consult.
type shapeEnv struct {
	// wrapped holds symbols assigned from DBusExportedObject.wrapJSObject.
	wrapped map[string]bool
	// proxies holds module bindings created by makeProxyWrapper.
	proxies map[string]bool
}

func newShapeEnv(f *source.File) *shapeEnv {
	env := &shapeEnv{wrapped: make(map[string]bool), proxies: make(map[string]bool)}
	for _, c := range f.Symbols.Calls {
		switch c.Name() {
		case "wrapJSObject":
			if c.AssignedTo != "" {
				env.wrapped[c.AssignedTo] = true
			}
		case "makeProxyWrapper":
			if c.AssignedTo != "" {
				env.proxies[c.AssignedTo] = true
			}
		}
	}
	return env
}

func exportsWrapped(env *shapeEnv, c *source.Call) bool {
	return env.wrapped[c.Receiver()]
}

func callsProxyWrapper(env *shapeEnv, c *source.Call) bool {
	return env.proxies[c.Callee]
}

// classify matches a call against shapes. More than one matching kind is
// reported as ambiguous; the most specific shape decides.
func classify(shapes []Shape, env *shapeEnv, c *source.Call) (kind Kind, ambiguous []Kind, ok bool) {
	best := -1
	seen := make(map[Kind]bool)
	for _, s := range shapes {
		if !s.matches(env, c) {
			continue
		}
		if !seen[s.Kind] {
			seen[s.Kind] = true
			ambiguous = append(ambiguous, s.Kind)
		}
		if sp := s.specificity(); sp > best {
			best = sp
			kind = s.Kind
		}
	}
	if best < 0 {
		return "", nil, false
	}
	if len(ambiguous) < 2 {
		ambiguous = nil
	}
	return kind, ambiguous, true
}

// timerRemovers are the callees that remove a timer source by id.
var timerRemovers = map[string]bool{
	"GLib.source_remove":     true,
	"GLib.Source.remove":     true,
	"Mainloop.source_remove": true,
	"clearTimeout":           true,
	"clearInterval":          true,
}

// childAdders attach an actor to a parent that destroys it.
var childAdders = map[string]bool{
	"add_child":               true,
	"add_actor":               true,
	"insert_child_at_index":   true,
	"insert_child_above":      true,
	"insert_child_below":      true,
	"set_child":               true,
	"set_child_below_sibling": true,
	"addMenuItem":             true,
	"add":                     true,
	"addAction":               true,
	"set_label_actor":         true,
}

// releaseNames are helper methods accepted as the helper's release, in
// order of preference.
var releaseNames = []string{"destroy", "disable", "stop", "dispose", "cleanup", "_onDestroy"}

// widgetBases are library prefixes whose subclasses inherit destroy().
var widgetBases = []string{"St.", "Clutter.", "PanelMenu.", "PopupMenu.", "ModalDialog.", "QuickSettings.", "MessageTray."}

func isWidgetBase(extends string) bool {
	for _, p := range widgetBases {
		if strings.HasPrefix(extends, p) {
			return true
		}
	}
	return false
}

// releases reports whether event e releases h, ignoring its conditions.
func releases(h *Handle, e event) bool {
	loose := e.loop != ""
	if loose && h.Collection() != e.loop {
		return false
	}
	if !loose && h.Collection() != "" {
		return false
	}
	sym := h.Symbol

	if e.call == nil {
		if loose || sym == "" || e.assign != sym {
			return false
		}
		switch h.Kind {
		case KindSettings, KindDBusProxy:
			return e.null
		}
		return false
	}

	c := e.call
	name := c.Name()
	argIs := func(i int) bool {
		if loose {
			return true
		}
		a := c.Arg(i)
		return a != nil && sym != "" && source.Path(a) == sym
	}
	recvIs := func() bool {
		return loose || sym != "" && c.Receiver() == sym
	}

	switch h.Kind {
	case KindTimer:
		return timerRemovers[c.Callee] && argIs(0)
	case KindSignal:
		if h.ConnectObject {
			return name == "disconnectObject" && c.Receiver() == h.Receiver
		}
		if name == "destroy" && h.Receiver != "" && c.Receiver() == h.Receiver {
			return true
		}
		if name == "disconnect" || name == "disconnect_after" {
			return argIs(0)
		}
		if strings.HasSuffix(c.Callee, "signal_handler_disconnect") {
			return argIs(1)
		}
	case KindSubprocess:
		return recvIs() && (name == "force_exit" || name == "send_signal")
	case KindDBusExport:
		if name == "unexport" {
			return recvIs()
		}
		return strings.HasPrefix(name, "unexport_") && argIs(0)
	case KindDBusName:
		return strings.HasSuffix(name, "unown_name") && argIs(0)
	case KindWidget:
		return recvIs() && name == "destroy"
	case KindFileMonitor:
		return recvIs() && name == "cancel"
	case KindKeybinding:
		if name != "removeKeybinding" {
			return false
		}
		if loose {
			return true
		}
		v, ok := source.StringValue(c.Arg(0))
		if !ok {
			v = c.Arg(0).Text()
		}
		return v == h.Key
	case KindInjection:
		return recvIs() && name == "clear"
	case KindSoupSession:
		return recvIs() && name == "abort"
	case KindDBusProxy, KindSettings:
		return recvIs() && (name == "run_dispose" || name == "destroy")
	case KindAsync:
		return recvIs() && name == "cancel"
	}
	return false
}
