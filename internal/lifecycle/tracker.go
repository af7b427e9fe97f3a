package lifecycle

import (
	"sort"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// Tracker builds lifecycle graphs from a fixed shape table.
type Tracker struct {
	Shapes []Shape
}

// New returns a tracker over DefaultShapes.
func New() *Tracker {
	return &Tracker{Shapes: DefaultShapes}
}

// Track builds the lifecycle graph of u with the default shapes.
func Track(u *unit.Unit) *Graph {
	return New().Track(u)
}

// classInfo is one tracked class: the extension class or a helper
// reached from it through an ownership edge.
type classInfo struct {
	file  *source.File
	class *source.Class
	ext   bool
	roots []string
	// release is the method that must free the class's handles.
	release string
	// implicit is set when release is inherited from a widget base and
	// not declared by the class.
	implicit bool

	env     *shapeEnv
	walker  *walker
	scope   map[string]bool
	events  []event
	handles []*Handle
	edges   []*OwnershipEdge
}

func (ci *classInfo) key() string {
	return ci.file.Name + "#" + ci.class.Name
}

var prefsMethods = []string{"fillPreferencesWindow", "getPreferencesWidget"}

// Track builds the lifecycle graph of u. Classes are processed breadth
// first from the extension class; ownership edges discovered in one class
// queue its helpers.
func (t *Tracker) Track(u *unit.Unit) *Graph {
	g := &Graph{Flags: make(map[string]bool)}

	if prefs := u.Prefs(); prefs != nil {
		if pc := prefs.Symbols.DefaultClass(); pc != nil {
			for _, name := range prefsMethods {
				if m := pc.Method(name); m != nil {
					g.Methods = append(g.Methods, Method{File: prefs.Name, Class: pc.Name, Name: name, Role: RolePrefs, Node: m})
				}
			}
		}
	}

	entry := u.Entry()
	if entry == nil {
		return g
	}
	ext := entry.Symbols.DefaultClass()
	if ext == nil {
		return g
	}
	g.Extension = ext

	root := &classInfo{file: entry, class: ext, ext: true, roots: []string{"enable"}, release: "disable"}
	queue := []*classInfo{root}
	seen := map[string]*classInfo{root.key(): root}

	for i := 0; i < len(queue); i++ {
		ci := queue[i]
		t.scan(g, ci)
		for _, e := range t.edgesOf(u, ci) {
			g.Edges = append(g.Edges, e.edge)
			ci.edges = append(ci.edges, e.edge)
			if e.helper == nil {
				continue
			}
			if prev, ok := seen[e.helper.key()]; ok {
				prev.roots = mergeRoots(prev.roots, e.helper.roots)
				continue
			}
			seen[e.helper.key()] = e.helper
			queue = append(queue, e.helper)
		}
	}

	for _, ci := range queue {
		t.resolve(ci, seen)
	}
	attribute(queue, seen)
	for _, e := range g.Edges {
		if h, ok := seen[e.HelperFile+"#"+e.Helper]; ok && e.Resolved {
			e.Handles = len(h.handles)
		}
	}
	return g
}

func mergeRoots(a, b []string) []string {
	for _, r := range b {
		found := false
		for _, x := range a {
			if x == r {
				found = true
				break
			}
		}
		if !found {
			a = append(a, r)
		}
	}
	return a
}

// scan records the class's lifecycle methods and the handles acquired in
// its activation scope.
func (t *Tracker) scan(g *Graph, ci *classInfo) {
	ci.env = newShapeEnv(ci.file)
	ci.walker = newWalker(ci.file, ci.class)
	ci.scope = closure(ci.file, ci.class, ci.roots)

	t.recordMethods(g, ci)

	if !ci.implicit {
		ci.events = ci.walker.method(ci.release)
	}
	for _, e := range ci.events {
		if e.call == nil && strings.HasPrefix(e.assign, "this.") {
			g.Flags[e.assign] = true
		}
	}

	for _, c := range ci.file.Symbols.Calls {
		if c.Class != ci.class.Name {
			continue
		}
		if _, ok := ci.scope[c.Method]; !ok {
			continue
		}
		h := t.acquire(g, ci, c)
		if h == nil {
			h = asyncHandle(ci, c)
		}
		if h != nil {
			ci.handles = append(ci.handles, h)
			g.Handles = append(g.Handles, h)
		}
	}
}

func (t *Tracker) recordMethods(g *Graph, ci *classInfo) {
	add := func(name string, role Role) {
		if m := ci.class.Method(name); m != nil {
			g.Methods = append(g.Methods, Method{File: ci.file.Name, Class: ci.class.Name, Name: name, Role: role, Node: m})
		}
	}
	if ci.ext {
		add("enable", RoleActivation)
		add("disable", RoleDeactivation)
		add("constructor", RoleConstruction)
		add("_init", RoleConstruction)
		return
	}
	names := make([]string, 0, len(ci.roots))
	names = append(names, ci.roots...)
	sort.Strings(names)
	for _, r := range names {
		add(r, RoleHelperActivation)
	}
	if !ci.implicit {
		add(ci.release, RoleHelperRelease)
	}
}

// acquire classifies one call and builds its handle.
func (t *Tracker) acquire(g *Graph, ci *classInfo, c *source.Call) *Handle {
	kind, ambiguous, ok := classify(t.Shapes, ci.env, c)
	if !ok {
		return nil
	}
	site := Site{File: ci.file.Name, Line: c.Line, Class: ci.class.Name, Method: c.Method}
	if len(ambiguous) > 0 {
		g.Ambiguities = append(g.Ambiguities, Ambiguity{Site: site, Callee: c.Callee, Kinds: ambiguous, Chosen: kind})
	}

	h := &Handle{
		Kind:       kind,
		Acquire:    site,
		Callee:     c.Callee,
		Symbol:     c.AssignedTo,
		Owner:      ci.class.Name,
		Repeatable: c.InCallback || !ci.scope[c.Method],
		Call:       c,
	}
	if h.Symbol == "" {
		h.Symbol = collectionOf(ci.file, c.Node)
	} else if isLocal(c.Node, h.Symbol) {
		if coll := pushedInto(ci.file, c, h.Symbol); coll != "" {
			h.Symbol = coll
		}
	}

	switch kind {
	case KindSignal:
		h.Receiver = c.Receiver()
		h.ConnectObject = c.Name() == "connectObject"
	case KindKeybinding:
		if v, ok := source.StringValue(c.Arg(0)); ok {
			h.Key = v
		} else if a := c.Arg(0); a != nil {
			h.Key = a.Text()
		}
	case KindDBusExport:
		if h.Symbol == "" && c.Name() == "export" {
			h.Symbol = c.Receiver()
		}
	}
	return h
}

// resolve matches every handle of ci against its release events and
// applies the exemption policy.
func (t *Tracker) resolve(ci *classInfo, classes map[string]*classInfo) {
	for _, e := range ci.edges {
		e.ReleaseCalled = releaseCalled(ci, e)
	}
	for _, h := range ci.handles {
		if h.Kind == KindAsync {
			resolveAsync(ci, h)
			continue
		}
		if ev, ok := guaranteed(ci.events, h); ok {
			h.Released = true
			h.Release = &Site{File: ci.file.Name, Line: ev.lineOf(), Class: ci.class.Name, Method: ci.release}
		}
		h.Exempt = exemption(ci, h)
		if h.Kind == KindTimer && h.Repeatable {
			h.Reassigned = reassigned(ci.file, h)
		}
	}
	// Signals follow the object they are connected on.
	for _, h := range ci.handles {
		if h.Kind != KindSignal || h.Released || h.Exempt != "" {
			continue
		}
		for _, w := range ci.handles {
			if w.Kind != KindWidget || w.Symbol == "" || w.Symbol != h.Receiver {
				continue
			}
			if w.Released {
				h.Released, h.Release = true, w.Release
			} else if w.Exempt == ExemptChild || w.Exempt == ExemptLocal {
				h.Exempt = w.Exempt
			}
		}
		for _, e := range ci.edges {
			helper, ok := classes[e.HelperFile+"#"+e.Helper]
			if !ok || e.Field != h.Receiver || !e.ReleaseCalled || !isWidgetBase(helper.class.Extends) {
				continue
			}
			h.Released = true
			h.Release = &Site{File: ci.file.Name, Class: ci.class.Name, Method: ci.release}
		}
	}
}

func (e event) lineOf() int {
	if e.call != nil {
		return e.call.Line
	}
	return e.line
}

// exemption returns the reason a handle needs no release, or "".
func exemption(ci *classInfo, h *Handle) string {
	c := h.Call
	local := isLocal(c.Node, h.Symbol)
	switch h.Kind {
	case KindTimer:
		if strings.HasSuffix(c.Name(), "_once") {
			return ExemptOneShot
		}
	case KindWidget:
		if passedToChildAdder(ci.file, c.Node) {
			return ExemptChild
		}
		if local {
			return ExemptLocal
		}
		if h.Symbol != "" && addedAsChild(ci.file, h.Symbol) {
			return ExemptChild
		}
	case KindSettings:
		if passedAsArg(c.Node) {
			return ExemptPassed
		}
		if local || h.Symbol == "" {
			return ExemptLocal
		}
	case KindSignal:
		if h.Receiver == "this" || h.Receiver == "this.menu" && isWidgetBase(ci.class.Extends) {
			return ExemptSelf
		}
		if isLocal(c.Node, h.Receiver) {
			return ExemptLocal
		}
	case KindSubprocess, KindFileMonitor, KindInjection, KindSoupSession, KindDBusProxy:
		if local {
			return ExemptLocal
		}
	}
	return ""
}

// addedAsChild reports whether sym is handed to a child-adding method of
// a this-rooted parent anywhere in the file.
func addedAsChild(f *source.File, sym string) bool {
	for _, c := range f.Symbols.Calls {
		if !isChildAdder(c) {
			continue
		}
		for _, a := range c.Args {
			if source.Path(a) == sym {
				return true
			}
		}
	}
	return false
}

// isChildAdder reports whether c attaches an actor to a this-rooted parent.
// Parents outside the extension, such as Main.panel._rightBox, never
// destroy what the extension adds to them.
func isChildAdder(c *source.Call) bool {
	recv := c.Receiver()
	return childAdders[c.Name()] && (recv == "this" || strings.HasPrefix(recv, "this."))
}

// reassigned reports whether a repeatable timer overwrites its field
// without removing the previous source earlier in the same method.
func reassigned(f *source.File, h *Handle) bool {
	if h.Symbol == "" || h.Collection() != "" || isLocal(h.Call.Node, h.Symbol) {
		return false
	}
	for _, c := range f.Symbols.CallsIn(h.Call.Class, h.Call.Method) {
		if c.Node.StartByte >= h.Call.Node.StartByte {
			continue
		}
		if timerRemovers[c.Callee] && source.Path(c.Arg(0)) == h.Symbol {
			return false
		}
	}
	return true
}
