package lifecycle

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

type discovered struct {
	edge   *OwnershipEdge
	helper *classInfo
}

var helperRoots = []string{"constructor", "_init", "enable", "start"}

// edgesOf finds `this.F = new C()` in the activation scope of ci where C
// is a class of the unit, and prepares C for tracking.
func (t *Tracker) edgesOf(u *unit.Unit, ci *classInfo) []discovered {
	var out []discovered
	for _, c := range ci.file.Symbols.Calls {
		if c.Class != ci.class.Name || !c.IsNew || !strings.HasPrefix(c.AssignedTo, "this.") {
			continue
		}
		if _, ok := ci.scope[c.Method]; !ok {
			continue
		}
		if strings.ContainsAny(c.Callee, ".?") {
			continue
		}

		e := &OwnershipEdge{
			Owner:     ci.class.Name,
			OwnerFile: ci.file.Name,
			Field:     c.AssignedTo,
			Helper:    c.Callee,
			Site:      Site{File: ci.file.Name, Line: c.Line, Class: ci.class.Name, Method: c.Method},
		}
		file, cls, local := findClass(u, ci.file, c.Callee)
		if !local {
			continue
		}
		if cls == nil {
			e.Reason = ReasonUnresolvedImport
			out = append(out, discovered{edge: e})
			continue
		}
		if cls == ci.class && file == ci.file {
			continue
		}

		e.Resolved = true
		e.Helper = cls.Name
		e.HelperFile = file.Name
		helper := &classInfo{file: file, class: cls, roots: calledOn(ci, c.AssignedTo)}
		helper.release, helper.implicit = releaseMethod(cls)
		if helper.release == "" {
			e.Reason = ReasonNoRelease
		}
		e.ReleaseMethod = helper.release
		helper.roots = withoutName(helper.roots, helper.release)
		out = append(out, discovered{edge: e, helper: helper})
	}
	return out
}

// findClass resolves a constructor name used in from. local is false for
// names that do not refer to unit code (globals, library imports); cls is
// nil when a local import could not be followed.
func findClass(u *unit.Unit, from *source.File, name string) (*source.File, *source.Class, bool) {
	if cls := from.Symbols.Class(name); cls != nil {
		return from, cls, true
	}
	imp, ok := from.Symbols.Import(name)
	if !ok || !unit.IsLocalImport(imp.Source) {
		return nil, nil, false
	}
	target := u.ResolveFile(from.Name, imp.Source)
	if target == nil {
		return nil, nil, true
	}
	switch imp.Kind {
	case source.ImportDefault:
		return target, target.Symbols.DefaultClass(), true
	case source.ImportNamed:
		return target, target.Symbols.Class(imp.Imported), true
	}
	return nil, nil, true
}

// calledOn lists the helper roots: the fixed activation names plus every
// method the owner calls on the field while active.
func calledOn(owner *classInfo, field string) []string {
	roots := append([]string(nil), helperRoots...)
	for _, c := range owner.file.Symbols.Calls {
		if c.Class != owner.class.Name {
			continue
		}
		if _, ok := owner.scope[c.Method]; !ok {
			continue
		}
		if c.Receiver() == field {
			roots = mergeRoots(roots, []string{c.Name()})
		}
	}
	return roots
}

func withoutName(names []string, drop string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

// releaseMethod picks the helper method that must free its resources.
// Widget subclasses inherit destroy() when they declare none.
func releaseMethod(c *source.Class) (name string, implicit bool) {
	for _, n := range releaseNames {
		if c.Method(n) != nil {
			return n, false
		}
	}
	for _, n := range c.Order {
		if strings.HasPrefix(n, "_destroy") {
			return n, false
		}
	}
	if isWidgetBase(c.Extends) {
		return "destroy", true
	}
	return "", false
}

// releaseCalled reports whether the owner's release method calls the
// helper's release on the field on every path.
func releaseCalled(owner *classInfo, e *OwnershipEdge) bool {
	if !e.Resolved || e.ReleaseMethod == "" {
		return false
	}
	held := &Handle{Symbol: e.Field}
	for _, ev := range owner.events {
		if ev.call == nil || ev.loop != "" || ev.call.Receiver() != e.Field {
			continue
		}
		name := ev.call.Name()
		if name != e.ReleaseMethod && (name != "destroy" || e.ReleaseMethod != "_onDestroy") {
			continue
		}
		if ev.holdsFor(held) {
			return true
		}
	}
	return false
}

// attribute marks handles whose owning class is released transitively
// from the extension class.
func attribute(classes []*classInfo, byKey map[string]*classInfo) {
	if len(classes) == 0 {
		return
	}
	reached := map[string]bool{classes[0].key(): true}
	queue := []*classInfo{classes[0]}
	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		for _, e := range ci.edges {
			if !e.Resolved || !e.ReleaseCalled {
				continue
			}
			k := e.HelperFile + "#" + e.Helper
			if reached[k] {
				continue
			}
			if h, ok := byKey[k]; ok {
				reached[k] = true
				queue = append(queue, h)
			}
		}
	}
	for _, ci := range classes {
		if !reached[ci.key()] {
			continue
		}
		for _, h := range ci.handles {
			h.Attributed = true
		}
	}
}
