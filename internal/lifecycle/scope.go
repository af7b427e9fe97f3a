package lifecycle

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// closure returns the same-class methods reachable from roots through
// this.m() calls and this.m references. The value is true when the method
// is reached without passing through a callback, i.e. it runs exactly
// once per activation.
func closure(f *source.File, c *source.Class, roots []string) map[string]bool {
	reached := make(map[string]bool)
	var queue []string
	visit := func(name string, direct bool) {
		if c.Method(name) == nil {
			return
		}
		prev, seen := reached[name]
		if seen && (prev || !direct) {
			return
		}
		reached[name] = direct
		queue = append(queue, name)
	}
	for _, r := range roots {
		visit(r, true)
	}

	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		direct := reached[m]
		for _, call := range f.Symbols.CallsIn(c.Name, m) {
			recv, name := source.SplitPath(call.Callee)
			if recv == "this" {
				visit(name, direct && !call.InCallback)
			}
			// this.m.bind(this) hands the method out as a callback.
			if name == "bind" {
				if r, n := source.SplitPath(recv); r == "this" {
					visit(n, false)
				}
			}
			for _, a := range call.Args {
				if r, n := source.SplitPath(source.Path(a)); r == "this" && a.Kind == "member_expression" {
					visit(n, false)
				}
			}
		}
	}
	return reached
}

// declaredIn reports whether name is a parameter or variable of the
// function enclosing n, or of any function around it.
func declaredIn(n *source.Node, name string) bool {
	if name == "" || name == "this" {
		return false
	}
	for fn := source.EnclosingFunction(n); fn != nil; fn = source.EnclosingFunction(fn) {
		if declares(fn, name) {
			return true
		}
	}
	return false
}

func declares(fn *source.Node, name string) bool {
	found := false
	if params := fn.Field("parameters"); params != nil {
		source.Walk(params, func(c *source.Node) bool {
			if c.Kind == "identifier" && c.Text() == name {
				found = true
			}
			return !found
		})
	}
	if p := fn.Field("parameter"); p != nil && p.Text() == name {
		return true
	}
	if found {
		return true
	}
	source.Walk(fn.Field("body"), func(c *source.Node) bool {
		if found || source.IsFunction(c) {
			return false
		}
		if c.Kind == "variable_declarator" {
			target := c.Field("name")
			source.Walk(target, func(id *source.Node) bool {
				if id.Is("identifier", "shorthand_property_identifier_pattern") && id.Text() == name {
					found = true
				}
				return !found
			})
		}
		return !found
	})
	return found
}

// isLocal reports whether a path is rooted in a function-local binding.
func isLocal(at *source.Node, path string) bool {
	if path == "" || strings.HasPrefix(path, "this.") || path == "this" {
		return false
	}
	root, _, _ := strings.Cut(path, ".")
	root = strings.TrimSuffix(root, "()")
	root = strings.TrimSuffix(root, "[]")
	return declaredIn(at, root)
}

var collectionAdders = map[string]bool{"push": true, "unshift": true, "set": true, "add": true}

// collectionOf returns "<receiver>[]" when the call result flows
// directly into an array or map insertion: this._ids.push(x.connect(...)).
func collectionOf(f *source.File, n *source.Node) string {
	p := n.Parent
	for p != nil && p.Is("parenthesized_expression", "array", "pair", "object") {
		p = p.Parent
	}
	if p == nil || p.Kind != "arguments" {
		return ""
	}
	call := f.Symbols.CallAt(p.Parent)
	if call == nil || !collectionAdders[call.Name()] {
		return ""
	}
	if recv := call.Receiver(); recv != "" && !strings.Contains(recv, "?") {
		return recv + "[]"
	}
	return ""
}

// pushedInto follows a local handle into a collection in the same method:
// const id = x.connect(...); this._ids.push(id).
func pushedInto(f *source.File, c *source.Call, local string) string {
	for _, other := range f.Symbols.CallsIn(c.Class, c.Method) {
		if !collectionAdders[other.Name()] || other.Node.StartByte < c.Node.EndByte {
			continue
		}
		for _, a := range other.Args {
			if source.Path(a) == local {
				return other.Receiver() + "[]"
			}
		}
	}
	return ""
}

// passedAsArg reports whether n is itself an argument of another call.
func passedAsArg(n *source.Node) bool {
	return argumentsOf(n) != nil
}

// passedToChildAdder reports whether n is a direct argument of a
// child-adding call on a this-rooted parent.
func passedToChildAdder(f *source.File, n *source.Node) bool {
	args := argumentsOf(n)
	if args == nil {
		return false
	}
	c := f.Symbols.CallAt(args.Parent)
	return c != nil && isChildAdder(c)
}

func argumentsOf(n *source.Node) *source.Node {
	p := n.Parent
	for p != nil && p.Kind == "parenthesized_expression" {
		p = p.Parent
	}
	if p == nil || p.Kind != "arguments" {
		return nil
	}
	return p
}
