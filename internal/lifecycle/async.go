package lifecycle

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// asyncHandle records an asynchronous operation started in the
// activation scope: any `*_async` call and any awaited call.
func asyncHandle(ci *classInfo, c *source.Call) *Handle {
	isAsync := strings.HasSuffix(c.Name(), "_async")
	if !isAsync && !c.Awaited {
		return nil
	}
	h := &Handle{
		Kind:       KindAsync,
		Acquire:    Site{File: ci.file.Name, Line: c.Line, Class: ci.class.Name, Method: c.Method},
		Callee:     c.Callee,
		Owner:      ci.class.Name,
		Async:      isAsync,
		Repeatable: c.InCallback || !ci.scope[c.Method],
		Call:       c,
	}
	if !isAsync {
		h.Exempt = ExemptAwaited
		return h
	}
	for _, a := range c.Args {
		if strings.Contains(a.Text(), "ancellable") {
			h.Symbol = source.Path(a)
			if h.Symbol == "?" {
				h.Symbol = a.Text()
			}
			break
		}
	}
	return h
}

// resolveAsync looks for a cancel of the operation's cancellable and
// checks that its continuation is guarded.
func resolveAsync(ci *classInfo, h *Handle) {
	if h.Symbol != "" {
		if ev, ok := guaranteed(ci.events, h); ok {
			h.Released = true
			h.Release = &Site{File: ci.file.Name, Line: ev.lineOf(), Class: ci.class.Name, Method: ci.release}
		}
	}
	flags := make(map[string]bool)
	for _, e := range ci.events {
		if e.call == nil && strings.HasPrefix(e.assign, "this.") {
			flags[e.assign] = true
		}
	}
	h.GuardMissing = guardMissing(h.Call, flags)
}

// guardMissing reports whether the code that runs after c completes
// mutates object state before checking an is-active guard.
func guardMissing(c *source.Call, flags map[string]bool) bool {
	if c.Awaited {
		return awaitUnguarded(c.Node, flags)
	}
	if body := continuation(c); body != nil {
		if body.Kind != "statement_block" {
			return mutates(body)
		}
		return seqUnguarded(body.Children, flags) == unguarded
	}
	return false
}

// continuation returns the body of the callback that runs when c
// completes: a .then() handler or a trailing callback argument.
func continuation(c *source.Call) *source.Node {
	if p := c.Node.Parent; p != nil && p.Kind == "member_expression" && p.Field("property").Text() == "then" {
		if call := p.Parent; call != nil && call.Kind == "call_expression" {
			if args := call.Field("arguments"); args != nil && len(args.Children) > 0 && source.IsFunction(args.Children[0]) {
				return args.Children[0].Field("body")
			}
		}
	}
	if n := len(c.Args); n > 0 && source.IsFunction(c.Args[n-1]) {
		return c.Args[n-1].Field("body")
	}
	return nil
}

type guardState int

const (
	undecided guardState = iota
	guarded
	unguarded
)

// awaitUnguarded scans the statement holding the await and everything
// after it up to the end of the enclosing function.
func awaitUnguarded(n *source.Node, flags map[string]bool) bool {
	stmt := n
	for stmt.Parent != nil && !stmt.Parent.Is("statement_block", "program") {
		if source.IsFunction(stmt.Parent) {
			return false
		}
		stmt = stmt.Parent
	}
	if assignsThis(stmt) {
		return true
	}
	for p := stmt; p != nil && !source.IsFunction(p); p = p.Parent {
		block := p.Parent
		if block == nil {
			break
		}
		if !block.Is("statement_block", "program") {
			continue
		}
		var after []*source.Node
		for i, s := range block.Children {
			if s == p {
				after = block.Children[i+1:]
				break
			}
		}
		switch seqUnguarded(after, flags) {
		case guarded:
			return false
		case unguarded:
			return true
		}
	}
	return false
}

func seqUnguarded(stmts []*source.Node, flags map[string]bool) guardState {
	for _, s := range stmts {
		if isGuard(s, flags) {
			return guarded
		}
		if mutates(s) {
			return unguarded
		}
	}
	return undecided
}

func isGuard(s *source.Node, flags map[string]bool) bool {
	if s.Kind != "if_statement" {
		return false
	}
	cond := s.Field("condition")
	if strings.Contains(cond.Text(), "is_cancelled") {
		return true
	}
	for f := range flags {
		if source.Mentions(cond, f) {
			return true
		}
	}
	return false
}

// assignsThis reports whether a statement stores its value into a field:
// this._data = await load().
func assignsThis(stmt *source.Node) bool {
	if stmt.Kind != "expression_statement" || len(stmt.Children) == 0 {
		return false
	}
	e := source.Unwrap(stmt.Children[0])
	return e.Is("assignment_expression", "augmented_assignment_expression") &&
		strings.HasPrefix(source.Path(e.Field("left")), "this.")
}

// mutates reports whether n assigns a field or calls a method on this,
// outside nested functions.
func mutates(n *source.Node) bool {
	found := false
	source.Walk(n, func(c *source.Node) bool {
		if found || source.IsFunction(c) {
			return false
		}
		switch c.Kind {
		case "assignment_expression", "augmented_assignment_expression":
			if strings.HasPrefix(source.Path(c.Field("left")), "this.") {
				found = true
			}
		case "call_expression":
			if strings.HasPrefix(source.Path(c.Field("function")), "this.") {
				found = true
			}
		}
		return !found
	})
	return found
}
