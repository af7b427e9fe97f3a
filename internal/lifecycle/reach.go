package lifecycle

import (
	"slices"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// event is a call or assignment inside a release method, with the
// conditions under which it executes.
type event struct {
	call   *source.Call
	assign string
	null   bool
	line   int
	// conds are the guarding conditions on the path to the event. A nil
	// entry marks an exceptional path (catch) that never counts.
	conds []*source.Node
	// loop is the collection iterated by an enclosing loop, "?" when the
	// loop does not iterate a member path.
	loop string
}

// holdsFor reports whether every condition guarding e is a self-guard on
// h: a test that mentions the handle's own symbol, receiver or key.
func (e event) holdsFor(h *Handle) bool {
	for _, c := range e.conds {
		if c == nil || !mentionsHandle(c, h) {
			return false
		}
	}
	return true
}

func mentionsHandle(cond *source.Node, h *Handle) bool {
	if coll := h.Collection(); coll != "" {
		return source.Mentions(cond, coll)
	}
	if source.Mentions(cond, h.Symbol) {
		return true
	}
	if h.Receiver != "" && source.Mentions(cond, h.Receiver) {
		return true
	}
	return false
}

// walker enumerates the events of a class's methods following the
// control-flow shapes that matter for cleanup: sequences, if/return,
// try/catch/finally, loops and switch. this.m() calls are inlined.
type walker struct {
	file   *source.File
	class  *source.Class
	memo   map[string][]event
	active map[string]bool
}

func newWalker(f *source.File, c *source.Class) *walker {
	return &walker{
		file:   f,
		class:  c,
		memo:   make(map[string][]event),
		active: make(map[string]bool),
	}
}

// method returns the events of one method. Recursive this.m() cycles
// contribute nothing past the first visit.
func (w *walker) method(name string) []event {
	if ev, ok := w.memo[name]; ok {
		return ev
	}
	m := w.class.Method(name)
	if m == nil || w.active[name] {
		return nil
	}
	w.active[name] = true
	ev, _, _ := w.stmt(m.Field("body"), nil, "")
	delete(w.active, name)
	w.memo[name] = ev
	return ev
}

func with(conds []*source.Node, extra ...*source.Node) []*source.Node {
	out := make([]*source.Node, 0, len(conds)+len(extra))
	out = append(out, conds...)
	return append(out, extra...)
}

// stmt returns the events of n, whether every path through n ends in a
// return or throw, and the conditions that the statements after n run
// under when only some paths leave early.
func (w *walker) stmt(n *source.Node, conds []*source.Node, loop string) ([]event, bool, []*source.Node) {
	if n == nil {
		return nil, false, nil
	}
	switch n.Kind {
	case "statement_block", "else_clause":
		return w.seq(n.Children, conds, loop)

	case "return_statement", "throw_statement":
		return w.expr(n, conds, loop), true, nil

	case "if_statement":
		return w.ifStmt(n, conds, loop)

	case "try_statement":
		return w.tryStmt(n, conds, loop)

	case "for_statement", "for_in_statement", "while_statement", "do_statement":
		coll := "?"
		if n.Kind == "for_in_statement" {
			if p := source.Path(n.Field("right")); p != "?" {
				coll = p
			}
		}
		evs, _, _ := w.stmt(n.Field("body"), conds, coll)
		return evs, false, nil

	case "switch_statement":
		var evs []event
		evs = append(evs, w.expr(n.Field("value"), conds, loop)...)
		guard := with(conds, n.Field("value"))
		if body := n.Field("body"); body != nil {
			for _, c := range body.Children {
				stmts := c.Children
				if c.Kind == "switch_case" && len(stmts) > 0 {
					stmts = stmts[1:]
				}
				sevs, _, _ := w.seq(stmts, guard, loop)
				evs = append(evs, sevs...)
			}
		}
		return evs, false, nil

	case "function_declaration", "class_declaration":
		return nil, false, nil
	}
	return w.expr(n, conds, loop), false, nil
}

func (w *walker) seq(stmts []*source.Node, conds []*source.Node, loop string) ([]event, bool, []*source.Node) {
	var out []event
	var extra []*source.Node
	for _, s := range stmts {
		evs, term, after := w.stmt(s, conds, loop)
		out = append(out, evs...)
		if term {
			return out, true, extra
		}
		if len(after) > 0 {
			conds = with(conds, after...)
			extra = append(extra, after...)
		}
	}
	return out, false, extra
}

func (w *walker) ifStmt(n *source.Node, conds []*source.Node, loop string) ([]event, bool, []*source.Node) {
	cond := n.Field("condition")
	evs := w.expr(cond, conds, loop)
	guarded := with(conds, cond)

	cEv, cTerm, cAfter := w.stmt(n.Field("consequence"), guarded, loop)
	evs = append(evs, cEv...)

	alt := n.Field("alternative")
	if alt == nil {
		if cTerm || len(cAfter) > 0 {
			return evs, false, []*source.Node{cond}
		}
		return evs, false, nil
	}

	aEv, aTerm, aAfter := w.stmt(alt, guarded, loop)
	evs = append(evs, aEv...)
	evs = append(evs, inBoth(cEv, aEv, len(guarded), conds)...)

	switch {
	case cTerm && aTerm:
		return evs, true, nil
	case cTerm || aTerm || len(cAfter) > 0 || len(aAfter) > 0:
		return evs, false, []*source.Node{cond}
	}
	return evs, false, nil
}

// inBoth lifts events present in both branches of an if to the outer
// conditions.
func inBoth(a, b []event, depth int, outer []*source.Node) []event {
	key := func(e event) string {
		if e.call != nil {
			return "call:" + e.call.Node.Text()
		}
		return "assign:" + e.assign
	}
	seen := make(map[string]bool)
	for _, e := range b {
		if len(e.conds) == depth {
			seen[key(e)] = true
		}
	}
	var out []event
	for _, e := range a {
		if len(e.conds) == depth && seen[key(e)] {
			e.conds = outer
			out = append(out, e)
		}
	}
	return out
}

func (w *walker) tryStmt(n *source.Node, conds []*source.Node, loop string) ([]event, bool, []*source.Node) {
	bEv, bTerm, bAfter := w.stmt(n.Field("body"), conds, loop)
	evs := bEv

	hTerm := true
	if h := n.Field("handler"); h != nil {
		var hEv []event
		hEv, hTerm, _ = w.stmt(h.Field("body"), with(conds, nil), loop)
		evs = append(evs, hEv...)
	}

	fTerm := false
	if f := n.Field("finalizer"); f != nil {
		body := f.Field("body")
		if body == nil {
			body = f.FirstChild("statement_block")
		}
		var fEv []event
		fEv, fTerm, _ = w.stmt(body, conds, loop)
		evs = append(evs, fEv...)
	}

	return evs, fTerm || bTerm && hTerm, bAfter
}

var loopMethods = map[string]bool{"forEach": true, "map": true, "filter": true, "some": true, "every": true}

// expr collects events from an expression without entering nested
// functions, except callbacks of array iteration methods.
func (w *walker) expr(n *source.Node, conds []*source.Node, loop string) []event {
	if n == nil {
		return nil
	}
	var out []event
	switch {
	case source.IsFunction(n), n.Is("class", "class_declaration"):
		return nil

	case n.Kind == "binary_expression":
		op := n.Field("operator").Text()
		left, right := n.Field("left"), n.Field("right")
		out = append(out, w.expr(left, conds, loop)...)
		if op == "&&" || op == "||" || op == "??" {
			return append(out, w.expr(right, with(conds, left), loop)...)
		}
		return append(out, w.expr(right, conds, loop)...)

	case n.Kind == "ternary_expression":
		cond := n.Field("condition")
		out = append(out, w.expr(cond, conds, loop)...)
		out = append(out, w.expr(n.Field("consequence"), with(conds, cond), loop)...)
		return append(out, w.expr(n.Field("alternative"), with(conds, cond), loop)...)

	case n.Kind == "assignment_expression":
		left, right := n.Field("left"), n.Field("right")
		out = append(out, w.expr(right, conds, loop)...)
		val := source.Unwrap(right)
		out = append(out, event{
			assign: source.Path(left),
			null:   source.IsNull(val),
			line:   n.StartLine,
			conds:  conds,
			loop:   loop,
		})
		return out

	case n.Is("call_expression", "new_expression"):
		call := w.file.Symbols.CallAt(n)
		for _, c := range n.Children {
			if c.Kind == "arguments" {
				continue
			}
			out = append(out, w.expr(c, conds, loop)...)
		}
		args := n.Field("arguments")
		if call != nil && loopMethods[call.Name()] && args != nil && len(args.Children) > 0 && source.IsFunction(args.Children[0]) {
			out = append(out, event{call: call, conds: conds, loop: loop})
			fn := args.Children[0]
			body := fn.Field("body")
			if body.Is("statement_block") {
				evs, _, _ := w.stmt(body, conds, call.Receiver())
				return append(out, evs...)
			}
			return append(out, w.expr(body, conds, call.Receiver())...)
		}
		if args != nil {
			for _, a := range args.Children {
				out = append(out, w.expr(a, conds, loop)...)
			}
		}
		if call == nil {
			return out
		}
		out = append(out, event{call: call, conds: conds, loop: loop})
		if recv, name := source.SplitPath(call.Callee); recv == "this" && !call.IsNew && w.class.Method(name) != nil {
			for _, e := range w.method(name) {
				e.conds = with(conds, e.conds...)
				if e.loop == "" {
					e.loop = loop
				}
				out = append(out, e)
			}
		}
		return out
	}

	for _, c := range n.Children {
		out = append(out, w.expr(c, conds, loop)...)
	}
	return out
}

// guaranteed returns the events of a method that can release h on every
// path: right shape, self-guarded conditions only.
func guaranteed(evs []event, h *Handle) (event, bool) {
	idx := slices.IndexFunc(evs, func(e event) bool {
		return e.holdsFor(h) && releases(h, e)
	})
	if idx < 0 {
		return event{}, false
	}
	return evs[idx], true
}
