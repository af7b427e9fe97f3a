// Package registry maps rule IDs to matchers and evaluates them.
//
// # Overview
//
// Each rule family registers one matcher per rule ID:
//
//	reg := registry.New()
//	reg.RegisterFunc("R-LIFE-01", func(p *rule.Pass) error {
//	    for _, h := range p.Graph.HandlesOf(lifecycle.KindSignal) {
//	        ...
//	        p.Reportf(h.Acquire.File, h.Acquire.Line, rule.Data{Symbol: h.Symbol})
//	    }
//	    return nil
//	})
//
// Severity and message come from the catalog, never from the matcher.
//
// # Evaluation
//
// [Evaluate] gives every matcher its own [rule.Pass]:
//
//	┌───────────────┬──────────────────────────────────────────────┐
//	│ Situation     │ Result                                       │
//	├───────────────┼──────────────────────────────────────────────┤
//	│ nil error     │ findings of the pass                         │
//	│ error         │ one INTERNAL_ERROR finding, nothing else     │
//	│ panic         │ one INTERNAL_ERROR finding, nothing else     │
//	│ disabled ID   │ skipped                                      │
//	│ ID not in the │ skipped                                      │
//	│ catalog       │                                              │
//	└───────────────┴──────────────────────────────────────────────┘
//
// Findings are concatenated in registration order, so sequential and
// parallel evaluation return the same list.
package registry
