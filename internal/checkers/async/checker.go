// Package async checks asynchronous operations started while the
// extension is enabled.
package async

import (
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

// Checker checks async handles of the lifecycle graph.
type Checker struct{}

// New creates a new async checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the async rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-ASYNC-01", c.unguarded)
	reg.RegisterFunc("R-ASYNC-02", c.notCancelled)
	reg.RegisterFunc("R-ASYNC-03", c.noCancellable)
}

func handles(p *rule.Pass) []*lifecycle.Handle {
	if p.Graph == nil {
		return nil
	}
	return p.Graph.HandlesOf(lifecycle.KindAsync)
}

func (*Checker) unguarded(p *rule.Pass) error {
	for _, h := range handles(p) {
		if h.GuardMissing {
			p.Reportf(h.Acquire.File, h.Acquire.Line, rule.Data{Call: h.Callee})
		}
	}
	return nil
}

func (*Checker) notCancelled(p *rule.Pass) error {
	for _, h := range handles(p) {
		if h.Async && h.Symbol != "" && !h.Released {
			p.Reportf(h.Acquire.File, h.Acquire.Line, rule.Data{Symbol: h.Symbol, Call: h.Callee})
		}
	}
	return nil
}

func (*Checker) noCancellable(p *rule.Pass) error {
	for _, h := range handles(p) {
		if h.Async && h.Symbol == "" {
			p.Reportf(h.Acquire.File, h.Acquire.Line, rule.Data{Call: h.Callee})
		}
	}
	return nil
}
