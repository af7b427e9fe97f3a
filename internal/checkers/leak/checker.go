// Package leak reports resources the lifecycle graph found unreleased.
package leak

import (
	"sort"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

// ruleFor maps a handle kind to its leak rule.
var ruleFor = map[lifecycle.Kind]string{
	lifecycle.KindSignal:      "R-LIFE-01",
	lifecycle.KindTimer:       "R-LIFE-02",
	lifecycle.KindSubprocess:  "R-LIFE-06",
	lifecycle.KindDBusExport:  "R-LIFE-07",
	lifecycle.KindDBusName:    "R-LIFE-07",
	lifecycle.KindWidget:      "R-LIFE-08",
	lifecycle.KindFileMonitor: "R-LIFE-10",
	lifecycle.KindKeybinding:  "R-LIFE-11",
	lifecycle.KindInjection:   "R-LIFE-12",
	lifecycle.KindSoupSession: "R-LIFE-13",
	lifecycle.KindDBusProxy:   "R-LIFE-15",
	lifecycle.KindSettings:    "R-LIFE-16",
}

// Checker reports leaked handles and unsatisfied ownership edges.
type Checker struct{}

// New creates a new leak checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the leak rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	byRule := make(map[string][]lifecycle.Kind)
	var ids []string
	for k, id := range ruleFor {
		if _, ok := byRule[id]; !ok {
			ids = append(ids, id)
		}
		byRule[id] = append(byRule[id], k)
	}
	sort.Strings(ids)
	for _, id := range ids {
		reg.RegisterFunc(id, c.leaked(byRule[id]))
	}
	reg.RegisterFunc("R-LIFE-14", c.reassigned)
	reg.RegisterFunc("R-RES-01", c.noRelease)
	reg.RegisterFunc("R-RES-02", c.releaseNotCalled)
	reg.RegisterFunc("R-RES-03", c.unresolved)
}

func (*Checker) leaked(kinds []lifecycle.Kind) func(*rule.Pass) error {
	return func(p *rule.Pass) error {
		if p.Graph == nil {
			return nil
		}
		for _, h := range p.Graph.HandlesOf(kinds...) {
			if !h.Leaked() {
				continue
			}
			p.Reportf(h.Acquire.File, h.Acquire.Line, Data(h))
		}
		return nil
	}
}

func (*Checker) reassigned(p *rule.Pass) error {
	if p.Graph == nil {
		return nil
	}
	for _, h := range p.Graph.HandlesOf(lifecycle.KindTimer) {
		if h.Reassigned {
			p.Reportf(h.Acquire.File, h.Acquire.Line, Data(h))
		}
	}
	return nil
}

func (*Checker) noRelease(p *rule.Pass) error {
	if p.Graph == nil {
		return nil
	}
	for _, e := range p.Graph.Edges {
		if e.Resolved && e.Reason == lifecycle.ReasonNoRelease && e.Handles > 0 {
			p.Reportf(e.Site.File, e.Site.Line, rule.Data{Symbol: e.Helper, Count: e.Handles})
		}
	}
	return nil
}

func (*Checker) releaseNotCalled(p *rule.Pass) error {
	if p.Graph == nil {
		return nil
	}
	for _, e := range p.Graph.Edges {
		if e.Resolved && e.ReleaseMethod != "" && !e.ReleaseCalled {
			p.Reportf(e.Site.File, e.Site.Line, rule.Data{Symbol: e.Field, Call: e.Field + "." + e.ReleaseMethod})
		}
	}
	return nil
}

func (*Checker) unresolved(p *rule.Pass) error {
	if p.Graph == nil {
		return nil
	}
	for _, e := range p.Graph.Edges {
		if !e.Resolved {
			p.Reportf(e.Site.File, e.Site.Line, rule.Data{Symbol: e.Helper})
		}
	}
	return nil
}

// Data describes a handle for message templates.
func Data(h *lifecycle.Handle) rule.Data {
	d := rule.Data{Symbol: h.Symbol, Call: h.Callee}
	switch h.Kind {
	case lifecycle.KindSignal:
		if h.Receiver != "" {
			d.Symbol = h.Receiver
		}
	case lifecycle.KindKeybinding:
		d.Detail = h.Key
	case lifecycle.KindDBusExport:
		d.Detail = "export"
	case lifecycle.KindDBusName:
		d.Detail = "name"
	}
	if d.Symbol == "" {
		d.Symbol = "(discarded)"
	}
	return d
}
