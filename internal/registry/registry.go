package registry

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// Entry binds a rule ID to its matcher.
type Entry struct {
	ID      string
	Matcher rule.Matcher
}

// Registry holds the matchers of every rule family.
type Registry struct {
	entries []Entry
	byID    map[string]int
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{byID: make(map[string]int)}
}

// Register adds a matcher for id. Registering an ID twice replaces the
// earlier matcher.
func (r *Registry) Register(id string, m rule.Matcher) {
	if i, ok := r.byID[id]; ok {
		r.entries[i].Matcher = m
		return
	}
	r.byID[id] = len(r.entries)
	r.entries = append(r.entries, Entry{ID: id, Matcher: m})
}

// RegisterFunc adds a function matcher for id.
func (r *Registry) RegisterFunc(id string, fn func(*rule.Pass) error) {
	r.Register(id, rule.MatcherFunc(fn))
}

// Lookup returns the matcher for id, or nil.
func (r *Registry) Lookup(id string) rule.Matcher {
	if i, ok := r.byID[id]; ok {
		return r.entries[i].Matcher
	}
	return nil
}

// IDs returns the registered rule IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}

// Entries returns all registered entries in registration order.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Options controls rule evaluation.
type Options struct {
	// Parallel runs matchers concurrently.
	Parallel bool
	// Disabled lists rule IDs that are skipped.
	Disabled map[string]bool
}

// Evaluate runs every enabled matcher against one unit. Matchers run on
// their own pass and never see each other's findings. A matcher error or
// panic becomes an INTERNAL_ERROR finding.
func Evaluate(ctx context.Context, reg *Registry, cat *rule.Catalog, u *unit.Unit, g *lifecycle.Graph, opts Options) []rule.Finding {
	var entries []Entry
	for _, e := range reg.entries {
		if opts.Disabled[e.ID] || cat.Lookup(e.ID) == nil {
			continue
		}
		entries = append(entries, e)
	}

	results := make([][]rule.Finding, len(entries))
	run := func(i int) {
		results[i] = evaluateOne(cat, entries[i], u, g)
	}

	if opts.Parallel {
		eg, _ := errgroup.WithContext(ctx)
		for i := range entries {
			eg.Go(func() error {
				run(i)
				return nil
			})
		}
		_ = eg.Wait()
	} else {
		for i := range entries {
			run(i)
		}
	}

	var out []rule.Finding
	for _, fs := range results {
		out = append(out, fs...)
	}
	return out
}

func evaluateOne(cat *rule.Catalog, e Entry, u *unit.Unit, g *lifecycle.Graph) (out []rule.Finding) {
	p := rule.NewPass(u, g, cat.Lookup(e.ID))
	defer func() {
		if rec := recover(); rec != nil {
			out = []rule.Finding{internalError(cat, u, e.ID, fmt.Sprintf("panic: %v", rec))}
		}
	}()
	if err := e.Matcher.Check(p); err != nil {
		return []rule.Finding{internalError(cat, u, e.ID, err.Error())}
	}
	return p.Findings()
}

func internalError(cat *rule.Catalog, u *unit.Unit, id, detail string) rule.Finding {
	file := unit.EntryFile
	if u.Entry() == nil && len(u.Files) > 0 {
		file = u.Files[0].Name
	}
	return cat.New(rule.InternalError, u.Name, file, 1, rule.Data{Symbol: id, Detail: detail})
}
