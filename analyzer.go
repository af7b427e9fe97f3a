// Package egolint reviews GNOME Shell extensions for resource leaks,
// lifecycle mistakes and unsafe API use.
//
// A unit is one extension source tree: extension.js, prefs.js, helper
// modules and metadata.json. Units are loaded from directories or txtar
// archives and analyzed without running any of their code.
package egolint

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/engine"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/report"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// ErrNoUnit is returned when an input holds no extension unit.
var ErrNoUnit = unit.ErrNoUnit

// Options controls an analysis run.
type Options = engine.Options

// Report is the result of a run.
type Report = report.Report

// Analyzer analyzes extension units with one shared engine.
type Analyzer struct {
	Engine *engine.Engine
}

// New returns an analyzer with every rule family registered.
func New() *Analyzer {
	return &Analyzer{Engine: engine.New()}
}

// Load reads the units under each root. A root that is itself a unit
// yields one unit; otherwise its unit subdirectories are used.
func Load(roots ...string) ([]unit.Input, error) {
	var inputs []unit.Input
	for _, root := range roots {
		dirs, err := unit.Discover(root)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			in, err := unit.LoadDir(dir)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, in)
		}
	}
	if len(inputs) == 0 {
		return nil, ErrNoUnit
	}
	return inputs, nil
}

// AnalyzeDirs loads and analyzes the units under roots.
func (a *Analyzer) AnalyzeDirs(ctx context.Context, opts Options, roots ...string) (*Report, error) {
	inputs, err := Load(roots...)
	if err != nil {
		return nil, err
	}
	return a.Engine.Run(ctx, inputs, opts), nil
}

// AnalyzeArchive analyzes one unit stored as a txtar archive. The unit is
// named after its metadata uuid when it has one.
func (a *Analyzer) AnalyzeArchive(ctx context.Context, opts Options, name string, data []byte) (*Report, error) {
	in, err := unit.LoadArchive(name, data)
	if err != nil {
		return nil, err
	}
	if in.HasMetadata && in.Metadata.UUID != "" {
		in.Name = in.Metadata.UUID
	}
	return a.Engine.Run(ctx, []unit.Input{in}, opts), nil
}

// Rules returns the rule catalog ordered by category, then ID.
func (a *Analyzer) Rules() []*rule.Definition {
	return a.Engine.Catalog.Sorted()
}

// CheckDisabled rejects rule IDs missing from the catalog.
func (a *Analyzer) CheckDisabled(ids map[string]bool) error {
	var errs []error
	for id := range ids {
		if a.Engine.Catalog.Lookup(id) == nil {
			errs = append(errs, fmt.Errorf("unknown rule %q", id))
		}
	}
	return errors.Join(errs...)
}
