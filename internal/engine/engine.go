// Package engine runs the analysis pipeline over extension units.
//
// Each unit goes through the same sequential phases:
//
//	unit.Build ─▶ lifecycle.Track ─▶ registry.Evaluate ─▶ compat.Check ─▶ ignore.Apply
//
// Units are scheduled concurrently. A unit's result is published only once
// every phase finished; units not started before cancellation are reported
// as incomplete.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/compat"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/directive/ignore"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/logger"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/metrics"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/report"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

var tracer = otel.Tracer("github.com/ZviBaratz/gnome-extension-reviewer/internal/engine")

// Options controls a run.
type Options struct {
	// Workers bounds the number of units analyzed at once. Zero or less
	// means one.
	Workers int
	// ParallelRules evaluates the matchers of a unit concurrently.
	ParallelRules bool
	// Disabled lists rule IDs that are never reported.
	Disabled map[string]bool
}

// Engine holds the immutable state shared by all units of a run.
type Engine struct {
	Parser   source.Parser
	Registry *registry.Registry
	Catalog  *rule.Catalog
	Compat   *compat.Checker
	Tracker  *lifecycle.Tracker
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// New returns an engine over the default catalog, rule families, version
// table and tree-sitter parser.
func New() *Engine {
	cat := rule.Default()
	return &Engine{
		Parser:   source.NewTreeSitter(),
		Registry: checkers.Default(),
		Catalog:  cat,
		Compat:   compat.New(compat.Default(), cat),
		Tracker:  lifecycle.New(),
	}
}

// Run analyzes every input and aggregates the results. Units that were
// not analyzed because ctx was cancelled make the report INCOMPLETE.
func (e *Engine) Run(ctx context.Context, inputs []unit.Input, opts Options) *report.Report {
	ctx, span := tracer.Start(ctx, "engine.Run", trace.WithAttributes(
		attribute.Int("units", len(inputs)),
		attribute.Int("workers", opts.Workers),
	))
	defer span.End()

	results := make([]report.UnitResult, len(inputs))
	for i, in := range inputs {
		results[i] = report.UnitResult{Name: in.Name}
	}

	eg := new(errgroup.Group)
	eg.SetLimit(max(opts.Workers, 1))
	for i, in := range inputs {
		if ctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res, err := e.Analyze(ctx, in, opts)
			if err != nil {
				logger.From(ctx).Warn("unit not analyzed", "unit", in.Name, "error", err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = eg.Wait()

	for _, res := range results {
		if !res.Complete {
			e.Metrics.ObserveUnit(string(report.Incomplete), 0, nil, 0)
		}
	}
	if err := ctx.Err(); err != nil {
		logger.From(ctx).Warn("run cancelled", "error", err)
		span.SetStatus(codes.Error, "cancelled")
	}

	r := report.Aggregate(results)
	span.SetAttributes(
		attribute.String("verdict", string(r.Verdict)),
		attribute.Int("findings", len(r.Findings)),
	)
	return r
}

// Analyze runs every phase over one unit. It returns an error only when
// the unit could not be analyzed at all.
func (e *Engine) Analyze(ctx context.Context, in unit.Input, opts Options) (report.UnitResult, error) {
	ctx, span := tracer.Start(ctx, "engine.Analyze", trace.WithAttributes(
		attribute.String("unit", in.Name),
		attribute.Int("files", len(in.Files)),
	))
	defer span.End()

	log := logger.From(ctx).With("unit", in.Name)
	log.Debug("analyzing unit", "files", len(in.Files))
	start := time.Now()

	u, err := e.build(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report.UnitResult{}, err
	}

	res := report.UnitResult{Name: u.Name, Files: len(u.Files) + len(u.Failures), Complete: true}
	findings := e.parseFailures(u, opts)

	if u.EntryFailed() {
		log.Debug("entry module failed to parse")
		res.FatalEntry = true
		res.Findings = findings
		e.observe(res, start, len(u.Failures))
		return res, nil
	}

	g := e.track(ctx, u)
	for _, a := range g.Ambiguities {
		log.Debug("ambiguous call shape",
			"file", a.Site.File, "line", a.Site.Line, "callee", a.Callee, "chosen", a.Chosen)
	}

	findings = append(findings, e.evaluate(ctx, u, g, opts)...)
	for _, f := range e.Compat.Check(u) {
		if !opts.Disabled[f.RuleID] {
			findings = append(findings, f)
		}
	}

	set := ignore.BuildUnit(u)
	res.Findings, res.Suppressed = set.Apply(findings)
	if !opts.Disabled[rule.UnusedSuppression] {
		res.Findings = append(res.Findings, set.Findings(e.Catalog, u.Name, opts.Disabled)...)
	}

	span.SetAttributes(
		attribute.Int("findings", len(res.Findings)),
		attribute.Int("suppressed", len(res.Suppressed)),
	)
	log.Debug("unit analyzed",
		"findings", len(res.Findings), "suppressed", len(res.Suppressed), "elapsed", time.Since(start))
	e.observe(res, start, len(u.Failures))
	return res, nil
}

func (e *Engine) build(ctx context.Context, in unit.Input) (*unit.Unit, error) {
	ctx, span := tracer.Start(ctx, "unit.Build")
	defer span.End()

	u, err := unit.Build(ctx, e.Parser, in)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	span.SetAttributes(
		attribute.Int("files", len(u.Files)),
		attribute.Int("parse_failures", len(u.Failures)),
	)
	return u, nil
}

func (e *Engine) track(ctx context.Context, u *unit.Unit) *lifecycle.Graph {
	_, span := tracer.Start(ctx, "lifecycle.Track")
	defer span.End()

	g := e.Tracker.Track(u)
	span.SetAttributes(
		attribute.Int("handles", len(g.Handles)),
		attribute.Int("edges", len(g.Edges)),
	)
	return g
}

func (e *Engine) evaluate(ctx context.Context, u *unit.Unit, g *lifecycle.Graph, opts Options) []rule.Finding {
	ctx, span := tracer.Start(ctx, "registry.Evaluate")
	defer span.End()

	findings := registry.Evaluate(ctx, e.Registry, e.Catalog, u, g, registry.Options{
		Parallel: opts.ParallelRules,
		Disabled: opts.Disabled,
	})
	span.SetAttributes(attribute.Int("findings", len(findings)))
	return findings
}

// parseFailures turns every file that failed to parse into a FATAL_PARSE
// finding.
func (e *Engine) parseFailures(u *unit.Unit, opts Options) []rule.Finding {
	if opts.Disabled[rule.FatalParse] && !u.EntryFailed() {
		return nil
	}
	var out []rule.Finding
	for _, f := range u.Failures {
		detail := "syntax error"
		var perr *source.ParseError
		if errors.As(f.Err, &perr) && perr.Near != "" {
			detail = fmt.Sprintf("syntax error near %q", perr.Near)
		}
		out = append(out, e.Catalog.New(rule.FatalParse, u.Name, f.File, f.Line,
			rule.Data{File: f.File, Detail: detail}))
	}
	return out
}

func (e *Engine) observe(res report.UnitResult, start time.Time, parseFailures int) {
	e.Metrics.ObserveUnit(string(res.Verdict()), time.Since(start).Seconds(), res.Findings, parseFailures)
}
