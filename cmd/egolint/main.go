// Command egolint reviews GNOME Shell extensions.
//
//	egolint [check] [flags] DIR...
//	egolint rules [-json]
//	egolint serve [-addr :8080]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	egolint "github.com/ZviBaratz/gnome-extension-reviewer"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/config"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/engine"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/logger"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/metrics"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/report"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/server"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := "check"
	if len(args) > 0 {
		switch args[0] {
		case "check", "rules", "serve":
			cmd, args = args[0], args[1:]
		case "version", "-version", "--version":
			fmt.Fprintf(stdout, "egolint %s\n", version)
			return report.ExitPass
		}
	}

	switch cmd {
	case "rules":
		return rules(args, stdout, stderr)
	case "serve":
		return serve(ctx, args, stderr)
	default:
		return check(ctx, args, stdout, stderr)
	}
}

// common holds the flags shared by check and serve. Flags left unset do
// not override the configuration.
type common struct {
	fs            *flag.FlagSet
	stderr        io.Writer
	configFile    string
	workers       int
	parallelRules bool
	disable       string
}

func newCommon(name string, stderr io.Writer) *common {
	c := &common{fs: flag.NewFlagSet(name, flag.ContinueOnError), stderr: stderr}
	c.fs.SetOutput(stderr)
	c.fs.StringVar(&c.configFile, "config", "", "read settings from a YAML `file`")
	c.fs.IntVar(&c.workers, "workers", 0, "number of units analyzed in parallel (default: number of CPUs)")
	c.fs.BoolVar(&c.parallelRules, "parallel-rules", false, "evaluate the rules of a unit in parallel")
	c.fs.StringVar(&c.disable, "disable", "", "comma-separated rule `IDs` to skip")
	return c
}

// load reads the configuration and applies every flag set on the command
// line.
func (c *common) load() (*config.Config, error) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return nil, err
	}
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "workers":
			if c.workers > 0 {
				cfg.Workers = c.workers
			}
		case "parallel-rules":
			cfg.ParallelRules = c.parallelRules
		case "disable":
			cfg.Disable = nil
			for _, id := range strings.Split(c.disable, ",") {
				if id = strings.TrimSpace(id); id != "" {
					cfg.Disable = append(cfg.Disable, id)
				}
			}
		}
	})
	logger.Init(cfg.LogLevel, cfg.LogFormat, c.stderr)
	return cfg, nil
}

func (c *common) options(cfg *config.Config) engine.Options {
	return engine.Options{
		Workers:       cfg.Workers,
		ParallelRules: cfg.ParallelRules,
		Disabled:      cfg.Disabled(),
	}
}

func check(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCommon("check", stderr)
	asJSON := c.fs.Bool("json", false, "write the report as JSON")
	color := c.fs.Bool("color", false, "colorize the text report")
	metricsFile := c.fs.String("metrics-file", "", "write Prometheus metrics to `path` after the run")
	c.fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: egolint [check] [flags] DIR...")
		c.fs.PrintDefaults()
	}
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return report.ExitPass
		}
		return report.ExitIncomplete
	}
	if c.fs.NArg() == 0 {
		c.fs.Usage()
		return report.ExitIncomplete
	}

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "color":
			cfg.Color = *color
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		}
	})

	a := egolint.New()
	if err := a.CheckDisabled(cfg.Disabled()); err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
		a.Engine.Metrics = m
	}

	r, err := a.AnalyzeDirs(ctx, c.options(cfg), c.fs.Args()...)
	if err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}

	if *asJSON {
		err = report.WriteJSON(stdout, r)
	} else {
		err = report.WriteText(stdout, r, cfg.Color)
	}
	if err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	if m != nil {
		if err := m.WriteFile(cfg.MetricsFile); err != nil {
			fmt.Fprintf(stderr, "egolint: %v\n", err)
		}
	}
	return report.ExitCode(r)
}

func rules(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rules", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "write the catalog as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return report.ExitPass
		}
		return report.ExitIncomplete
	}

	defs := egolint.New().Rules()
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(defs); err != nil {
			fmt.Fprintf(stderr, "egolint: %v\n", err)
			return report.ExitIncomplete
		}
		return report.ExitPass
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tCATEGORY\tTITLE")
	for _, d := range defs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Severity, d.Category, d.Title)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	return report.ExitPass
}

func serve(ctx context.Context, args []string, stderr io.Writer) int {
	c := newCommon("serve", stderr)
	addr := c.fs.String("addr", "", "listen `address` (default :8080)")
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return report.ExitPass
		}
		return report.ExitIncomplete
	}

	cfg, err := c.load()
	if err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	a := egolint.New()
	if err := a.CheckDisabled(cfg.Disabled()); err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	s := server.New(a.Engine, c.options(cfg), metrics.New().WithRuntime())
	if err := s.ListenAndServe(ctx, cfg.Addr); err != nil {
		fmt.Fprintf(stderr, "egolint: %v\n", err)
		return report.ExitIncomplete
	}
	return report.ExitPass
}
