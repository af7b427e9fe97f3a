package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/compat"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/metrics"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/report"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

const metadata = `-- metadata.json --
{
  "uuid": "%s",
  "name": "Test",
  "description": "A test extension.",
  "shell-version": ["45", "50"]
}
`

var leakRules = map[string]bool{
	"R-LIFE-01": true,
	"R-LIFE-02": true,
	"R-LIFE-08": true,
	"R-RES-01":  true,
	"R-RES-02":  true,
	"R-RES-03":  true,
}

func input(t *testing.T, name, archive string) unit.Input {
	t.Helper()
	in, err := unit.LoadArchive(name, []byte(archive+fmt.Sprintf(metadata, name)))
	require.NoError(t, err)
	return in
}

func run(t *testing.T, archive string) *report.Report {
	t.Helper()
	return New().Run(context.Background(), []unit.Input{input(t, "test@example.com", archive)}, Options{Workers: 1})
}

func sites(fs []rule.Finding, keep map[string]bool) []string {
	var out []string
	for _, f := range fs {
		if keep == nil || keep[f.RuleID] {
			out = append(out, fmt.Sprintf("%s:%d %s", f.File, f.Line, f.RuleID))
		}
	}
	return out
}

func TestBalancedUnit(t *testing.T) {
	r := run(t, `-- extension.js --
import GLib from 'gi://GLib';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Balanced extends Extension {
    enable() {
        this._settings = this.getSettings();
        this._sid = this._settings.connect('changed', () => {});
        this._tid = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => GLib.SOURCE_CONTINUE);
    }

    disable() {
        GLib.source_remove(this._tid);
        this._tid = null;
        this._settings.disconnect(this._sid);
        this._settings = null;
    }
}
`)
	assert.Empty(t, sites(r.Findings, leakRules))
}

func TestUnreleasedTimer(t *testing.T) {
	r := run(t, `-- extension.js --
import GLib from 'gi://GLib';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Leaky extends Extension {
    enable() {
        this._tid = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => GLib.SOURCE_CONTINUE);
    }

    disable() {
        this._tid = null;
    }
}
`)
	assert.Equal(t, []string{"extension.js:6 R-LIFE-02"}, sites(r.Findings, leakRules))
	assert.Equal(t, report.Fail, r.Verdict)
	assert.Equal(t, report.ExitFail, report.ExitCode(r))
}

func TestHelperOwnership(t *testing.T) {
	r := run(t, `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';
import {Poller} from './poller.js';

export default class Owner extends Extension {
    enable() {
        this._poller = new Poller();
    }

    disable() {
        this._poller.destroy();
        this._poller = null;
    }
}
-- poller.js --
import GLib from 'gi://GLib';

export class Poller {
    constructor() {
        this._id = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => GLib.SOURCE_CONTINUE);
    }

    destroy() {
        GLib.source_remove(this._id);
        this._id = null;
    }
}
`)
	assert.Empty(t, sites(r.Findings, leakRules))
}

func TestHelperNeverDestroyed(t *testing.T) {
	r := run(t, `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';
import {Watcher} from './lib/watcher.js';

export default class Owner extends Extension {
    enable() {
        this._watcher = new Watcher();
    }

    disable() {
        this._watcher = null;
    }
}
-- lib/watcher.js --
import GLib from 'gi://GLib';

export class Watcher {
    constructor() {
        this._tid = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => GLib.SOURCE_CONTINUE);
        this._sid = global.display.connect('window-created', () => {});
    }

    destroy() {
        GLib.source_remove(this._tid);
        global.display.disconnect(this._sid);
    }
}
`)
	assert.ElementsMatch(t, []string{
		"extension.js:6 R-RES-02",
		"lib/watcher.js:5 R-LIFE-02",
		"lib/watcher.js:6 R-LIFE-01",
	}, sites(r.Findings, leakRules))
	assert.Equal(t, report.Fail, r.Verdict)
}

func TestPrefsReplaceableWidget(t *testing.T) {
	r := run(t, `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Fine extends Extension {
    enable() {}
    disable() {}
}
-- prefs.js --
import Adw from 'gi://Adw';
import Gtk from 'gi://Gtk';
import {ExtensionPreferences} from 'resource:///org/gnome/Shell/Extensions/js/extensions/prefs.js';

export default class Prefs extends ExtensionPreferences {
    fillPreferencesWindow(window) {
        const page = new Adw.PreferencesPage();
        page.add(new Gtk.HeaderBar({}));
        window.add(page);
    }
}
`)
	assert.Equal(t, []string{"prefs.js:8 R-PREFS-04"}, sites(r.Findings, map[string]bool{"R-PREFS-04": true}))
	assert.Equal(t, report.Fail, r.Verdict)
}

const signalUnit = `-- extension.js --
import * as Main from 'resource:///org/gnome/shell/ui/main.js';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Signals extends Extension {
    enable() {
        this._settings = this.getSettings();
        this._a = this._settings.connect('changed::a', () => {});
        this._b = this._settings.connect('changed::b', () => {});
        %s
        this._c = this._settings.connect('changed::c', () => {});
        this._d = Main.overview.connect('showing', () => {});
    }

    disable() {
        this._settings.disconnect(this._a);
        this._settings = null;
    }
}
`

func TestPartialDisconnect(t *testing.T) {
	r := run(t, fmt.Sprintf(signalUnit, "// plain comment"))
	assert.Equal(t, []string{
		"extension.js:8 R-LIFE-01",
		"extension.js:10 R-LIFE-01",
		"extension.js:11 R-LIFE-01",
	}, sites(r.Findings, leakRules))
}

func TestSuppressionIdempotence(t *testing.T) {
	base := run(t, fmt.Sprintf(signalUnit, "// plain comment"))
	suppressed := run(t, fmt.Sprintf(signalUnit, "// ego-lint-ignore-next-line: R-LIFE-01"))

	var want []string
	for _, s := range sites(base.Findings, nil) {
		if s != "extension.js:10 R-LIFE-01" {
			want = append(want, s)
		}
	}
	assert.Equal(t, want, sites(suppressed.Findings, nil))
	assert.Equal(t, []string{"extension.js:10 R-LIFE-01"}, sites(suppressed.Suppressed, nil))
	for _, f := range suppressed.Suppressed {
		assert.True(t, f.Suppressed)
	}
}

func TestUnusedSuppression(t *testing.T) {
	base := run(t, fmt.Sprintf(signalUnit, "// plain comment"))
	r := run(t, fmt.Sprintf(signalUnit, "// ego-lint-ignore-next-line: R-LIFE-02"))

	assert.Empty(t, r.Suppressed)
	var unused []rule.Finding
	for _, f := range r.Findings {
		if f.RuleID == rule.UnusedSuppression {
			unused = append(unused, f)
		}
	}
	require.Len(t, unused, 1)
	assert.Equal(t, rule.Informational, unused[0].Severity)
	assert.Equal(t, 9, unused[0].Line)
	assert.Equal(t, "extension.js:9: suppression R-LIFE-02 matched no finding", unused[0].Message)
	assert.Len(t, r.Findings, len(base.Findings)+1)
}

func TestEarlyReturnDisable(t *testing.T) {
	r := run(t, `-- extension.js --
import GLib from 'gi://GLib';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Early extends Extension {
    enable() {
        this._settings = this.getSettings();
        this._sid = this._settings.connect('changed', () => {});
        this._tid = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => GLib.SOURCE_CONTINUE);
    }

    disable() {
        return;
        GLib.source_remove(this._tid);
        this._settings.disconnect(this._sid);
    }
}
`)
	assert.Equal(t, []string{
		"extension.js:7 R-LIFE-01",
		"extension.js:8 R-LIFE-02",
	}, sites(r.Findings, leakRules))
	assert.Empty(t, r.Suppressed)
}

func TestCompatRange(t *testing.T) {
	e := New()
	e.Compat = compat.New(compat.Table{{Symbol: "Shell.NewThing", Min: "46"}}, e.Catalog)
	in := input(t, "compat@example.com", `-- extension.js --
export function build() {
    return new Shell.NewThing();
}
`)
	r := e.Run(context.Background(), []unit.Input{in}, Options{Workers: 1})
	assert.Equal(t, []string{"extension.js:2 UNSUPPORTED_BELOW_MIN"},
		sites(r.Findings, map[string]bool{rule.UnsupportedBelowMin: true}))
}

func TestFatalEntry(t *testing.T) {
	r := run(t, `-- extension.js --
export default class Broken {
    enable() {
        this._x = ;
    }
}
-- lib.js --
export const x = 1;
`)
	require.Len(t, r.Units, 1)
	assert.True(t, r.Units[0].FatalEntry)
	require.Len(t, r.Findings, 1)
	assert.Equal(t, rule.FatalParse, r.Findings[0].RuleID)
	assert.Equal(t, "extension.js", r.Findings[0].File)
	assert.Equal(t, report.ExitFatalParse, report.ExitCode(r))
}

func TestHelperParseFailure(t *testing.T) {
	r := run(t, `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Fine extends Extension {
    enable() {}
    disable() {}
}
-- broken.js --
export function f( {
`)
	require.Len(t, r.Units, 1)
	assert.False(t, r.Units[0].FatalEntry)
	var fatal []string
	for _, f := range r.Findings {
		if f.RuleID == rule.FatalParse {
			fatal = append(fatal, f.File)
		}
	}
	assert.Equal(t, []string{"broken.js"}, fatal)
	assert.Equal(t, report.ExitFail, report.ExitCode(r))
}

func TestDisabledRules(t *testing.T) {
	e := New()
	in := input(t, "test@example.com", fmt.Sprintf(signalUnit, "// plain comment"))
	r := e.Run(context.Background(), []unit.Input{in}, Options{
		Workers:  1,
		Disabled: map[string]bool{"R-LIFE-01": true},
	})
	assert.Empty(t, sites(r.Findings, map[string]bool{"R-LIFE-01": true}))
}

func TestDisabledRuleDirectiveNotUnused(t *testing.T) {
	in := input(t, "test@example.com", fmt.Sprintf(signalUnit, "// ego-lint-ignore-next-line: R-LIFE-02"))
	r := New().Run(context.Background(), []unit.Input{in}, Options{
		Workers:  1,
		Disabled: map[string]bool{"R-LIFE-02": true},
	})
	assert.Empty(t, sites(r.Findings, map[string]bool{rule.UnusedSuppression: true}))
}

func TestParallelRulesMatchSequential(t *testing.T) {
	archive := fmt.Sprintf(signalUnit, "// plain comment")
	seq := New().Run(context.Background(), []unit.Input{input(t, "a@example.com", archive)}, Options{Workers: 1})
	par := New().Run(context.Background(), []unit.Input{input(t, "a@example.com", archive)}, Options{Workers: 4, ParallelRules: true})
	assert.Equal(t, sites(seq.Findings, nil), sites(par.Findings, nil))
}

func TestManyUnits(t *testing.T) {
	var inputs []unit.Input
	for i := range 6 {
		inputs = append(inputs, input(t, fmt.Sprintf("u%d@example.com", i), fmt.Sprintf(signalUnit, "// plain comment")))
	}
	m := metrics.New()
	e := New()
	e.Metrics = m
	r := e.Run(context.Background(), inputs, Options{Workers: 3})

	require.Len(t, r.Units, 6)
	for i, u := range r.Units {
		assert.Equal(t, fmt.Sprintf("u%d@example.com", i), u.Name)
		assert.True(t, u.Complete)
	}
	assert.Len(t, sites(r.Findings, map[string]bool{"R-LIFE-01": true}), 18)

	mfs, err := m.Registry.Gather()
	require.NoError(t, err)
	var units float64
	for _, mf := range mfs {
		if mf.GetName() != "egolint_units_total" {
			continue
		}
		for _, s := range mf.GetMetric() {
			units += s.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 6.0, units)
}

// cancelAfter cancels the run once it parsed a file of the named unit.
type cancelAfter struct {
	source.Parser
	file   string
	cancel context.CancelFunc
}

func (p cancelAfter) Parse(ctx context.Context, name string, src []byte) (*source.Tree, error) {
	tree, err := p.Parser.Parse(ctx, name, src)
	if strings.HasPrefix(string(src), p.file) {
		p.cancel()
	}
	return tree, err
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := New()
	e.Parser = cancelAfter{Parser: e.Parser, file: "// first", cancel: cancel}
	first := input(t, "a@example.com", "-- extension.js --\n// first\nexport default class A {}\n")
	second := input(t, "b@example.com", "-- extension.js --\n// second\nexport default class B {}\n")

	r := e.Run(ctx, []unit.Input{first, second}, Options{Workers: 1})
	require.Len(t, r.Units, 2)
	assert.True(t, r.Units[0].Complete)
	assert.False(t, r.Units[1].Complete)
	assert.Equal(t, report.Incomplete, r.Verdict)
	assert.Equal(t, report.ExitIncomplete, report.ExitCode(r))
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New().Run(ctx, []unit.Input{input(t, "a@example.com", "-- extension.js --\nexport default class A {}\n")}, Options{Workers: 2})
	require.Len(t, r.Units, 1)
	assert.False(t, r.Units[0].Complete)
	assert.Empty(t, r.Findings)
	assert.Equal(t, report.Incomplete, r.Verdict)
}
