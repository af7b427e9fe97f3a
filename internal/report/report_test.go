package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

func finding(id string, sev rule.Severity, unit, file string, line int) rule.Finding {
	return rule.Finding{RuleID: id, Severity: sev, Unit: unit, File: file, Line: line, Message: id + " message"}
}

func TestAggregateOrder(t *testing.T) {
	r := Aggregate([]UnitResult{
		{
			Name:     "b@test",
			Complete: true,
			Findings: []rule.Finding{
				finding("R-LOG-01", rule.Advisory, "b@test", "extension.js", 3),
				finding("R-LIFE-02", rule.Blocking, "b@test", "extension.js", 9),
			},
		},
		{
			Name:     "a@test",
			Complete: true,
			Findings: []rule.Finding{
				finding("UNUSED_SUPPRESSION", rule.Informational, "a@test", "extension.js", 1),
				finding("R-LIFE-01", rule.Blocking, "a@test", "prefs.js", 2),
				finding("R-LIFE-02", rule.Blocking, "a@test", "extension.js", 20),
				finding("R-LIFE-01", rule.Blocking, "a@test", "extension.js", 20),
			},
		},
	})

	var got []string
	for _, f := range r.Findings {
		got = append(got, location(f)+" "+f.RuleID)
	}
	assert.Equal(t, []string{
		"a@test/extension.js:20 R-LIFE-01",
		"a@test/extension.js:20 R-LIFE-02",
		"a@test/prefs.js:2 R-LIFE-01",
		"b@test/extension.js:9 R-LIFE-02",
		"b@test/extension.js:3 R-LOG-01",
		"a@test/extension.js:1 UNUSED_SUPPRESSION",
	}, got)
	assert.Equal(t, 4, r.Counts[rule.Blocking])
	assert.Equal(t, 1, r.Counts[rule.Advisory])
	assert.Equal(t, 1, r.Counts[rule.Informational])
	assert.Equal(t, "a@test", r.Units[0].Name)
	assert.NotEmpty(t, r.RunID)
}

func TestVerdicts(t *testing.T) {
	tests := []struct {
		name    string
		results []UnitResult
		want    Verdict
		code    int
	}{
		{
			name:    "clean",
			results: []UnitResult{{Name: "a", Complete: true}},
			want:    Pass,
			code:    ExitPass,
		},
		{
			name: "advisory only",
			results: []UnitResult{{Name: "a", Complete: true, Findings: []rule.Finding{
				finding("R-LOG-01", rule.Advisory, "a", "extension.js", 1),
			}}},
			want: Pass,
			code: ExitPass,
		},
		{
			name: "blocking",
			results: []UnitResult{{Name: "a", Complete: true, Findings: []rule.Finding{
				finding("R-LIFE-02", rule.Blocking, "a", "extension.js", 1),
			}}},
			want: Fail,
			code: ExitFail,
		},
		{
			name: "blocking suppressed",
			results: []UnitResult{{Name: "a", Complete: true, Suppressed: []rule.Finding{
				{RuleID: "R-LIFE-02", Severity: rule.Blocking, Suppressed: true},
			}}},
			want: Pass,
			code: ExitPass,
		},
		{
			name: "fatal entry",
			results: []UnitResult{{Name: "a", Complete: true, FatalEntry: true, Findings: []rule.Finding{
				finding(rule.FatalParse, rule.Blocking, "a", "extension.js", 4),
			}}},
			want: Fail,
			code: ExitFatalParse,
		},
		{
			name: "cancelled",
			results: []UnitResult{
				{Name: "a", Complete: true, Findings: []rule.Finding{
					finding("R-LIFE-02", rule.Blocking, "a", "extension.js", 1),
				}},
				{Name: "b"},
			},
			want: Incomplete,
			code: ExitIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Aggregate(tt.results)
			assert.Equal(t, tt.want, r.Verdict)
			assert.Equal(t, tt.code, ExitCode(r))
		})
	}
}

func TestWriteJSON(t *testing.T) {
	r := Aggregate([]UnitResult{{Name: "a", Complete: true, Files: 2, Findings: []rule.Finding{
		finding("R-LIFE-02", rule.Blocking, "a", "extension.js", 7),
	}}})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))

	var decoded struct {
		Verdict  string `json:"verdict"`
		Findings []struct {
			Rule     string `json:"rule"`
			Severity string `json:"severity"`
			Line     int    `json:"line"`
		} `json:"findings"`
		Suppressed []json.RawMessage `json:"suppressed"`
		Units      []struct {
			Name  string `json:"name"`
			Files int    `json:"files"`
		} `json:"units"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "FAIL", decoded.Verdict)
	require.Len(t, decoded.Findings, 1)
	assert.Equal(t, "R-LIFE-02", decoded.Findings[0].Rule)
	assert.Equal(t, "blocking", decoded.Findings[0].Severity)
	assert.Equal(t, 7, decoded.Findings[0].Line)
	assert.NotNil(t, decoded.Suppressed)
	assert.Equal(t, 2, decoded.Units[0].Files)
}

func TestWriteTextLocationOnce(t *testing.T) {
	f := finding("R-LIFE-01", rule.Blocking, "a", "lib/panel.js", 14)
	f.Message = "lib/panel.js:14: signal handler is not disconnected in disable()"
	r := Aggregate([]UnitResult{{Name: "a", Complete: true, Findings: []rule.Finding{f}}})

	var text, js bytes.Buffer
	require.NoError(t, WriteText(&text, r, false))
	assert.Contains(t, text.String(), "a/lib/panel.js:14 [blocking] R-LIFE-01 signal handler is not disconnected in disable()\n")

	require.NoError(t, WriteJSON(&js, r))
	assert.Contains(t, js.String(), `"lib/panel.js:14: signal handler is not disconnected in disable()"`)
}

func TestWriteText(t *testing.T) {
	r := Aggregate([]UnitResult{
		{Name: "a", Complete: true, Findings: []rule.Finding{
			finding("R-LIFE-02", rule.Blocking, "a", "extension.js", 7),
		}, Suppressed: []rule.Finding{
			{RuleID: "R-LOG-01", Severity: rule.Advisory, Suppressed: true},
		}},
		{Name: "b"},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r, false))
	assert.Equal(t, "a/extension.js:7 [blocking] R-LIFE-02 R-LIFE-02 message\n"+
		"b: not analyzed\n"+
		"1 finding(s) suppressed\n"+
		"INCOMPLETE 1 blocking, 0 advisory, 0 informational in 2 unit(s)\n", buf.String())
}
