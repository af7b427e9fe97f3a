// Package linttest runs rule matchers over txtar fixtures and compares
// their findings with expectations written into the fixture.
//
// A trailing comment names the rules expected on its line:
//
//	this._id = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, cb); // want "R-LIFE-02"
//
// Findings on files that cannot carry comments (metadata.json) are
// expected through the archive comment, one per line:
//
//	want metadata.json:1 R-META-01
//
// Every finding must be expected and every expectation must be met.
package linttest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

var quoted = regexp.MustCompile(`"([^"]+)"`)

type key struct {
	file string
	line int
	id   string
}

func (k key) String() string {
	return fmt.Sprintf("%s:%d: %s", k.file, k.line, k.id)
}

// Load builds the unit and lifecycle graph of a txtar archive. Files that
// fail to parse are kept as unit failures.
func Load(t testing.TB, archive string) (*unit.Unit, *lifecycle.Graph) {
	t.Helper()
	in, err := unit.LoadArchive("test", []byte(archive))
	if err != nil {
		t.Fatalf("load archive: %v", err)
	}
	u, err := unit.Build(context.Background(), source.NewTreeSitter(), in)
	if err != nil {
		t.Fatalf("build unit: %v", err)
	}
	return u, lifecycle.Track(u)
}

// Run evaluates reg over the archive and checks the findings against the
// fixture's expectations. It returns the findings for further checks.
func Run(t *testing.T, reg *registry.Registry, archive string) []rule.Finding {
	t.Helper()
	u, g := Load(t, archive)
	for _, f := range u.Failures {
		t.Errorf("%s:%d: fixture does not parse: %v", f.File, f.Line, f.Err)
	}

	got := registry.Evaluate(context.Background(), reg, rule.Default(), u, g, registry.Options{})
	want := expectations(t, archive, u)

	for _, f := range got {
		k := key{f.File, f.Line, f.RuleID}
		if want[k] > 0 {
			want[k]--
			continue
		}
		t.Errorf("unexpected finding %s (%s)", k, f.Message)
	}
	var missing []string
	for k, n := range want {
		for ; n > 0; n-- {
			missing = append(missing, k.String())
		}
	}
	sort.Strings(missing)
	for _, m := range missing {
		t.Errorf("missing finding %s", m)
	}
	return got
}

func expectations(t *testing.T, archive string, u *unit.Unit) map[key]int {
	t.Helper()
	want := make(map[key]int)

	ar := txtar.Parse([]byte(archive))
	for _, line := range strings.Split(string(ar.Comment), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 3 || fields[0] != "want" {
			continue
		}
		file, ln, ok := strings.Cut(fields[1], ":")
		n, err := strconv.Atoi(ln)
		if !ok || err != nil {
			t.Fatalf("bad expectation %q", line)
		}
		want[key{file, n, fields[2]}]++
	}

	for _, f := range u.Files {
		for _, c := range f.Comments {
			text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
			if !strings.HasPrefix(text, "want ") {
				continue
			}
			for _, m := range quoted.FindAllStringSubmatch(text, -1) {
				want[key{f.Name, c.Line, m[1]}]++
			}
		}
	}
	return want
}
