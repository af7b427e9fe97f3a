package volume

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/linttest"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
)

func newRegistry() *registry.Registry {
	reg := registry.New()
	New().Register(reg)
	return reg
}

func TestQuality(t *testing.T) {
	linttest.Run(t, newRegistry(), `want extension.js:5 R-QUAL-05
-- extension.js --
export function work(a) {
    console.log('here'); // want "R-LOG-01"
    try {
        a.run();
    } catch (e) {
    }
    try {
        a.run();
    } catch {
        // already gone
    }
    if (a !== null && a.b !== null && a.c !== null && a.d !== undefined) // want "R-QUAL-23"
        return;
    if (a !== null && a.b !== null)
        return;
    // The object holds a reference cycle with its parent.
    a.run_dispose();
    a.run_dispose(); // want "R-QUAL-21"
}
`)
}

func TestVolumes(t *testing.T) {
	var b strings.Builder
	b.WriteString("-- extension.js --\nexport function noisy() {\n")
	want := func(id string) string { return fmt.Sprintf(" // want %q", id) }
	for i := 1; i <= 16; i++ {
		suffix := ""
		if i == 16 {
			suffix = want("R-QUAL-13")
		}
		fmt.Fprintf(&b, "    console.debug('d%d');%s\n", i, suffix)
	}
	for i := 1; i <= 15; i++ {
		suffix := ""
		if i == 15 {
			suffix = want("R-QUAL-17")
		}
		fmt.Fprintf(&b, "    console.warn('w%d');%s\n", i, suffix)
	}
	for i := 1; i <= 4; i++ {
		suffix := ""
		if i == 4 {
			suffix = want("R-QUAL-14")
		}
		fmt.Fprintf(&b, "    Main.notify('n%d');%s\n", i, suffix)
	}
	b.WriteString("}\n")

	findings := linttest.Run(t, newRegistry(), b.String())
	require.Len(t, findings, 3)
	for _, f := range findings {
		switch f.RuleID {
		case "R-QUAL-17":
			assert.Equal(t, "extension.js:32: 31 logging calls (more than 30)", f.Message)
		case "R-QUAL-14":
			assert.Equal(t, "extension.js:36: 4 Main.notify() call sites (more than 3)", f.Message)
		case "R-QUAL-13":
			assert.Equal(t, "extension.js:17: 16 console.debug() calls (more than 15)", f.Message)
		}
	}
}
