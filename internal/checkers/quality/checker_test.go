package quality

import (
	"fmt"
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

func TestTryDensity(t *testing.T) {
	findings := linttest.Run(t, newRegistry(), `-- extension.js --
export function a(x) {
    try { // want "R-QUAL-01" "R-QUAL-01"
        x.destroy();
    } catch (e) {
        logError(e);
    }
    try {
        x.run();
    } catch (e) {
        logError(e);
    }
}

export function b(x) {
    try {
        x.stop();
    } finally {
        x.done = true;
    }
}
`)
	var msgs []string
	for _, f := range findings {
		msgs = append(msgs, f.Message)
	}
	assert.ElementsMatch(t, []string{
		"extension.js:2: 3 try blocks across 2 functions; review each for necessity",
		"extension.js:2: try/catch around a single destroy() call is usually unnecessary",
	}, msgs)

	linttest.Run(t, newRegistry(), `-- extension.js --
export function a(x) {
    try {
        x.run();
    } catch (e) {
        logError(e);
    }
}

export function b(x) {
    return x;
}

export function c(x) {
    return x;
}
`)
}

func TestTeardownFlags(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
export default class Ext {
    enable() {
        this._destroyed = false; // want "R-QUAL-06"
        this._initializing = true;
        this._pendingDestroy = false; // want "R-QUAL-03"
        load().then(() => {
            if (this._destroyed || this._pendingDestroy)
                return;
            this._initializing = false;
            if (this._pendingDestroy)
                this._teardown();
        });
    }

    disable() {
        if (this._initializing) {
            this._pendingDestroy = true;
            return;
        }
        this._destroyed = true;
    }
}
`)

	linttest.Run(t, newRegistry(), `-- extension.js --
export default class Ext {
    enable() {
        this._destroyed = false;
        load().then(() => {
            if (this._destroyed)
                return;
            this._ready = true;
        });
    }

    disable() {
        this._destroyed = true;
    }
}
`)
}

func TestMocks(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import {MockBackend} from './lib/mockBackend.js';
const MOCK_MODE = false; // want "R-QUAL-07"

export default class Ext {
    enable() {}
    disable() {}
}
-- lib/mockBackend.js --
export class MockBackend {} // want "R-QUAL-07"
`)

	tests := []struct {
		name string
		want bool
	}{
		{"extension.js", false},
		{"lib/mockData.js", true},
		{"TestUtils.js", true},
		{"lib/spec_helpers.js", true},
		{"lib/panel.test.js", true},
		{"lib/panel.spec.js", true},
		{"lib/contest.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mockFile(tt.name))
		})
	}
}

func TestConstructorResources(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import GLib from 'gi://GLib';
import GObject from 'gi://GObject';
import St from 'gi://St';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

class Poller {
    constructor(settings) {
        this._id = settings.connect('changed', () => {}); // want "R-QUAL-08"
        this._timer = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => true); // want "R-QUAL-08"
    }
}

const Button = GObject.registerClass(
class Button extends St.Button {
    _init() {
        super._init();
        this.connect('clicked', () => {});
    }
});

export default class Ext extends Extension {
    constructor(metadata) {
        super(metadata);
        this._settings = this.getSettings(); // want "R-QUAL-08"
    }

    enable() {}
    disable() {}
}
`)
}

func TestPrivateAPI(t *testing.T) {
	findings := linttest.Run(t, newRegistry(), `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';
import * as Main from 'resource:///org/gnome/shell/ui/main.js';

export default class PrivateApiTest extends Extension {
    enable() {
        let indicators = Main.panel.statusArea.quickSettings._indicators; // want "R-QUAL-15"
        let system = Main.panel.statusArea.quickSettings._system; // want "R-QUAL-15"
        Main.panel._rightBox.insert_child_at_index(this._icon, 0); // want "R-QUAL-15"
        // Main.panel._leftBox is not touched
        Main.panel.addToStatusArea(this.uuid, this._indicator);
        this._box._private = true;
    }

    disable() {
    }
}
`)
	require.Len(t, findings, 3)
	for _, f := range findings {
		if f.Line == 8 {
			assert.Equal(t, "extension.js:8: Main.panel._rightBox is private shell API; it needs a justification and a pinned shell-version", f.Message)
		}
	}
}

func TestDestroyGuards(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
export default class Ext {
    disable() {
        if (this._a) { // want "R-QUAL-18"
            this._a.destroy();
            this._a = null;
        }
        if (this._b) {
            this._b.destroy();
        }
        if (this._c) {
            this._c.destroy();
        }
        this._d?.destroy();
    }
}
`)

	linttest.Run(t, newRegistry(), `-- extension.js --
export default class Ext {
    disable() {
        if (this._a) {
            this._a.destroy();
        }
        if (this._b) {
            this._b.destroy();
        }
        this._c?.destroy();
        this._d?.destroy();
    }
}
`)
}

func TestClipboard(t *testing.T) {
	const ext = `-- extension.js --
import St from 'gi://St';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class ClipboardExt extends Extension {
    enable() {
        const clipboard = St.Clipboard.get_default();%s
        clipboard.set_text(St.ClipboardType.CLIPBOARD, 'test');
    }
    disable() {}
}
-- metadata.json --
{
  "uuid": "clipboard@test",
  "name": "Clipboard",
  "description": "%s",
  "shell-version": ["46"]
}
`
	linttest.Run(t, newRegistry(), fmt.Sprintf(ext, ` // want "R-QUAL-22"`, "Shows a button."))
	linttest.Run(t, newRegistry(), fmt.Sprintf(ext, "", "Copies the selection to the Clipboard."))
}
