package leak

import (
	"testing"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/linttest"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
)

func newRegistry() *registry.Registry {
	reg := registry.New()
	New().Register(reg)
	return reg
}

func TestLeaks(t *testing.T) {
	findings := linttest.Run(t, newRegistry(), `-- extension.js --
import GLib from 'gi://GLib';
import * as Main from 'resource:///org/gnome/shell/ui/main.js';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class LifecycleImbalanceExtension extends Extension {
    enable() {
        this._id1 = this._settings.connect('changed::key1', () => {});
        this._id2 = this._settings.connect('changed::key2', () => {}); // want "R-LIFE-01"
        this._id3 = this._settings.connect('changed::key3', () => {}); // want "R-LIFE-01"
        this._id4 = Main.overview.connect('showing', () => {}); // want "R-LIFE-01"
        GLib.timeout_add(GLib.PRIORITY_DEFAULT, 1000, () => GLib.SOURCE_REMOVE); // want "R-LIFE-02"
    }

    disable() {
        this._settings.disconnect(this._id1);
    }
}
`)

	for _, f := range findings {
		if f.Line == 10 && f.Message != "extension.js:10: signal handler from Main.overview.connect on Main.overview is not disconnected in disable()" {
			t.Errorf("message = %q", f.Message)
		}
		if f.Line == 11 && f.Message != "extension.js:11: timer source (discarded) from GLib.timeout_add is not removed in disable()" {
			t.Errorf("message = %q", f.Message)
		}
	}
}

func TestHelpers(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import {Poller} from './poller.js';
import {Missing} from './missing.js';

export default class Ext {
    enable() {
        this._poller = new Poller(); // want "R-RES-02"
        this._missing = new Missing(); // want "R-RES-03"
    }

    disable() {
        this._poller = null;
    }
}
-- poller.js --
import GLib from 'gi://GLib';

export class Poller {
    constructor() {
        this._id = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => true); // want "R-LIFE-02"
    }

    destroy() {
        GLib.source_remove(this._id);
    }
}
`)
}

func TestHelperWithoutRelease(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import GLib from 'gi://GLib';

class Ticker {
    start() {
        this._id = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => true); // want "R-LIFE-02"
    }
}

export default class Ext {
    enable() {
        this._ticker = new Ticker(); // want "R-RES-01"
        this._ticker.start();
    }

    disable() {
        this._ticker = null;
    }
}
`)
}

func TestReassignedTimer(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import GLib from 'gi://GLib';

export default class Ext {
    enable() {
        this._settings = this.getSettings();
        this._settings.connectObject('changed::a', () => this._schedule(), this);
        this._settings.connectObject('changed::b', () => this._reschedule(), this);
    }

    _schedule() {
        this._timerId = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 300, () => GLib.SOURCE_REMOVE); // want "R-LIFE-14"
    }

    _reschedule() {
        if (this._timerId)
            GLib.Source.remove(this._timerId);
        this._timerId = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 300, () => GLib.SOURCE_REMOVE);
    }

    disable() {
        this._settings.disconnectObject(this);
        if (this._timerId) {
            GLib.Source.remove(this._timerId);
            this._timerId = null;
        }
        this._settings = null;
    }
}
`)
}

func TestOtherKinds(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import Gio from 'gi://Gio';
import Soup from 'gi://Soup';
import St from 'gi://St';
import * as Main from 'resource:///org/gnome/shell/ui/main.js';
import {InjectionManager} from 'resource:///org/gnome/shell/extensions/extension.js';

export default class Ext {
    enable() {
        this._settings = this.getSettings(); // want "R-LIFE-16"
        this._session = new Soup.Session(); // want "R-LIFE-13"
        this._injections = new InjectionManager(); // want "R-LIFE-12"
        this._label = new St.Label({text: 'x'}); // want "R-LIFE-08"
        Main.wm.addKeybinding('toggle', this._settings, 0, 0, () => {}); // want "R-LIFE-11"
        this._ownerId = Gio.bus_own_name(Gio.BusType.SESSION, 'org.example.X', 0, null, null, null); // want "R-LIFE-07"
    }

    disable() {
    }
}
`)
}
