package scope

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

func TestModuleScope(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import Gio from 'gi://Gio';
import * as Main from 'resource:///org/gnome/shell/ui/main.js';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

Gio._promisify(Gio.File.prototype, 'load_contents_async');

// Module-scope shell modification.
Main.panel.addToStatusArea('test', null); // want "R-INIT-01"

let proxy = new Gio.DBusProxy(); // want "R-INIT-01"

const later = () => Main.notify('deferred');

export default class InitModExtension extends Extension {
    constructor(metadata) {
        super(metadata);
        this._file = new Gio.File.new_for_path('/tmp/test'); // want "R-INIT-01"
    }

    enable() {
        this._data = proxy.get_cached_property('SomeProperty');
        later();
    }

    disable() {
        this._data = null;
    }
}
`)
}

func TestRegisteredConstructor(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import GObject from 'gi://GObject';
import St from 'gi://St';
import * as Main from 'resource:///org/gnome/shell/ui/main.js';
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';
import * as QuickSettings from 'resource:///org/gnome/shell/ui/quickSettings.js';

const MyToggle = GObject.registerClass(
    class MyToggle extends QuickSettings.QuickMenuToggle {
        constructor(settings) {
            super();
            this._icon = new St.Icon({icon_name: 'test'});
            const menu = Main.panel.statusArea.quickSettings;
        }
    }
);

export default class TestExtension extends Extension {
    enable() {
        Gio._promisify(Gio.File.prototype, 'load_contents_async'); // want "R-INIT-02"
        this._toggle = new MyToggle(this.getSettings());
    }

    disable() {
        this._toggle?.destroy();
        this._toggle = null;
    }
}
`)
}

func TestModuleState(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

let indicator = null;
let settings = null;
let count = 0;
const NAME = 'x';

export default class StateExtension extends Extension {
    enable() {
        indicator = this._build(); // want "R-INIT-03"
        settings = this.getSettings();
        count += 1; // want "R-INIT-03"
        let local = 1;
        local = 2;
    }

    disable() {
        settings = null;
    }

    _build() {
        return NAME;
    }
}
`)
}
