package deprecated

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

func TestDeprecated(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import Gtk from 'gi://Gtk?version=4.0'; // want "R-DEPR-03"
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';

const Lang = imports.lang; // want "R-DEPR-01"
const {GLib} = imports.gi; // want "R-DEPR-01"

export default class Ext extends Extension {
    enable() {
        this._settings = ExtensionUtils.getSettings(); // want "R-DEPR-02"
        this._id = Mainloop.timeout_add(100, () => true); // want "R-DEPR-02"
        this._bound = Lang.bind(this, this._run); // want "R-DEPR-02"
    }

    disable() {}
}
-- prefs.js --
import Adw from 'gi://Adw';
import {ExtensionPreferences} from 'resource:///org/gnome/Shell/Extensions/js/extensions/prefs.js';
import * as Main from 'resource:///org/gnome/shell/ui/main.js'; // want "R-DEPR-04"
import {Page} from './page.js';

export default class Prefs extends ExtensionPreferences {
    fillPreferencesWindow(window) {
        window.add(new Page());
    }
}
-- page.js --
import Gtk from 'gi://Gtk';
import * as PopupMenu from 'resource:///org/gnome/shell/ui/popupMenu.js'; // want "R-DEPR-04"

export class Page {}
`)
}

func TestLegacyScriptIsNotModule(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- lib/legacy.js --
const GLib = imports.gi.GLib;
`)
}
