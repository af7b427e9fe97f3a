package version

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

func TestStringCompare(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import {Extension} from 'resource:///org/gnome/shell/extensions/extension.js';
import * as Config from 'resource:///org/gnome/shell/misc/config.js';

const [major] = Config.PACKAGE_VERSION.split('.');

export default class VersionCompareExtension extends Extension {
    enable() {
        if (Config.PACKAGE_VERSION >= '45') // want "R-VER-03"
            this._useNewAPI = true;
        if ('46' < this.metadata['shell-version'][0]) // want "R-VER-03"
            this._newer = true;
        if (Number.parseInt(major) >= 45)
            this._parsed = true;
        if (Config.PACKAGE_VERSION === '45.0')
            this._exact = true;
    }

    disable() {
        this._useNewAPI = null;
    }
}
`)
}
