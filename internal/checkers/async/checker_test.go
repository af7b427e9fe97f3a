package async

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

func TestUnguardedAwait(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import Gio from 'gi://Gio';

export default class Ext {
    enable() {
        this._cancellable = new Gio.Cancellable();
        this._load();
    }

    async _load() {
        const file = Gio.File.new_for_path('/tmp/x');
        const [c] = await file.load_contents_async(this._cancellable); // want "R-ASYNC-01"
        this._data = c;
    }

    disable() {
        this._cancellable.cancel();
    }
}
`)
}

func TestGuardedAwait(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import Gio from 'gi://Gio';

export default class Ext {
    enable() {
        this._cancellable = new Gio.Cancellable();
        this._load();
    }

    async _load() {
        const file = Gio.File.new_for_path('/tmp/x');
        const [c] = await file.load_contents_async(this._cancellable);
        if (this._cancellable.is_cancelled())
            return;
        this._data = c;
    }

    disable() {
        this._cancellable.cancel();
        this._cancellable = null;
    }
}
`)
}

func TestCancellables(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import Gio from 'gi://Gio';

export default class Ext {
    enable() {
        this._cancellable = new Gio.Cancellable();
        this._proc = Gio.Subprocess.new(['true'], Gio.SubprocessFlags.NONE);
        this._proc.wait_async(this._cancellable, (p, res) => { // want "R-ASYNC-02"
            p.wait_finish(res);
        });
        this._proc.wait_check_async(null, null); // want "R-ASYNC-03"
    }

    disable() {
        this._proc.force_exit();
    }
}
`)
}
