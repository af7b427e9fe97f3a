package source

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, name, src string) *File {
	t.Helper()
	f, err := Build(context.Background(), NewTreeSitter(), name, RoleFor(name), []byte(src))
	require.NoError(t, err)
	return f
}

const extensionSrc = `import GLib from 'gi://GLib';
import * as Main from 'resource:///org/gnome/shell/ui/main.js';
import {Extension, gettext as _} from 'resource:///org/gnome/shell/extensions/extension.js';
import {Manager} from './lib/manager.js';

let counter = 0;

export default class Demo extends Extension {
    enable() {
        this._manager = new Manager();
        this._id = Main.overview.connect('showing', () => {
            this._sourceId = GLib.timeout_add(GLib.PRIORITY_DEFAULT, 10, () => GLib.SOURCE_REMOVE);
        });
    }

    async _load() {
        const [ok] = await this._file.load_contents_async(null);
    }

    disable() {
        Main.overview.disconnect(this._id); // trailing note
    }
}
`

func TestBuild_Imports(t *testing.T) {
	f := build(t, "extension.js", extensionSrc)

	assert.Equal(t, RoleEntry, f.Role)
	require.Len(t, f.Symbols.Imports, 5)

	glib, ok := f.Symbols.Import("GLib")
	require.True(t, ok)
	assert.Equal(t, ImportDefault, glib.Kind)
	assert.Equal(t, "gi://GLib", glib.Source)

	main, ok := f.Symbols.Import("Main")
	require.True(t, ok)
	assert.Equal(t, ImportNamespace, main.Kind)

	tr, ok := f.Symbols.Import("_")
	require.True(t, ok)
	assert.Equal(t, "gettext", tr.Imported)
	assert.Equal(t, ImportNamed, tr.Kind)

	mgr, ok := f.Symbols.Import("Manager")
	require.True(t, ok)
	assert.Equal(t, "./lib/manager.js", mgr.Source)
}

func TestBuild_Classes(t *testing.T) {
	f := build(t, "extension.js", extensionSrc)

	c := f.Symbols.DefaultClass()
	require.NotNil(t, c)
	assert.Equal(t, "Demo", c.Name)
	assert.Equal(t, "Extension", c.Extends)
	assert.Equal(t, []string{"enable", "_load", "disable"}, c.Order)
	assert.NotNil(t, c.Method("disable"))
	assert.Nil(t, c.Method("destroy"))
}

func TestBuild_Calls(t *testing.T) {
	f := build(t, "extension.js", extensionSrc)

	byCallee := make(map[string]*Call)
	for _, c := range f.Symbols.Calls {
		byCallee[c.Callee] = c
	}

	mgr := byCallee["Manager"]
	require.NotNil(t, mgr)
	assert.True(t, mgr.IsNew)
	assert.Equal(t, "this._manager", mgr.AssignedTo)
	assert.Equal(t, "enable", mgr.Method)

	conn := byCallee["Main.overview.connect"]
	require.NotNil(t, conn)
	assert.Equal(t, "this._id", conn.AssignedTo)
	assert.Equal(t, "Main.overview", conn.Receiver())
	assert.Equal(t, "connect", conn.Name())
	assert.False(t, conn.InCallback)
	assert.Len(t, conn.Args, 2)

	timer := byCallee["GLib.timeout_add"]
	require.NotNil(t, timer)
	assert.True(t, timer.InCallback)
	assert.Equal(t, "this._sourceId", timer.AssignedTo)
	assert.Equal(t, 12, timer.Line)

	load := byCallee["this._file.load_contents_async"]
	require.NotNil(t, load)
	assert.True(t, load.Awaited)
	assert.Equal(t, "_load", load.Method)
}

func TestBuild_BindingsAndComments(t *testing.T) {
	f := build(t, "extension.js", extensionSrc)

	require.Len(t, f.Symbols.Bindings, 1)
	assert.Equal(t, Binding{Name: "counter", Kind: "let", Line: 6}, f.Symbols.Bindings[0])

	require.Len(t, f.Comments, 1)
	assert.True(t, f.Comments[0].Trailing)
	assert.Equal(t, 21, f.Comments[0].Line)
}

func TestFile_Line(t *testing.T) {
	f := build(t, "extension.js", extensionSrc)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "let counter = 0;", f.Line(6))
		}()
	}
	wg.Wait()

	assert.Equal(t, "import GLib from 'gi://GLib';", f.Line(1))
	assert.Empty(t, f.Line(0))
	assert.Empty(t, f.Line(1000))
}

func TestBuild_RegisterClass(t *testing.T) {
	src := `import GObject from 'gi://GObject';
import St from 'gi://St';

export const Indicator = GObject.registerClass({
    GTypeName: 'DemoIndicator',
}, class Indicator extends St.BoxLayout {
    _init() {
        super._init();
    }
});
`
	f := build(t, "indicator.js", src)

	c := f.Symbols.Class("Indicator")
	require.NotNil(t, c)
	assert.True(t, c.Registered)
	assert.Equal(t, "DemoIndicator", c.GTypeName)
	assert.Equal(t, "St.BoxLayout", c.Extends)
	assert.Equal(t, RoleHelper, f.Role)
}

func TestBuild_ParseError(t *testing.T) {
	src := "export default class Broken {\n    enable() {\n        this._x = ;\n    }\n"
	_, err := Build(context.Background(), NewTreeSitter(), "extension.js", RoleEntry, []byte(src))

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "extension.js", perr.File)
	assert.Positive(t, perr.Line)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, NewTreeSitter(), "extension.js", RoleEntry, []byte("let a = 1;"))
	assert.ErrorIs(t, err, context.Canceled)
}
