package source

import "testing"

func TestPath(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"static member", "GLib.Source.remove(id);", "GLib.Source.remove"},
		{"this member", "this._settings.connect('changed', cb);", "this._settings.connect"},
		{"optional chain", "this._settings?.disconnect(id);", "this._settings.disconnect"},
		{"call in chain", "Gio.File.new_for_path(p).monitor_file(0, null);", "Gio.File.new_for_path().monitor_file"},
		{"subscript", "this._items[i].destroy();", "this._items[].destroy"},
		{"bare", "clearTimeout(id);", "clearTimeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := build(t, "x.js", tt.src)
			if len(f.Symbols.Calls) == 0 {
				t.Fatalf("no calls found in %q", tt.src)
			}
			got := f.Symbols.Calls[0].Callee
			if got != tt.want {
				t.Errorf("Path() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path     string
		wantRecv string
		wantName string
	}{
		{"GLib.Source.remove", "GLib.Source", "remove"},
		{"clearTimeout", "", "clearTimeout"},
		{"this._x.destroy", "this._x", "destroy"},
	}

	for _, tt := range tests {
		recv, name := SplitPath(tt.path)
		if recv != tt.wantRecv || name != tt.wantName {
			t.Errorf("SplitPath(%q) = (%q, %q), want (%q, %q)", tt.path, recv, name, tt.wantRecv, tt.wantName)
		}
	}
}

func TestStringValue(t *testing.T) {
	f := build(t, "x.js", "f('plain', `tmpl`, `with ${x}`, \"dq\");")
	args := f.Symbols.Calls[0].Args
	if len(args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(args))
	}

	want := []struct {
		val string
		ok  bool
	}{{"plain", true}, {"tmpl", true}, {"", false}, {"dq", true}}

	for i, w := range want {
		v, ok := StringValue(args[i])
		if v != w.val || ok != w.ok {
			t.Errorf("StringValue(arg %d) = (%q, %v), want (%q, %v)", i, v, ok, w.val, w.ok)
		}
	}
}
