package security

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

func TestSecurity(t *testing.T) {
	linttest.Run(t, newRegistry(), `-- extension.js --
import GLib from 'gi://GLib';
import Gio from 'gi://Gio';

export function run(name, dir) {
    const id = setTimeout(() => {}, 10); // want "R-WEB-01"
    clearTimeout(id); // want "R-WEB-10"
    GLib.spawn_command_line_async('notify-send ' + name); // want "R-WEB-03"
    GLib.spawn_command_line_async('notify-send hello');
    Gio.Subprocess.new(['sh', '-c', ` + "`ls ${dir}`" + `], Gio.SubprocessFlags.NONE); // want "R-WEB-03"
    Gio.Subprocess.new(['ls', dir], Gio.SubprocessFlags.NONE);
    Gio.Subprocess.new(['pkexec', '/home/user/fix.sh'], Gio.SubprocessFlags.NONE); // want "R-WEB-04"
    Gio.Subprocess.new(['pkexec', '/usr/bin/systemctl', 'restart'], Gio.SubprocessFlags.NONE);
    Gio.Subprocess.new(['pkexec', '/usr/bin/../../home/user/.local/evil.sh'], Gio.SubprocessFlags.NONE); // want "R-WEB-04"
    Gio.Subprocess.new(['pkexec', '/usr/libexec/./helper'], Gio.SubprocessFlags.NONE);
    GLib.spawn_command_line_sync('ls /tmp'); // want "R-WEB-05"
    const proc = new Gio.Subprocess({argv: ['/usr/bin/curl', '-s', 'https://example.com'], flags: 0}); // want "R-WEB-06"
    GLib.spawn_async(null, ['pip', 'install', '--user', 'requests'], null, 0, null); // want "R-WEB-07"
    return proc;
}
`)
}

func TestTrusted(t *testing.T) {
	tests := []struct {
		target string
		want   bool
	}{
		{"/usr/bin/systemctl", true},
		{"/usr/sbin//iptables", true},
		{"/usr/libexec/./helper", true},
		{"/usr/bin/../../home/user/.local/evil.sh", false},
		{"/usr/bin/../lib/helper", false},
		{"/home/user/fix.sh", false},
		{"fix.sh", false},
		{"../usr/bin/ls", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := trusted(tt.target); got != tt.want {
				t.Errorf("trusted(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}
