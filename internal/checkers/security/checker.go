// Package security checks process spawning and browser APIs that are
// unsafe inside gnome-shell.
package security

import (
	"path"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

var (
	browserTimers   = map[string]bool{"setTimeout": true, "setInterval": true}
	browserRemovals = map[string]bool{"clearTimeout": true, "clearInterval": true}

	syncSpawns = map[string]bool{
		"GLib.spawn_command_line_sync": true,
		"GLib.spawn_sync":              true,
	}

	trustedDirs = []string{"/usr/bin/", "/usr/sbin/", "/usr/libexec/", "/bin/", "/sbin/"}

	downloaders = map[string]bool{"curl": true, "wget": true}

	installers = []string{"pip install", "pip3 install", "npm install", "apt install", "apt-get install", "dnf install"}
)

// Checker checks spawn and browser API usage.
type Checker struct{}

// New creates a new security checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the security rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-WEB-01", c.calls(browserTimers))
	reg.RegisterFunc("R-WEB-10", c.calls(browserRemovals))
	reg.RegisterFunc("R-WEB-03", c.shellConcat)
	reg.RegisterFunc("R-WEB-04", c.pkexec)
	reg.RegisterFunc("R-WEB-05", c.calls(syncSpawns))
	reg.RegisterFunc("R-WEB-06", c.downloads)
	reg.RegisterFunc("R-WEB-07", c.installs)
}

func (*Checker) calls(callees map[string]bool) func(*rule.Pass) error {
	return func(p *rule.Pass) error {
		for _, f := range p.Unit.Files {
			for _, c := range f.Symbols.Calls {
				if !c.IsNew && callees[c.Callee] {
					p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
				}
			}
		}
		return nil
	}
}

// commands calls fn for every spawn call of the unit.
func commands(p *rule.Pass, fn func(file string, cmd command)) {
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if cmd, ok := commandOf(c); ok {
				fn(f.Name, cmd)
			}
		}
	}
}

func (*Checker) shellConcat(p *rule.Pass) error {
	commands(p, func(file string, cmd command) {
		if cmd.shellInjection() {
			p.Reportf(file, cmd.call.Line, rule.Data{Call: cmd.call.Callee})
		}
	})
	return nil
}

func (*Checker) pkexec(p *rule.Pass) error {
	commands(p, func(file string, cmd command) {
		if cmd.program() != "pkexec" {
			return
		}
		target := ""
		for _, w := range cmd.words[1:] {
			if w != "" && !strings.HasPrefix(w, "-") {
				target = w
				break
			}
		}
		if target == "" || trusted(target) {
			return
		}
		p.Reportf(file, cmd.call.Line, rule.Data{Call: cmd.call.Callee, Detail: target})
	})
	return nil
}

// trusted reports whether target resolves into a system binary directory.
// Dot segments are resolved first, so /usr/bin/../../home does not pass.
func trusted(target string) bool {
	if !path.IsAbs(target) {
		return false
	}
	clean := path.Clean(target)
	for _, d := range trustedDirs {
		if strings.HasPrefix(clean, d) {
			return true
		}
	}
	return false
}

func (*Checker) downloads(p *rule.Pass) error {
	commands(p, func(file string, cmd command) {
		if prog := cmd.program(); downloaders[prog] {
			p.Reportf(file, cmd.call.Line, rule.Data{Call: cmd.call.Callee, Detail: prog})
		}
	})
	return nil
}

func (*Checker) installs(p *rule.Pass) error {
	commands(p, func(file string, cmd command) {
		text := cmd.text()
		for _, inst := range installers {
			if strings.Contains(text, inst) {
				p.Reportf(file, cmd.call.Line, rule.Data{Call: cmd.call.Callee, Detail: inst})
				return
			}
		}
	})
	return nil
}
