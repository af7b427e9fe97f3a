package security

import (
	"path"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// lineSpawns take a whole command line as their first argument.
var lineSpawns = map[string]bool{
	"GLib.spawn_command_line_async": true,
	"GLib.spawn_command_line_sync":  true,
	"Util.spawnCommandLine":         true,
}

// argvSpawns take an argv array at the given argument index.
var argvSpawns = map[string]int{
	"GLib.spawn_async":            1,
	"GLib.spawn_sync":             1,
	"GLib.spawn_async_with_pipes": 1,
	"Gio.Subprocess.new":          0,
	"Util.spawn":                  0,
	"Util.trySpawn":               0,
}

var shells = map[string]bool{"sh": true, "bash": true, "zsh": true, "dash": true}

// command is the program line a spawn call runs. Words holds the literal
// words; a non-literal argv element is kept as "" and marked in built.
type command struct {
	call  *source.Call
	line  bool
	words []string
	// built is set per word that is assembled from strings at runtime.
	built []bool
	// dynamic is set for a command line that is not a literal.
	dynamic bool
}

// program is the basename of the executable, or "".
func (c command) program() string {
	if len(c.words) == 0 {
		return ""
	}
	return path.Base(c.words[0])
}

func (c command) text() string {
	return strings.Join(c.words, " ")
}

// commandOf extracts the command of a spawn call.
func commandOf(c *source.Call) (command, bool) {
	if lineSpawns[c.Callee] {
		cmd := command{call: c, line: true}
		a := c.Arg(0)
		if v, ok := source.StringValue(a); ok {
			cmd.words = strings.Fields(v)
		} else {
			cmd.dynamic = isBuilt(a)
			cmd.words = literalPrefix(a)
		}
		return cmd, true
	}

	var argv *source.Node
	switch {
	case c.IsNew && c.Callee == "Gio.Subprocess":
		argv = property(c.Arg(0), "argv")
	case c.Name() == "spawnv":
		argv = c.Arg(0)
	default:
		i, ok := argvSpawns[c.Callee]
		if !ok {
			return command{}, false
		}
		argv = c.Arg(i)
	}
	argv = source.Unwrap(argv)
	if argv == nil || argv.Kind != "array" {
		return command{call: c}, true
	}
	cmd := command{call: c}
	for _, el := range argv.Children {
		v, ok := source.StringValue(el)
		if !ok {
			v = ""
		}
		cmd.words = append(cmd.words, v)
		cmd.built = append(cmd.built, !ok && isBuilt(el))
	}
	return cmd, true
}

// shellInjection reports whether the command hands a runtime-built
// string to a shell.
func (c command) shellInjection() bool {
	if c.line {
		return c.dynamic
	}
	for i := 1; i+1 < len(c.words); i++ {
		if c.words[i] == "-c" && shells[path.Base(c.words[i-1])] && c.built[i+1] {
			return true
		}
	}
	return false
}

// isBuilt reports whether n is string concatenation or an interpolated
// template.
func isBuilt(n *source.Node) bool {
	n = source.Unwrap(n)
	switch {
	case n == nil:
		return false
	case n.Kind == "template_string":
		return n.FirstChild("template_substitution") != nil
	case n.Kind == "binary_expression":
		return n.Field("operator").Text() == "+"
	}
	return false
}

// literalPrefix returns the words of the leading literal of a
// concatenation ("pkexec " + path -> ["pkexec"]).
func literalPrefix(n *source.Node) []string {
	n = source.Unwrap(n)
	for n != nil && n.Kind == "binary_expression" {
		n = source.Unwrap(n.Field("left"))
	}
	if v, ok := source.StringValue(n); ok {
		return strings.Fields(v)
	}
	if n != nil && n.Kind == "template_string" {
		t := n.Text()
		if i := strings.Index(t, "${"); i > 0 {
			return strings.Fields(t[1:i])
		}
	}
	return nil
}

func property(obj *source.Node, key string) *source.Node {
	obj = source.Unwrap(obj)
	if obj == nil || obj.Kind != "object" {
		return nil
	}
	for _, pair := range obj.Children {
		if pair.Kind == "pair" && strings.Trim(pair.Field("key").Text(), `'"`) == key {
			return pair.Field("value")
		}
	}
	return nil
}
