package source

import "strings"

// Path renders an expression as a dotted member path:
//
//	GLib.Source.remove           -> "GLib.Source.remove"
//	this._settings?.connect      -> "this._settings.connect"
//	Gio.File.new_for_path(p).monitor_file -> "Gio.File.new_for_path().monitor_file"
//	this._items[i].destroy       -> "this._items[].destroy"
//
// Expressions with no member shape render as "?".
func Path(n *Node) string {
	n = Unwrap(n)
	if n == nil {
		return "?"
	}
	switch n.Kind {
	case "identifier", "property_identifier", "private_property_identifier",
		"shorthand_property_identifier", "this", "super":
		return n.Text()
	case "member_expression":
		return Path(n.Field("object")) + "." + n.Field("property").Text()
	case "subscript_expression":
		return Path(n.Field("object")) + "[]"
	case "call_expression":
		return Path(n.Field("function")) + "()"
	case "new_expression":
		return Path(n.Field("constructor")) + "()"
	case "await_expression":
		if len(n.Children) > 0 {
			return Path(n.Children[0])
		}
	}
	return "?"
}

// SplitPath returns the receiver and final segment of a member path.
// A bare name has an empty receiver.
func SplitPath(path string) (recv, name string) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// StringValue returns the value of a string literal or a template literal
// without substitutions.
func StringValue(n *Node) (string, bool) {
	n = Unwrap(n)
	if n == nil {
		return "", false
	}
	switch n.Kind {
	case "string":
		t := n.Text()
		if len(t) >= 2 {
			return t[1 : len(t)-1], true
		}
	case "template_string":
		if n.FirstChild("template_substitution") != nil {
			return "", false
		}
		t := n.Text()
		if len(t) >= 2 {
			return t[1 : len(t)-1], true
		}
	}
	return "", false
}

// IsNull reports whether n is the null or undefined literal.
func IsNull(n *Node) bool {
	n = Unwrap(n)
	return n.Is("null", "undefined") || n != nil && n.Kind == "identifier" && n.Text() == "undefined"
}

// Mentions reports whether the text of any descendant path of n equals
// sym. It is used to match guard conditions like `if (this._id)`.
func Mentions(n *Node, sym string) bool {
	if sym == "" {
		return false
	}
	found := false
	Walk(n, func(c *Node) bool {
		if found {
			return false
		}
		if c.Is("member_expression", "identifier") && Path(c) == sym {
			found = true
			return false
		}
		return true
	})
	return found
}
