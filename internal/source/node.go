package source

// Node is an owned syntax tree node. It outlives the parser tree it was
// converted from, so files can be analyzed after the parser is closed.
type Node struct {
	Kind      string
	StartLine int // 1-based
	EndLine   int // 1-based
	StartByte uint32
	EndByte   uint32

	// Children holds the named, non-comment children in source order.
	Children []*Node
	// Tokens holds the anonymous children (keywords, punctuation).
	Tokens []string
	Parent *Node

	fields map[string]*Node
	src    []byte
}

// Field returns the child bound to a grammar field, or nil.
func (n *Node) Field(name string) *Node {
	if n == nil || n.fields == nil {
		return nil
	}
	return n.fields[name]
}

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	if n == nil || int(n.EndByte) > len(n.src) || n.StartByte > n.EndByte {
		return ""
	}
	return string(n.src[n.StartByte:n.EndByte])
}

// Is reports whether the node has one of the given kinds.
func (n *Node) Is(kinds ...string) bool {
	if n == nil {
		return false
	}
	for _, k := range kinds {
		if n.Kind == k {
			return true
		}
	}
	return false
}

// HasToken reports whether an anonymous child with the given text exists.
func (n *Node) HasToken(tok string) bool {
	if n == nil {
		return false
	}
	for _, t := range n.Tokens {
		if t == tok {
			return true
		}
	}
	return false
}

// FirstChild returns the first named child of the given kind.
func (n *Node) FirstChild(kind string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// Ancestor returns the nearest ancestor of one of the given kinds.
func (n *Node) Ancestor(kinds ...string) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(kinds...) {
			return p
		}
	}
	return nil
}

// Contains reports whether other lies within n.
func (n *Node) Contains(other *Node) bool {
	return n != nil && other != nil && n.StartByte <= other.StartByte && other.EndByte <= n.EndByte
}

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, fn)
	}
}

// Unwrap strips parenthesized expressions.
func Unwrap(n *Node) *Node {
	for n != nil && n.Kind == "parenthesized_expression" && len(n.Children) == 1 {
		n = n.Children[0]
	}
	return n
}

// Function kinds as produced by the javascript grammar across versions.
var functionKinds = []string{
	"arrow_function",
	"function",
	"function_expression",
	"function_declaration",
	"generator_function",
	"generator_function_declaration",
	"method_definition",
}

// IsFunction reports whether n opens a new function scope.
func IsFunction(n *Node) bool {
	return n.Is(functionKinds...)
}

// EnclosingFunction returns the nearest function node containing n.
func EnclosingFunction(n *Node) *Node {
	return n.Ancestor(functionKinds...)
}
