package source

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Parser turns raw source into an owned syntax tree.
type Parser interface {
	Parse(ctx context.Context, name string, src []byte) (*Tree, error)
}

// Tree is a parsed file: its root and every comment found in it.
type Tree struct {
	Root     *Node
	Comments []*Node
}

// ParseError reports malformed source. Line is the first line holding an
// ERROR or MISSING node.
type ParseError struct {
	File string
	Line int
	Near string
}

func (e *ParseError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("%s:%d: syntax error", e.File, e.Line)
	}
	return fmt.Sprintf("%s:%d: syntax error near %q", e.File, e.Line, e.Near)
}

// ErrEmptyTree is returned when the parser yields no root node.
var ErrEmptyTree = errors.New("parser returned an empty tree")

// fieldNames are the grammar fields kept on converted nodes.
var fieldNames = []string{
	"name", "body", "object", "property", "function", "arguments",
	"left", "right", "value", "condition", "consequence", "alternative",
	"handler", "finalizer", "constructor", "parameters", "parameter",
	"source", "declaration", "operator", "argument", "key", "index",
	"label", "kind",
}

// TreeSitter is the JavaScript parser backed by tree-sitter. It is safe for
// concurrent use: every Parse call gets its own parser instance.
type TreeSitter struct{}

// NewTreeSitter returns the tree-sitter backed parser.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{}
}

// Parse parses src and converts the result into an owned tree. Syntax
// errors are returned as *ParseError.
func (TreeSitter) Parse(ctx context.Context, name string, src []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, ErrEmptyTree
	}

	if root.HasError() {
		line, near := firstError(root, src)
		return nil, &ParseError{File: name, Line: line, Near: near}
	}

	c := &converter{src: src}
	out := &Tree{Root: c.convert(root, nil)}
	out.Comments = c.comments
	return out, nil
}

// firstError locates the earliest ERROR or MISSING node.
func firstError(n *sitter.Node, src []byte) (int, string) {
	if n.IsError() || n.IsMissing() {
		near := n.Content(src)
		if len(near) > 40 {
			near = near[:40]
		}
		return int(n.StartPoint().Row) + 1, near
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		return firstError(child, src)
	}
	return int(n.StartPoint().Row) + 1, ""
}

type converter struct {
	src      []byte
	comments []*Node
}

func (c *converter) leaf(n *sitter.Node, parent *Node) *Node {
	return &Node{
		Kind:      n.Type(),
		StartLine: int(n.StartPoint().Row) + 1,
		EndLine:   int(n.EndPoint().Row) + 1,
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		Parent:    parent,
		src:       c.src,
	}
}

func (c *converter) convert(n *sitter.Node, parent *Node) *Node {
	out := c.leaf(n, parent)

	byStart := make(map[uint32]*Node)
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if !child.IsNamed() {
			out.Tokens = append(out.Tokens, child.Type())
			continue
		}
		if child.Type() == "comment" {
			c.comments = append(c.comments, c.leaf(child, out))
			continue
		}
		conv := c.convert(child, out)
		out.Children = append(out.Children, conv)
		byStart[conv.StartByte] = conv
	}

	for _, name := range fieldNames {
		fc := n.ChildByFieldName(name)
		if fc == nil {
			continue
		}
		if out.fields == nil {
			out.fields = make(map[string]*Node)
		}
		if conv, ok := byStart[fc.StartByte()]; ok && conv.Kind == fc.Type() {
			out.fields[name] = conv
			continue
		}
		// Anonymous field values (operators) become detached leaves.
		out.fields[name] = c.leaf(fc, out)
	}

	return out
}
