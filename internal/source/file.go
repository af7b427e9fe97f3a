package source

import (
	"context"
	"strings"
)

// Role is the part a file plays inside an extension unit.
type Role string

const (
	RoleEntry  Role = "entry"
	RoleHelper Role = "helper"
	RolePrefs  Role = "prefs"
)

// RoleFor derives the role of a unit-relative path.
func RoleFor(path string) Role {
	switch path {
	case "extension.js":
		return RoleEntry
	case "prefs.js":
		return RolePrefs
	}
	return RoleHelper
}

// Comment is a source comment with its placement.
type Comment struct {
	Line int
	Text string
	// Trailing is set when code precedes the comment on its line.
	Trailing bool
}

// File is the source model of one file: its tree, comments and symbols.
type File struct {
	Name     string
	Role     Role
	Src      []byte
	Root     *Node
	Comments []Comment
	Symbols  *Symbols

	lines []string
}

// Line returns the text of a 1-based line, or "". The line table is
// built once in Build, so Line is safe for concurrent readers.
func (f *File) Line(n int) string {
	if n < 1 || n > len(f.lines) {
		return ""
	}
	return f.lines[n-1]
}

// Lines returns the number of lines in the file.
func (f *File) Lines() int {
	return len(f.lines)
}

// CommentOn returns the comments that start on line n.
func (f *File) CommentOn(n int) []Comment {
	var out []Comment
	for _, c := range f.Comments {
		if c.Line == n {
			out = append(out, c)
		}
	}
	return out
}

// Build parses one file and extracts its symbol table. A syntax error is
// returned as *ParseError and no model is produced.
func Build(ctx context.Context, p Parser, name string, role Role, src []byte) (*File, error) {
	tree, err := p.Parse(ctx, name, src)
	if err != nil {
		return nil, err
	}

	f := &File{
		Name:  name,
		Role:  role,
		Src:   src,
		Root:  tree.Root,
		lines: strings.Split(string(src), "\n"),
	}
	for _, c := range tree.Comments {
		f.Comments = append(f.Comments, Comment{
			Line:     c.StartLine,
			Text:     c.Text(),
			Trailing: codeBefore(src, c.StartByte),
		})
	}
	f.Symbols = extract(f)
	return f, nil
}

func codeBefore(src []byte, at uint32) bool {
	for i := int(at) - 1; i >= 0 && i < len(src); i-- {
		switch src[i] {
		case '\n':
			return false
		case ' ', '\t', '\r':
			continue
		default:
			return true
		}
	}
	return false
}
