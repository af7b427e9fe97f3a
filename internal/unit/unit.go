// Package unit models one extension unit: its source files, parse
// failures and metadata record.
package unit

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

// EntryFile is the unit-relative path of the entry module.
const EntryFile = "extension.js"

// PrefsFile is the unit-relative path of the preferences module.
const PrefsFile = "prefs.js"

// Input is one unit as handed to the analyzer: file contents keyed by
// unit-relative slash path, and the parsed metadata record.
type Input struct {
	Name        string
	Files       map[string][]byte
	Metadata    Metadata
	HasMetadata bool
}

// Failure is a file that could not be parsed.
type Failure struct {
	File string
	Line int
	Err  error
}

// Unit is the analyzable model of one extension.
type Unit struct {
	Name        string
	Metadata    Metadata
	HasMetadata bool
	Files       []*source.File
	Failures    []Failure

	byName map[string]*source.File
}

// Build parses every source file of in. Syntax errors are collected as
// Failures; any other parser error (cancellation) aborts the build.
func Build(ctx context.Context, p source.Parser, in Input) (*Unit, error) {
	u := &Unit{
		Name:        in.Name,
		Metadata:    in.Metadata,
		HasMetadata: in.HasMetadata,
		byName:      make(map[string]*source.File),
	}

	names := make([]string, 0, len(in.Files))
	for name := range in.Files {
		if strings.HasSuffix(name, ".js") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := source.Build(ctx, p, name, source.RoleFor(name), in.Files[name])
		if err != nil {
			var perr *source.ParseError
			if errors.As(err, &perr) {
				u.Failures = append(u.Failures, Failure{File: name, Line: perr.Line, Err: perr})
				continue
			}
			return nil, fmt.Errorf("unit %s: %w", in.Name, err)
		}
		u.Files = append(u.Files, f)
		u.byName[name] = f
	}
	return u, nil
}

// File returns the parsed file at a unit-relative path, or nil.
func (u *Unit) File(name string) *source.File {
	return u.byName[name]
}

// Entry returns the parsed entry module, or nil.
func (u *Unit) Entry() *source.File {
	return u.byName[EntryFile]
}

// Prefs returns the parsed preferences module, or nil.
func (u *Unit) Prefs() *source.File {
	return u.byName[PrefsFile]
}

// EntryFailed reports whether the entry module failed to parse.
func (u *Unit) EntryFailed() bool {
	for _, f := range u.Failures {
		if f.File == EntryFile {
			return true
		}
	}
	return false
}

// IsLocalImport reports whether an import source refers to a file inside
// the unit.
func IsLocalImport(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// Resolve maps a relative import in from to the unit-relative path it
// names. ok is false for non-local imports.
func Resolve(from, spec string) (string, bool) {
	if !IsLocalImport(spec) {
		return "", false
	}
	return path.Clean(path.Join(path.Dir(from), spec)), true
}

// ResolveFile resolves a relative import to a parsed file. It returns nil
// when the target is missing or failed to parse.
func (u *Unit) ResolveFile(from, spec string) *source.File {
	p, ok := Resolve(from, spec)
	if !ok {
		return nil
	}
	return u.byName[p]
}

// PrefsSide reports whether f only runs in the preferences process:
// prefs.js itself, or a helper reachable from prefs.js but not from
// extension.js.
func (u *Unit) PrefsSide(f *source.File) bool {
	if f.Role == source.RolePrefs {
		return true
	}
	if f.Role != source.RoleHelper {
		return false
	}
	return u.reachable(u.Prefs())[f.Name] && !u.reachable(u.Entry())[f.Name]
}

// reachable returns the helpers reachable through local imports from
// start.
func (u *Unit) reachable(start *source.File) map[string]bool {
	seen := make(map[string]bool)
	if start == nil {
		return seen
	}
	queue := []*source.File{start}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		for _, imp := range f.Symbols.Imports {
			t := u.ResolveFile(f.Name, imp.Source)
			if t == nil || seen[t.Name] || t.Role != source.RoleHelper {
				continue
			}
			seen[t.Name] = true
			queue = append(queue, t)
		}
	}
	return seen
}
