// Package source builds the source model of one extension file.
//
// # Overview
//
// A file goes through two steps:
//
//	raw bytes --Parser--> Tree (owned Node tree + comments)
//	Tree      --extract--> Symbols (imports, classes, calls, members, literals)
//
// The [Parser] is a supplied capability. [TreeSitter] implements it with the
// tree-sitter JavaScript grammar and converts the cgo tree into plain [Node]
// values, so the model can be shared across goroutines once built.
//
// # Paths
//
// Callees and member accesses are rendered as dotted paths (see [Path]).
// Matching downstream is done on these strings, not on resolved types:
//
//	this._settings.connect('changed', cb)  -> "this._settings.connect"
//	new St.Label({text})                   -> "St.Label" (IsNew)
//	file.monitor_file(flags, null)         -> "file.monitor_file"
//
// # Failure
//
// Malformed input never panics. A tree holding ERROR or MISSING nodes is
// reported as *[ParseError] and the file is left out of the model.
package source
