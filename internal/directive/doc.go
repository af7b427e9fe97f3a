// Package directive groups the parsers for comment directives embedded in
// extension sources.
//
//	directive/
//	└── ignore/    # // ego-lint-ignore directives
//
// # Directive Format
//
// All directives are line comments of the form:
//
//	// ego-lint-<directive>[: args]
//
// Examples:
//
//	// ego-lint-ignore-next-line
//	// ego-lint-ignore-next-line: R-WEB-01
//	// ego-lint-ignore: R-WEB-01,R-LIFE-02
//
// See [ignore] package for details.
package directive
