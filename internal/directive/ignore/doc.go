// Package ignore provides // ego-lint-ignore directive parsing.
//
// # Overview
//
// The ignore directives suppress findings for one line, for all rules or
// for the rules they name.
//
// # Directive Placement
//
// The next-line form sits on its own line above the code:
//
//	// ego-lint-ignore-next-line: R-WEB-01
//	const id = setTimeout(cb, 10);  // Finding suppressed
//
// The same-line form trails the code it applies to:
//
//	const id = setTimeout(cb, 10);  // ego-lint-ignore: R-WEB-01
//
// # Rule Lists
//
//	┌─────────────────────────────────────────────┬──────────────────────────┐
//	│ Directive                                   │ Suppresses               │
//	├─────────────────────────────────────────────┼──────────────────────────┤
//	│ // ego-lint-ignore-next-line                │ every rule, next line    │
//	│ // ego-lint-ignore-next-line: R-WEB-01      │ R-WEB-01, next line      │
//	│ // ego-lint-ignore: R-WEB-01, R-LIFE-02     │ both rules, same line    │
//	│ // ego-lint-ignore: R-LOG-01 - for bug logs │ R-LOG-01; reason ignored │
//	└─────────────────────────────────────────────┴──────────────────────────┘
//
// # Map Structure
//
//	type Map map[int][]*Entry  // target line → directives
//
//	type Set map[string]Map    // file → map
//
// # Applying
//
// Use [Set.Apply] to split a unit's findings:
//
//	set := ignore.BuildUnit(u)
//	kept, suppressed := set.Apply(findings)
//
// Suppressed findings keep their place in the report with Suppressed set.
// UNUSED_SUPPRESSION findings can never be suppressed.
//
// # Unused Directive Detection
//
// The set tracks which directives matched. [Set.Findings] reports each
// directive, or the rule IDs of a directive, that matched nothing:
//
//	// ego-lint-ignore-next-line: R-LIFE-02  // UNUSED_SUPPRESSION
//	normalCode();                            // No finding to suppress
package ignore
