// Package checkers wires the rule families into a registry.
//
// # Families
//
// Every family lives in its own package and exposes a Checker with a
// Register method. Rule IDs are bound to matchers there; severities and
// messages come from the catalog.
//
//	┌──────────────┬──────────────────────────┬──────────────────────────────┐
//	│ Package      │ Rules                    │ Reads                        │
//	├──────────────┼──────────────────────────┼──────────────────────────────┤
//	│ leak         │ R-LIFE-01..16, R-RES-*   │ lifecycle graph handles/edges│
//	│ lifecycle    │ R-LIFE-03..05, 09, 17,   │ extension class, metadata    │
//	│              │ 18, R-FILE-07, R-META-01 │                              │
//	│ async        │ R-ASYNC-*                │ async handles                │
//	│ scope        │ R-INIT-*                 │ module scope, constructors   │
//	│ deprecated   │ R-DEPR-*                 │ imports, member paths        │
//	│ security     │ R-WEB-*                  │ spawn argv and command lines │
//	│ prefs        │ R-PREFS-*                │ prefs.js and its helpers     │
//	│ gobject      │ R-GOBJ-*                 │ registered classes, drawing  │
//	│ i18n         │ R-I18N-*, R-QUAL-16      │ gettext calls                │
//	│ version      │ R-VER-03                 │ ordering comparisons         │
//	│ volume       │ R-LOG-01, R-QUAL-05, 13, │ call counts, catch blocks    │
//	│              │ 14, 17, 21, 23           │                              │
//	│ quality      │ R-QUAL-01, 03, 06..08,   │ try blocks, flags, members,  │
//	│              │ 15, 18, 22               │ constructors, metadata       │
//	└──────────────┴──────────────────────────┴──────────────────────────────┘
//
// # Adding a rule
//
// Add the definition to internal/rule/catalog.yaml, then register a
// matcher under the same ID:
//
//	func (c *Checker) Register(reg *registry.Registry) {
//	    reg.RegisterFunc("R-QUAL-24", c.longMethods)
//	}
//
// A matcher reports through the pass; the engine fills in severity,
// message and unit:
//
//	func (*Checker) longMethods(p *rule.Pass) error {
//	    for _, f := range p.Unit.Files {
//	        ...
//	        p.Reportf(f.Name, line, rule.Data{Symbol: name, Count: n})
//	    }
//	    return nil
//	}
//
// Rules registered without a catalog entry are never evaluated.
package checkers
