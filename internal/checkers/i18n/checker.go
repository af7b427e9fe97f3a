// Package i18n checks gettext usage: translatable strings must be static
// literals and translations must come from the extension's own domain.
package i18n

import (
	"fmt"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

// translatable maps a gettext function to the indices of its msgid
// arguments.
var translatable = map[string][]int{
	"_":             {0},
	"N_":            {0},
	"gettext":       {0},
	"this.gettext":  {0},
	"ngettext":      {0, 1},
	"this.ngettext": {0, 1},
	"C_":            {0, 1},
	"pgettext":      {0, 1},
	"this.pgettext": {0, 1},
}

// Checker checks translation calls.
type Checker struct{}

// New creates a new i18n checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the i18n rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-I18N-01", c.literals)
	reg.RegisterFunc("R-I18N-02", c.domains)
	reg.RegisterFunc("R-QUAL-16", c.directDgettext)
}

func (*Checker) literals(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			idx, ok := translatable[c.Callee]
			if !ok || c.IsNew {
				continue
			}
			for _, i := range idx {
				arg := c.Arg(i)
				if arg == nil {
					continue
				}
				if _, ok := source.StringValue(arg); !ok {
					p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
					break
				}
			}
		}
	}
	return nil
}

// domain returns the gettext domain the unit declares, and where it comes
// from.
func domain(u *unit.Unit) (name, origin string) {
	if u.Metadata.GettextDomain != "" {
		return u.Metadata.GettextDomain, "gettext-domain"
	}
	for _, f := range u.Files {
		for _, c := range f.Symbols.Calls {
			if c.Name() != "initTranslations" {
				continue
			}
			if v, ok := source.StringValue(c.Arg(0)); ok {
				return v, "initTranslations()"
			}
		}
	}
	if u.HasMetadata && u.Metadata.UUID != "" {
		return u.Metadata.UUID, "the extension UUID"
	}
	return u.Name, "the extension UUID"
}

func (*Checker) domains(p *rule.Pass) error {
	want, origin := domain(p.Unit)
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if c.Name() != "dgettext" && c.Name() != "dngettext" {
				continue
			}
			got, ok := source.StringValue(c.Arg(0))
			if !ok || got == want {
				continue
			}
			p.Reportf(f.Name, c.Line, rule.Data{
				Call:   c.Callee,
				Symbol: fmt.Sprintf("%q", got),
				Detail: fmt.Sprintf("%s %q", origin, want),
			})
		}
	}
	return nil
}

// directDgettext flags dgettext reached through the Gettext module, where
// the extension's bound gettext would do.
func (*Checker) directDgettext(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		for _, c := range f.Symbols.Calls {
			if c.Name() != "dgettext" || c.Receiver() == "" {
				continue
			}
			if c.Receiver() == "Gettext" || fromGettext(f, c.Receiver()) {
				p.Reportf(f.Name, c.Line, rule.Data{Call: c.Callee})
			}
		}
	}
	return nil
}

func fromGettext(f *source.File, local string) bool {
	imp, ok := f.Symbols.Import(local)
	return ok && imp.Source == "gettext"
}
