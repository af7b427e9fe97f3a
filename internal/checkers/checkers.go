package checkers

import (
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/async"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/deprecated"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/gobject"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/i18n"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/leak"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/lifecycle"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/prefs"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/quality"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/scope"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/security"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/version"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/checkers/volume"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
)

// Family registers the rules of one checker package.
type Family interface {
	Register(reg *registry.Registry)
}

// Families returns every rule family in registration order.
func Families() []Family {
	return []Family{
		leak.New(),
		lifecycle.New(),
		async.New(),
		scope.New(),
		deprecated.New(),
		security.New(),
		prefs.New(),
		gobject.New(),
		i18n.New(),
		version.New(),
		volume.New(),
		quality.New(),
	}
}

// Register adds all rule families to reg.
func Register(reg *registry.Registry) {
	for _, f := range Families() {
		f.Register(reg)
	}
}

// Default returns a registry holding every rule.
func Default() *registry.Registry {
	reg := registry.New()
	Register(reg)
	return reg
}
