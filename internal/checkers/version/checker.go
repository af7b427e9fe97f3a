// Package version checks for shell version strings compared as strings.
package version

import (
	"strings"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/registry"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

var ordering = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}

// Checker checks version comparisons.
type Checker struct{}

// New creates a new version comparison checker.
func New() *Checker {
	return &Checker{}
}

// Register adds the version rules to reg.
func (c *Checker) Register(reg *registry.Registry) {
	reg.RegisterFunc("R-VER-03", c.stringCompare)
}

func (*Checker) stringCompare(p *rule.Pass) error {
	for _, f := range p.Unit.Files {
		source.Walk(f.Root, func(n *source.Node) bool {
			if n.Kind != "binary_expression" || !ordering[n.Field("operator").Text()] {
				return true
			}
			for _, side := range []*source.Node{n.Field("left"), n.Field("right")} {
				if versionString(side) {
					p.Reportf(f.Name, n.StartLine, rule.Data{Symbol: source.Unwrap(side).Text()})
					break
				}
			}
			return true
		})
	}
	return nil
}

// versionString reports whether n evaluates to an unparsed version string:
// Config.PACKAGE_VERSION or an entry of the shell-version metadata list.
func versionString(n *source.Node) bool {
	n = source.Unwrap(n)
	if n == nil {
		return false
	}
	if strings.HasSuffix(source.Path(n), "PACKAGE_VERSION") {
		return true
	}
	if n.Kind != "subscript_expression" && n.Kind != "member_expression" {
		return false
	}
	t := n.Text()
	return strings.Contains(t, "shell-version") || strings.Contains(t, "shell_version")
}
