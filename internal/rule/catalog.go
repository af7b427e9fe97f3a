package rule

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

//go:embed schema.cue
var schemaCUE []byte

// ErrDuplicateRule is returned when two catalog entries share an ID.
var ErrDuplicateRule = errors.New("duplicate rule id")

// Catalog is the immutable set of rule definitions.
type Catalog struct {
	defs []*Definition
	byID map[string]*Definition
}

type catalogFile struct {
	Rules []*Definition `yaml:"rules" json:"rules"`
}

// Load parses a YAML catalog and validates it against the CUE schema.
func Load(data []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	v := schema.Unify(ctx.Encode(cf))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	c := &Catalog{byID: make(map[string]*Definition, len(cf.Rules))}
	for _, d := range cf.Rules {
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("catalog: %w: %s", ErrDuplicateRule, d.ID)
		}
		if err := d.compile(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		c.byID[d.ID] = d
		c.defs = append(c.defs, d)
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the embedded catalog. It panics if the embedded file is
// invalid, which the package tests rule out.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup returns the definition for id, or nil.
func (c *Catalog) Lookup(id string) *Definition {
	return c.byID[id]
}

// All returns every definition in catalog order.
func (c *Catalog) All() []*Definition {
	return c.defs
}

// Sorted returns every definition ordered by category, then ID.
func (c *Catalog) Sorted() []*Definition {
	out := append([]*Definition(nil), c.defs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// IsEngine reports whether id is produced by the engine rather than a
// registered matcher.
func IsEngine(id string) bool {
	return !strings.HasPrefix(id, "R-")
}

// New builds a finding for an engine-generated rule.
func (c *Catalog) New(id, unitName, file string, line int, data Data) Finding {
	d := c.Lookup(id)
	if d == nil {
		return Finding{RuleID: id, Severity: Informational, File: file, Line: line, Unit: unitName, Message: data.Detail}
	}
	data.File, data.Line = file, line
	return Finding{
		RuleID:   id,
		Severity: d.Severity,
		File:     file,
		Line:     line,
		Message:  d.Render(data),
		Unit:     unitName,
	}
}
