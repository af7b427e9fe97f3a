package checkers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
)

func TestEveryRuleHasMatcher(t *testing.T) {
	reg := Default()
	cat := rule.Default()

	for _, def := range cat.All() {
		if rule.IsEngine(def.ID) {
			continue
		}
		assert.NotNil(t, reg.Lookup(def.ID), "no matcher for %s", def.ID)
	}
	for _, id := range reg.IDs() {
		assert.NotNil(t, cat.Lookup(id), "matcher %s has no catalog entry", id)
	}
}
