package lifecycle

import (
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/unit"
)

func (*Checker) metadata(p *rule.Pass) error {
	if !p.Unit.HasMetadata {
		p.Reportf(unit.MetadataFile, 1, rule.Data{Detail: "file is missing"})
		return nil
	}
	for _, fp := range p.Unit.Metadata.Validate() {
		p.Reportf(unit.MetadataFile, fp.Line, rule.Data{Symbol: fp.Key, Detail: fp.Text})
	}
	return nil
}
