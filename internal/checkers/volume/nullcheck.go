package volume

import (
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/rule"
	"github.com/ZviBaratz/gnome-extension-reviewer/internal/source"
)

var equality = map[string]bool{"===": true, "!==": true, "==": true, "!=": true}

func isLogical(n *source.Node) bool {
	if n == nil || n.Kind != "binary_expression" {
		return false
	}
	op := n.Field("operator").Text()
	return op == "&&" || op == "||"
}

func isNullCheck(n *source.Node) bool {
	if n == nil || n.Kind != "binary_expression" || !equality[n.Field("operator").Text()] {
		return false
	}
	return source.IsNull(n.Field("left")) || source.IsNull(n.Field("right"))
}

// nullChecks reports a logical chain holding more than the chain limit of
// null comparisons, and a file holding more than the file limit.
func (*Checker) nullChecks(p *rule.Pass) error {
	chainLimit := p.Rule.Param("chain", 3)
	fileLimit := p.Rule.Param("file", 20)

	for _, f := range p.Unit.Files {
		total, at := 0, 0
		source.Walk(f.Root, func(n *source.Node) bool {
			if isNullCheck(n) {
				total++
				if total == fileLimit+1 {
					at = n.StartLine
				}
			}
			if isLogical(n) && !isLogical(source.Unwrap(parentExpr(n))) {
				if c := countChecks(n); c > chainLimit {
					p.Reportf(f.Name, n.StartLine, rule.Data{Count: c, Threshold: chainLimit, Detail: "in one expression"})
				}
			}
			return true
		})
		if total > fileLimit {
			p.Reportf(f.Name, at, rule.Data{Count: total, Threshold: fileLimit, Detail: "in this file"})
		}
	}
	return nil
}

// parentExpr skips parentheses upwards.
func parentExpr(n *source.Node) *source.Node {
	p := n.Parent
	for p != nil && p.Kind == "parenthesized_expression" {
		p = p.Parent
	}
	return p
}

func countChecks(n *source.Node) int {
	n = source.Unwrap(n)
	if isLogical(n) {
		return countChecks(n.Field("left")) + countChecks(n.Field("right"))
	}
	if isNullCheck(n) {
		return 1
	}
	return 0
}
