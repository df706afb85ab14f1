// Package complexity computes structural metrics of a fragment: cyclomatic
// complexity, nesting depth and function length.
package complexity

import (
	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/models"
)

// Ensure Analyzer implements analyzer.Pass.
var _ analyzer.Pass = (*Analyzer)(nil)

// Analyzer reports fragments and functions that exceed the configured
// limits. It is safe for concurrent use.
type Analyzer struct{}

// New creates a complexity analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Pass.
func (a *Analyzer) Name() string { return "complexity" }

// Rules implements analyzer.Pass.
func (a *Analyzer) Rules() []models.RuleID {
	return []models.RuleID{
		models.RuleCyclomaticComplexity,
		models.RuleMaxNestingDepth,
		models.RuleFunctionLength,
	}
}

// Run implements analyzer.Pass.
func (a *Analyzer) Run(u *analyzer.Unit) []models.Finding {
	if u.Root == nil {
		return nil
	}
	s := withDefaults(u.Settings)
	var out []models.Finding

	if c := Cyclomatic(u.Root); c > s.MaxCyclomatic {
		out = append(out, analyzer.NewFinding(models.RuleCyclomaticComplexity, CrossingLine(u.Root, s.MaxCyclomatic),
			"cyclomatic complexity %d exceeds %d", c, s.MaxCyclomatic))
	}

	if n := Nesting(u.Root); n.Depth > s.MaxNesting {
		where := ""
		if n.Function != "" {
			where = " in '" + n.Function + "'"
		}
		out = append(out, analyzer.NewFinding(models.RuleMaxNestingDepth, n.Line,
			"nesting depth %d exceeds %d%s", n.Depth, s.MaxNesting, where))
	}

	for _, fn := range Functions(u.Root) {
		if fn.Lines > s.MaxFunctionLines {
			out = append(out, analyzer.NewFinding(models.RuleFunctionLength, fn.Line,
				"function '%s' spans %d lines with %d statements (limit %d)", fn.Name, fn.Lines, fn.Statements, s.MaxFunctionLines))
		}
	}
	return out
}

func withDefaults(s analyzer.Settings) analyzer.Settings {
	d := analyzer.DefaultSettings()
	if s.MaxCyclomatic <= 0 {
		s.MaxCyclomatic = d.MaxCyclomatic
	}
	if s.MaxNesting <= 0 {
		s.MaxNesting = d.MaxNesting
	}
	if s.MaxFunctionLines <= 0 {
		s.MaxFunctionLines = d.MaxFunctionLines
	}
	return s
}

// IsDecision reports whether n adds a path through the code.
func IsDecision(n ast.Node) bool {
	b, ok := n.(*ast.Branch)
	if !ok {
		return false
	}
	switch b.Kind {
	case ast.KindIf, ast.KindWhile, ast.KindDoWhile, ast.KindFor, ast.KindForIn,
		ast.KindTernary, ast.KindLogicalAnd, ast.KindLogicalOr:
		return true
	case ast.KindCase:
		return ast.IsToken(ast.Child(b, 0), ast.TokCase)
	}
	return false
}

// Cyclomatic returns 1 plus the number of decision points under n.
func Cyclomatic(n ast.Node) int {
	return 1 + ast.Fold(n, func(n ast.Node, children []int) int {
		sum := 0
		for _, c := range children {
			sum += c
		}
		if IsDecision(n) {
			sum++
		}
		return sum
	})
}

// CrossingLine returns the line of the decision that takes the complexity
// of n above limit, in source order.
func CrossingLine(n ast.Node, limit int) int {
	count, line := 1, 0
	ast.Inspect(n, func(c ast.Node) bool {
		if line != 0 {
			return false
		}
		if IsDecision(c) {
			count++
			if count > limit {
				line = ast.Line(c)
				return false
			}
		}
		return true
	})
	return line
}
