// Package deadcode resolves fragment scopes and reports declarations that
// are never used.
package deadcode

import (
	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/models"
)

// Ensure Analyzer implements analyzer.Pass.
var _ analyzer.Pass = (*Analyzer)(nil)

// Analyzer reports unused variables, functions and parameters, and exported
// names that are never declared. It is safe for concurrent use.
type Analyzer struct{}

// New creates a dead code analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Pass.
func (a *Analyzer) Name() string { return "deadcode" }

// Rules implements analyzer.Pass.
func (a *Analyzer) Rules() []models.RuleID {
	return []models.RuleID{
		models.RuleUnusedVariable,
		models.RuleUnusedFunction,
		models.RuleUnusedParameter,
		models.RuleExportedUndeclared,
	}
}

// Run implements analyzer.Pass.
func (a *Analyzer) Run(u *analyzer.Unit) []models.Finding {
	if u.Root == nil {
		return nil
	}
	global := resolve(u.Root, u.Whole)
	return Check(global)
}

// Check reports the dead code findings of a resolved scope tree.
func Check(global *Scope) []models.Finding {
	var out []models.Finding
	global.Walk(func(s *Scope) {
		out = append(out, checkScope(global, s)...)
	})

	for _, e := range global.Exports {
		if global.Lookup(e.Name) == nil {
			out = append(out, analyzer.NewFinding(models.RuleExportedUndeclared, e.Line,
				"'%s' is exported as '%s' but never declared", e.Name, e.Key))
		}
	}
	return out
}

func checkScope(global, s *Scope) []models.Finding {
	var out []models.Finding
	lastUsed := -1
	for _, b := range s.Bindings() {
		if b.IsParam && s.Used[b.Name] {
			lastUsed = max(lastUsed, b.Index)
		}
	}

	for _, b := range s.Unused() {
		switch {
		case b.IsParam:
			if b.Index > lastUsed {
				out = append(out, analyzer.NewFinding(models.RuleUnusedParameter, b.Line,
					"parameter '%s' of '%s' is never used", b.Name, s.Name))
			}
		case b.IsFunction:
			if s.Kind == ScopeGlobal && !global.HasExport {
				continue
			}
			out = append(out, analyzer.NewFinding(models.RuleUnusedFunction, b.Line,
				"function '%s' is never called or exported", b.Name))
		default:
			out = append(out, analyzer.NewFinding(models.RuleUnusedVariable, b.Line,
				"'%s' is declared but never used", b.Name))
		}
	}
	return out
}
