// Package smells detects local code smells in fragments: inconsistent
// returns, magic numbers, verbose boolean idioms, empty functions and
// legacy var declarations.
package smells

import (
	"slices"
	"strconv"
	"strings"

	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/models"
)

// Ensure Analyzer implements analyzer.Pass.
var _ analyzer.Pass = (*Analyzer)(nil)

// Analyzer runs every smell check. It is safe for concurrent use.
type Analyzer struct{}

// New creates a smell analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Pass.
func (a *Analyzer) Name() string { return "smells" }

// Rules implements analyzer.Pass.
func (a *Analyzer) Rules() []models.RuleID {
	return []models.RuleID{
		models.RuleInconsistentReturn,
		models.RuleMagicNumber,
		models.RuleVerboseBoolean,
		models.RuleEmptyFunction,
		models.RuleLegacyDeclaration,
	}
}

// Run implements analyzer.Pass.
func (a *Analyzer) Run(u *analyzer.Unit) []models.Finding {
	if u.Root == nil {
		return nil
	}
	names := analyzer.FunctionNames(u.Root)
	var out []models.Finding

	for _, fn := range ast.FindAll(u.Root, ast.KindFunctionDecl, ast.KindFunctionExpr) {
		if InconsistentReturn(fn) {
			out = append(out, analyzer.NewFinding(models.RuleInconsistentReturn, ast.Line(fn),
				"function '%s' returns a value on some paths but not on others", names.Of(fn)))
		}
		if EmptyBody(fn) {
			out = append(out, analyzer.NewFinding(models.RuleEmptyFunction, ast.Line(fn),
				"function '%s' has an empty body", names.Of(fn)))
		}
	}

	for _, m := range MagicNumbers(u.Root, u.Settings.MagicNumbers) {
		out = append(out, analyzer.NewFinding(models.RuleMagicNumber, m.Line,
			"magic number %s; give it a name", m.Text))
	}

	for _, v := range VerboseBooleans(u.Root) {
		out = append(out, analyzer.NewFinding(models.RuleVerboseBoolean, v.Line,
			"%s can be simplified to '%s'", v.Form, v.Simplified))
	}

	for _, decl := range ast.FindAll(u.Root, ast.KindVarDecl) {
		if !ast.IsToken(ast.Child(decl, 0), ast.TokVar) {
			continue
		}
		out = append(out, analyzer.NewFinding(models.RuleLegacyDeclaration, ast.Line(decl),
			"'var' declaration of %s; use let or const", strings.Join(declaredNames(decl), ", ")))
	}
	return out
}

func declaredNames(decl *ast.Branch) []string {
	var names []string
	for _, d := range ast.Branches(decl) {
		if d.Kind != ast.KindDeclarator {
			continue
		}
		if name, _ := ast.DeclaratorParts(d); name != nil {
			names = append(names, name.Token.Text)
		}
	}
	return names
}

// EmptyBody reports whether fn has no statements besides empty ones.
func EmptyBody(fn *ast.Branch) bool {
	body := ast.FunctionBody(fn)
	if body == nil {
		return false
	}
	for _, s := range ast.Statements(body) {
		if s.Kind != ast.KindEmptyStmt {
			return false
		}
	}
	return true
}

// MagicNumber is a numeric literal outside the allow-list.
type MagicNumber struct {
	Text  string
	Value float64
	Line  int
}

var alwaysAllowed = []float64{0, 1, -1}

// MagicNumbers returns the numeric literals under root whose value is not
// 0, 1, -1 or in allow. Object keys are skipped.
func MagicNumbers(root ast.Node, allow []float64) []MagicNumber {
	allowed := append(slices.Clone(alwaysAllowed), allow...)
	var out []MagicNumber
	report := func(l *ast.Leaf, negative bool) {
		v, ok := numberValue(l.Token.Text)
		if !ok {
			return
		}
		text := l.Token.Text
		if negative {
			v, text = -v, "-"+text
		}
		if slices.Contains(allowed, v) {
			return
		}
		out = append(out, MagicNumber{Text: text, Value: v, Line: l.Token.Pos.Line})
	}

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Leaf:
			if v.Token.Kind == ast.TokNumber {
				report(v, false)
			}
		case *ast.Branch:
			switch v.Kind {
			case ast.KindProperty:
				_, value := ast.PropertyParts(v)
				walk(value)
				return
			case ast.KindUnary:
				if l, ok := ast.Operand(v).(*ast.Leaf); ok && l.Token.Kind == ast.TokNumber && ast.IsToken(ast.Child(v, 0), ast.TokMinus) {
					report(l, true)
					return
				}
			}
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(root)
	return out
}

func numberValue(text string) (float64, bool) {
	if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return float64(i), true
	}
	f, err := strconv.ParseFloat(text, 64)
	return f, err == nil
}
