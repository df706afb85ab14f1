// Package nullsafety flags property-access chains that may dereference a
// missing intermediate value.
//
// Every member and subscript access is rendered as a chain string (see
// Chain) and classified by risk. Chains that are risky and not protected
// by a check anywhere in the fragment, or by the guard condition of the
// container the fragment lives in, are reported once per line, preferring
// the longest chain.
package nullsafety

import (
	"sort"

	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/models"
)

// Ensure Analyzer implements analyzer.Pass.
var _ analyzer.Pass = (*Analyzer)(nil)

// Analyzer reports unsafe property access. It is safe for concurrent use.
type Analyzer struct{}

// New creates a null-safety analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Name implements analyzer.Pass.
func (a *Analyzer) Name() string { return "nullsafety" }

// Rules implements analyzer.Pass.
func (a *Analyzer) Rules() []models.RuleID {
	return []models.RuleID{models.RuleUnsafePropertyAccess}
}

// Candidate is a risky chain found in a fragment.
type Candidate struct {
	Chain string
	Line  int
	Risk  Risk
}

// Run implements analyzer.Pass.
func (a *Analyzer) Run(u *analyzer.Unit) []models.Finding {
	if u.Root == nil {
		return nil
	}
	deep := u.Settings.ChainDepth
	if deep <= 0 {
		deep = analyzer.DefaultSettings().ChainDepth
	}

	var guard ast.Node
	if u.Guard != nil {
		guard = u.Guard
	}

	var out []models.Finding
	for _, c := range Unsafe(u.Root, guard, deep, u.Settings.SafeGlobals...) {
		f := analyzer.NewFinding(models.RuleUnsafePropertyAccess, c.Line,
			"'%s' may access a property of a missing value; check it first or use ?.", c.Chain)
		if c.Risk != RiskHigh {
			f.Severity = f.Severity.Lower()
		}
		out = append(out, f)
	}
	return out
}

// Unsafe returns the unprotected risky chains of root, one per line and
// ordered by line. guard is the parsed guard condition, or nil. globals
// names host objects that are always present.
func Unsafe(root, guard ast.Node, deep int, globals ...string) []Candidate {
	protected := Protections(root)
	guarded := Referenced(guard)

	byLine := make(map[int][]Candidate)
	var visit func(n ast.Node)
	visit = func(n ast.Node) {
		b, ok := n.(*ast.Branch)
		if !ok {
			return
		}
		if b.Kind == ast.KindCall {
			// A call to a known-safe method only needs its receiver.
			if callee, _ := ast.CallParts(b); isSafeMethodCall(callee) {
				visit(ast.Child(callee.(*ast.Branch), 0))
				for _, c := range b.Children[1:] {
					visit(c)
				}
				return
			}
		}
		consider(b, protected, guarded, deep, globals, byLine)
		for _, c := range b.Children {
			visit(c)
		}
	}
	visit(root)

	lines := make([]int, 0, len(byLine))
	for line := range byLine {
		lines = append(lines, line)
	}
	sort.Ints(lines)

	var out []Candidate
	for _, line := range lines {
		out = append(out, longest(byLine[line])...)
	}
	return out
}

func consider(n ast.Node, protected, guarded *Protection, deep int, globals []string, byLine map[int][]Candidate) {
	if !isAccess(n) {
		return
	}
	chain := Receiver(Chain(n))
	risk := Classify(chain, deep, globals...)
	if risk == RiskNone || protected.Protects(chain) || guarded.Protects(chain) {
		return
	}
	line := ast.Line(n)
	byLine[line] = append(byLine[line], Candidate{Chain: chain, Line: line, Risk: risk})
}

func isSafeMethodCall(callee ast.Node) bool {
	m, ok := callee.(*ast.Branch)
	if !ok || (m.Kind != ast.KindMember && m.Kind != ast.KindOptionalMember) {
		return false
	}
	_, prop := ast.MemberParts(m)
	return safeMethods[prop]
}

// longest drops duplicates and every chain that is an ancestor of another
// chain on the same line.
func longest(cands []Candidate) []Candidate {
	var out []Candidate
	for i, c := range cands {
		keep := true
		for j, other := range cands {
			if i == j {
				continue
			}
			if other.Chain == c.Chain && j < i {
				keep = false
				break
			}
			if other.Chain != c.Chain && HasPrefix(other.Chain, c.Chain) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}
