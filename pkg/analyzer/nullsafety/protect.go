package nullsafety

import (
	"strings"

	"github.com/panbanda/fraglint/pkg/ast"
)

// emptinessChecks are helper calls that test their argument for a missing
// value.
var emptinessChecks = map[string]bool{
	"isEmpty": true, "isNull": true, "isNotEmpty": true, "isBlank": true,
	"isNotBlank": true, "isNotNull": true,
}

// Protection is the set of chains known to be checked before use.
type Protection struct {
	chains []string
}

// Protects reports whether chain or one of its ancestors is checked.
func (p *Protection) Protects(chain string) bool {
	for _, c := range p.chains {
		if HasPrefix(chain, c) {
			return true
		}
	}
	return false
}

// Chains returns the protected chains in discovery order.
func (p *Protection) Chains() []string {
	return p.chains
}

func (p *Protection) add(n ast.Node) {
	c := Chain(n)
	if c == ExprSegment || strings.HasPrefix(c, ExprSegment) {
		return
	}
	p.chains = append(p.chains, c)
}

// Protections collects every check in root: comparisons against null,
// undefined or the empty string, emptiness helper calls, truthiness tests
// in conditions and on the left of &&, the left operand of ??, and the
// receiver of ?.
func Protections(root ast.Node) *Protection {
	p := &Protection{}
	ast.Inspect(root, func(n ast.Node) bool {
		b, ok := n.(*ast.Branch)
		if !ok {
			return true
		}
		switch b.Kind {
		case ast.KindEquality:
			left, right := ast.Operands(b)
			switch {
			case isEmptyValue(right):
				p.addTested(left)
			case isEmptyValue(left):
				p.addTested(right)
			}
		case ast.KindCall:
			callee, args := ast.CallParts(b)
			if emptinessChecks[calleeName(callee)] {
				for _, a := range args {
					p.add(a)
				}
				// x.isEmpty() tests its receiver.
				if m, ok := ast.Unparen(callee).(*ast.Branch); ok && len(args) == 0 && (m.Kind == ast.KindMember || m.Kind == ast.KindOptionalMember) {
					obj, _ := ast.MemberParts(m)
					p.add(obj)
				}
			}
		case ast.KindLogicalAnd:
			left, _ := ast.Operands(b)
			p.truthy(left)
		case ast.KindCoalesce:
			left, _ := ast.Operands(b)
			p.add(left)
		case ast.KindOptionalMember, ast.KindOptionalIndex:
			p.add(ast.Child(b, 0))
		case ast.KindIf:
			cond, _, _ := ast.IfParts(b)
			p.truthy(cond)
		case ast.KindWhile, ast.KindDoWhile, ast.KindFor:
			p.truthy(ast.LoopCondition(b))
		case ast.KindTernary:
			cond, _, _ := ast.TernaryParts(b)
			p.truthy(cond)
		}
		return true
	})
	return p
}

// Referenced collects every name and access chain mentioned in root. It is
// used for guard conditions: whatever a guard mentions was evaluated before
// the guarded fields run. Property names are not references; only the
// object side of an access is walked.
func Referenced(root ast.Node) *Protection {
	p := &Protection{}
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch v := n.(type) {
		case *ast.Leaf:
			if v.Token.Kind == ast.TokIdent {
				p.add(v)
			}
		case *ast.Branch:
			switch v.Kind {
			case ast.KindMember, ast.KindOptionalMember:
				p.add(v)
				walk(ast.Child(v, 0))
				return
			case ast.KindIndex, ast.KindOptionalIndex:
				p.add(v)
			case ast.KindProperty:
				if key, ok := ast.Child(v, 0).(*ast.Branch); ok {
					walk(key)
				}
				_, value := ast.PropertyParts(v)
				walk(value)
				return
			case ast.KindQualifiedName, ast.KindParams:
				return
			}
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	if root != nil {
		walk(root)
	}
	return p
}

// addTested protects the operand of a comparison, seeing through typeof.
func (p *Protection) addTested(n ast.Node) {
	if u, ok := ast.Unparen(n).(*ast.Branch); ok && u.Kind == ast.KindUnary && ast.IsToken(ast.Child(u, 0), ast.TokTypeof) {
		n = ast.Operand(u)
	}
	p.add(n)
}

// truthy protects the chains a condition tests for truthiness.
func (p *Protection) truthy(n ast.Node) {
	n = ast.Unparen(n)
	b, ok := n.(*ast.Branch)
	if !ok {
		p.add(n)
		return
	}
	switch b.Kind {
	case ast.KindLogicalAnd:
		left, right := ast.Operands(b)
		p.truthy(left)
		p.truthy(right)
	case ast.KindUnary:
		if ast.IsToken(ast.Child(b, 0), ast.TokNot) {
			p.truthy(ast.Operand(b))
		}
	case ast.KindMember, ast.KindOptionalMember, ast.KindIndex, ast.KindOptionalIndex:
		p.add(b)
	}
}

func isEmptyValue(n ast.Node) bool {
	l, ok := ast.Unparen(n).(*ast.Leaf)
	if !ok {
		return false
	}
	switch l.Token.Kind {
	case ast.TokNull:
		return true
	case ast.TokIdent:
		return l.Token.Text == "undefined"
	case ast.TokString:
		// 'undefined' is what typeof yields for a missing value.
		switch l.Token.Text {
		case `''`, `""`, `'undefined'`, `"undefined"`:
			return true
		}
	}
	return false
}

// calleeName returns the called function or method name.
func calleeName(callee ast.Node) string {
	switch v := ast.Unparen(callee).(type) {
	case *ast.Leaf:
		return v.Token.Text
	case *ast.Branch:
		switch v.Kind {
		case ast.KindMember, ast.KindOptionalMember:
			_, prop := ast.MemberParts(v)
			return prop
		case ast.KindQualifiedName:
			if l, ok := v.Children[len(v.Children)-1].(*ast.Leaf); ok {
				return l.Token.Text
			}
		}
	}
	return ""
}
