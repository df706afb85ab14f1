package smells

import (
	"strings"

	"github.com/panbanda/fraglint/pkg/ast"
)

// VerboseBoolean is an if/else or ternary that only converts its condition
// into a boolean literal.
type VerboseBoolean struct {
	Form       string
	Simplified string
	Line       int
}

// VerboseBooleans finds `if (c) return true; else return false;` and
// `c ? true : false`, in either polarity and with conditions compared
// against boolean literals.
func VerboseBooleans(root ast.Node) []VerboseBoolean {
	var out []VerboseBoolean
	ast.Inspect(root, func(n ast.Node) bool {
		b, ok := n.(*ast.Branch)
		if !ok {
			return true
		}
		switch b.Kind {
		case ast.KindIf:
			cond, then, alt := ast.IfParts(b)
			tv, ok1 := returnedBool(then)
			av, ok2 := returnedBool(alt)
			if ok1 && ok2 && tv != av {
				out = append(out, VerboseBoolean{
					Form:       "if/else returning boolean literals",
					Simplified: "return " + simplify(cond, !tv),
					Line:       ast.Line(b),
				})
			}
		case ast.KindTernary:
			cond, then, alt := ast.TernaryParts(b)
			tv, ok1 := boolLiteral(then)
			av, ok2 := boolLiteral(alt)
			if ok1 && ok2 && tv != av {
				out = append(out, VerboseBoolean{
					Form:       "ternary yielding boolean literals",
					Simplified: simplify(cond, !tv),
					Line:       ast.Line(b),
				})
			}
		}
		return true
	})
	return out
}

func boolLiteral(n ast.Node) (bool, bool) {
	switch {
	case ast.IsToken(ast.Unparen(n), ast.TokTrue):
		return true, true
	case ast.IsToken(ast.Unparen(n), ast.TokFalse):
		return false, true
	}
	return false, false
}

// returnedBool reports the literal returned by `return true;`, or by a
// block holding only that statement.
func returnedBool(n ast.Node) (bool, bool) {
	b, ok := n.(*ast.Branch)
	if !ok {
		return false, false
	}
	if b.Kind == ast.KindBlock {
		stmts := ast.Statements(b)
		if len(stmts) != 1 {
			return false, false
		}
		b = stmts[0]
	}
	if b.Kind != ast.KindReturn {
		return false, false
	}
	return boolLiteral(ast.ReturnValue(b))
}

// simplify renders cond as a plain boolean expression, folding away a
// comparison against a boolean literal, and negates it when asked.
func simplify(cond ast.Node, negate bool) string {
	cond = ast.Unparen(cond)
	if eq, ok := cond.(*ast.Branch); ok && eq.Kind == ast.KindEquality {
		left, right := ast.Operands(eq)
		lit, isLit := boolLiteral(right)
		expr := left
		if !isLit {
			lit, isLit = boolLiteral(left)
			expr = right
		}
		if isLit {
			op := ast.Operator(eq).Token.Text
			positive := lit == (op == "==" || op == "===")
			cond = ast.Unparen(expr)
			if !positive {
				negate = !negate
			}
		}
	}

	text := Render(cond)
	if !negate {
		return text
	}
	if simple(cond) {
		return "!" + text
	}
	return "!(" + text + ")"
}

func simple(n ast.Node) bool {
	b, ok := n.(*ast.Branch)
	if !ok {
		return true
	}
	switch b.Kind {
	case ast.KindMember, ast.KindOptionalMember, ast.KindIndex, ast.KindOptionalIndex, ast.KindCall, ast.KindParen:
		return true
	}
	return false
}

// Render prints n from its tokens, spacing binary operators and keywords.
func Render(n ast.Node) string {
	var sb strings.Builder
	var prev *ast.Leaf
	ast.Inspect(n, func(c ast.Node) bool {
		l, ok := c.(*ast.Leaf)
		if !ok {
			return true
		}
		if prev != nil && spaced(prev, l) {
			sb.WriteByte(' ')
		}
		sb.WriteString(l.Token.Text)
		prev = l
		return true
	})
	return sb.String()
}

func spaced(prev, next *ast.Leaf) bool {
	switch prev.Token.Kind {
	case ast.TokDot, ast.TokOptionalDot, ast.TokLParen, ast.TokLBracket, ast.TokNot:
		return false
	}
	switch next.Token.Kind {
	case ast.TokDot, ast.TokOptionalDot, ast.TokRParen, ast.TokRBracket, ast.TokComma, ast.TokSemicolon:
		return false
	case ast.TokLParen, ast.TokLBracket:
		return !word(prev)
	}
	return true
}

func word(l *ast.Leaf) bool {
	switch l.Token.Kind {
	case ast.TokIdent, ast.TokRParen, ast.TokRBracket:
		return true
	}
	return false
}
