package parser

import "github.com/panbanda/fraglint/pkg/ast"

// binaryLevels lists left-associative operator levels from loosest to
// tightest, below the ternary.
var binaryLevels = []struct {
	kind ast.Kind
	ops  []ast.TokenKind
}{
	{ast.KindCoalesce, []ast.TokenKind{ast.TokCoalesce}},
	{ast.KindLogicalOr, []ast.TokenKind{ast.TokOr}},
	{ast.KindLogicalAnd, []ast.TokenKind{ast.TokAnd}},
	{ast.KindBitwise, []ast.TokenKind{ast.TokBitwise}},
	{ast.KindEquality, []ast.TokenKind{ast.TokEq, ast.TokNotEq, ast.TokStrictEq, ast.TokStrictNotEq}},
	{ast.KindRelational, []ast.TokenKind{ast.TokLess, ast.TokLessEq, ast.TokGreater, ast.TokGreaterEq, ast.TokInstanceof, ast.TokIn}},
	{ast.KindAdditive, []ast.TokenKind{ast.TokPlus, ast.TokMinus}},
	{ast.KindMultiplicative, []ast.TokenKind{ast.TokStar, ast.TokSlash, ast.TokPercent}},
}

var assignOps = []ast.TokenKind{
	ast.TokAssign, ast.TokPlusAssign, ast.TokMinusAssign,
	ast.TokStarAssign, ast.TokSlashAssign, ast.TokPctAssign,
}

func (g *grammar) expression() (ast.Node, error) {
	first, err := g.assignment()
	if err != nil {
		return nil, err
	}
	if !g.at(ast.TokComma) {
		return first, nil
	}
	children := []ast.Node{first}
	for g.at(ast.TokComma) {
		children = append(children, g.next())
		e, err := g.assignment()
		if err != nil {
			return nil, err
		}
		children = append(children, e)
	}
	return ast.NewBranch(ast.KindSequence, children...), nil
}

func (g *grammar) assignment() (ast.Node, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	defer g.leave()

	left, err := g.ternary()
	if err != nil {
		return nil, err
	}
	if !g.at(assignOps...) {
		return left, nil
	}
	if !assignable(left) {
		return nil, g.unexpected("invalid assignment target")
	}
	op := g.next()
	right, err := g.assignment()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(ast.KindAssign, left, op, right), nil
}

func assignable(n ast.Node) bool {
	if _, ok := ast.Ident(n); ok {
		return true
	}
	return ast.Is(n, ast.KindMember) || ast.Is(n, ast.KindIndex)
}

func (g *grammar) ternary() (ast.Node, error) {
	cond, err := g.binary(0)
	if err != nil {
		return nil, err
	}
	q := g.accept(ast.TokQuestion)
	if q == nil {
		return cond, nil
	}
	then, err := g.assignment()
	if err != nil {
		return nil, err
	}
	colon, err := g.expect(ast.TokColon)
	if err != nil {
		return nil, err
	}
	alt, err := g.assignment()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(ast.KindTernary, cond, q, then, colon, alt), nil
}

func (g *grammar) binary(level int) (ast.Node, error) {
	if level == len(binaryLevels) {
		return g.unary()
	}
	lv := binaryLevels[level]
	left, err := g.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for g.at(lv.ops...) && !(g.peek().Kind == ast.TokBitwise && g.peek().Text == "~") {
		op := g.next()
		right, err := g.binary(level + 1)
		if err != nil {
			return nil, err
		}
		left = ast.NewBranch(lv.kind, left, op, right)
	}
	return left, nil
}

func (g *grammar) unary() (ast.Node, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	defer g.leave()

	t := g.peek()
	switch {
	case t.Kind == ast.TokIncrement || t.Kind == ast.TokDecrement:
		op := g.next()
		x, err := g.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewBranch(ast.KindUpdate, op, x), nil
	case t.Kind == ast.TokNot || t.Kind == ast.TokMinus || t.Kind == ast.TokPlus ||
		t.Kind == ast.TokTypeof || t.Kind == ast.TokUnaryKeyword ||
		(t.Kind == ast.TokBitwise && t.Text == "~"):
		op := g.next()
		x, err := g.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewBranch(ast.KindUnary, op, x), nil
	}
	return g.postfix()
}

func (g *grammar) postfix() (ast.Node, error) {
	x, err := g.callMember()
	if err != nil {
		return nil, err
	}
	if g.at(ast.TokIncrement, ast.TokDecrement) && !g.newline() {
		return ast.NewBranch(ast.KindUpdate, x, g.next()), nil
	}
	return x, nil
}

func (g *grammar) callMember() (ast.Node, error) {
	x, err := g.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch g.peek().Kind {
		case ast.TokDot:
			dot := g.next()
			name, err := g.propertyName()
			if err != nil {
				return nil, err
			}
			x = ast.NewBranch(ast.KindMember, x, dot, name)
		case ast.TokOptionalDot:
			dot := g.next()
			switch {
			case g.at(ast.TokLBracket):
				g.next()
				idx, err := g.expression()
				if err != nil {
					return nil, err
				}
				if _, err := g.expect(ast.TokRBracket); err != nil {
					return nil, err
				}
				x = ast.NewBranch(ast.KindOptionalIndex, x, dot, idx)
			case g.at(ast.TokLParen):
				args, err := g.arguments()
				if err != nil {
					return nil, err
				}
				x = ast.NewBranch(ast.KindCall, x, args)
			default:
				name, err := g.propertyName()
				if err != nil {
					return nil, err
				}
				x = ast.NewBranch(ast.KindOptionalMember, x, dot, name)
			}
		case ast.TokLBracket:
			open := g.next()
			idx, err := g.expression()
			if err != nil {
				return nil, err
			}
			closeBracket, err := g.expect(ast.TokRBracket)
			if err != nil {
				return nil, err
			}
			x = ast.NewBranch(ast.KindIndex, x, open, idx, closeBracket)
		case ast.TokLParen:
			args, err := g.arguments()
			if err != nil {
				return nil, err
			}
			x = ast.NewBranch(ast.KindCall, x, args)
		default:
			return x, nil
		}
	}
}

// propertyName accepts an identifier or a reserved word after a dot. The
// result is always an identifier leaf.
func (g *grammar) propertyName() (*ast.Leaf, error) {
	t := g.peek()
	if t.Kind != ast.TokIdent && !isWordToken(t) {
		return nil, g.unexpected("expected property name")
	}
	leaf := g.next()
	leaf.Token.Kind = ast.TokIdent
	return leaf, nil
}

func isWordToken(t ast.Token) bool {
	return t.Text != "" && isIdentStart(t.Text[0])
}

func (g *grammar) arguments() (*ast.Branch, error) {
	open, err := g.expect(ast.TokLParen)
	if err != nil {
		return nil, err
	}
	children := []ast.Node{open}
	for !g.at(ast.TokRParen) {
		a, err := g.assignment()
		if err != nil {
			return nil, err
		}
		children = append(children, a)
		comma := g.accept(ast.TokComma)
		if comma == nil {
			break
		}
		children = append(children, comma)
	}
	closeParen, err := g.expect(ast.TokRParen)
	if err != nil {
		return nil, err
	}
	children = append(children, closeParen)
	return ast.NewBranch(ast.KindArguments, children...), nil
}

// adjacent reports whether b starts exactly where a ends on the same line.
func adjacent(a, b ast.Token) bool {
	return a.Pos.Line == b.Pos.Line && a.Pos.Column+len(a.Text) == b.Pos.Column
}

func (g *grammar) primary() (ast.Node, error) {
	t := g.peek()
	switch t.Kind {
	case ast.TokIdent:
		colon, name, call := g.peekAt(1), g.peekAt(2), g.peekAt(3)
		if colon.Kind == ast.TokColon && name.Kind == ast.TokIdent && call.Kind == ast.TokLParen &&
			adjacent(t, colon) && adjacent(colon, name) {
			return ast.NewBranch(ast.KindQualifiedName, g.next(), g.next(), g.next()), nil
		}
		return g.next(), nil
	case ast.TokNumber, ast.TokString, ast.TokTrue, ast.TokFalse, ast.TokNull:
		return g.next(), nil
	case ast.TokEmptyMap:
		return ast.NewBranch(ast.KindEmptyMap, g.next()), nil
	case ast.TokEmptySet:
		return ast.NewBranch(ast.KindEmptySet, g.next()), nil
	case ast.TokFunction:
		return g.function(ast.KindFunctionExpr)
	case ast.TokLParen:
		open := g.next()
		inner, err := g.expression()
		if err != nil {
			return nil, err
		}
		closeParen, err := g.expect(ast.TokRParen)
		if err != nil {
			return nil, err
		}
		return ast.NewBranch(ast.KindParen, open, inner, closeParen), nil
	case ast.TokLBracket:
		return g.array()
	case ast.TokMapOpen:
		return g.object()
	}
	return nil, g.unexpected("expected expression")
}

func (g *grammar) array() (ast.Node, error) {
	children := []ast.Node{g.next()}
	for !g.at(ast.TokRBracket) {
		e, err := g.assignment()
		if err != nil {
			return nil, err
		}
		children = append(children, e)
		comma := g.accept(ast.TokComma)
		if comma == nil {
			break
		}
		children = append(children, comma)
	}
	closeBracket, err := g.expect(ast.TokRBracket)
	if err != nil {
		return nil, err
	}
	children = append(children, closeBracket)
	return ast.NewBranch(ast.KindArray, children...), nil
}

func (g *grammar) object() (ast.Node, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	defer g.leave()

	children := []ast.Node{g.next()}
	for !g.at(ast.TokMapClose) {
		t := g.peek()
		if t.Kind != ast.TokIdent && t.Kind != ast.TokString && t.Kind != ast.TokNumber && !isWordToken(t) {
			return nil, g.unexpected("expected property key")
		}
		key := g.next()
		if key.Token.Kind != ast.TokString && key.Token.Kind != ast.TokNumber {
			key.Token.Kind = ast.TokIdent
		}
		colon, err := g.expect(ast.TokColon)
		if err != nil {
			return nil, err
		}
		value, err := g.assignment()
		if err != nil {
			return nil, err
		}
		children = append(children, ast.NewBranch(ast.KindProperty, key, colon, value))
		comma := g.accept(ast.TokComma)
		if comma == nil {
			break
		}
		children = append(children, comma)
	}
	closeMarker, err := g.expect(ast.TokMapClose)
	if err != nil {
		return nil, err
	}
	children = append(children, closeMarker)
	return ast.NewBranch(ast.KindObject, children...), nil
}
