package parser

import (
	"fmt"

	"github.com/panbanda/fraglint/pkg/ast"
)

// maxDepth bounds recursion on pathological input.
const maxDepth = 512

// SyntaxError reports the first token the deterministic grammar rejected.
type SyntaxError struct {
	Pos ast.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// grammar is a recursive-descent parser over a token stream.
type grammar struct {
	toks  []ast.Token
	i     int
	depth int
}

// parseProgram runs the deterministic grammar over preprocessed text.
func parseProgram(src string) (*ast.Branch, error) {
	toks, err := lex(src, false)
	if err != nil {
		return nil, err
	}
	g := &grammar{toks: toks}
	var stmts []ast.Node
	for !g.at(ast.TokEOF) {
		s, err := g.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return ast.NewBranch(ast.KindProgram, stmts...), nil
}

func (g *grammar) peek() ast.Token { return g.toks[g.i] }

func (g *grammar) peekAt(n int) ast.Token {
	if g.i+n >= len(g.toks) {
		return g.toks[len(g.toks)-1]
	}
	return g.toks[g.i+n]
}

func (g *grammar) at(kinds ...ast.TokenKind) bool {
	k := g.peek().Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (g *grammar) next() *ast.Leaf {
	t := g.toks[g.i]
	if t.Kind != ast.TokEOF {
		g.i++
	}
	return ast.NewLeaf(t)
}

func (g *grammar) accept(kind ast.TokenKind) *ast.Leaf {
	if g.at(kind) {
		return g.next()
	}
	return nil
}

func (g *grammar) expect(kind ast.TokenKind) (*ast.Leaf, error) {
	if !g.at(kind) {
		return nil, g.unexpected(fmt.Sprintf("expected %q", kind))
	}
	return g.next(), nil
}

func (g *grammar) unexpected(want string) error {
	t := g.peek()
	found := t.Text
	if t.Kind == ast.TokEOF {
		found = "end of input"
	}
	return &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf("%s, found %q", want, found)}
}

func (g *grammar) enter() error {
	g.depth++
	if g.depth > maxDepth {
		return &SyntaxError{Pos: g.peek().Pos, Msg: "nesting too deep"}
	}
	return nil
}

func (g *grammar) leave() { g.depth-- }

// newline reports whether the next token starts a later line than the
// previous one.
func (g *grammar) newline() bool {
	if g.i == 0 {
		return true
	}
	return g.peek().Pos.Line > g.toks[g.i-1].Pos.Line
}

// terminator consumes an optional semicolon. Without one, the statement
// must end at a line break, a closing brace or the end of input.
func (g *grammar) terminator() (*ast.Leaf, error) {
	if semi := g.accept(ast.TokSemicolon); semi != nil {
		return semi, nil
	}
	if g.at(ast.TokRBrace, ast.TokEOF) || g.newline() {
		return nil, nil
	}
	return nil, g.unexpected(`expected ";"`)
}

func (g *grammar) statement() (ast.Node, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	defer g.leave()

	switch g.peek().Kind {
	case ast.TokVar, ast.TokLet, ast.TokConst:
		decl, err := g.declaration()
		if err != nil {
			return nil, err
		}
		semi, err := g.terminator()
		if err != nil {
			return nil, err
		}
		if semi != nil {
			decl.Children = append(decl.Children, semi)
		}
		return decl, nil
	case ast.TokFunction:
		if g.peekAt(1).Kind == ast.TokIdent {
			return g.function(ast.KindFunctionDecl)
		}
	case ast.TokIf:
		return g.ifStatement()
	case ast.TokWhile:
		return g.whileStatement()
	case ast.TokDo:
		return g.doStatement()
	case ast.TokFor:
		return g.forStatement()
	case ast.TokSwitch:
		return g.switchStatement()
	case ast.TokReturn:
		kw := g.next()
		var value ast.Node
		if !g.at(ast.TokSemicolon, ast.TokRBrace, ast.TokEOF) && !g.newline() {
			v, err := g.expression()
			if err != nil {
				return nil, err
			}
			value = v
		}
		semi, err := g.terminator()
		if err != nil {
			return nil, err
		}
		return ast.NewBranch(ast.KindReturn, kw, value, semi), nil
	case ast.TokBreak, ast.TokContinue:
		kw := g.next()
		kind := ast.KindBreak
		if kw.Token.Kind == ast.TokContinue {
			kind = ast.KindContinue
		}
		semi, err := g.terminator()
		if err != nil {
			return nil, err
		}
		return ast.NewBranch(kind, kw, semi), nil
	case ast.TokLBrace:
		return g.block()
	case ast.TokSemicolon:
		return ast.NewBranch(ast.KindEmptyStmt, g.next()), nil
	}

	expr, err := g.expression()
	if err != nil {
		return nil, err
	}
	semi, err := g.terminator()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(ast.KindExprStmt, expr, semi), nil
}

// declaration parses a var/let/const list without its terminator.
func (g *grammar) declaration() (*ast.Branch, error) {
	children := []ast.Node{g.next()}
	for {
		name, err := g.expect(ast.TokIdent)
		if err != nil {
			return nil, err
		}
		decl := []ast.Node{name}
		if eq := g.accept(ast.TokAssign); eq != nil {
			init, err := g.assignment()
			if err != nil {
				return nil, err
			}
			decl = append(decl, eq, init)
		}
		children = append(children, ast.NewBranch(ast.KindDeclarator, decl...))
		comma := g.accept(ast.TokComma)
		if comma == nil {
			break
		}
		children = append(children, comma)
	}
	return ast.NewBranch(ast.KindVarDecl, children...), nil
}

func (g *grammar) block() (*ast.Branch, error) {
	open, err := g.expect(ast.TokLBrace)
	if err != nil {
		return nil, err
	}
	children := []ast.Node{open}
	for !g.at(ast.TokRBrace) {
		if g.at(ast.TokEOF) {
			return nil, g.unexpected(`expected "}"`)
		}
		s, err := g.statement()
		if err != nil {
			return nil, err
		}
		children = append(children, s)
	}
	children = append(children, g.next())
	return ast.NewBranch(ast.KindBlock, children...), nil
}

// condition parses a parenthesised test and returns the inner expression.
func (g *grammar) condition() (ast.Node, error) {
	if _, err := g.expect(ast.TokLParen); err != nil {
		return nil, err
	}
	cond, err := g.expression()
	if err != nil {
		return nil, err
	}
	if _, err := g.expect(ast.TokRParen); err != nil {
		return nil, err
	}
	return cond, nil
}

func (g *grammar) ifStatement() (ast.Node, error) {
	kw := g.next()
	cond, err := g.condition()
	if err != nil {
		return nil, err
	}
	then, err := g.statement()
	if err != nil {
		return nil, err
	}
	children := []ast.Node{kw, cond, then}
	if elseKw := g.accept(ast.TokElse); elseKw != nil {
		alt, err := g.statement()
		if err != nil {
			return nil, err
		}
		children = append(children, elseKw, alt)
	}
	return ast.NewBranch(ast.KindIf, children...), nil
}

func (g *grammar) whileStatement() (ast.Node, error) {
	kw := g.next()
	cond, err := g.condition()
	if err != nil {
		return nil, err
	}
	body, err := g.statement()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(ast.KindWhile, kw, cond, body), nil
}

func (g *grammar) doStatement() (ast.Node, error) {
	kw := g.next()
	body, err := g.statement()
	if err != nil {
		return nil, err
	}
	whileKw, err := g.expect(ast.TokWhile)
	if err != nil {
		return nil, err
	}
	cond, err := g.condition()
	if err != nil {
		return nil, err
	}
	semi, err := g.terminator()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(ast.KindDoWhile, kw, body, whileKw, cond, semi), nil
}

func isIterationKeyword(t ast.Token) bool {
	return t.Kind == ast.TokIn || (t.Kind == ast.TokIdent && t.Text == "of")
}

func (g *grammar) forStatement() (ast.Node, error) {
	kw := g.next()
	if _, err := g.expect(ast.TokLParen); err != nil {
		return nil, err
	}

	// for (x in e), for (var x of e)
	var target ast.Node
	switch {
	case g.at(ast.TokVar, ast.TokLet, ast.TokConst) && g.peekAt(1).Kind == ast.TokIdent && isIterationKeyword(g.peekAt(2)):
		declKw := g.next()
		target = ast.NewBranch(ast.KindVarDecl, declKw, ast.NewBranch(ast.KindDeclarator, g.next()))
	case g.at(ast.TokIdent) && isIterationKeyword(g.peekAt(1)):
		target = g.next()
	}
	if target != nil {
		iter := g.next()
		if iter.Token.Kind == ast.TokIdent {
			iter.Token.Kind = ast.TokOf
		}
		subject, err := g.expression()
		if err != nil {
			return nil, err
		}
		if _, err := g.expect(ast.TokRParen); err != nil {
			return nil, err
		}
		body, err := g.statement()
		if err != nil {
			return nil, err
		}
		return ast.NewBranch(ast.KindForIn, kw, target, iter, subject, body), nil
	}

	var init ast.Node = ast.NewBranch(ast.KindEmpty)
	switch {
	case g.at(ast.TokVar, ast.TokLet, ast.TokConst):
		decl, err := g.declaration()
		if err != nil {
			return nil, err
		}
		init = decl
	case !g.at(ast.TokSemicolon):
		e, err := g.expression()
		if err != nil {
			return nil, err
		}
		init = e
	}
	if _, err := g.expect(ast.TokSemicolon); err != nil {
		return nil, err
	}
	cond, err := g.optionalExpression(ast.TokSemicolon)
	if err != nil {
		return nil, err
	}
	if _, err := g.expect(ast.TokSemicolon); err != nil {
		return nil, err
	}
	update, err := g.optionalExpression(ast.TokRParen)
	if err != nil {
		return nil, err
	}
	if _, err := g.expect(ast.TokRParen); err != nil {
		return nil, err
	}
	body, err := g.statement()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(ast.KindFor, kw, init, cond, update, body), nil
}

func (g *grammar) optionalExpression(end ast.TokenKind) (ast.Node, error) {
	if g.at(end) {
		return ast.NewBranch(ast.KindEmpty), nil
	}
	return g.expression()
}

func (g *grammar) switchStatement() (ast.Node, error) {
	kw := g.next()
	subject, err := g.condition()
	if err != nil {
		return nil, err
	}
	open, err := g.expect(ast.TokLBrace)
	if err != nil {
		return nil, err
	}
	children := []ast.Node{kw, subject, open}
	for !g.at(ast.TokRBrace) {
		var clause []ast.Node
		switch {
		case g.at(ast.TokCase):
			caseKw := g.next()
			test, err := g.expression()
			if err != nil {
				return nil, err
			}
			clause = append(clause, caseKw, test)
		case g.at(ast.TokDefault):
			clause = append(clause, g.next())
		default:
			return nil, g.unexpected(`expected "case" or "default"`)
		}
		colon, err := g.expect(ast.TokColon)
		if err != nil {
			return nil, err
		}
		clause = append(clause, colon)
		for !g.at(ast.TokCase, ast.TokDefault, ast.TokRBrace) {
			if g.at(ast.TokEOF) {
				return nil, g.unexpected(`expected "}"`)
			}
			s, err := g.statement()
			if err != nil {
				return nil, err
			}
			clause = append(clause, s)
		}
		children = append(children, ast.NewBranch(ast.KindCase, clause...))
	}
	children = append(children, g.next())
	return ast.NewBranch(ast.KindSwitch, children...), nil
}

func (g *grammar) function(kind ast.Kind) (*ast.Branch, error) {
	if err := g.enter(); err != nil {
		return nil, err
	}
	defer g.leave()

	kw := g.next()
	name := g.accept(ast.TokIdent)
	open, err := g.expect(ast.TokLParen)
	if err != nil {
		return nil, err
	}
	params := []ast.Node{open}
	for !g.at(ast.TokRParen) {
		p, err := g.expect(ast.TokIdent)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
		comma := g.accept(ast.TokComma)
		if comma == nil {
			break
		}
		params = append(params, comma)
	}
	closeParen, err := g.expect(ast.TokRParen)
	if err != nil {
		return nil, err
	}
	params = append(params, closeParen)
	body, err := g.block()
	if err != nil {
		return nil, err
	}
	return ast.NewBranch(kind, kw, name, ast.NewBranch(ast.KindParams, params...), body), nil
}
