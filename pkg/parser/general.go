package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/preprocess"
)

// ErrGrammarError is returned when the general grammar's tree contains
// error or missing nodes.
var ErrGrammarError = errors.New("syntax tree contains errors")

var jsLanguage = sync.OnceValue(javascript.GetLanguage)

// parseGeneral runs the tree-sitter JavaScript grammar over the restored
// text and converts the concrete tree into fraglint node kinds.
func parseGeneral(ctx context.Context, src string) (*ast.Branch, error) {
	restored := preprocess.Restore(src)
	content := []byte(restored.Text)

	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(jsLanguage())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errorLocation(root)
	}

	c := &converter{src: content, restored: restored}
	prog, ok := c.convert(root).(*ast.Branch)
	if !ok {
		return nil, ErrGrammarError
	}
	prog.Kind = ast.KindProgram
	return prog, nil
}

// errorLocation finds the first error or missing node for the message.
func errorLocation(root *sitter.Node) error {
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if found == nil {
		return ErrGrammarError
	}
	pt := found.StartPoint()
	return fmt.Errorf("%d:%d: %w", pt.Row+1, pt.Column+1, ErrGrammarError)
}

type converter struct {
	src      []byte
	restored preprocess.Restored
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *converter) pos(n *sitter.Node) ast.Position {
	pt := n.StartPoint()
	return ast.Position{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

func (c *converter) leaf(n *sitter.Node, kind ast.TokenKind) *ast.Leaf {
	return ast.NewLeaf(ast.Token{Kind: kind, Text: c.text(n), Pos: c.pos(n)})
}

// synthetic builds a leaf that has no counterpart in the restored text.
func synthetic(kind ast.TokenKind, text string, at ast.Position) *ast.Leaf {
	return ast.NewLeaf(ast.Token{Kind: kind, Text: text, Pos: at})
}

func tokenKind(text string) ast.TokenKind {
	if k, ok := ast.Keywords[text]; ok {
		return k
	}
	if k, ok := ast.Operators[text]; ok {
		return k
	}
	return ast.TokenKind(text)
}

// children converts every child except comments.
func (c *converter) children(n *sitter.Node) []ast.Node {
	out := make([]ast.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.Type() == "comment" {
			continue
		}
		if conv := c.convert(ch); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

func (c *converter) branch(kind ast.Kind, n *sitter.Node) *ast.Branch {
	return ast.NewBranch(kind, c.children(n)...)
}

// field converts a named field, or returns nil when absent.
func (c *converter) field(n *sitter.Node, name string) ast.Node {
	f := n.ChildByFieldName(name)
	if f == nil {
		return nil
	}
	return c.convert(f)
}

// condition converts a parenthesised test to its inner expression.
func (c *converter) condition(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "parenthesized_expression" && n.NamedChildCount() == 1 {
		return c.convert(n.NamedChild(0))
	}
	return c.convert(n)
}

// firstToken returns the first anonymous child with the given text.
func (c *converter) firstToken(n *sitter.Node, text string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if !ch.IsNamed() && ch.Type() == text {
			return ch
		}
	}
	return nil
}

func (c *converter) tokenLeaf(n *sitter.Node, text string) ast.Node {
	t := c.firstToken(n, text)
	if t == nil {
		return nil
	}
	return c.leaf(t, tokenKind(text))
}

var binaryKinds = map[string]ast.Kind{
	"??": ast.KindCoalesce, "||": ast.KindLogicalOr, "&&": ast.KindLogicalAnd,
	"==": ast.KindEquality, "!=": ast.KindEquality, "===": ast.KindEquality, "!==": ast.KindEquality,
	"<": ast.KindRelational, "<=": ast.KindRelational, ">": ast.KindRelational, ">=": ast.KindRelational,
	"instanceof": ast.KindRelational, "in": ast.KindRelational,
	"+": ast.KindAdditive, "-": ast.KindAdditive,
	"*": ast.KindMultiplicative, "/": ast.KindMultiplicative, "%": ast.KindMultiplicative, "**": ast.KindMultiplicative,
}

func (c *converter) convert(n *sitter.Node) ast.Node {
	if n == nil {
		return nil
	}
	typ := n.Type()

	if !n.IsNamed() {
		return c.leaf(n, tokenKind(typ))
	}

	switch typ {
	case "comment":
		return nil
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "statement_identifier", "this", "super", "undefined":
		return c.leaf(n, ast.TokIdent)
	case "number":
		return c.leaf(n, ast.TokNumber)
	case "string", "regex":
		return c.leaf(n, ast.TokString)
	case "template_string":
		s := c.leaf(n, ast.TokString)
		var subs []ast.Node
		for i := 0; i < int(n.NamedChildCount()); i++ {
			ch := n.NamedChild(i)
			if ch.Type() == "template_substitution" {
				subs = append(subs, c.children(ch)...)
			}
		}
		if len(subs) == 0 {
			return s
		}
		return ast.NewBranch(ast.KindGroup, append([]ast.Node{s}, subs...)...)
	case "true":
		return c.leaf(n, ast.TokTrue)
	case "false":
		return c.leaf(n, ast.TokFalse)
	case "null":
		return c.leaf(n, ast.TokNull)

	case "program":
		return c.branch(ast.KindProgram, n)
	case "expression_statement":
		return c.branch(ast.KindExprStmt, n)
	case "variable_declaration", "lexical_declaration":
		return c.branch(ast.KindVarDecl, n)
	case "variable_declarator":
		return c.branch(ast.KindDeclarator, n)
	case "statement_block":
		return c.branch(ast.KindBlock, n)
	case "empty_statement":
		return c.branch(ast.KindEmptyStmt, n)
	case "return_statement":
		return c.branch(ast.KindReturn, n)
	case "break_statement":
		return c.branch(ast.KindBreak, n)
	case "continue_statement":
		return c.branch(ast.KindContinue, n)

	case "function_declaration", "generator_function_declaration":
		return c.function(ast.KindFunctionDecl, n)
	case "function", "function_expression", "generator_function":
		return c.function(ast.KindFunctionExpr, n)
	case "arrow_function":
		return c.arrow(n)
	case "formal_parameters":
		return c.params(n)

	case "if_statement":
		return c.ifStatement(n)
	case "while_statement":
		return ast.NewBranch(ast.KindWhile, c.tokenLeaf(n, "while"),
			c.condition(n.ChildByFieldName("condition")), c.field(n, "body"))
	case "do_statement":
		return ast.NewBranch(ast.KindDoWhile, c.tokenLeaf(n, "do"), c.field(n, "body"),
			c.tokenLeaf(n, "while"), c.condition(n.ChildByFieldName("condition")))
	case "for_statement":
		return c.forStatement(n)
	case "for_in_statement":
		return c.forIn(n)
	case "switch_statement":
		return c.switchStatement(n)
	case "switch_case", "switch_default":
		return c.branch(ast.KindCase, n)

	case "sequence_expression":
		return c.branch(ast.KindSequence, n)
	case "assignment_expression", "augmented_assignment_expression":
		return c.branch(ast.KindAssign, n)
	case "ternary_expression":
		return c.branch(ast.KindTernary, n)
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		kind := ast.KindBitwise
		if op != nil {
			if k, ok := binaryKinds[op.Type()]; ok {
				kind = k
			}
		}
		return c.branch(kind, n)
	case "unary_expression", "await_expression", "yield_expression", "spread_element":
		return c.branch(ast.KindUnary, n)
	case "update_expression":
		return c.branch(ast.KindUpdate, n)
	case "new_expression":
		return c.newExpression(n)
	case "member_expression":
		return c.member(n)
	case "subscript_expression":
		return c.subscript(n)
	case "call_expression":
		return c.call(n)
	case "arguments":
		return c.branch(ast.KindArguments, n)
	case "parenthesized_expression":
		return c.paren(n)
	case "array":
		return c.branch(ast.KindArray, n)
	case "object":
		return c.object(n, false)
	case "pair":
		return c.branch(ast.KindProperty, n)
	case "optional_chain":
		return c.leaf(n, ast.TokOptionalDot)
	}

	return c.branch(ast.KindGroup, n)
}

func (c *converter) function(kind ast.Kind, n *sitter.Node) ast.Node {
	kw := c.tokenLeaf(n, "function")
	return ast.NewBranch(kind, kw, c.field(n, "name"), c.field(n, "parameters"), c.field(n, "body"))
}

// arrow converts an arrow function into a function expression. A bare
// expression body becomes a block holding one return statement.
func (c *converter) arrow(n *sitter.Node) ast.Node {
	arrowTok := c.firstToken(n, "=>")
	var kw ast.Node
	if arrowTok != nil {
		kw = c.leaf(arrowTok, ast.TokArrow)
	}

	var params ast.Node
	if p := n.ChildByFieldName("parameters"); p != nil {
		params = c.convert(p)
	} else if p := n.ChildByFieldName("parameter"); p != nil {
		params = ast.NewBranch(ast.KindParams, c.leaf(p, ast.TokIdent))
	}

	body := n.ChildByFieldName("body")
	var block ast.Node
	if body != nil && body.Type() == "statement_block" {
		block = c.convert(body)
	} else if body != nil {
		at := c.pos(body)
		value := c.convert(body)
		ret := ast.NewBranch(ast.KindReturn, synthetic(ast.TokReturn, "return", at), value)
		block = ast.NewBranch(ast.KindBlock,
			synthetic(ast.TokLBrace, "{", at), ret, synthetic(ast.TokRBrace, "}", at))
	}
	return ast.NewBranch(ast.KindFunctionExpr, kw, params, block)
}

// params keeps only the bound names: default values and rest markers are
// dropped.
func (c *converter) params(n *sitter.Node) ast.Node {
	out := make([]ast.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		switch ch.Type() {
		case "comment":
		case "identifier":
			out = append(out, c.leaf(ch, ast.TokIdent))
		case "assignment_pattern":
			if left := ch.ChildByFieldName("left"); left != nil && left.Type() == "identifier" {
				out = append(out, c.leaf(left, ast.TokIdent))
			}
		case "rest_pattern":
			if ch.NamedChildCount() > 0 && ch.NamedChild(0).Type() == "identifier" {
				out = append(out, c.leaf(ch.NamedChild(0), ast.TokIdent))
			}
		default:
			out = append(out, c.convert(ch))
		}
	}
	return ast.NewBranch(ast.KindParams, out...)
}

func (c *converter) ifStatement(n *sitter.Node) ast.Node {
	children := []ast.Node{
		c.tokenLeaf(n, "if"),
		c.condition(n.ChildByFieldName("condition")),
		c.field(n, "consequence"),
	}
	if alt := n.ChildByFieldName("alternative"); alt != nil {
		if alt.Type() == "else_clause" {
			children = append(children, c.tokenLeaf(alt, "else"))
			for i := 0; i < int(alt.NamedChildCount()); i++ {
				if ch := alt.NamedChild(i); ch.Type() != "comment" {
					children = append(children, c.convert(ch))
					break
				}
			}
		} else {
			children = append(children, synthetic(ast.TokElse, "else", c.pos(alt)), c.convert(alt))
		}
	}
	return ast.NewBranch(ast.KindIf, children...)
}

// clause converts a for-loop clause: statements lose their terminator,
// absent clauses become empty placeholders.
func (c *converter) clause(n *sitter.Node) ast.Node {
	if n == nil {
		return ast.NewBranch(ast.KindEmpty)
	}
	switch n.Type() {
	case "empty_statement":
		return ast.NewBranch(ast.KindEmpty)
	case "expression_statement":
		if n.NamedChildCount() > 0 {
			return c.convert(n.NamedChild(0))
		}
		return ast.NewBranch(ast.KindEmpty)
	case "variable_declaration", "lexical_declaration":
		decl := c.branch(ast.KindVarDecl, n)
		if last := len(decl.Children) - 1; last >= 0 && ast.IsToken(decl.Children[last], ast.TokSemicolon) {
			decl.Children = decl.Children[:last]
		}
		return decl
	}
	return c.convert(n)
}

func (c *converter) forStatement(n *sitter.Node) ast.Node {
	return ast.NewBranch(ast.KindFor,
		c.tokenLeaf(n, "for"),
		c.clause(n.ChildByFieldName("initializer")),
		c.clause(n.ChildByFieldName("condition")),
		c.clause(n.ChildByFieldName("increment")),
		c.field(n, "body"),
	)
}

func (c *converter) forIn(n *sitter.Node) ast.Node {
	var target ast.Node
	left := n.ChildByFieldName("left")
	kind := n.ChildByFieldName("kind")
	if kind != nil && left != nil {
		target = ast.NewBranch(ast.KindVarDecl, c.leaf(kind, tokenKind(kind.Type())),
			ast.NewBranch(ast.KindDeclarator, c.convert(left)))
	} else if left != nil {
		target = c.convert(left)
	}

	var iter ast.Node
	if op := n.ChildByFieldName("operator"); op != nil {
		iter = c.leaf(op, ast.TokIn)
		if op.Type() == "of" {
			iter = c.leaf(op, ast.TokOf)
		}
	} else if t := c.firstToken(n, "of"); t != nil {
		iter = c.leaf(t, ast.TokOf)
	} else {
		iter = c.tokenLeaf(n, "in")
	}
	return ast.NewBranch(ast.KindForIn, c.tokenLeaf(n, "for"), target, iter, c.field(n, "right"), c.field(n, "body"))
}

func (c *converter) switchStatement(n *sitter.Node) ast.Node {
	children := []ast.Node{c.tokenLeaf(n, "switch"), c.condition(n.ChildByFieldName("value"))}
	if body := n.ChildByFieldName("body"); body != nil {
		children = append(children, c.children(body)...)
	}
	return ast.NewBranch(ast.KindSwitch, children...)
}

func (c *converter) newExpression(n *sitter.Node) ast.Node {
	ctor := c.field(n, "constructor")
	if args := n.ChildByFieldName("arguments"); args != nil {
		ctor = ast.NewBranch(ast.KindCall, ctor, c.convert(args))
	}
	return ast.NewBranch(ast.KindUnary, c.tokenLeaf(n, "new"), ctor)
}

// optional reports whether an optional-chain token sits among n's children.
func (c *converter) optional(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		if ch.Type() == "optional_chain" || ch.Type() == "?." {
			return ch
		}
	}
	return nil
}

func (c *converter) member(n *sitter.Node) ast.Node {
	obj := c.field(n, "object")
	prop := n.ChildByFieldName("property")
	var name ast.Node
	if prop != nil {
		name = c.leaf(prop, ast.TokIdent)
	}
	if opt := c.optional(n); opt != nil {
		return ast.NewBranch(ast.KindOptionalMember, obj, c.leaf(opt, ast.TokOptionalDot), name)
	}
	dot := c.firstToken(n, ".")
	if dot != nil && c.restored.QualifiedDots[int(dot.StartByte())] {
		return ast.NewBranch(ast.KindQualifiedName, obj, ast.NewLeaf(ast.Token{Kind: ast.TokColon, Text: ":", Pos: c.pos(dot)}), name)
	}
	var dotLeaf ast.Node
	if dot != nil {
		dotLeaf = c.leaf(dot, ast.TokDot)
	}
	return ast.NewBranch(ast.KindMember, obj, dotLeaf, name)
}

func (c *converter) subscript(n *sitter.Node) ast.Node {
	obj := c.field(n, "object")
	idx := c.field(n, "index")
	if opt := c.optional(n); opt != nil {
		return ast.NewBranch(ast.KindOptionalIndex, obj, c.leaf(opt, ast.TokOptionalDot), idx)
	}
	return ast.NewBranch(ast.KindIndex, obj, c.tokenLeaf(n, "["), idx, c.tokenLeaf(n, "]"))
}

func (c *converter) call(n *sitter.Node) ast.Node {
	callee := c.field(n, "function")
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return ast.NewBranch(ast.KindCall, callee)
	}
	if args.Type() == "template_string" {
		return ast.NewBranch(ast.KindCall, callee, ast.NewBranch(ast.KindArguments, c.convert(args)))
	}
	return ast.NewBranch(ast.KindCall, callee, c.convert(args))
}

// paren unwraps parentheses inserted around restored object literals.
func (c *converter) paren(n *sitter.Node) ast.Node {
	if c.restored.ObjectParens[int(n.StartByte())] && n.NamedChildCount() == 1 && n.NamedChild(0).Type() == "object" {
		return c.object(n.NamedChild(0), true)
	}
	return c.branch(ast.KindParen, n)
}

// object converts an object literal back into the marker form the
// deterministic grammar produces. Empty literals are told apart by the
// restored spelling: "{}" was an empty set, "{ }" an empty map.
func (c *converter) object(n *sitter.Node, marked bool) ast.Node {
	at := c.pos(n)
	if marked {
		at.Column-- // the marker starts at the inserted parenthesis
	}
	if n.NamedChildCount() == 0 {
		if strings.TrimSpace(c.text(n)) == "{}" || !marked {
			return ast.NewBranch(ast.KindEmptySet, synthetic(ast.TokEmptySet, preprocess.EmptySet, at))
		}
		return ast.NewBranch(ast.KindEmptyMap, synthetic(ast.TokEmptyMap, preprocess.EmptyMap, at))
	}

	out := make([]ast.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		ch := n.Child(i)
		switch {
		case ch.Type() == "comment":
		case !ch.IsNamed() && ch.Type() == "{":
			out = append(out, synthetic(ast.TokMapOpen, preprocess.MapOpen, at))
		case !ch.IsNamed() && ch.Type() == "}":
			out = append(out, synthetic(ast.TokMapClose, preprocess.MapClose, c.pos(ch)))
		case ch.Type() == "pair":
			out = append(out, c.pair(ch))
		case ch.Type() == "shorthand_property_identifier":
			key := c.leaf(ch, ast.TokIdent)
			value := c.leaf(ch, ast.TokIdent)
			out = append(out, ast.NewBranch(ast.KindProperty, key, synthetic(ast.TokColon, ":", key.Token.Pos), value))
		default:
			out = append(out, c.convert(ch))
		}
	}
	return ast.NewBranch(ast.KindObject, out...)
}

func (c *converter) pair(n *sitter.Node) ast.Node {
	var key ast.Node
	if k := n.ChildByFieldName("key"); k != nil {
		switch k.Type() {
		case "string":
			key = c.leaf(k, ast.TokString)
		case "number":
			key = c.leaf(k, ast.TokNumber)
		case "property_identifier", "identifier":
			key = c.leaf(k, ast.TokIdent)
		default:
			key = c.convert(k)
		}
	}
	return ast.NewBranch(ast.KindProperty, key, c.tokenLeaf(n, ":"), c.field(n, "value"))
}
