package ast

// Shape helpers read the child layout of each production. Layouts:
//
//	program, block           stmt...            (block: "{" stmt... "}")
//	variable_declaration     kw declarator...
//	variable_declarator      name ["=" init]
//	function_*               "function" [name] formal_parameters block
//	if_statement             "if" cond then ["else" else]
//	while_statement          "while" cond body
//	do_statement             "do" body "while" cond
//	for_statement            "for" init cond update body
//	for_in_statement         "for" (declaration|name) "in"|"of" expr body
//	switch_statement         "switch" expr "{" switch_case... "}"
//	switch_case              "case" expr ":" stmt... | "default" ":" stmt...
//	return_statement         "return" [expr]
//	binary kinds, assignment left op right
//	ternary_expression       cond "?" then ":" else
//	unary_expression         op operand
//	member kinds             object "."|"?." name
//	subscript_expression     object "[" index "]"
//	optional_subscript       object "?." index
//	call_expression          callee arguments
//	arguments, array         "(" expr... ")"
//	object                   "#{" pair... "}#"
//	pair                     key ":" value
//	qualified_name           module ":" name
//	parenthesized_expression "(" expr ")"

// IsFunction reports whether n is a function expression or declaration.
func IsFunction(n Node) bool {
	return Is(n, KindFunctionExpr) || Is(n, KindFunctionDecl)
}

// IsLoop reports whether n is a loop statement.
func IsLoop(n Node) bool {
	return Is(n, KindWhile) || Is(n, KindFor) || Is(n, KindForIn) || Is(n, KindDoWhile)
}

// Branches returns the non-leaf children of b.
func Branches(b *Branch) []*Branch {
	out := make([]*Branch, 0, len(b.Children))
	for _, c := range b.Children {
		if cb, ok := c.(*Branch); ok {
			out = append(out, cb)
		}
	}
	return out
}

// Statements returns the statements of a program or block.
func Statements(b *Branch) []*Branch {
	if b == nil {
		return nil
	}
	return Branches(b)
}

// Child returns the i-th child or nil.
func Child(b *Branch, i int) Node {
	if b == nil || i < 0 || i >= len(b.Children) {
		return nil
	}
	return b.Children[i]
}

// Ident returns the identifier text when n is an identifier leaf.
func Ident(n Node) (string, bool) {
	l, ok := n.(*Leaf)
	if !ok || l.Token.Kind != TokIdent {
		return "", false
	}
	return l.Token.Text, true
}

// FunctionName returns the function's own name, if it has one.
func FunctionName(fn *Branch) string {
	if name, ok := Ident(Child(fn, 1)); ok {
		return name
	}
	return ""
}

// FunctionParams returns the parameter name leaves.
func FunctionParams(fn *Branch) []*Leaf {
	for _, c := range fn.Children {
		if p, ok := c.(*Branch); ok && p.Kind == KindParams {
			out := make([]*Leaf, 0, len(p.Children))
			for _, pc := range p.Children {
				if l, ok := pc.(*Leaf); ok && l.Token.Kind == TokIdent {
					out = append(out, l)
				}
			}
			return out
		}
	}
	return nil
}

// FunctionBody returns the function's block.
func FunctionBody(fn *Branch) *Branch {
	for i := len(fn.Children) - 1; i >= 0; i-- {
		if b, ok := fn.Children[i].(*Branch); ok && b.Kind == KindBlock {
			return b
		}
	}
	return nil
}

// Operator returns the operator leaf of a binary, assignment or unary node.
func Operator(b *Branch) *Leaf {
	idx := 1
	if b.Kind == KindUnary {
		idx = 0
	}
	if b.Kind == KindUpdate {
		if isUpdateOp(Child(b, 0)) {
			l, _ := Child(b, 0).(*Leaf)
			return l
		}
	}
	l, _ := Child(b, idx).(*Leaf)
	return l
}

func isUpdateOp(n Node) bool {
	return IsToken(n, TokIncrement) || IsToken(n, TokDecrement)
}

// Operands returns the left and right operands of a binary node.
func Operands(b *Branch) (Node, Node) {
	return Child(b, 0), Child(b, 2)
}

// Operand returns the operand of a unary or update node.
func Operand(b *Branch) Node {
	if b.Kind == KindUpdate {
		if isUpdateOp(Child(b, 0)) {
			return Child(b, 1)
		}
		return Child(b, 0)
	}
	return Child(b, 1)
}

// IfParts returns the condition, consequence and optional alternative.
func IfParts(b *Branch) (cond, then, alt Node) {
	cond, then = Child(b, 1), Child(b, 2)
	if len(b.Children) > 4 {
		alt = b.Children[4]
	}
	return cond, then, alt
}

// TernaryParts returns the condition, consequence and alternative.
func TernaryParts(b *Branch) (cond, then, alt Node) {
	return Child(b, 0), Child(b, 2), Child(b, 4)
}

// LoopBody returns the body statement of a loop.
func LoopBody(b *Branch) Node {
	if b.Kind == KindDoWhile {
		return Child(b, 1)
	}
	return b.Children[len(b.Children)-1]
}

// LoopCondition returns the tested expression of a while or counter loop.
func LoopCondition(b *Branch) Node {
	switch b.Kind {
	case KindWhile:
		return Child(b, 1)
	case KindFor:
		return Child(b, 2)
	case KindDoWhile:
		return Child(b, 3)
	}
	return nil
}

// DeclaratorParts returns the bound name leaf and optional initializer.
func DeclaratorParts(d *Branch) (*Leaf, Node) {
	name, _ := Child(d, 0).(*Leaf)
	return name, Child(d, 2)
}

// MemberParts returns the object and property name of a member node.
func MemberParts(b *Branch) (Node, string) {
	prop := ""
	if l, ok := Child(b, 2).(*Leaf); ok {
		prop = l.Token.Text
	}
	return Child(b, 0), prop
}

// IndexParts returns the object and index expression of a subscript node.
func IndexParts(b *Branch) (Node, Node) {
	return Child(b, 0), Child(b, 2)
}

// CallParts returns the callee and argument expressions of a call.
func CallParts(b *Branch) (Node, []Node) {
	callee := Child(b, 0)
	args, _ := Child(b, 1).(*Branch)
	if args == nil {
		return callee, nil
	}
	var out []Node
	for _, c := range args.Children {
		if l, ok := c.(*Leaf); ok && (l.Token.Kind == TokLParen || l.Token.Kind == TokRParen || l.Token.Kind == TokComma) {
			continue
		}
		out = append(out, c)
	}
	return callee, out
}

// ReturnValue returns the returned expression, or nil for a bare return.
func ReturnValue(b *Branch) Node {
	v := Child(b, 1)
	if IsToken(v, TokSemicolon) {
		return nil
	}
	return v
}

// PropertyParts returns the key text and value of an object pair.
func PropertyParts(p *Branch) (string, Node) {
	key := ""
	if l, ok := Child(p, 0).(*Leaf); ok {
		key = l.Token.Text
	}
	return key, Child(p, 2)
}

// Unparen strips any parentheses around an expression.
func Unparen(n Node) Node {
	for {
		b, ok := n.(*Branch)
		if !ok || b.Kind != KindParen {
			return n
		}
		n = Child(b, 1)
	}
}
