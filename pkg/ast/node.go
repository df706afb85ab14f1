package ast

// Kind names a grammar production.
type Kind string

const (
	KindProgram  Kind = "program"
	KindTemplate Kind = "template"

	// Statements
	KindVarDecl      Kind = "variable_declaration"
	KindDeclarator   Kind = "variable_declarator"
	KindFunctionDecl Kind = "function_declaration"
	KindBlock        Kind = "block"
	KindIf           Kind = "if_statement"
	KindWhile        Kind = "while_statement"
	KindFor          Kind = "for_statement"
	KindForIn        Kind = "for_in_statement"
	KindDoWhile      Kind = "do_statement"
	KindSwitch       Kind = "switch_statement"
	KindCase         Kind = "switch_case"
	KindReturn       Kind = "return_statement"
	KindBreak        Kind = "break_statement"
	KindContinue     Kind = "continue_statement"
	KindExprStmt     Kind = "expression_statement"
	KindEmptyStmt    Kind = "empty_statement"
	KindEmpty        Kind = "empty" // placeholder for an omitted for-clause

	// Expressions
	KindFunctionExpr    Kind = "function_expression"
	KindParams          Kind = "formal_parameters"
	KindSequence        Kind = "sequence_expression"
	KindAssign          Kind = "assignment_expression"
	KindTernary         Kind = "ternary_expression"
	KindCoalesce        Kind = "coalesce_expression"
	KindLogicalOr       Kind = "logical_or_expression"
	KindLogicalAnd      Kind = "logical_and_expression"
	KindEquality        Kind = "equality_expression"
	KindRelational      Kind = "relational_expression"
	KindAdditive        Kind = "additive_expression"
	KindMultiplicative  Kind = "multiplicative_expression"
	KindBitwise         Kind = "bitwise_expression"
	KindUnary           Kind = "unary_expression"
	KindUpdate          Kind = "update_expression"
	KindMember          Kind = "member_expression"
	KindOptionalMember  Kind = "optional_member_expression"
	KindIndex           Kind = "subscript_expression"
	KindOptionalIndex   Kind = "optional_subscript_expression"
	KindCall            Kind = "call_expression"
	KindArguments       Kind = "arguments"
	KindQualifiedName   Kind = "qualified_name"
	KindParen           Kind = "parenthesized_expression"
	KindArray           Kind = "array"
	KindObject          Kind = "object"
	KindProperty        Kind = "pair"
	KindEmptyMap        Kind = "empty_map"
	KindEmptySet        Kind = "empty_set"
	KindGroup           Kind = "group" // construct outside the core grammar, kept for traversal
	KindRecoveredStmt   Kind = "recovered_statement"
	KindTemplateSegment Kind = "template_segment"
)

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// Node is either a *Branch or a *Leaf. The interface is sealed.
type Node interface {
	// Pos returns the position of the leftmost positioned token, or the
	// zero Position when the subtree holds none.
	Pos() Position
	node()
}

// Branch is an interior node: a production and its ordered children.
type Branch struct {
	Kind     Kind
	Children []Node
}

// Leaf wraps a single token.
type Leaf struct {
	Token Token
}

func (*Branch) node() {}
func (*Leaf) node()   {}

// Pos returns the position of the first descendant token with a known
// position.
func (b *Branch) Pos() Position {
	for _, c := range b.Children {
		if p := c.Pos(); p.IsValid() {
			return p
		}
	}
	return Position{}
}

// Pos returns the token position.
func (l *Leaf) Pos() Position {
	return l.Token.Pos
}

// NewBranch builds a branch, dropping nil children.
func NewBranch(kind Kind, children ...Node) *Branch {
	b := &Branch{Kind: kind, Children: make([]Node, 0, len(children))}
	for _, c := range children {
		if c == nil {
			continue
		}
		if l, ok := c.(*Leaf); ok && l == nil {
			continue
		}
		if br, ok := c.(*Branch); ok && br == nil {
			continue
		}
		b.Children = append(b.Children, c)
	}
	return b
}

// NewLeaf builds a leaf for tok.
func NewLeaf(tok Token) *Leaf {
	return &Leaf{Token: tok}
}

// Is reports whether n is a branch of the given kind.
func Is(n Node, kind Kind) bool {
	b, ok := n.(*Branch)
	return ok && b.Kind == kind
}

// IsToken reports whether n is a leaf of the given token kind.
func IsToken(n Node, kind TokenKind) bool {
	l, ok := n.(*Leaf)
	return ok && l.Token.Kind == kind
}
