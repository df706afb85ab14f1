package ast

// TokenKind identifies a lexical terminal.
type TokenKind string

const (
	TokIllegal TokenKind = "ILLEGAL"
	TokEOF     TokenKind = "EOF"

	TokIdent  TokenKind = "IDENT"
	TokNumber TokenKind = "NUMBER"
	TokString TokenKind = "STRING"
	TokText   TokenKind = "TEXT" // literal text between template blocks

	// Keywords
	TokVar      TokenKind = "var"
	TokLet      TokenKind = "let"
	TokConst    TokenKind = "const"
	TokFunction TokenKind = "function"
	TokIf       TokenKind = "if"
	TokElse     TokenKind = "else"
	TokWhile    TokenKind = "while"
	TokDo       TokenKind = "do"
	TokFor      TokenKind = "for"
	TokIn       TokenKind = "in"
	TokOf       TokenKind = "of"
	TokReturn   TokenKind = "return"
	TokBreak    TokenKind = "break"
	TokContinue TokenKind = "continue"
	TokTrue     TokenKind = "true"
	TokFalse    TokenKind = "false"
	TokNull     TokenKind = "null"
	TokTypeof   TokenKind = "typeof"
	TokSwitch   TokenKind = "switch"
	TokCase     TokenKind = "case"
	TokDefault  TokenKind = "default"

	// Brackets
	TokLParen   TokenKind = "("
	TokRParen   TokenKind = ")"
	TokLBracket TokenKind = "["
	TokRBracket TokenKind = "]"
	TokLBrace   TokenKind = "{"
	TokRBrace   TokenKind = "}"

	// Preprocessor markers
	TokMapOpen  TokenKind = "#{"
	TokMapClose TokenKind = "}#"
	TokEmptyMap TokenKind = "#{:}#"
	TokEmptySet TokenKind = "#{}#"

	// Punctuation
	TokComma       TokenKind = ","
	TokSemicolon   TokenKind = ";"
	TokColon       TokenKind = ":"
	TokDot         TokenKind = "."
	TokOptionalDot TokenKind = "?."
	TokQuestion    TokenKind = "?"
	TokArrow       TokenKind = "=>"

	// Operators
	TokAssign       TokenKind = "="
	TokPlusAssign   TokenKind = "+="
	TokMinusAssign  TokenKind = "-="
	TokStarAssign   TokenKind = "*="
	TokSlashAssign  TokenKind = "/="
	TokPctAssign    TokenKind = "%="
	TokCoalesce     TokenKind = "??"
	TokOr           TokenKind = "||"
	TokAnd          TokenKind = "&&"
	TokEq           TokenKind = "=="
	TokNotEq        TokenKind = "!="
	TokStrictEq     TokenKind = "==="
	TokStrictNotEq  TokenKind = "!=="
	TokLess         TokenKind = "<"
	TokLessEq       TokenKind = "<="
	TokGreater      TokenKind = ">"
	TokGreaterEq    TokenKind = ">="
	TokPlus         TokenKind = "+"
	TokMinus        TokenKind = "-"
	TokStar         TokenKind = "*"
	TokSlash        TokenKind = "/"
	TokPercent      TokenKind = "%"
	TokNot          TokenKind = "!"
	TokIncrement    TokenKind = "++"
	TokDecrement    TokenKind = "--"
	TokBitwise      TokenKind = "BITWISE" // &, |, ^, ~, <<, >>, >>>
	TokInstanceof   TokenKind = "instanceof"
	TokUnaryKeyword TokenKind = "UNARY" // void, delete, new
)

// String returns the string representation.
func (k TokenKind) String() string {
	return string(k)
}

// Keywords maps reserved words to their token kinds.
var Keywords = map[string]TokenKind{
	"var":      TokVar,
	"let":      TokLet,
	"const":    TokConst,
	"function": TokFunction,
	"if":       TokIf,
	"else":     TokElse,
	"while":    TokWhile,
	"do":       TokDo,
	"for":      TokFor,
	"in":       TokIn,
	"return":   TokReturn,
	"break":    TokBreak,
	"continue": TokContinue,
	"true":     TokTrue,
	"false":    TokFalse,
	"null":     TokNull,
	"typeof":   TokTypeof,
	"switch":   TokSwitch,
	"case":     TokCase,
	"default":  TokDefault,
}

// Operators maps operator and punctuation spellings to their token kinds.
var Operators = map[string]TokenKind{
	"(": TokLParen, ")": TokRParen, "[": TokLBracket, "]": TokRBracket,
	"{": TokLBrace, "}": TokRBrace,
	",": TokComma, ";": TokSemicolon, ":": TokColon, ".": TokDot,
	"?.": TokOptionalDot, "?": TokQuestion, "=>": TokArrow,
	"=": TokAssign, "+=": TokPlusAssign, "-=": TokMinusAssign,
	"*=": TokStarAssign, "/=": TokSlashAssign, "%=": TokPctAssign,
	"??": TokCoalesce, "||": TokOr, "&&": TokAnd,
	"==": TokEq, "!=": TokNotEq, "===": TokStrictEq, "!==": TokStrictNotEq,
	"<": TokLess, "<=": TokLessEq, ">": TokGreater, ">=": TokGreaterEq,
	"+": TokPlus, "-": TokMinus, "*": TokStar, "/": TokSlash, "%": TokPercent,
	"!": TokNot, "++": TokIncrement, "--": TokDecrement,
	"&": TokBitwise, "|": TokBitwise, "^": TokBitwise, "~": TokBitwise,
	"<<": TokBitwise, ">>": TokBitwise, ">>>": TokBitwise, "**": TokStar,
	"instanceof": TokInstanceof, "void": TokUnaryKeyword, "delete": TokUnaryKeyword,
	"new": TokUnaryKeyword, "typeof": TokTypeof, "in": TokIn,
}

// Position is a 1-based location in fragment text. A zero Line means the
// position is unknown.
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether the position is known.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Token is an immutable lexed terminal.
type Token struct {
	Kind TokenKind
	Text string
	Pos  Position
}
