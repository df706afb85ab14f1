package parser

import (
	"fmt"
	"strings"

	"github.com/panbanda/fraglint/pkg/ast"
)

// LexError reports malformed input at a position.
type LexError struct {
	Pos ast.Position
	Msg string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// lexer turns preprocessed fragment text into tokens. In lenient mode
// characters outside the language are skipped instead of failing.
type lexer struct {
	src     string
	pos     int
	line    int
	col     int
	lenient bool
	tokens  []ast.Token
}

// markers are matched before operators, longest first.
var markers = []struct {
	text string
	kind ast.TokenKind
}{
	{"#{:}#", ast.TokEmptyMap},
	{"#{}#", ast.TokEmptySet},
	{"#{", ast.TokMapOpen},
	{"}#", ast.TokMapClose},
}

// lex tokenizes src, always ending with an EOF token.
func lex(src string, lenient bool) ([]ast.Token, error) {
	l := &lexer{src: src, line: 1, col: 1, lenient: lenient}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) here() ast.Position {
	return ast.Position{Line: l.line, Column: l.col}
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.pos < len(l.src); i++ {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *lexer) emit(kind ast.TokenKind, text string, at ast.Position) {
	l.tokens = append(l.tokens, ast.Token{Kind: kind, Text: text, Pos: at})
}

func (l *lexer) errorf(at ast.Position, format string, args ...any) error {
	return &LexError{Pos: at, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) run() error {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		at := l.here()
		rest := l.src[l.pos:]

		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			l.advance(1)
			continue
		case strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			l.advance(end)
			continue
		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return l.errorf(at, "unterminated comment")
			}
			l.advance(end + 4)
			continue
		case c == '\'' || c == '"' || c == '`':
			if err := l.scanString(c, at); err != nil {
				return err
			}
			continue
		case isDigit(c) || (c == '.' && len(rest) > 1 && isDigit(rest[1])):
			l.scanNumber(at)
			continue
		case isIdentStart(c) || c >= 0x80:
			l.scanWord(at)
			continue
		}

		if kind, n := matchMarker(rest); n > 0 {
			l.emit(kind, rest[:n], at)
			l.advance(n)
			continue
		}
		if kind, n := matchOperator(rest); n > 0 {
			l.emit(kind, rest[:n], at)
			l.advance(n)
			continue
		}
		if !l.lenient {
			return l.errorf(at, "unexpected character %q", c)
		}
		l.advance(1)
	}
	l.emit(ast.TokEOF, "", l.here())
	return nil
}

func (l *lexer) scanString(quote byte, at ast.Position) error {
	start := l.pos
	i := l.pos + 1
	for i < len(l.src) {
		switch l.src[i] {
		case '\\':
			i += 2
			continue
		case quote:
			text := l.src[start : i+1]
			if quote == '`' && !l.lenient && strings.Contains(text, "${") {
				return l.errorf(at, "template substitution in string")
			}
			l.advance(i + 1 - start)
			l.emit(ast.TokString, text, at)
			return nil
		case '\n':
			if quote != '`' {
				return l.errorf(at, "unterminated string")
			}
		}
		i++
	}
	return l.errorf(at, "unterminated string")
}

func (l *lexer) scanNumber(at ast.Position) {
	start := l.pos
	i := l.pos
	if strings.HasPrefix(l.src[i:], "0x") || strings.HasPrefix(l.src[i:], "0X") {
		i += 2
		for i < len(l.src) && isHexDigit(l.src[i]) {
			i++
		}
	} else {
		for i < len(l.src) && (isDigit(l.src[i]) || l.src[i] == '.' || l.src[i] == '_') {
			i++
		}
		if i < len(l.src) && (l.src[i] == 'e' || l.src[i] == 'E') {
			j := i + 1
			if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
				j++
			}
			if j < len(l.src) && isDigit(l.src[j]) {
				i = j
				for i < len(l.src) && isDigit(l.src[i]) {
					i++
				}
			}
		}
	}
	l.advance(i - start)
	l.emit(ast.TokNumber, l.src[start:i], at)
}

func (l *lexer) scanWord(at ast.Position) {
	start := l.pos
	i := l.pos
	for i < len(l.src) && (isWordByte(l.src[i]) || l.src[i] >= 0x80) {
		i++
	}
	word := l.src[start:i]
	l.advance(i - start)

	kind := ast.TokIdent
	if k, ok := ast.Keywords[word]; ok {
		kind = k
	} else if k, ok := ast.Operators[word]; ok {
		kind = k
	}
	l.emit(kind, word, at)
}

func matchMarker(s string) (ast.TokenKind, int) {
	for _, m := range markers {
		if strings.HasPrefix(s, m.text) {
			return m.kind, len(m.text)
		}
	}
	return "", 0
}

// matchOperator returns the longest operator spelling at the start of s.
func matchOperator(s string) (ast.TokenKind, int) {
	for n := min(4, len(s)); n > 0; n-- {
		kind, ok := ast.Operators[s[:n]]
		if !ok {
			continue
		}
		// "a?.5:b" is a ternary, not optional chaining.
		if kind == ast.TokOptionalDot && len(s) > 2 && isDigit(s[2]) {
			continue
		}
		return kind, n
	}
	return "", 0
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool { return isIdentStart(c) || isDigit(c) }
