package preprocess

import (
	"fmt"
	"strings"
)

// Marker spellings emitted in place of braces that open literals.
const (
	MapOpen  = "#{"
	MapClose = "}#"
	EmptyMap = "#{:}#"
	EmptySet = "#{}#"
)

// lookaheadLimit bounds how far past an opening brace the classifier reads.
const lookaheadLimit = 256

// Result is the rewritten text plus notes about spots that could not be
// classified with certainty.
type Result struct {
	Text     string
	Warnings []string
}

type frameKind byte

const (
	frameBlock frameKind = iota
	frameMap
	frameMarkedMap // map opened by a marker already present in the input
	frameParen
	frameBracket
)

type braceScanner struct {
	src      string
	out      strings.Builder
	stack    []frameKind
	warnings []string
	line     int

	lastSig  byte // last significant character, 'w' for a word, 'q' for a string
	prevSig  byte
	lastWord string
}

// Rewrite scans text once, left to right, and replaces the braces of map
// literals with marker pairs and the degenerate empty literals with their
// single markers. Block braces are left untouched. Strings and comments are
// copied verbatim, and newlines are never removed, so line numbers are
// preserved. Rewriting already rewritten text is a no-op.
func Rewrite(text string) Result {
	s := &braceScanner{src: text, line: 1}
	s.out.Grow(len(text) + 16)
	s.run()
	return Result{Text: s.out.String(), Warnings: s.warnings}
}

func (s *braceScanner) warnf(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf("line %d: ", s.line)+fmt.Sprintf(format, args...))
}

func (s *braceScanner) sig(c byte) {
	s.prevSig = s.lastSig
	s.lastSig = c
	if c != 'w' {
		s.lastWord = ""
	}
}

func (s *braceScanner) run() {
	src := s.src
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			s.line++
			s.out.WriteByte(c)
			i++
		case c == ' ' || c == '\t' || c == '\r':
			s.out.WriteByte(c)
			i++
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			end := skipComment(src, i)
			s.copy(i, end)
			i = end
		case c == '\'' || c == '"' || c == '`':
			end := skipString(src, i)
			s.copy(i, end)
			s.sig('q')
			i = end
		case c == '#':
			i = s.marker(i)
		case c == '{':
			i = s.openBrace(i)
		case c == '}':
			i = s.closeBrace(i)
		case c == '(' || c == '[':
			if c == '(' {
				s.stack = append(s.stack, frameParen)
			} else {
				s.stack = append(s.stack, frameBracket)
			}
			s.out.WriteByte(c)
			s.sig(c)
			i++
		case c == ')' || c == ']':
			want := frameParen
			if c == ']' {
				want = frameBracket
			}
			if n := len(s.stack); n > 0 && s.stack[n-1] == want {
				s.stack = s.stack[:n-1]
			} else {
				s.warnf("unbalanced %q", c)
			}
			s.out.WriteByte(c)
			s.sig(c)
			i++
		case isWordByte(c):
			end := i
			for end < len(src) && isWordByte(src[end]) {
				end++
			}
			s.out.WriteString(src[i:end])
			s.sig('w')
			s.lastWord = src[i:end]
			i = end
		default:
			s.out.WriteByte(c)
			s.sig(c)
			i++
		}
	}
}

// copy writes src[from:to] and counts its newlines.
func (s *braceScanner) copy(from, to int) {
	chunk := s.src[from:to]
	s.line += strings.Count(chunk, "\n")
	s.out.WriteString(chunk)
}

// marker passes pre-existing markers through unchanged.
func (s *braceScanner) marker(i int) int {
	rest := s.src[i:]
	switch {
	case strings.HasPrefix(rest, EmptyMap):
		s.separate()
		s.out.WriteString(EmptyMap)
		s.sig('}')
		return i + len(EmptyMap)
	case strings.HasPrefix(rest, EmptySet):
		s.separate()
		s.out.WriteString(EmptySet)
		s.sig('}')
		return i + len(EmptySet)
	case strings.HasPrefix(rest, MapOpen):
		s.separate()
		s.stack = append(s.stack, frameMarkedMap)
		s.out.WriteString(MapOpen)
		s.sig('{')
		return i + len(MapOpen)
	}
	s.out.WriteByte('#')
	return i + 1
}

// separate keeps a block's closing brace from fusing with a following
// marker into a map-close token.
func (s *braceScanner) separate() {
	str := s.out.String()
	if len(str) > 0 && str[len(str)-1] == '}' {
		s.out.WriteByte(' ')
	}
}

func (s *braceScanner) closeBrace(i int) int {
	n := len(s.stack)
	var top frameKind = frameBlock
	if n > 0 {
		top = s.stack[n-1]
		if top == frameParen || top == frameBracket {
			s.warnf("unbalanced '}'")
			top = frameBlock
		} else {
			s.stack = s.stack[:n-1]
		}
	} else {
		s.warnf("unbalanced '}'")
	}

	switch top {
	case frameMap:
		s.out.WriteString(MapClose)
	case frameMarkedMap:
		s.out.WriteByte('}')
		if i+1 >= len(s.src) || s.src[i+1] != '#' {
			s.out.WriteByte('#')
		}
	default:
		s.out.WriteByte('}')
	}
	s.sig('}')
	return i + 1
}

// exprContext reports whether a brace at this point would start an
// expression rather than a statement.
func (s *braceScanner) exprContext() bool {
	switch s.lastSig {
	case '>':
		return s.prevSig != '=' // "=>" opens a function body
	case '=', '(', '[', ',', ':', '?', '!', '&', '|', '+', '-', '*', '/', '%', '<', '~', '^':
		return true
	case 'w':
		switch s.lastWord {
		case "return", "typeof", "in", "of", "case":
			return true
		}
	}
	return false
}

type braceClass int

const (
	classBlock braceClass = iota
	classMap
	classEmptyMap
	classEmptySet
)

func (s *braceScanner) openBrace(i int) int {
	class, end := s.classify(i)
	switch class {
	case classMap:
		s.separate()
		s.stack = append(s.stack, frameMap)
		s.out.WriteString(MapOpen)
		s.sig('{')
		return i + 1
	case classEmptyMap, classEmptySet:
		s.separate()
		marker := EmptySet
		if class == classEmptyMap {
			marker = EmptyMap
		}
		s.out.WriteString(marker)
		newlines := strings.Count(s.src[i:end], "\n")
		s.out.WriteString(strings.Repeat("\n", newlines))
		s.line += newlines
		s.sig('}')
		return end
	}
	s.stack = append(s.stack, frameBlock)
	s.out.WriteByte('{')
	s.sig('{')
	return i + 1
}

// classify looks ahead from the brace at i. For empty literals end is the
// index just past the closing brace.
func (s *braceScanner) classify(i int) (braceClass, int) {
	src := s.src
	expr := s.exprContext()
	limit := min(len(src), i+1+lookaheadLimit)

	j, ok := skipSpace(src, i+1, limit)
	if !ok {
		s.warnf("brace lookahead inconclusive, treated as block")
		return classBlock, 0
	}

	switch src[j] {
	case '}':
		if expr {
			return classEmptySet, j + 1
		}
		return classBlock, 0
	case ':':
		k, ok := skipSpace(src, j+1, limit)
		if ok && src[k] == '}' {
			return classEmptyMap, k + 1
		}
		s.warnf("stray ':' after brace, treated as block")
		return classBlock, 0
	}

	keyEnd, identKey := scanKey(src, j, limit)
	if keyEnd < 0 {
		if expr {
			s.warnf("brace in expression position does not start a map, treated as block")
		}
		return classBlock, 0
	}
	m, ok := skipSpace(src, keyEnd, limit)
	if !ok {
		s.warnf("brace lookahead inconclusive, treated as block")
		return classBlock, 0
	}
	if src[m] != ':' {
		if expr {
			s.warnf("brace in expression position does not start a map, treated as block")
		}
		return classBlock, 0
	}
	if !expr && identKey && (src[j:keyEnd] == "default" || src[j:keyEnd] == "case") {
		return classBlock, 0
	}
	if !expr && identKey && m == keyEnd && isQualifiedCall(src, m, limit) {
		return classBlock, 0
	}
	return classMap, 0
}

// isQualifiedCall reports whether the colon at i belongs to a tight
// module:function( call.
func isQualifiedCall(src string, i, limit int) bool {
	k := i + 1
	if k >= limit || !isIdentStart(src[k]) {
		return false
	}
	for k < limit && isWordByte(src[k]) {
		k++
	}
	k, ok := skipSpace(src, k, limit)
	return ok && src[k] == '('
}

// scanKey reads an object key at j. It returns -1 when no key starts there.
func scanKey(src string, j, limit int) (int, bool) {
	c := src[j]
	switch {
	case isIdentStart(c):
		k := j
		for k < limit && isWordByte(src[k]) {
			k++
		}
		return k, true
	case c == '\'' || c == '"':
		k := skipString(src, j)
		if k > limit {
			return -1, false
		}
		return k, false
	case c >= '0' && c <= '9':
		k := j
		for k < limit && (isWordByte(src[k]) || src[k] == '.') {
			k++
		}
		return k, false
	}
	return -1, false
}

// skipSpace skips whitespace and comments from i. ok is false when the
// limit is reached first.
func skipSpace(src string, i, limit int) (int, bool) {
	for i < limit {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			i = skipComment(src, i)
		default:
			return i, true
		}
	}
	return i, false
}

func skipComment(src string, i int) int {
	if src[i+1] == '/' {
		end := strings.IndexByte(src[i:], '\n')
		if end < 0 {
			return len(src)
		}
		return i + end
	}
	end := strings.Index(src[i+2:], "*/")
	if end < 0 {
		return len(src)
	}
	return i + 2 + end + 2
}

// skipString returns the index just past the string literal opening at i.
// Single and double quoted strings stop at an unescaped newline.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			if quote != '`' {
				return j
			}
		}
	}
	return len(src)
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
