// Package preprocess prepares raw fragment text for the parser: it strips
// fragment delimiters, undoes host-value escaping, splits template
// expressions, and rewrites ambiguous braces into marker tokens.
package preprocess

import "strings"

// Fragment delimiters.
const (
	StartDelim  = "<%"
	OutputDelim = "<%="
	EndDelim    = "%>"
)

// Segment is one piece of a template: literal text or a script block.
type Segment struct {
	Text   string
	Script bool
	// Line is the 1-based line of the segment's first character within the
	// template text.
	Line int
}

// isWrapped reports whether text is a single delimited block with nothing
// but whitespace around it.
func isWrapped(text string) bool {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, StartDelim) || !strings.HasSuffix(t, EndDelim) {
		return false
	}
	inner := t[len(StartDelim) : len(t)-len(EndDelim)]
	return !strings.Contains(inner, StartDelim) && !strings.Contains(inner, EndDelim)
}

// Unwrap strips the outer fragment delimiters, replacing them with spaces so
// line and column positions are unchanged. Text that is not a single
// delimited block is returned as is.
func Unwrap(text string) string {
	if !isWrapped(text) {
		return text
	}
	buf := []byte(text)
	start := strings.Index(text, StartDelim)
	n := len(StartDelim)
	if strings.HasPrefix(text[start:], OutputDelim) {
		n = len(OutputDelim)
	}
	for i := start; i < start+n; i++ {
		buf[i] = ' '
	}
	end := strings.LastIndex(text, EndDelim)
	for i := end; i < end+len(EndDelim); i++ {
		buf[i] = ' '
	}
	return string(buf)
}

// IsTemplate reports whether text interleaves literal text with one or more
// script blocks (as opposed to being a single script block).
func IsTemplate(text string) bool {
	return strings.Contains(text, StartDelim) && !isWrapped(text)
}

// SplitTemplate splits text on script-block delimiters. Script segments hold
// the block body without delimiters; blocks containing only whitespace are
// dropped. An unterminated block is kept as literal text.
func SplitTemplate(text string) []Segment {
	var segs []Segment
	pos := 0
	line := 1
	advance := func(to int) {
		line += strings.Count(text[pos:to], "\n")
		pos = to
	}

	for pos < len(text) {
		open := strings.Index(text[pos:], StartDelim)
		if open < 0 {
			segs = append(segs, Segment{Text: text[pos:], Line: line})
			break
		}
		open += pos
		closeIdx := strings.Index(text[open:], EndDelim)
		if closeIdx < 0 {
			segs = append(segs, Segment{Text: text[pos:], Line: line})
			break
		}
		closeIdx += open

		if open > pos {
			segs = append(segs, Segment{Text: text[pos:open], Line: line})
		}
		advance(open)

		bodyStart := open + len(StartDelim)
		if strings.HasPrefix(text[open:], OutputDelim) {
			bodyStart = open + len(OutputDelim)
		}
		body := text[bodyStart:closeIdx]
		advance(bodyStart)
		if strings.TrimSpace(body) != "" {
			segs = append(segs, Segment{Text: body, Script: true, Line: line})
		}
		advance(closeIdx)
		pos = closeIdx + len(EndDelim)
	}
	return segs
}

// Unescape converts escape sequences left over from a JSON-like host value
// (\n, \r, \t, \", \\, \/) into the characters they denote. Other escapes
// are kept verbatim so script string literals survive.
func Unescape(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '\\' || i+1 >= len(text) {
			sb.WriteByte(c)
			continue
		}
		switch text[i+1] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case '/':
			sb.WriteByte('/')
		default:
			sb.WriteByte(c)
			continue
		}
		i++
	}
	return sb.String()
}
