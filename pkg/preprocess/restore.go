package preprocess

import "strings"

// Restored is marker-free JavaScript produced from rewritten text. Byte
// offsets are the same as in the input.
type Restored struct {
	Text string
	// ObjectParens holds the offsets of parentheses inserted around
	// object literals.
	ObjectParens map[int]bool
	// QualifiedDots holds the offsets where a namespace colon was
	// replaced by a dot.
	QualifiedDots map[int]bool
}

// Restore maps the literal markers of rewritten text back to plain
// JavaScript so a stock JavaScript grammar accepts it. Map literals are
// wrapped in parentheses, which keeps a statement-level object literal
// from being read as a block. A tight module:function( colon becomes a dot.
func Restore(text string) Restored {
	r := Restored{
		ObjectParens:  make(map[int]bool),
		QualifiedDots: make(map[int]bool),
	}
	buf := []byte(text)
	var maps []bool // true for a marker-opened map, false for any other brace
	ternary := 0

	for i := 0; i < len(buf); {
		c := buf[i]
		switch {
		case c == '/' && i+1 < len(buf) && (buf[i+1] == '/' || buf[i+1] == '*'):
			i = skipComment(text, i)
		case c == '\'' || c == '"' || c == '`':
			i = skipString(text, i)
		case strings.HasPrefix(text[i:], EmptyMap):
			copy(buf[i:], "({ })")
			r.ObjectParens[i] = true
			i += len(EmptyMap)
		case strings.HasPrefix(text[i:], EmptySet):
			copy(buf[i:], "({})")
			r.ObjectParens[i] = true
			i += len(EmptySet)
		case strings.HasPrefix(text[i:], MapOpen):
			copy(buf[i:], "({")
			r.ObjectParens[i] = true
			maps = append(maps, true)
			ternary = 0
			i += len(MapOpen)
		case c == '{':
			maps = append(maps, false)
			ternary = 0
			i++
		case c == '}':
			opened := false
			if n := len(maps); n > 0 {
				opened = maps[n-1]
				maps = maps[:n-1]
			}
			if opened && i+1 < len(buf) && buf[i+1] == '#' {
				buf[i+1] = ')'
				i += 2
				continue
			}
			ternary = 0
			i++
		case c == '?':
			switch {
			case i+1 < len(buf) && buf[i+1] == '?':
				i += 2
			case i+1 < len(buf) && buf[i+1] == '.' && (i+2 >= len(buf) || !isDigit(buf[i+2])):
				i += 2
			default:
				ternary++
				i++
			}
		case c == ';':
			ternary = 0
			i++
		case c == ':':
			switch {
			case ternary > 0:
				ternary--
			case len(maps) > 0 && maps[len(maps)-1]:
			case i > 0 && isWordByte(buf[i-1]) && isQualifiedCall(text, i, len(text)):
				buf[i] = '.'
				r.QualifiedDots[i] = true
			}
			i++
		default:
			i++
		}
	}
	r.Text = string(buf)
	return r
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
