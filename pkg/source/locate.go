package source

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// minDistinctive is the shortest trimmed line worth matching on.
const minDistinctive = 8

// Locator finds the host line where a decoded string value starts. Calls
// are expected in document order: each search resumes after the previous
// match.
type Locator struct {
	content    []byte
	lineStarts []int
	index      map[uint64][]int // xxhash of trimmed line -> 1-based lines
	offset     int
	lastLine   int
}

// NewLocator indexes content.
func NewLocator(content []byte) *Locator {
	l := &Locator{content: content, lineStarts: []int{0}, index: make(map[uint64][]int), lastLine: 1}
	for i, c := range content {
		if c == '\n' {
			l.lineStarts = append(l.lineStarts, i+1)
		}
	}
	for i, start := range l.lineStarts {
		end := len(content)
		if i+1 < len(l.lineStarts) {
			end = l.lineStarts[i+1] - 1
		}
		trimmed := bytes.TrimSpace(content[start:end])
		if len(trimmed) >= minDistinctive {
			h := xxhash.Sum64(trimmed)
			l.index[h] = append(l.index[h], i+1)
		}
	}
	return l
}

// LineOf returns the 1-based line holding byte offset off.
func (l *Locator) LineOf(off int) int {
	return sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > off })
}

// Locate returns the 1-based line where value starts. It first searches
// for the value's JSON encoding after the previous match, then falls back
// to matching distinctive lines of the value against the line index,
// preferring the nearest line at or after the previous match. When neither
// finds anything it returns the previous match line.
func (l *Locator) Locate(value string) int {
	for _, needle := range encodings(value) {
		if i := bytes.Index(l.content[l.offset:], needle); i >= 0 {
			at := l.offset + i
			l.offset = at + len(needle)
			l.lastLine = l.LineOf(at)
			return l.lastLine
		}
	}
	if line, ok := l.fuzzy(value); ok {
		l.lastLine = line
		if line-1 < len(l.lineStarts) {
			l.offset = max(l.offset, l.lineStarts[line-1])
		}
		return line
	}
	return l.lastLine
}

// encodings returns the spellings a JSON encoder could have used for
// value, plus its first line as a fallback prefix.
func encodings(value string) [][]byte {
	var out [][]byte
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err == nil {
		out = append(out, bytes.TrimRight(buf.Bytes(), "\n"))
	}
	if b, err := json.Marshal(value); err == nil && (len(out) == 0 || !bytes.Equal(b, out[0])) {
		out = append(out, b)
	}
	if first, _, found := strings.Cut(value, "\n"); found && len(strings.TrimSpace(first)) >= minDistinctive {
		buf.Reset()
		if err := enc.Encode(first); err == nil {
			prefix := bytes.TrimRight(buf.Bytes(), "\n")
			out = append(out, prefix[:len(prefix)-1]) // without the closing quote
		}
	}
	return out
}

// fuzzy tries the first, middle and last distinctive lines of value.
func (l *Locator) fuzzy(value string) (int, bool) {
	lines := strings.Split(value, "\n")
	var distinctive []int
	for i, ln := range lines {
		if len(strings.TrimSpace(ln)) >= minDistinctive {
			distinctive = append(distinctive, i)
		}
	}
	if len(distinctive) == 0 {
		return 0, false
	}
	candidates := []int{distinctive[0], distinctive[len(distinctive)/2], distinctive[len(distinctive)-1]}

	for _, rel := range candidates {
		hits := l.index[xxhash.Sum64String(strings.TrimSpace(lines[rel]))]
		best := 0
		for _, hostLine := range hits {
			start := hostLine - rel
			if start < l.lastLine {
				continue
			}
			if best == 0 || start < best {
				best = start
			}
		}
		if best > 0 {
			return best, true
		}
	}
	return 0, false
}
