package source

import (
	"strings"

	"github.com/panbanda/fraglint/pkg/preprocess"
)

// Fragment is one script-bearing string value from a host document.
type Fragment struct {
	// Path is the field path within the document, e.g. widgets[2].onClick.
	Path string
	Text string
	// Label is the short display name, normally the field key.
	Label string
	// StartLine is the 1-based host line where Text begins.
	StartLine int
	// Escaped is set when Text still carries JSON escape sequences
	// (a doubly encoded value) and must be unescaped before lines mean
	// anything.
	Escaped bool
}

// IsTemplate reports whether the fragment interleaves literal text with
// script blocks.
func (f Fragment) IsTemplate() bool {
	return preprocess.IsTemplate(f.Text)
}

// Script returns the text ready for the parser: unescaped when needed.
func (f Fragment) Script() string {
	if f.Escaped {
		return preprocess.Unescape(f.Text)
	}
	return f.Text
}

// GuardKind identifies what a guard condition controls.
type GuardKind string

const (
	// GuardExclude skips the container when the condition holds.
	GuardExclude GuardKind = "exclude"
	// GuardRender shows the container only when the condition holds.
	GuardRender GuardKind = "render"
)

// String returns the string representation.
func (k GuardKind) String() string {
	return string(k)
}

// Guard is the condition gating a container's fields.
type Guard struct {
	Kind      GuardKind
	Condition string
	// Path is the field path of the guard itself.
	Path string
}

// Script returns the condition with fragment delimiters stripped.
func (g *Guard) Script() string {
	if g == nil {
		return ""
	}
	return preprocess.Unwrap(g.Condition)
}

// looksEscaped reports whether text holds escape sequences but no real
// line breaks.
func looksEscaped(text string) bool {
	return !strings.Contains(text, "\n") && (strings.Contains(text, `\n`) || strings.Contains(text, `\"`))
}
