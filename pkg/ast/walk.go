package ast

import (
	"fmt"
	"io"
	"strings"
)

// Visitor is called for each node in pre-order. Returning false skips the
// node's children.
type Visitor func(n Node) bool

// Inspect traverses the tree rooted at n depth-first in pre-order.
func Inspect(n Node, visit Visitor) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	if b, ok := n.(*Branch); ok {
		for _, c := range b.Children {
			Inspect(c, visit)
		}
	}
}

// FindAll returns every branch of the given kinds, in pre-order.
func FindAll(root Node, kinds ...Kind) []*Branch {
	var out []*Branch
	Inspect(root, func(n Node) bool {
		if b, ok := n.(*Branch); ok {
			for _, k := range kinds {
				if b.Kind == k {
					out = append(out, b)
					break
				}
			}
		}
		return true
	})
	return out
}

// FindLeaves returns every leaf of the given token kind, in pre-order.
func FindLeaves(root Node, kind TokenKind) []*Leaf {
	var out []*Leaf
	Inspect(root, func(n Node) bool {
		if l, ok := n.(*Leaf); ok && l.Token.Kind == kind {
			out = append(out, l)
		}
		return true
	})
	return out
}

// Fold reduces the tree bottom-up: f receives a node and the folded values
// of its children (nil for leaves).
func Fold[T any](n Node, f func(n Node, children []T) T) T {
	b, ok := n.(*Branch)
	if !ok {
		return f(n, nil)
	}
	vals := make([]T, len(b.Children))
	for i, c := range b.Children {
		vals[i] = Fold(c, f)
	}
	return f(n, vals)
}

// Line returns the 1-based line of the leftmost positioned token under n,
// or 0 when none is known.
func Line(n Node) int {
	if n == nil {
		return 0
	}
	return n.Pos().Line
}

// Column returns the 1-based column of the leftmost positioned token under
// n, or 0 when none is known.
func Column(n Node) int {
	if n == nil {
		return 0
	}
	return n.Pos().Column
}

// LastLine returns the line of the rightmost positioned token under n.
func LastLine(n Node) int {
	switch v := n.(type) {
	case *Leaf:
		return v.Token.Pos.Line
	case *Branch:
		for i := len(v.Children) - 1; i >= 0; i-- {
			if line := LastLine(v.Children[i]); line > 0 {
				return line
			}
		}
	}
	return 0
}

// Text reconstructs a compact source-like rendering of n from its leaves.
func Text(n Node) string {
	var sb strings.Builder
	Inspect(n, func(c Node) bool {
		if l, ok := c.(*Leaf); ok {
			sb.WriteString(l.Token.Text)
		}
		return true
	})
	return sb.String()
}

// Dump writes an indented debug rendering of the tree.
func Dump(w io.Writer, n Node) {
	dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *Leaf:
		fmt.Fprintf(w, "%s%s %q @%d:%d\n", indent, v.Token.Kind, v.Token.Text, v.Token.Pos.Line, v.Token.Pos.Column)
	case *Branch:
		fmt.Fprintf(w, "%s%s\n", indent, v.Kind)
		for _, c := range v.Children {
			dump(w, c, depth+1)
		}
	}
}
