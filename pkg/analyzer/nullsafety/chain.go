package nullsafety

import (
	"strings"

	"github.com/panbanda/fraglint/pkg/ast"
)

// ExprSegment stands in for a base that is neither a name nor an access.
const ExprSegment = "<expression>"

// Chain renders the access path of n: dot-joined segments, with "[]" for
// an indexed access and "()" for a call result used as a receiver.
func Chain(n ast.Node) string {
	switch v := ast.Unparen(n).(type) {
	case *ast.Leaf:
		if v.Token.Kind == ast.TokIdent {
			return v.Token.Text
		}
	case *ast.Branch:
		switch v.Kind {
		case ast.KindMember, ast.KindOptionalMember:
			obj, prop := ast.MemberParts(v)
			return Chain(obj) + "." + prop
		case ast.KindIndex, ast.KindOptionalIndex:
			obj, _ := ast.IndexParts(v)
			return Chain(obj) + "[]"
		case ast.KindCall:
			callee, _ := ast.CallParts(v)
			return Chain(callee) + "()"
		case ast.KindQualifiedName:
			return ast.Text(v)
		}
	}
	return ExprSegment
}

// Segments splits a chain into its dot-separated parts.
func Segments(chain string) []string {
	return strings.Split(chain, ".")
}

// segmentName strips access suffixes from a segment.
func segmentName(seg string) string {
	for {
		switch {
		case strings.HasSuffix(seg, "[]"):
			seg = seg[:len(seg)-2]
		case strings.HasSuffix(seg, "()"):
			seg = seg[:len(seg)-2]
		default:
			return seg
		}
	}
}

// HasPrefix reports whether prefix is chain itself or one of its
// ancestors.
func HasPrefix(chain, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(chain, prefix) {
		return false
	}
	if len(chain) == len(prefix) {
		return true
	}
	switch chain[len(prefix)] {
	case '.', '[', '(':
		return true
	}
	return false
}

func isAccess(n ast.Node) bool {
	return ast.Is(n, ast.KindMember) || ast.Is(n, ast.KindOptionalMember) ||
		ast.Is(n, ast.KindIndex) || ast.Is(n, ast.KindOptionalIndex)
}
