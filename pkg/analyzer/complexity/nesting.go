package complexity

import (
	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/ast"
)

// NestingResult is the deepest point of a tree.
type NestingResult struct {
	Depth int `json:"depth"`
	// Function is the innermost function enclosing the deepest point, or
	// empty at top level.
	Function string `json:"function,omitempty"`
	Line     int    `json:"line"`
}

// Nesting returns the deepest nesting reached under n. Entering a function
// body or a control-flow statement adds one level; an else-if chain stays
// at the level of its first if.
func Nesting(n ast.Node) NestingResult {
	w := &nestingWalker{names: analyzer.FunctionNames(n)}
	w.walk(n, 0, "")
	return w.best
}

type nestingWalker struct {
	names analyzer.Names
	best  NestingResult
}

func isControl(b *ast.Branch) bool {
	switch b.Kind {
	case ast.KindIf, ast.KindWhile, ast.KindDoWhile, ast.KindFor, ast.KindForIn, ast.KindSwitch:
		return true
	}
	return false
}

func (w *nestingWalker) walk(n ast.Node, depth int, fn string) {
	b, ok := n.(*ast.Branch)
	if !ok {
		return
	}
	switch {
	case ast.IsFunction(b):
		depth++
		fn = w.names.Of(b)
	case isControl(b):
		depth++
	}
	if depth > w.best.Depth {
		w.best = NestingResult{Depth: depth, Function: fn, Line: ast.Line(b)}
	}

	for i, c := range b.Children {
		if b.Kind == ast.KindIf && i == 4 && ast.Is(c, ast.KindIf) {
			w.walk(c, depth-1, fn)
			continue
		}
		w.walk(c, depth, fn)
	}
}
