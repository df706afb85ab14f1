package parser

import (
	"errors"

	"github.com/panbanda/fraglint/pkg/ast"
)

// ErrNoIdentifiers is returned by the minimal tier when the text holds
// nothing identifier-like to recover.
var ErrNoIdentifiers = errors.New("no identifiers to recover")

// parseMinimal lexes leniently and keeps identifier-like tokens, grouped
// into one recovered statement per semicolon or line.
func parseMinimal(src string) (*ast.Branch, error) {
	toks, err := lex(src, true)
	if err != nil {
		return nil, err
	}

	var stmts []ast.Node
	var cur []ast.Node
	line := 0
	flush := func() {
		if len(cur) > 0 {
			stmts = append(stmts, ast.NewBranch(ast.KindRecoveredStmt, cur...))
			cur = nil
		}
	}
	for _, t := range toks {
		if t.Kind == ast.TokSemicolon || t.Kind == ast.TokEOF || (line > 0 && t.Pos.Line != line) {
			flush()
		}
		line = t.Pos.Line
		if t.Kind == ast.TokIdent {
			cur = append(cur, ast.NewLeaf(t))
		}
	}
	if len(stmts) == 0 {
		return nil, ErrNoIdentifiers
	}
	return ast.NewBranch(ast.KindProgram, stmts...), nil
}
