package complexity

import "github.com/panbanda/fraglint/pkg/ast"

// FunctionInfo describes one declared function.
type FunctionInfo struct {
	Name       string `json:"name"`
	Line       int    `json:"line"`
	EndLine    int    `json:"end_line"`
	Lines      int    `json:"lines"`
	Statements int    `json:"statements"`
}

// Functions returns the declared functions under n in source order: named
// function declarations and variables initialized with a function
// expression.
func Functions(n ast.Node) []FunctionInfo {
	var out []FunctionInfo
	ast.Inspect(n, func(c ast.Node) bool {
		b, ok := c.(*ast.Branch)
		if !ok {
			return true
		}
		switch b.Kind {
		case ast.KindFunctionDecl:
			out = append(out, describe(ast.FunctionName(b), b, b))
		case ast.KindDeclarator:
			name, init := ast.DeclaratorParts(b)
			if fn, ok := ast.Unparen(init).(*ast.Branch); ok && fn.Kind == ast.KindFunctionExpr && name != nil {
				out = append(out, describe(name.Token.Text, b, fn))
			}
		}
		return true
	})
	return out
}

func describe(name string, decl, fn *ast.Branch) FunctionInfo {
	info := FunctionInfo{Name: name, Line: ast.Line(decl), EndLine: ast.LastLine(fn)}
	info.Lines = info.EndLine - info.Line + 1
	if body := ast.FunctionBody(fn); body != nil {
		info.Statements = len(ast.Statements(body))
	}
	return info
}
