package analyzer

import (
	"strings"

	"github.com/panbanda/fraglint/pkg/ast"
)

// Anonymous is the display name of a function with no binding.
const Anonymous = "anonymous function"

// Names maps function nodes to display names.
type Names map[*ast.Branch]string

// FunctionNames names every function under root: its own name when it
// has one, otherwise the variable, property or assignment target it is
// bound to.
func FunctionNames(root ast.Node) Names {
	names := make(Names)
	bind := func(value ast.Node, name string) {
		fn, ok := ast.Unparen(value).(*ast.Branch)
		name = strings.Trim(name, "\"'`")
		if !ok || !ast.IsFunction(fn) || name == "" {
			return
		}
		if _, done := names[fn]; !done {
			names[fn] = name
		}
	}
	ast.Inspect(root, func(n ast.Node) bool {
		b, ok := n.(*ast.Branch)
		if !ok {
			return true
		}
		switch b.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr:
			if own := ast.FunctionName(b); own != "" {
				names[b] = own
			}
		case ast.KindDeclarator:
			name, init := ast.DeclaratorParts(b)
			if name != nil {
				bind(init, name.Token.Text)
			}
		case ast.KindProperty:
			key, value := ast.PropertyParts(b)
			bind(value, key)
		case ast.KindAssign:
			target, value := ast.Operands(b)
			bind(value, ast.Text(target))
		}
		return true
	})
	return names
}

// Of returns the display name of fn.
func (n Names) Of(fn *ast.Branch) string {
	if name, ok := n[fn]; ok {
		return name
	}
	return Anonymous
}
