// Package ast defines the syntax tree produced by the fragment parser and the
// traversal utilities every analysis pass is built on.
//
// A tree is a closed union of two node types: *Branch, a production with an
// ordered list of children, and *Leaf, a single lexed token. Only leaves
// carry positions; a branch reports the position of its leftmost positioned
// descendant.
//
// Usage:
//
//	ast.Inspect(root, func(n ast.Node) bool {
//	    if b, ok := n.(*ast.Branch); ok && b.Kind == ast.KindIf {
//	        fmt.Println("if at line", ast.Line(b))
//	    }
//	    return true
//	})
//
//	for _, fn := range ast.FindAll(root, ast.KindFunctionExpr) {
//	    fmt.Println(ast.FunctionName(fn))
//	}
package ast
