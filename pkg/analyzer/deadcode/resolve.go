package deadcode

import (
	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/ast"
)

// Resolve builds the scope tree of a complete fragment, including export
// detection on its global scope.
func Resolve(root *ast.Branch) *Scope {
	return resolve(root, true)
}

func resolve(root *ast.Branch, exports bool) *Scope {
	r := &resolver{names: analyzer.FunctionNames(root)}
	global := newScope(ScopeGlobal, "", nil, 1)
	r.collect(global, root)
	if exports {
		detectExports(global, root)
	}
	r.use(global, root)
	return global
}

type resolver struct {
	names analyzer.Names
}

// collect declares every name bound directly in the scope's body. It does
// not enter nested functions; their names belong to their own scopes.
func (r *resolver) collect(s *Scope, n ast.Node) {
	b, ok := n.(*ast.Branch)
	if !ok {
		return
	}
	switch b.Kind {
	case ast.KindFunctionDecl:
		if name := ast.FunctionName(b); name != "" {
			s.declare(&Binding{Name: name, Line: ast.Line(b), IsFunction: true, Index: -1})
		}
		return
	case ast.KindFunctionExpr:
		return
	case ast.KindDeclarator:
		name, init := ast.DeclaratorParts(b)
		if name != nil && name.Token.Kind == ast.TokIdent {
			s.declare(&Binding{
				Name:       name.Token.Text,
				Line:       name.Token.Pos.Line,
				IsFunction: ast.IsFunction(ast.Unparen(init)),
				Index:      -1,
			})
		}
		r.collect(s, init)
		return
	}
	for _, c := range b.Children {
		r.collect(s, c)
	}
}

// use resolves every identifier reference under n against the scope chain,
// opening a child scope for each function it meets.
func (r *resolver) use(s *Scope, n ast.Node) {
	switch v := n.(type) {
	case *ast.Leaf:
		if v.Token.Kind == ast.TokIdent {
			s.mark(v.Token.Text)
		}
		return
	case *ast.Branch:
		switch v.Kind {
		case ast.KindFunctionDecl, ast.KindFunctionExpr:
			r.function(s, v)
			return
		case ast.KindDeclarator:
			_, init := ast.DeclaratorParts(v)
			r.use(s, init)
			return
		case ast.KindMember, ast.KindOptionalMember:
			r.use(s, ast.Child(v, 0))
			return
		case ast.KindProperty:
			_, value := ast.PropertyParts(v)
			if key := ast.Child(v, 0); key != nil && !isLeaf(key) {
				r.use(s, key)
			}
			r.use(s, value)
			return
		case ast.KindQualifiedName, ast.KindParams:
			return
		}
		for _, c := range v.Children {
			r.use(s, c)
		}
	}
}

func (r *resolver) function(parent *Scope, fn *ast.Branch) {
	name := analyzer.Anonymous
	if n, ok := r.names[fn]; ok {
		name = n
	}
	child := newScope(ScopeFunction, name, parent, ast.Line(fn))
	parent.Children = append(parent.Children, child)

	for i, p := range ast.FunctionParams(fn) {
		child.declare(&Binding{Name: p.Token.Text, Line: p.Token.Pos.Line, IsParam: true, Index: i})
	}
	body := ast.FunctionBody(fn)
	if body == nil {
		return
	}
	r.collect(child, body)
	r.use(child, body)
}

func isLeaf(n ast.Node) bool {
	_, ok := n.(*ast.Leaf)
	return ok
}

// detectExports finds the export object: the last top-level expression
// statement that is an object literal.
func detectExports(global *Scope, root *ast.Branch) {
	var obj *ast.Branch
	for _, stmt := range ast.Statements(root) {
		if stmt.Kind != ast.KindExprStmt {
			continue
		}
		if o, ok := ast.Unparen(ast.Child(stmt, 0)).(*ast.Branch); ok && o.Kind == ast.KindObject {
			obj = o
		}
	}
	if obj == nil {
		return
	}
	global.HasExport = true
	for _, p := range ast.Branches(obj) {
		if p.Kind != ast.KindProperty {
			continue
		}
		key, value := ast.PropertyParts(p)
		if name, ok := ast.Ident(ast.Unparen(value)); ok {
			global.Exports = append(global.Exports, Export{Key: key, Name: name, Line: ast.Line(p)})
		}
	}
}
