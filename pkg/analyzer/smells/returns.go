package smells

import "github.com/panbanda/fraglint/pkg/ast"

// flow summarizes the returns reachable through a statement.
type flow struct {
	value bool // some path returns a value
	bare  bool // some path returns without a value
	ends  bool // every path returns
}

func (f flow) merge(o flow) flow {
	return flow{value: f.value || o.value, bare: f.bare || o.bare, ends: f.ends && o.ends}
}

// InconsistentReturn reports whether some path through fn returns a value
// while another returns nothing or falls off the end.
func InconsistentReturn(fn *ast.Branch) bool {
	body := ast.FunctionBody(fn)
	if body == nil {
		return false
	}
	f := sequence(ast.Statements(body))
	return f.value && (f.bare || !f.ends)
}

func sequence(stmts []*ast.Branch) flow {
	var acc flow
	for _, s := range stmts {
		f := statement(s)
		acc.value = acc.value || f.value
		acc.bare = acc.bare || f.bare
		if f.ends {
			acc.ends = true
			return acc
		}
	}
	return acc
}

func statement(n ast.Node) flow {
	b, ok := n.(*ast.Branch)
	if !ok {
		return flow{}
	}
	switch b.Kind {
	case ast.KindReturn:
		if ast.ReturnValue(b) != nil {
			return flow{value: true, ends: true}
		}
		return flow{bare: true, ends: true}
	case ast.KindBlock:
		return sequence(ast.Statements(b))
	case ast.KindIf:
		_, then, alt := ast.IfParts(b)
		t := statement(then)
		if alt == nil {
			t.ends = false
			return t
		}
		return t.merge(statement(alt))
	case ast.KindWhile, ast.KindFor, ast.KindForIn:
		f := statement(ast.LoopBody(b))
		f.ends = false
		return f
	case ast.KindDoWhile:
		// The body runs at least once.
		return statement(ast.LoopBody(b))
	case ast.KindSwitch:
		return switchFlow(b)
	}
	return flow{}
}

// switchFlow treats a switch as ending only when it has a default and
// every non-empty case ends. An empty case falls through to the next.
func switchFlow(b *ast.Branch) flow {
	acc := flow{ends: true}
	hasDefault := false
	for _, c := range ast.Branches(b) {
		if c.Kind != ast.KindCase {
			continue
		}
		if ast.IsToken(ast.Child(c, 0), ast.TokDefault) {
			hasDefault = true
		}
		body := caseBody(c)
		if len(body) == 0 {
			continue
		}
		f := sequence(body)
		acc.value = acc.value || f.value
		acc.bare = acc.bare || f.bare
		acc.ends = acc.ends && f.ends
	}
	acc.ends = acc.ends && hasDefault
	return acc
}

// caseBody returns the statements after the case label.
func caseBody(c *ast.Branch) []*ast.Branch {
	for i, ch := range c.Children {
		if ast.IsToken(ch, ast.TokColon) {
			return ast.Branches(&ast.Branch{Children: c.Children[i+1:]})
		}
	}
	return nil
}
