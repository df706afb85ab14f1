package parser

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/fraglint/pkg/ast"
)

func parse(t *testing.T, text string) *Tree {
	t.Helper()
	tree, err := New(WithCache(nil)).Parse(context.Background(), text)
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

func TestParseDeterministicConstructs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ast.Kind
	}{
		{"declarations", "var a = 1, b = 2; let c = a; const d = 'x';", ast.KindDeclarator},
		{"function declaration", "function add(a, b) { return a + b; }", ast.KindFunctionDecl},
		{"function expression", "var f = function named(a) { return a; };", ast.KindFunctionExpr},
		{"if else chain", "if (a) b(); else if (c) d(); else e();", ast.KindIf},
		{"while", "while (i < 3) { i++; }", ast.KindWhile},
		{"do while", "do { i++; } while (i < 3);", ast.KindDoWhile},
		{"counter loop", "for (var i = 0; i < n; i++) { s += i; }", ast.KindFor},
		{"empty clauses", "for (;;) { break; }", ast.KindFor},
		{"for in", "for (var k in obj) { use(k); }", ast.KindForIn},
		{"for of", "for (const item of items) total += item;", ast.KindForIn},
		{"switch", "switch (x) { case 1: y(); break; default: z(); }", ast.KindCase},
		{"ternary", "var v = ok ? a : b;", ast.KindTernary},
		{"optional member", "var v = a?.b?.c;", ast.KindOptionalMember},
		{"optional index", "var v = a?.[0];", ast.KindOptionalIndex},
		{"index", "var v = rows[i][0];", ast.KindIndex},
		{"prefix update", "--i;", ast.KindUpdate},
		{"typeof", "var t = typeof x === 'string';", ast.KindUnary},
		{"new", "var d = new Date();", ast.KindCall},
		{"array", "var list = [1, 2, [3]];", ast.KindArray},
		{"map", "var m = {a: 1, 'b': [2]};", ast.KindObject},
		{"empty map", "var m = {:};", ast.KindEmptyMap},
		{"empty set", "var s = {};", ast.KindEmptySet},
		{"sequence", "a = 1, b = 2;", ast.KindSequence},
		{"continue", "while (x) { continue; }", ast.KindContinue},
		{"keyword property", "var v = obj.default.new;", ast.KindMember},
		{"no semicolons", "var a = 1\nvar b = a\nreturn b", ast.KindReturn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := parse(t, tt.src)
			assert.Equal(t, TierDeterministic, tree.Tier)
			assert.NotEmpty(t, ast.FindAll(tree.Root, tt.kind), "no %s in %q", tt.kind, tt.src)
		})
	}
}

func TestParseCoalesceOverEquality(t *testing.T) {
	tree := parse(t, "workerData.skills[0] == 'Programming' ?? false")
	assert.Equal(t, TierDeterministic, tree.Tier)

	coalesce := ast.FindAll(tree.Root, ast.KindCoalesce)
	require.Len(t, coalesce, 1)
	left, right := ast.Operands(coalesce[0])
	require.True(t, ast.Is(left, ast.KindEquality))
	assert.True(t, ast.IsToken(right, ast.TokFalse))

	eqLeft, _ := ast.Operands(left.(*ast.Branch))
	assert.True(t, ast.Is(eqLeft, ast.KindIndex))
}

func TestParseQualifiedName(t *testing.T) {
	tree := parse(t, "{ util:format(x); }")
	names := ast.FindAll(tree.Root, ast.KindQualifiedName)
	require.Len(t, names, 1)
	assert.Equal(t, "util:format", ast.Text(names[0]))

	tree = parse(t, "var v = ok ? a : b(1);")
	assert.Empty(t, ast.FindAll(tree.Root, ast.KindQualifiedName))
	assert.Len(t, ast.FindAll(tree.Root, ast.KindTernary), 1)
}

func TestParseExportObject(t *testing.T) {
	tree := parse(t, "var a = 1;\nfunction b() {}\n{a: a, b: b}")
	stmts := ast.Statements(tree.Root)
	require.Len(t, stmts, 3)
	last := stmts[2]
	require.Equal(t, ast.KindExprStmt, last.Kind)
	assert.True(t, ast.Is(ast.Child(last, 0), ast.KindObject))
	assert.Equal(t, 3, ast.Line(last))
}

func TestParseUnwrapsDelimiters(t *testing.T) {
	tree := parse(t, "<% var x = 1; %>")
	decl := ast.FindAll(tree.Root, ast.KindVarDecl)
	require.Len(t, decl, 1)
	assert.Equal(t, 1, ast.Line(decl[0]))
	assert.Equal(t, 4, ast.Column(decl[0]))
}

func TestParseGeneralTier(t *testing.T) {
	tree := parse(t, "var f = (a) => a + 1;")
	assert.Equal(t, TierGeneral, tree.Tier)

	fns := ast.FindAll(tree.Root, ast.KindFunctionExpr)
	require.Len(t, fns, 1)
	params := ast.FunctionParams(fns[0])
	require.Len(t, params, 1)
	assert.Equal(t, "a", params[0].Token.Text)
	body := ast.FunctionBody(fns[0])
	require.NotNil(t, body)
	assert.Len(t, ast.FindAll(body, ast.KindReturn), 1)
	assert.Len(t, ast.FindAll(tree.Root, ast.KindDeclarator), 1)
}

func TestParseGeneralTierRestoresObjects(t *testing.T) {
	tree := parse(t, "var g = (x) => {\n  return {v: x, e: {}};\n};")
	assert.Equal(t, TierGeneral, tree.Tier)

	objs := ast.FindAll(tree.Root, ast.KindObject)
	require.Len(t, objs, 1)
	pairs := ast.FindAll(objs[0], ast.KindProperty)
	require.Len(t, pairs, 2)
	key, value := ast.PropertyParts(pairs[0])
	assert.Equal(t, "v", key)
	name, _ := ast.Ident(value)
	assert.Equal(t, "x", name)
	assert.Equal(t, 2, ast.Line(objs[0]))
	assert.Len(t, ast.FindAll(tree.Root, ast.KindEmptySet), 1)
	assert.Empty(t, ast.FindAll(tree.Root, ast.KindParen))
}

func TestParseGeneralTierQualifiedName(t *testing.T) {
	tree := parse(t, "var f = (x) => str:upper(x);")
	assert.Equal(t, TierGeneral, tree.Tier)
	names := ast.FindAll(tree.Root, ast.KindQualifiedName)
	require.Len(t, names, 1)
	assert.Equal(t, "str:upper", ast.Text(names[0]))
}

func TestParseMinimalTier(t *testing.T) {
	tree := parse(t, "foo bar baz @@ qux")
	assert.Equal(t, TierMinimal, tree.Tier)
	stmts := ast.FindAll(tree.Root, ast.KindRecoveredStmt)
	require.Len(t, stmts, 1)
	assert.Len(t, ast.FindLeaves(stmts[0], ast.TokIdent), 4)
}

func TestParseFailure(t *testing.T) {
	_, err := New().Parse(context.Background(), `var s = "unterminated`)
	require.Error(t, err)

	var pf *ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, CategoryLexical, pf.Category)
	assert.Equal(t, TierMinimal, pf.Tier)

	var le *LexError
	assert.True(t, errors.As(err, &le))
}

func TestParseEmpty(t *testing.T) {
	tree := parse(t, "  \n  ")
	assert.Equal(t, ast.KindProgram, tree.Root.Kind)
	assert.Empty(t, tree.Root.Children)
}

func TestParseCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New()
	_, err := p.Parse(ctx, "var f = (a) => a;")
	var pf *ParseFailure
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, CategoryCanceled, pf.Category)
	assert.Equal(t, int64(0), p.Cache().Stats().Entries)
}

func TestParseCache(t *testing.T) {
	p := New()
	ctx := context.Background()

	first, err := p.Parse(ctx, "var x = 1;")
	require.NoError(t, err)
	second, err := p.Parse(ctx, "var x = 1;")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err1 := p.Parse(ctx, `"open`)
	_, err2 := p.Parse(ctx, `"open`)
	assert.Error(t, err1)
	assert.Same(t, err1, err2)

	stats := p.Cache().Stats()
	assert.Equal(t, int64(2), stats.Entries)
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)

	p.Cache().Reset()
	assert.Equal(t, CacheStats{}, p.Cache().Stats())
}

func TestCacheLookupStore(t *testing.T) {
	c := NewCache()
	_, ok := c.Lookup("a")
	assert.False(t, ok)

	tree := &Tree{Root: ast.NewBranch(ast.KindProgram), Tier: TierDeterministic}
	c.Store("a", tree, nil)
	c.Store("a", &Tree{}, nil)

	e, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Same(t, tree, e.Tree)
	assert.NoError(t, e.Err)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
	assert.NotNil(t, Default().Cache())
}

func TestFallbackLoggedOnce(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	ctx := context.Background()

	for _, src := range []string{"var f = (a) => a;", "var g = (b) => b * 2;", "var h = (c) => c;"} {
		tree, err := p.Parse(ctx, src)
		require.NoError(t, err)
		assert.Equal(t, TierGeneral, tree.Tier)
	}
	assert.Equal(t, 1, strings.Count(buf.String(), "falling back to general grammar"))
	assert.Equal(t, 1, strings.Count(buf.String(), "parse tier failed"))
}

type countingRecorder struct {
	completed map[Tier]int
	failed    map[Category]int
	hits      int
}

func (r *countingRecorder) ParseCompleted(t Tier)  { r.completed[t]++ }
func (r *countingRecorder) ParseFailed(c Category) { r.failed[c]++ }
func (r *countingRecorder) CacheLookup(hit bool) {
	if hit {
		r.hits++
	}
}

func TestRecorder(t *testing.T) {
	r := &countingRecorder{completed: map[Tier]int{}, failed: map[Category]int{}}
	p := New(WithRecorder(r))
	ctx := context.Background()

	_, _ = p.Parse(ctx, "var x = 1;")
	_, _ = p.Parse(ctx, "var x = 1;")
	_, _ = p.Parse(ctx, "var f = (a) => a;")
	_, _ = p.Parse(ctx, `"open`)

	assert.Equal(t, 1, r.completed[TierDeterministic])
	assert.Equal(t, 1, r.completed[TierGeneral])
	assert.Equal(t, 1, r.failed[CategoryLexical])
	assert.Equal(t, 1, r.hits)
}

func TestParseTemplate(t *testing.T) {
	p := New()
	tree, err := p.ParseTemplate(context.Background(), "Name: <%= user.name %>\n<% if (x) { y(); } %><% %>")
	require.NoError(t, err)
	assert.Equal(t, ast.KindTemplate, tree.Root.Kind)

	parts := ast.Branches(tree.Root)
	require.Len(t, parts, 4)
	assert.Equal(t, ast.KindTemplateSegment, parts[0].Kind)
	assert.Equal(t, ast.KindProgram, parts[1].Kind)
	assert.Equal(t, ast.KindTemplateSegment, parts[2].Kind)
	assert.Equal(t, ast.KindProgram, parts[3].Kind)

	ifs := ast.FindAll(parts[3], ast.KindIf)
	require.Len(t, ifs, 1)
	assert.Equal(t, 2, ast.Line(ifs[0]))
}

func TestParseTemplateSkipsBrokenBlock(t *testing.T) {
	p := New()
	tree, err := p.ParseTemplate(context.Background(), "a <% x(); %> b <% 'open %>")
	require.NoError(t, err)
	assert.Len(t, ast.FindAll(tree.Root, ast.KindProgram), 1)
	require.Len(t, tree.Warnings, 1)
	assert.Contains(t, tree.Warnings[0], "script block skipped")

	_, err = p.ParseTemplate(context.Background(), "a <% 'open %>")
	var pf *ParseFailure
	assert.True(t, errors.As(err, &pf))
}
