package deadcode

import (
	"context"
	"testing"

	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/parser"
)

func parse(t *testing.T, src string) *ast.Branch {
	t.Helper()
	tree, err := parser.New(parser.WithCache(nil)).Parse(context.Background(), src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return tree.Root
}

func run(t *testing.T, src string) []models.Finding {
	t.Helper()
	return New().Run(&analyzer.Unit{Root: parse(t, src), Whole: true, Settings: analyzer.DefaultSettings()})
}

func byRule(findings []models.Finding, rule models.RuleID) []models.Finding {
	var out []models.Finding
	for _, f := range findings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}

func TestUnusedVariable(t *testing.T) {
	findings := run(t, "<% var a = 1;\nvar b = 2;\nprint(b); %>")
	unused := byRule(findings, models.RuleUnusedVariable)
	if len(unused) != 1 {
		t.Fatalf("got %d unused-variable findings, want 1: %v", len(unused), findings)
	}
	if unused[0].Line != 1 {
		t.Errorf("Line = %d, want 1", unused[0].Line)
	}
	if unused[0].Severity != models.SeverityWarning {
		t.Errorf("Severity = %s, want warning", unused[0].Severity)
	}
}

func TestFunctionValuedVariableIsNotUnusedVariable(t *testing.T) {
	findings := run(t, "<% const total = function() { if (ok) { return 1; } } %>")
	if got := byRule(findings, models.RuleUnusedVariable); len(got) != 0 {
		t.Errorf("unused-variable findings = %v, want none", got)
	}
	if got := byRule(findings, models.RuleUnusedFunction); len(got) != 0 {
		t.Errorf("unused-function without export object = %v, want none", got)
	}
}

func TestExportObject(t *testing.T) {
	src := `<%
function helper(x) { return x * 2; }
function unused() { return 0; }
var result = helper(3);
{ result: result, total: totl }
%>`
	findings := run(t, src)

	fns := byRule(findings, models.RuleUnusedFunction)
	if len(fns) != 1 || fns[0].Line != 3 {
		t.Errorf("unused-function = %v, want one at line 3", fns)
	}
	if got := byRule(findings, models.RuleUnusedVariable); len(got) != 0 {
		t.Errorf("unused-variable = %v, want none", got)
	}
	undeclared := byRule(findings, models.RuleExportedUndeclared)
	if len(undeclared) != 1 {
		t.Fatalf("exported-undeclared = %v, want 1", undeclared)
	}
	if undeclared[0].Line != 5 {
		t.Errorf("Line = %d, want 5", undeclared[0].Line)
	}
	if undeclared[0].Severity != models.SeveritySevere {
		t.Errorf("Severity = %s, want severe", undeclared[0].Severity)
	}
}

func TestExportDetectionOffForTemplateBlocks(t *testing.T) {
	root := parse(t, "<% function unused() {}\n{ a: 1 } %>")
	findings := New().Run(&analyzer.Unit{Root: root, Whole: false})
	if got := byRule(findings, models.RuleUnusedFunction); len(got) != 0 {
		t.Errorf("unused-function = %v, want none", got)
	}
}

func TestUnusedParameter(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"trailing unused", "function f(a, b, c) { return b; } f();", []string{"c"}},
		{"all unused", "function f(a, b) { return 1; } f();", []string{"a", "b"}},
		{"leading unused kept", "function f(a, b) { return b; } f();", nil},
		{"all used", "function f(a) { return a; } f();", nil},
		{"callback", "list.forEach(function(item, i) { print(item); });", []string{"i"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := byRule(run(t, tt.src), models.RuleUnusedParameter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want params %v", got, tt.want)
			}
			for i, f := range got {
				if want := "parameter '" + tt.want[i] + "'"; len(f.Message) < len(want) || f.Message[:len(want)] != want {
					t.Errorf("Message = %q, want prefix %q", f.Message, want)
				}
			}
		})
	}
}

func TestNestedScopes(t *testing.T) {
	src := "<% function outer() {\n  var inner = 1;\n  var g = function() {};\n}\nouter(); %>"
	findings := run(t, src)

	vars := byRule(findings, models.RuleUnusedVariable)
	if len(vars) != 1 || vars[0].Line != 2 {
		t.Errorf("unused-variable = %v, want one at line 2", vars)
	}
	fns := byRule(findings, models.RuleUnusedFunction)
	if len(fns) != 1 || fns[0].Line != 3 {
		t.Errorf("unused-function = %v, want one at line 3", fns)
	}
}

func TestShadowing(t *testing.T) {
	src := "var x = 1; function f() { var x = 2; return x; } f(); print(x);"
	if findings := run(t, src); len(findings) != 0 {
		t.Errorf("findings = %v, want none", findings)
	}
}

func TestResolve(t *testing.T) {
	root := parse(t, "var o = { k: v.w };\nfunction f(p) { return y + p; }\nf(o);")
	global := Resolve(root)

	if global.Kind != ScopeGlobal {
		t.Errorf("Kind = %s, want global", global.Kind)
	}
	if _, ok := global.Declared["o"]; !ok {
		t.Error("o not declared in global scope")
	}
	if !global.Used["o"] || !global.Used["f"] || !global.Used["v"] {
		t.Errorf("Used = %v, want o, f and v", global.Used)
	}
	if global.Used["k"] || global.Used["w"] {
		t.Errorf("binding positions counted as uses: %v", global.Used)
	}

	if len(global.Children) != 1 {
		t.Fatalf("len(Children) = %d, want 1", len(global.Children))
	}
	fn := global.Children[0]
	if fn.Name != "f" || fn.Kind != ScopeFunction {
		t.Errorf("child = %s %q, want function f", fn.Kind, fn.Name)
	}
	if !fn.Used["y"] {
		t.Error("unresolved y should stay in the function scope")
	}
	if p := fn.Declared["p"]; p == nil || !p.IsParam || p.Index != 0 {
		t.Errorf("p binding = %+v", p)
	}
	if global.Lookup("y") != nil {
		t.Error("y should not resolve")
	}
	if fn.Lookup("o") != global {
		t.Error("o should resolve to the global scope")
	}
}

func TestUsedSubsetOfDeclared(t *testing.T) {
	root := parse(t, "var a = 1; var b = function(c) { return a + c + d; }; b(2);")
	Resolve(root).Walk(func(s *Scope) {
		for name := range s.Used {
			if _, ok := s.Declared[name]; ok {
				continue
			}
			if s.Lookup(name) != nil {
				t.Errorf("scope %q records %q as its own use but it resolves elsewhere", s.Name, name)
			}
		}
	})
}

func TestNamedFunctionScopes(t *testing.T) {
	root := parse(t, "var handlers = { click: function() {} };\nhandlers.click();")
	global := Resolve(root)
	if len(global.Children) != 1 || global.Children[0].Name != "click" {
		t.Errorf("children = %+v, want one scope named click", global.Children)
	}
}
