package parser

import (
	"testing"

	"github.com/panbanda/fraglint/pkg/ast"
)

func kinds(toks []ast.Token) []ast.TokenKind {
	out := make([]ast.TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		src  string
		want []ast.TokenKind
	}{
		{"var x = 1;", []ast.TokenKind{ast.TokVar, ast.TokIdent, ast.TokAssign, ast.TokNumber, ast.TokSemicolon, ast.TokEOF}},
		{"a === b !== c", []ast.TokenKind{ast.TokIdent, ast.TokStrictEq, ast.TokIdent, ast.TokStrictNotEq, ast.TokIdent, ast.TokEOF}},
		{"a?.b ?? c", []ast.TokenKind{ast.TokIdent, ast.TokOptionalDot, ast.TokIdent, ast.TokCoalesce, ast.TokIdent, ast.TokEOF}},
		{"a?.5:b", []ast.TokenKind{ast.TokIdent, ast.TokQuestion, ast.TokNumber, ast.TokColon, ast.TokIdent, ast.TokEOF}},
		{"#{a: 1}# #{:}# #{}#", []ast.TokenKind{ast.TokMapOpen, ast.TokIdent, ast.TokColon, ast.TokNumber, ast.TokMapClose, ast.TokEmptyMap, ast.TokEmptySet, ast.TokEOF}},
		{"i++ // note\n/* block */ --j", []ast.TokenKind{ast.TokIdent, ast.TokIncrement, ast.TokDecrement, ast.TokIdent, ast.TokEOF}},
		{"x instanceof Y", []ast.TokenKind{ast.TokIdent, ast.TokInstanceof, ast.TokIdent, ast.TokEOF}},
		{"for (k of o)", []ast.TokenKind{ast.TokFor, ast.TokLParen, ast.TokIdent, ast.TokIdent, ast.TokIdent, ast.TokRParen, ast.TokEOF}},
		{"0x1F 1.5e3 .5", []ast.TokenKind{ast.TokNumber, ast.TokNumber, ast.TokNumber, ast.TokEOF}},
	}
	for _, tt := range tests {
		toks, err := lex(tt.src, false)
		if err != nil {
			t.Fatalf("lex(%q) error: %v", tt.src, err)
		}
		got := kinds(toks)
		if len(got) != len(tt.want) {
			t.Errorf("lex(%q) = %v, want %v", tt.src, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("lex(%q)[%d] = %s, want %s", tt.src, i, got[i], tt.want[i])
			}
		}
	}
}

func TestLexPositions(t *testing.T) {
	toks, err := lex("a\n  'b\\'c'\n`x\ny` d", false)
	if err != nil {
		t.Fatal(err)
	}
	want := []ast.Position{{Line: 1, Column: 1}, {Line: 2, Column: 3}, {Line: 3, Column: 1}, {Line: 4, Column: 4}}
	for i, p := range want {
		if toks[i].Pos != p {
			t.Errorf("token %d %q at %v, want %v", i, toks[i].Text, toks[i].Pos, p)
		}
	}
	if toks[1].Text != `'b\'c'` {
		t.Errorf("string text = %q", toks[1].Text)
	}
}

func TestLexErrors(t *testing.T) {
	for _, src := range []string{`"open`, "'a\nb'", "/* never closed", "a @ b", "`${x}`"} {
		if _, err := lex(src, false); err == nil {
			t.Errorf("lex(%q) expected error", src)
		}
	}

	toks, err := lex("a @ b", true)
	if err != nil {
		t.Fatalf("lenient lex error: %v", err)
	}
	if len(toks) != 3 {
		t.Errorf("lenient lex kept %d tokens, want 3", len(toks))
	}
	if _, err := lex(`"open`, true); err == nil {
		t.Error("lenient lex accepted unterminated string")
	}
}
