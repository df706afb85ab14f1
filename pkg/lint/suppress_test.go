package lint

import (
	"testing"

	"github.com/panbanda/fraglint/pkg/models"
)

func TestParseSuppressions(t *testing.T) {
	text := "a = 1; // fraglint-disable-line\n" +
		"// fraglint-disable-next-line magic-number, unused-variable\n" +
		"b = 42;\n" +
		"c = 7; /* fraglint-disable-line legacy-declaration */\n" +
		"d = 9;"
	s := ParseSuppressions(text)

	tests := []struct {
		rule models.RuleID
		line int
		want bool
	}{
		{models.RuleMagicNumber, 1, true},
		{models.RuleUnusedVariable, 1, true},
		{models.RuleMagicNumber, 3, true},
		{models.RuleUnusedVariable, 3, true},
		{models.RuleLegacyDeclaration, 3, false},
		{models.RuleMagicNumber, 2, false},
		{models.RuleLegacyDeclaration, 4, true},
		{models.RuleMagicNumber, 4, false},
		{models.RuleMagicNumber, 5, false},
		{models.RuleMagicNumber, 0, false},
	}
	for _, tt := range tests {
		f := models.Finding{Rule: tt.rule, Line: tt.line}
		if got := s.Suppressed(f); got != tt.want {
			t.Errorf("Suppressed(%s at %d) = %v, want %v", tt.rule, tt.line, got, tt.want)
		}
	}
	if s.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestParseSuppressionsStopsAtDelimiter(t *testing.T) {
	s := ParseSuppressions("<% x = 5; // fraglint-disable-line magic-number %>")
	if !s.Suppressed(models.Finding{Rule: models.RuleMagicNumber, Line: 1}) {
		t.Error("magic-number should be suppressed")
	}
	if s.Suppressed(models.Finding{Rule: models.RuleUnusedVariable, Line: 1}) {
		t.Error("only the named rule should be suppressed")
	}
}

func TestSuppressionsEmpty(t *testing.T) {
	if !ParseSuppressions("x = 1;").Empty() {
		t.Error("Empty() = false for text without directives")
	}
	var s *Suppressions
	if s.Suppressed(models.Finding{Rule: models.RuleMagicNumber, Line: 1}) {
		t.Error("nil Suppressions suppressed a finding")
	}
}
