package models

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Severity ranks how urgently a finding needs attention.
type Severity string

const (
	SeverityAdvice  Severity = "advice"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySevere  Severity = "severe"
	SeverityAction  Severity = "action" // must be fixed
)

// Severities lists every severity from lowest to highest.
var Severities = []Severity{SeverityAdvice, SeverityInfo, SeverityWarning, SeveritySevere, SeverityAction}

// Rank returns the position of s in Severities, or -1 when s is unknown.
func (s Severity) Rank() int {
	return slices.Index(Severities, s)
}

// AtLeast reports whether s is as severe as floor.
func (s Severity) AtLeast(floor Severity) bool {
	return s.Rank() >= 0 && s.Rank() >= floor.Rank()
}

// Lower returns the next lower severity, bottoming out at advice.
func (s Severity) Lower() Severity {
	if r := s.Rank(); r > 0 {
		return Severities[r-1]
	}
	return SeverityAdvice
}

// ParseSeverity converts a name into a Severity.
func ParseSeverity(name string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(name)))
	if s.Rank() < 0 {
		return "", fmt.Errorf("unknown severity %q (want one of advice, info, warning, severe, action)", name)
	}
	return s, nil
}

// Finding is a single analyzer result. Line is absolute within the host
// document; Path is the field path of the fragment that produced it.
type Finding struct {
	Rule     RuleID   `json:"rule" yaml:"rule" toon:"rule"`
	Message  string   `json:"message" yaml:"message" toon:"message"`
	Severity Severity `json:"severity" yaml:"severity" toon:"severity"`
	Line     int      `json:"line" yaml:"line" toon:"line"`
	Path     string   `json:"path,omitempty" yaml:"path,omitempty" toon:"path,omitempty"`
}

// String renders the finding on one line.
func (f Finding) String() string {
	if f.Path != "" {
		return fmt.Sprintf("%d: [%s] %s (%s) at %s", f.Line, f.Severity, f.Message, f.Rule, f.Path)
	}
	return fmt.Sprintf("%d: [%s] %s (%s)", f.Line, f.Severity, f.Message, f.Rule)
}

// SortFindings orders findings by line, then rule, then message.
func SortFindings(fs []Finding) {
	slices.SortStableFunc(fs, func(a, b Finding) int {
		return cmp.Or(
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Rule, b.Rule),
			cmp.Compare(a.Message, b.Message),
		)
	})
}

// HighestSeverity returns the most severe level among fs, or "" when fs is
// empty.
func HighestSeverity(fs []Finding) Severity {
	var top Severity
	for _, f := range fs {
		if f.Severity.Rank() > top.Rank() {
			top = f.Severity
		}
	}
	return top
}
