// Package analyzer defines the contract between the lint engine and the
// analysis passes. A pass receives one parsed fragment as a Unit and
// returns findings with lines relative to the fragment text; the engine
// rebases them onto the host document.
package analyzer

import (
	"fmt"

	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/models"
)

// Settings are the tunable limits shared by all passes.
type Settings struct {
	MaxCyclomatic    int       `json:"max_cyclomatic"`
	MaxNesting       int       `json:"max_nesting"`
	MaxFunctionLines int       `json:"max_function_lines"`
	ChainDepth       int       `json:"chain_depth"` // segments from which a plain chain counts as deep
	MagicNumbers     []float64 `json:"magic_numbers"`
	// SafeGlobals are host objects that are always present; chains rooted
	// at them are never unsafe.
	SafeGlobals []string `json:"safe_globals"`
}

// DefaultSettings returns sensible defaults.
func DefaultSettings() Settings {
	return Settings{
		MaxCyclomatic:    10,
		MaxNesting:       4,
		MaxFunctionLines: 50,
		ChainDepth:       3,
	}
}

// Unit is one parsed script handed to every pass. Passes must treat it as
// read-only; several run over the same Unit concurrently.
type Unit struct {
	Root *ast.Branch
	// Guard is the parsed condition of the guarded container the fragment
	// lives in, or nil.
	Guard *ast.Branch
	// Whole is set when Root is a complete fragment rather than one block
	// of a template. Export detection only applies to whole fragments.
	Whole    bool
	Label    string
	Settings Settings
}

// Pass is a single analysis over a Unit.
type Pass interface {
	// Name identifies the pass in logs.
	Name() string
	// Rules lists the rules the pass can report.
	Rules() []models.RuleID
	// Run analyzes the unit. Lines in the returned findings are relative
	// to the fragment text.
	Run(u *Unit) []models.Finding
}

// NewFinding builds a finding with the rule's default severity.
func NewFinding(rule models.RuleID, line int, format string, args ...any) models.Finding {
	return models.Finding{
		Rule:     rule,
		Message:  fmt.Sprintf(format, args...),
		Severity: models.DefaultSeverity(rule),
		Line:     max(line, 1),
	}
}
