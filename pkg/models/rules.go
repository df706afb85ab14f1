package models

import "slices"

// RuleID names an analysis rule.
type RuleID string

const (
	RuleUnusedVariable       RuleID = "unused-variable"
	RuleUnusedFunction       RuleID = "unused-function"
	RuleUnusedParameter      RuleID = "unused-parameter"
	RuleExportedUndeclared   RuleID = "exported-undeclared"
	RuleUnsafePropertyAccess RuleID = "unsafe-property-access"
	RuleCyclomaticComplexity RuleID = "cyclomatic-complexity"
	RuleMaxNestingDepth      RuleID = "max-nesting-depth"
	RuleFunctionLength       RuleID = "function-length"
	RuleInconsistentReturn   RuleID = "inconsistent-return"
	RuleMagicNumber          RuleID = "magic-number"
	RuleVerboseBoolean       RuleID = "verbose-boolean"
	RuleEmptyFunction        RuleID = "empty-function"
	RuleLegacyDeclaration    RuleID = "legacy-declaration"
)

// RuleCategory groups rules by the pass that implements them.
type RuleCategory string

const (
	CategoryDeadCode   RuleCategory = "deadcode"
	CategoryNullSafety RuleCategory = "nullsafety"
	CategoryComplexity RuleCategory = "complexity"
	CategorySmells     RuleCategory = "smells"
)

// Rule describes a rule and its defaults.
type Rule struct {
	ID          RuleID       `json:"id" yaml:"id" toon:"id"`
	Category    RuleCategory `json:"category" yaml:"category" toon:"category"`
	Severity    Severity     `json:"severity" yaml:"severity" toon:"severity"`
	Description string       `json:"description" yaml:"description" toon:"description"`
}

// Rules is the catalog of every rule, in display order.
var Rules = []Rule{
	{RuleUnusedVariable, CategoryDeadCode, SeverityWarning, "Variable is declared but never used"},
	{RuleUnusedFunction, CategoryDeadCode, SeverityWarning, "Function is declared but never called or exported"},
	{RuleUnusedParameter, CategoryDeadCode, SeverityInfo, "Trailing parameter is never used"},
	{RuleExportedUndeclared, CategoryDeadCode, SeveritySevere, "Exported name is never declared"},
	{RuleUnsafePropertyAccess, CategoryNullSafety, SeverityWarning, "Property chain may dereference a missing value"},
	{RuleCyclomaticComplexity, CategoryComplexity, SeverityWarning, "Fragment has too many decision points"},
	{RuleMaxNestingDepth, CategoryComplexity, SeverityWarning, "Control flow is nested too deeply"},
	{RuleFunctionLength, CategoryComplexity, SeverityInfo, "Function spans too many lines"},
	{RuleInconsistentReturn, CategorySmells, SeverityWarning, "Some paths return a value and others do not"},
	{RuleMagicNumber, CategorySmells, SeverityAdvice, "Numeric literal should be a named constant"},
	{RuleVerboseBoolean, CategorySmells, SeverityAdvice, "Boolean expression can be simplified"},
	{RuleEmptyFunction, CategorySmells, SeverityInfo, "Function body is empty"},
	{RuleLegacyDeclaration, CategorySmells, SeverityAdvice, "Use let or const instead of var"},
}

// LookupRule returns the catalog entry for id.
func LookupRule(id RuleID) (Rule, bool) {
	i := slices.IndexFunc(Rules, func(r Rule) bool { return r.ID == id })
	if i < 0 {
		return Rule{}, false
	}
	return Rules[i], true
}

// DefaultSeverity returns the catalog severity for id, or warning for an
// unknown rule.
func DefaultSeverity(id RuleID) Severity {
	if r, ok := LookupRule(id); ok {
		return r.Severity
	}
	return SeverityWarning
}
