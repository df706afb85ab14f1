package models

// String methods for the string-backed types. toon output relies on
// fmt.Stringer.

// Severity
func (s Severity) String() string { return string(s) }

// RuleID
func (r RuleID) String() string { return string(r) }

// RuleCategory
func (c RuleCategory) String() string { return string(c) }
