package models

import "time"

// FragmentMetrics summarizes one analyzed fragment.
type FragmentMetrics struct {
	Path       string `json:"path" yaml:"path" toon:"path"`
	Line       int    `json:"line" yaml:"line" toon:"line"`
	Tier       string `json:"tier" yaml:"tier" toon:"tier"`
	Complexity int    `json:"complexity" yaml:"complexity" toon:"complexity"`
	Nesting    int    `json:"nesting" yaml:"nesting" toon:"nesting"`
	Functions  int    `json:"functions" yaml:"functions" toon:"functions"`
}

// FileResult holds everything found in one host document.
type FileResult struct {
	Path          string            `json:"path" yaml:"path" toon:"path"`
	Findings      []Finding         `json:"findings" yaml:"findings" toon:"findings"`
	Fragments     []FragmentMetrics `json:"fragments" yaml:"fragments" toon:"fragments"`
	ParseFailures int               `json:"parse_failures" yaml:"parse_failures" toon:"parse_failures"`
}

// Summary aggregates a run.
type Summary struct {
	Files             int              `json:"files" yaml:"files" toon:"files"`
	Fragments         int              `json:"fragments" yaml:"fragments" toon:"fragments"`
	ParseFailures     int              `json:"parse_failures" yaml:"parse_failures" toon:"parse_failures"`
	Findings          int              `json:"findings" yaml:"findings" toon:"findings"`
	BySeverity        map[Severity]int `json:"by_severity" yaml:"by_severity" toon:"by_severity"`
	ByRule            map[RuleID]int   `json:"by_rule" yaml:"by_rule" toon:"by_rule"`
	ByTier            map[string]int   `json:"by_tier" yaml:"by_tier" toon:"by_tier"`
	MeanComplexity    float64          `json:"mean_complexity" yaml:"mean_complexity" toon:"mean_complexity"`
	StdDevComplexity  float64          `json:"stddev_complexity" yaml:"stddev_complexity" toon:"stddev_complexity"`
	P90Complexity     float64          `json:"p90_complexity" yaml:"p90_complexity" toon:"p90_complexity"`
	MaxComplexity     int              `json:"max_complexity" yaml:"max_complexity" toon:"max_complexity"`
	FindingsPerScript float64          `json:"findings_per_fragment" yaml:"findings_per_fragment" toon:"findings_per_fragment"`
}

// Report is the result of one run over a set of files.
type Report struct {
	RunID       string       `json:"run_id" yaml:"run_id" toon:"run_id"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at" toon:"generated_at"`
	Files       []FileResult `json:"files" yaml:"files" toon:"files"`
	Summary     Summary      `json:"summary" yaml:"summary" toon:"summary"`
}

// AllFindings flattens the findings of every file.
func (r *Report) AllFindings() []Finding {
	var out []Finding
	for _, f := range r.Files {
		out = append(out, f.Findings...)
	}
	return out
}
