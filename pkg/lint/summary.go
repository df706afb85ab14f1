package lint

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/panbanda/fraglint/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// NewReport assembles the report of one run. Files are ordered by path.
func NewReport(files []models.FileResult) *models.Report {
	files = slices.Clone(files)
	slices.SortFunc(files, func(a, b models.FileResult) int {
		return cmp.Compare(a.Path, b.Path)
	})
	return &models.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Files:       files,
		Summary:     Summarize(files),
	}
}

// Summarize computes counts by severity, rule and tier, and the
// distribution of fragment complexity.
func Summarize(files []models.FileResult) models.Summary {
	s := models.Summary{
		Files:      len(files),
		BySeverity: make(map[models.Severity]int),
		ByRule:     make(map[models.RuleID]int),
		ByTier:     make(map[string]int),
	}

	var complexities []float64
	for _, file := range files {
		s.ParseFailures += file.ParseFailures
		for _, f := range file.Findings {
			s.Findings++
			s.BySeverity[f.Severity]++
			s.ByRule[f.Rule]++
		}
		for _, m := range file.Fragments {
			s.Fragments++
			if m.Tier == "" {
				continue
			}
			s.ByTier[m.Tier]++
			complexities = append(complexities, float64(m.Complexity))
			s.MaxComplexity = max(s.MaxComplexity, m.Complexity)
		}
	}

	if len(complexities) > 0 {
		slices.Sort(complexities)
		s.MeanComplexity = stat.Mean(complexities, nil)
		s.P90Complexity = stat.Quantile(0.9, stat.Empirical, complexities, nil)
		if len(complexities) > 1 {
			s.StdDevComplexity = stat.StdDev(complexities, nil)
		}
	}
	if s.Fragments > 0 {
		s.FindingsPerScript = float64(s.Findings) / float64(s.Fragments)
	}
	return s
}
