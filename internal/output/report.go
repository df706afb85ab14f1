package output

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/fatih/color"
	"github.com/panbanda/fraglint/pkg/models"
)

var findingHeaders = []string{"Line", "Severity", "Rule", "Field", "Message"}

// ReportView renders a lint run.
type ReportView struct {
	Report *models.Report
}

var _ Renderable = (*ReportView)(nil)

// NewReportView wraps r for rendering.
func NewReportView(r *models.Report) *ReportView {
	return &ReportView{Report: r}
}

func (v *ReportView) RenderData() any {
	return v.Report
}

func (v *ReportView) RenderText(w io.Writer, colored bool) error {
	for _, file := range v.Report.Files {
		if len(file.Findings) == 0 {
			continue
		}
		heading(w, file.Path, "-", colored)
		t := NewTable("", findingHeaders, findingRows(file.Findings, colored), nil, nil)
		if err := t.RenderText(w, colored); err != nil {
			return err
		}
	}

	s := v.Report.Summary
	line := fmt.Sprintf("%d findings in %d files (%d fragments, %d parse failures)",
		s.Findings, s.Files, s.Fragments, s.ParseFailures)
	if colored && s.Findings == 0 {
		line = color.GreenString(line)
	}
	fmt.Fprintln(w, line)
	if counts := severityCounts(s, colored); counts != "" {
		fmt.Fprintln(w, counts)
	}
	if s.Fragments > 0 {
		fmt.Fprintf(w, "complexity: mean %.2f, stddev %.2f, p90 %.0f, max %d\n",
			s.MeanComplexity, s.StdDevComplexity, s.P90Complexity, s.MaxComplexity)
	}
	return nil
}

func (v *ReportView) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# fraglint report\n\n")
	for _, file := range v.Report.Files {
		if len(file.Findings) == 0 {
			continue
		}
		t := NewTable(file.Path, findingHeaders, findingRows(file.Findings, false), nil, nil)
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}

	s := v.Report.Summary
	rows := [][]string{
		{"Files", strconv.Itoa(s.Files)},
		{"Fragments", strconv.Itoa(s.Fragments)},
		{"Parse failures", strconv.Itoa(s.ParseFailures)},
		{"Findings", strconv.Itoa(s.Findings)},
	}
	for _, sev := range slices.Backward(models.Severities) {
		if n := s.BySeverity[sev]; n > 0 {
			rows = append(rows, []string{string(sev), strconv.Itoa(n)})
		}
	}
	rows = append(rows,
		[]string{"Mean complexity", fmt.Sprintf("%.2f", s.MeanComplexity)},
		[]string{"P90 complexity", fmt.Sprintf("%.0f", s.P90Complexity)},
		[]string{"Max complexity", strconv.Itoa(s.MaxComplexity)},
	)
	return NewTable("Summary", []string{"Metric", "Value"}, rows, nil, nil).RenderMarkdown(w)
}

func findingRows(findings []models.Finding, colored bool) [][]string {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		sev := string(f.Severity)
		if colored {
			sev = SeverityColor(f.Severity, sev)
		}
		rows = append(rows, []string{strconv.Itoa(f.Line), sev, string(f.Rule), f.Path, f.Message})
	}
	return rows
}

// severityCounts lists non-zero severity counts, most severe first.
func severityCounts(s models.Summary, colored bool) string {
	var out string
	for _, sev := range slices.Backward(models.Severities) {
		n := s.BySeverity[sev]
		if n == 0 {
			continue
		}
		part := fmt.Sprintf("%s: %d", sev, n)
		if colored {
			part = SeverityColor(sev, part)
		}
		if out != "" {
			out += ", "
		}
		out += part
	}
	return out
}

// NewRulesTable lists the rule catalog with effective severities and
// whether each rule is enabled.
func NewRulesTable(rules []models.Rule, enabled func(models.RuleID) bool) *Table {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		state := "on"
		if enabled != nil && !enabled(r.ID) {
			state = "off"
		}
		rows = append(rows, []string{string(r.ID), string(r.Category), string(r.Severity), state, r.Description})
	}
	return NewTable("Rules", []string{"Rule", "Category", "Severity", "State", "Description"}, rows, nil, rules)
}
