package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/panbanda/fraglint/pkg/models"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{"markdown", FormatMarkdown},
		{"md", FormatMarkdown},
		{"toon", FormatTOON},
		{"yaml", FormatYAML},
		{"yml", FormatYAML},
		{"", FormatText},
		{"invalid", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormat(tt.input); got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatterWithFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "report.json")

	f, err := NewFormatter(FormatJSON, outputPath, true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	if f.Colored() {
		t.Error("color should be disabled when writing to a file")
	}
	if err := f.Output(map[string]int{"a": 1}); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"a": 1`) {
		t.Errorf("file content = %q", data)
	}
}

func TestNewFormatterInvalidPath(t *testing.T) {
	if _, err := NewFormatter(FormatText, "/nonexistent/dir/out.txt", false); err == nil {
		t.Error("NewFormatter() should fail for an unwritable path")
	}
}

func TestFormatterStdout(t *testing.T) {
	f, err := NewFormatter(FormatText, "", true)
	if err != nil {
		t.Fatalf("NewFormatter() error: %v", err)
	}
	defer f.Close()
	if f.file != nil || f.Writer() != os.Stdout || f.Format() != FormatText {
		t.Errorf("unexpected stdout formatter: %+v", f)
	}
}

func TestTableRenderText(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Rules", []string{"Rule", "Severity"}, [][]string{{"magic-number", "advice"}}, nil, nil)
	if err := table.RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Rules\n=====", "RULE", "magic-number", "advice"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() output missing %q:\n%s", want, out)
		}
	}
}

func TestTableRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("T", []string{"A", "B"}, [][]string{{"x|y", "z"}}, []string{"total", "1"}, nil)
	if err := table.RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	want := "## T\n\n| A | B |\n| --- | --- |\n| x\\|y | z |\n| total | 1 |\n\n"
	if buf.String() != want {
		t.Errorf("RenderMarkdown() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestTableRenderData(t *testing.T) {
	table := NewTable("", []string{"A", "B"}, [][]string{{"1", "2"}, {"3"}}, nil, nil)
	rows, ok := table.RenderData().([]map[string]string)
	if !ok || len(rows) != 2 {
		t.Fatalf("RenderData() = %#v", table.RenderData())
	}
	if rows[0]["B"] != "2" || rows[1]["A"] != "3" {
		t.Errorf("RenderData() rows = %v", rows)
	}
	if _, ok := rows[1]["B"]; ok {
		t.Error("short rows should not produce empty cells")
	}

	withData := NewTable("", nil, nil, nil, []int{1})
	if got, ok := withData.RenderData().([]int); !ok || got[0] != 1 {
		t.Errorf("RenderData() with data = %v", withData.RenderData())
	}
}

func TestFormatterOutputRaw(t *testing.T) {
	data := map[string]any{"files": 2, "rule": "magic-number"}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatJSON, []string{`"files": 2`, `"rule": "magic-number"`}},
		{FormatMarkdown, []string{"```json", `"files": 2`, "```\n"}},
		{FormatYAML, []string{"files: 2", "rule: magic-number"}},
		{FormatTOON, []string{"files: 2", "rule: magic-number"}},
		{FormatText, []string{`"files": 2`}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriterFormatter(tt.format, &buf, false).Output(data); err != nil {
				t.Fatalf("Output() error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestFormatterMessages(t *testing.T) {
	var buf bytes.Buffer
	f := NewWriterFormatter(FormatText, &buf, false)
	f.Success("wrote %s", "fraglint.toml")
	f.Warning("%d files skipped", 2)
	f.Error("boom")

	want := "wrote fraglint.toml\nWARNING: 2 files skipped\nERROR: boom\n"
	if buf.String() != want {
		t.Errorf("messages = %q, want %q", buf.String(), want)
	}
}

func TestSeverityColorPlainAdvice(t *testing.T) {
	if got := SeverityColor(models.SeverityAdvice, "x"); got != "x" {
		t.Errorf("SeverityColor(advice) = %q, want plain text", got)
	}
}

func sampleReport() *models.Report {
	files := []models.FileResult{
		{
			Path: "pages/home.json",
			Findings: []models.Finding{
				{Rule: models.RuleUnsafePropertyAccess, Message: "user.profile may be missing", Severity: models.SeverityWarning, Line: 4, Path: "widgets[0].text"},
				{Rule: models.RuleMagicNumber, Message: "magic number 42", Severity: models.SeverityAdvice, Line: 9, Path: "widgets[1].onClick"},
			},
			Fragments: []models.FragmentMetrics{
				{Path: "widgets[0].text", Line: 4, Tier: "deterministic", Complexity: 2},
				{Path: "widgets[1].onClick", Line: 9, Tier: "general", Complexity: 4},
			},
		},
		{Path: "pages/empty.yaml"},
	}
	return &models.Report{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Files:       files,
		Summary: models.Summary{
			Files:          2,
			Fragments:      2,
			Findings:       2,
			BySeverity:     map[models.Severity]int{models.SeverityWarning: 1, models.SeverityAdvice: 1},
			ByRule:         map[models.RuleID]int{models.RuleUnsafePropertyAccess: 1, models.RuleMagicNumber: 1},
			ByTier:         map[string]int{"deterministic": 1, "general": 1},
			MeanComplexity: 3,
			P90Complexity:  4,
			MaxComplexity:  4,
		},
	}
}

func TestReportViewText(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReportView(sampleReport()).RenderText(&buf, false); err != nil {
		t.Fatalf("RenderText() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"pages/home.json",
		"widgets[0].text",
		"user.profile may be missing",
		"2 findings in 2 files (2 fragments, 0 parse failures)",
		"warning: 1, advice: 1",
		"complexity: mean 3.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderText() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "pages/empty.yaml") {
		t.Error("files without findings should not get a section")
	}
}

func TestReportViewMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := NewReportView(sampleReport()).RenderMarkdown(&buf); err != nil {
		t.Fatalf("RenderMarkdown() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# fraglint report",
		"## pages/home.json",
		"| 4 | warning | unsafe-property-access | widgets[0].text | user.profile may be missing |",
		"## Summary",
		"| Findings | 2 |",
		"| warning | 1 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderMarkdown() missing %q:\n%s", want, out)
		}
	}
}

func TestReportViewJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatJSON, &buf, false).Output(NewReportView(sampleReport())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var got models.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.RunID != "run-1" || len(got.Files) != 2 || got.Summary.ByRule[models.RuleMagicNumber] != 1 {
		t.Errorf("decoded report = %+v", got)
	}
}

func TestReportViewYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatYAML, &buf, false).Output(NewReportView(sampleReport())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}

	var got struct {
		RunID string `yaml:"run_id"`
		Files []struct {
			Path string `yaml:"path"`
		} `yaml:"files"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if got.RunID != "run-1" || len(got.Files) != 2 || got.Files[0].Path != "pages/home.json" {
		t.Errorf("decoded report = %+v", got)
	}
}

func TestReportViewTOON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterFormatter(FormatTOON, &buf, false).Output(NewReportView(sampleReport())); err != nil {
		t.Fatalf("Output() error: %v", err)
	}
	for _, want := range []string{"run_id: run-1", "pages/home.json"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("TOON output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestNewRulesTable(t *testing.T) {
	table := NewRulesTable(models.Rules, func(id models.RuleID) bool { return id != models.RuleMagicNumber })
	if len(table.Rows) != len(models.Rules) {
		t.Fatalf("rows = %d, want %d", len(table.Rows), len(models.Rules))
	}
	for _, row := range table.Rows {
		wantState := "on"
		if row[0] == string(models.RuleMagicNumber) {
			wantState = "off"
		}
		if row[3] != wantState {
			t.Errorf("%s state = %s, want %s", row[0], row[3], wantState)
		}
	}
	if _, ok := table.RenderData().([]models.Rule); !ok {
		t.Error("RenderData() should expose the rule catalog")
	}
}
