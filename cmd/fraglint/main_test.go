package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/fraglint/internal/cache"
	"github.com/panbanda/fraglint/internal/testutil"
	"github.com/panbanda/fraglint/pkg/config"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const samplePage = `{
  "widgets": [
    {
      "text": "<% var total = 1; %>"
    }
  ]
}
`

// runApp runs the CLI in a fresh working directory and returns stdout
// and stderr.
func runApp(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(dir)

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"fraglint"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"no args defaults to current dir", []string{}, []string{"."}},
		{"single path", []string{"pages"}, []string{"pages"}},
		{"multiple paths", []string{"a.json", "b.yaml"}, []string{"a.json", "b.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Action: func(c *cli.Context) error {
					assert.Equal(t, tt.expected, getPaths(c))
					return nil
				},
			}
			require.NoError(t, app.Run(append([]string{"test"}, tt.args...)))
		})
	}
}

func TestCheckThreshold(t *testing.T) {
	report := &models.Report{Files: []models.FileResult{{
		Findings: []models.Finding{{Rule: models.RuleUnusedVariable, Severity: models.SeverityWarning}},
	}}}

	assert.NoError(t, checkThreshold(report, models.SeveritySevere))
	assert.ErrorIs(t, checkThreshold(report, models.SeverityWarning), errFailOn)
	assert.ErrorIs(t, checkThreshold(report, models.SeverityAdvice), errFailOn)
	assert.NoError(t, checkThreshold(&models.Report{}, models.SeverityAdvice))
}

func TestCheckJSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "pages/home.json"), samplePage)

	stdout, _, err := runApp(t, dir, "--no-cache", "--format", "json", "check", "--fail-on", "action", "pages")
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.Len(t, report.Files, 1)
	assert.Equal(t, filepath.Join("pages", "home.json"), report.Files[0].Path)

	var rules []models.RuleID
	for _, f := range report.AllFindings() {
		rules = append(rules, f.Rule)
		assert.Equal(t, 4, f.Line)
		assert.Equal(t, "widgets[0].text", f.Path)
	}
	assert.Equal(t, []models.RuleID{models.RuleLegacyDeclaration, models.RuleUnusedVariable}, rules)
	assert.Equal(t, 1, report.Summary.Fragments)
	assert.NotEmpty(t, report.RunID)
}

func TestCheckFailOn(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "home.json"), samplePage)

	_, _, err := runApp(t, dir, "--no-cache", "--format", "json", "check", "--fail-on", "warning")
	assert.ErrorIs(t, err, errFailOn)

	// The default command is check, with fail_on from the config (severe).
	_, _, err = runApp(t, dir, "--no-cache", "--format", "json")
	assert.NoError(t, err)
}

func TestCheckRuleOverridesFromConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "home.json"), samplePage)
	testutil.WriteFile(t, filepath.Join(dir, "fraglint.toml"), `
[rules.unused-variable]
enabled = false

[rules.legacy-declaration]
severity = "action"
`)

	stdout, _, err := runApp(t, dir, "--no-cache", "--format", "json", "check")
	assert.ErrorIs(t, err, errFailOn)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	findings := report.AllFindings()
	require.Len(t, findings, 1)
	assert.Equal(t, models.RuleLegacyDeclaration, findings[0].Rule)
	assert.Equal(t, models.SeverityAction, findings[0].Severity)
}

func TestCheckInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "fraglint.toml"), "[output]\nfail_on = \"sometimes\"\n")

	_, _, err := runApp(t, dir, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestCheckNoHostDocuments(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "notes.txt"), "nothing here")

	stdout, stderr, err := runApp(t, dir, "--no-cache", "check")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No host documents found")
}

func TestCheckTextOutputToFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "home.json"), samplePage)
	out := filepath.Join(dir, "report.md")

	stdout, _, err := runApp(t, dir, "--no-cache", "--format", "markdown", "--output", out, "check")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# fraglint report")
	assert.Contains(t, string(data), "legacy-declaration")
}

func TestCheckWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "home.json"), samplePage)
	metricsPath := filepath.Join(dir, "fraglint.prom")

	_, _, err := runApp(t, dir, "--no-cache", "--format", "json", "--metrics", metricsPath, "check")
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fraglint_parser_parses_total")
	assert.Contains(t, string(data), `fraglint_lint_findings_total{rule="unused-variable"} 1`)
}

func TestCheckUsesCache(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "home.json"), samplePage)

	first, _, err := runApp(t, dir, "--format", "json", "check")
	require.NoError(t, err)

	stdout, _, err := runApp(t, dir, "--format", "json", "cache", "stats")
	require.NoError(t, err)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal([]byte(stdout), &stats))
	assert.Equal(t, 1, stats.Entries)

	second, _, err := runApp(t, dir, "--format", "json", "check")
	require.NoError(t, err)
	var a, b models.Report
	require.NoError(t, json.Unmarshal([]byte(first), &a))
	require.NoError(t, json.Unmarshal([]byte(second), &b))
	assert.Equal(t, a.Files, b.Files)

	_, _, err = runApp(t, dir, "cache", "clear")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".fraglint", "cache"))
	assert.True(t, os.IsNotExist(err))
}

func TestParseExpr(t *testing.T) {
	stdout, _, err := runApp(t, t.TempDir(), "--format", "json", "parse", "-e", "a.b(1)")
	require.NoError(t, err)

	var items []parsed
	require.NoError(t, json.Unmarshal([]byte(stdout), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "<expr>", items[0].File)
	assert.NotEmpty(t, items[0].Tier)
	assert.Empty(t, items[0].Error)
	assert.Contains(t, items[0].AST, "call_expression")
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "home.json"), samplePage)

	stdout, _, err := runApp(t, dir, "parse", "home.json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "home.json widgets[0].text (line 4)")
	assert.Contains(t, stdout, "variable_declaration")
}

func TestParseNeedsInput(t *testing.T) {
	_, _, err := runApp(t, t.TempDir(), "parse")
	assert.Error(t, err)
}

func TestRules(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, "fraglint.yaml"), "rules:\n  magic-number:\n    severity: warning\n  empty-function:\n    enabled: false\n")

	stdout, _, err := runApp(t, dir, "--format", "json", "rules")
	require.NoError(t, err)

	var rules []models.Rule
	require.NoError(t, json.Unmarshal([]byte(stdout), &rules))
	require.Len(t, rules, len(models.Rules))
	for _, r := range rules {
		if r.ID == models.RuleMagicNumber {
			assert.Equal(t, models.SeverityWarning, r.Severity)
		}
	}

	text, _, err := runApp(t, dir, "rules")
	require.NoError(t, err)
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, string(models.RuleEmptyFunction)) {
			assert.Contains(t, line, "off")
		}
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(".fraglint", "fraglint.toml")

	stdout, _, err := runApp(t, dir, "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created")

	cfg, err := config.Load(filepath.Join(dir, target))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Thresholds, cfg.Thresholds)

	_, _, err = runApp(t, dir, "init", "--path", target)
	assert.Error(t, err, "existing file without --force")

	_, _, err = runApp(t, dir, "init", "--path", target, "--force")
	assert.NoError(t, err)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}

func TestErrFailOnIsSilent(t *testing.T) {
	err := checkThreshold(&models.Report{Files: []models.FileResult{{
		Findings: []models.Finding{{Severity: models.SeverityAction}},
	}}}, models.SeveritySevere)
	assert.True(t, errors.Is(err, errFailOn))
}
