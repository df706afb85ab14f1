package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panbanda/fraglint/pkg/models"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}

	if cfg.Thresholds.Cyclomatic != 10 {
		t.Errorf("Thresholds.Cyclomatic = %d, want 10", cfg.Thresholds.Cyclomatic)
	}
	if cfg.Thresholds.Nesting != 4 {
		t.Errorf("Thresholds.Nesting = %d, want 4", cfg.Thresholds.Nesting)
	}
	if cfg.Thresholds.ChainDepth != 3 {
		t.Errorf("Thresholds.ChainDepth = %d, want 3", cfg.Thresholds.ChainDepth)
	}

	if !cfg.Exclude.Gitignore {
		t.Error("Exclude.Gitignore should be true by default")
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be true by default")
	}
	if cfg.Cache.TTL != 24 {
		t.Errorf("Cache.TTL = %d, want 24", cfg.Cache.TTL)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if cfg.FailOn() != models.SeveritySevere {
		t.Errorf("FailOn() = %s, want severe", cfg.FailOn())
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "fraglint.toml", `
[rules.magic-number]
enabled = false

[rules.unused-variable]
severity = "severe"

[thresholds]
cyclomatic = 15
nesting = 3
function_lines = 40
chain_depth = 4

[magic_numbers]
allow = [24, 60, 0.5]

[null_safety]
globals = ["app", "session"]

[exclude]
dirs = ["vendor", "fixtures"]

[cache]
enabled = false

[output]
format = "json"
fail_on = "warning"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	s := cfg.Settings()
	if s.MaxCyclomatic != 15 || s.MaxNesting != 3 || s.MaxFunctionLines != 40 || s.ChainDepth != 4 {
		t.Errorf("Settings() = %+v", s)
	}
	if len(s.MagicNumbers) != 3 || s.MagicNumbers[0] != 24 || s.MagicNumbers[2] != 0.5 {
		t.Errorf("MagicNumbers = %v, want [24 60 0.5]", s.MagicNumbers)
	}
	if len(s.SafeGlobals) != 2 || s.SafeGlobals[0] != "app" || s.SafeGlobals[1] != "session" {
		t.Errorf("SafeGlobals = %v, want [app session]", s.SafeGlobals)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
	if cfg.FailOn() != models.SeverityWarning {
		t.Errorf("FailOn() = %s, want warning", cfg.FailOn())
	}
	if len(cfg.Exclude.Dirs) != 2 {
		t.Errorf("Exclude.Dirs = %v, want the configured two", cfg.Exclude.Dirs)
	}

	rules := cfg.RuleSettings()
	if !rules[models.RuleMagicNumber].Disabled {
		t.Error("magic-number should be disabled")
	}
	if got := rules[models.RuleUnusedVariable]; got.Disabled || got.Severity != models.SeveritySevere {
		t.Errorf("unused-variable = %+v, want enabled at severe", got)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "fraglint.yaml", `
thresholds:
  cyclomatic: 20

analysis:
  extensions: [".json"]
  workers: 3

output:
  format: markdown

log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Thresholds.Cyclomatic != 20 {
		t.Errorf("Thresholds.Cyclomatic = %d, want 20", cfg.Thresholds.Cyclomatic)
	}
	if cfg.Thresholds.Nesting != 4 {
		t.Errorf("unset Thresholds.Nesting = %d, want default 4", cfg.Thresholds.Nesting)
	}
	if cfg.Analysis.Workers != 3 {
		t.Errorf("Analysis.Workers = %d, want 3", cfg.Analysis.Workers)
	}
	if cfg.IsHostFile("a.yaml") || !cfg.IsHostFile("a.JSON") {
		t.Error("IsHostFile should follow analysis.extensions")
	}
	if cfg.Output.Format != "markdown" {
		t.Errorf("Output.Format = %s, want markdown", cfg.Output.Format)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "fraglint.json", `{
  "rules": {"legacy-declaration": {"severity": "warning"}},
  "thresholds": {"function_lines": 25}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Thresholds.FunctionLines != 25 {
		t.Errorf("Thresholds.FunctionLines = %d, want 25", cfg.Thresholds.FunctionLines)
	}
	if got := cfg.RuleSettings()[models.RuleLegacyDeclaration].Severity; got != models.SeverityWarning {
		t.Errorf("legacy-declaration severity = %s, want warning", got)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/fraglint.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "fraglint.toml", `[thresholds
invalid toml`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() should return error for invalid config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown rule", func(c *Config) { c.Rules["no-such-rule"] = RuleConfig{} }, `unknown rule "no-such-rule"`},
		{"bad severity", func(c *Config) { c.Rules["magic-number"] = RuleConfig{Severity: "loud"} }, "rule magic-number"},
		{"bad fail_on", func(c *Config) { c.Output.FailOn = "never" }, "output.fail_on"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, `unknown output format "xml"`},
		{"zero threshold", func(c *Config) { c.Thresholds.Nesting = 0 }, "thresholds must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "fraglint.toml", "[output]\nfail_on = \"sometimes\"\n")
	if _, err := Load(path); err == nil {
		t.Error("Load() should reject an unknown fail_on severity")
	}
}

func TestLoadOrDefault(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, path, err := LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for defaults", path)
	}
	if cfg.Thresholds.Cyclomatic != 10 {
		t.Errorf("LoadOrDefault() returned non-default Cyclomatic: %d", cfg.Thresholds.Cyclomatic)
	}
}

func TestLoadOrDefaultWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".fraglint"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeConfig(t, filepath.Join(dir, ".fraglint"), "fraglint.yml", "thresholds:\n  cyclomatic: 99\n")
	t.Chdir(dir)

	cfg, path, err := LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if filepath.Base(path) != "fraglint.yml" {
		t.Errorf("path = %q, want the .fraglint/fraglint.yml file", path)
	}
	if cfg.Thresholds.Cyclomatic != 99 {
		t.Errorf("LoadOrDefault() should load from file, got Cyclomatic=%d", cfg.Thresholds.Cyclomatic)
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"node_modules/pkg/widget.json", true},
		{filepath.Join("src", "vendor", "page.json"), true},
		{".git/config.json", true},
		{"package.json", true},
		{filepath.Join("app", "tsconfig.build.json"), true},
		{"bundle.min.json", true},

		{"pages/home.json", false},
		{"widgets.yaml", false},
		{filepath.Join("pkg", "vendor_pages.json"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := cfg.ShouldExclude(tt.path)
			if got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
