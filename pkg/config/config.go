package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/lint"
	"github.com/panbanda/fraglint/pkg/models"
)

// Config holds all configuration options for fraglint.
type Config struct {
	// Per-rule overrides keyed by rule ID
	Rules map[string]RuleConfig `koanf:"rules" toml:"rules"`

	// Thresholds for the structural metrics
	Thresholds ThresholdConfig `koanf:"thresholds" toml:"thresholds"`

	MagicNumbers MagicNumberConfig `koanf:"magic_numbers" toml:"magic_numbers"`

	NullSafety NullSafetyConfig `koanf:"null_safety" toml:"null_safety"`

	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	Cache CacheConfig `koanf:"cache" toml:"cache"`

	Output OutputConfig `koanf:"output" toml:"output"`

	Log LogConfig `koanf:"log" toml:"log"`
}

// RuleConfig overrides one rule. A nil Enabled keeps the rule on.
type RuleConfig struct {
	Enabled  *bool  `koanf:"enabled" toml:"enabled,omitempty"`
	Severity string `koanf:"severity" toml:"severity,omitempty"`
}

// ThresholdConfig defines metric thresholds.
type ThresholdConfig struct {
	Cyclomatic    int `koanf:"cyclomatic" toml:"cyclomatic"`
	Nesting       int `koanf:"nesting" toml:"nesting"`
	FunctionLines int `koanf:"function_lines" toml:"function_lines"`
	ChainDepth    int `koanf:"chain_depth" toml:"chain_depth"`
}

// MagicNumberConfig lists numbers that are never reported as magic.
type MagicNumberConfig struct {
	Allow []float64 `koanf:"allow" toml:"allow"`
}

// NullSafetyConfig names host runtime globals that are always present.
type NullSafetyConfig struct {
	Globals []string `koanf:"globals" toml:"globals"`
}

// AnalysisConfig controls discovery and parallelism.
type AnalysisConfig struct {
	Extensions []string `koanf:"extensions" toml:"extensions"`
	Workers    int      `koanf:"workers" toml:"workers"` // 0 means 2x NumCPU
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format"` // text, json, markdown, toon, yaml
	Color  bool   `koanf:"color" toml:"color"`
	// FailOn is the lowest severity that makes check exit non-zero.
	FailOn string `koanf:"fail_on" toml:"fail_on"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level"`
	Format string `koanf:"format" toml:"format"` // text or json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	settings := analyzer.DefaultSettings()
	return &Config{
		Rules: map[string]RuleConfig{},
		Thresholds: ThresholdConfig{
			Cyclomatic:    settings.MaxCyclomatic,
			Nesting:       settings.MaxNesting,
			FunctionLines: settings.MaxFunctionLines,
			ChainDepth:    settings.ChainDepth,
		},
		Analysis: AnalysisConfig{
			Extensions: []string{".json", ".yaml", ".yml"},
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"package.json",
				"package-lock.json",
				"tsconfig*.json",
				"*.min.json",
			},
			Dirs: []string{
				"node_modules",
				".git",
				".fraglint",
				"vendor",
				"dist",
				"build",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".fraglint/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
			FailOn: string(models.SeveritySevere),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration from a file over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// configNames are the file names searched for, in order.
var configNames = []string{
	"fraglint.toml",
	"fraglint.yaml",
	"fraglint.yml",
	"fraglint.json",
	".fraglint.toml",
	".fraglint.yaml",
	".fraglint.yml",
	".fraglint.json",
}

// Find returns the first config file found in dir or dir/.fraglint.
func Find(dir string) (string, bool) {
	for _, d := range []string{dir, filepath.Join(dir, ".fraglint")} {
		for _, name := range configNames {
			path := filepath.Join(d, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}

// LoadOrDefault loads the config found in the current directory, or
// returns the defaults. The path is empty when the defaults are used.
func LoadOrDefault() (*Config, string, error) {
	path, ok := Find(".")
	if !ok {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Validate checks rule IDs, severities and formats.
func (c *Config) Validate() error {
	var errs []error
	for id, rc := range c.Rules {
		if _, ok := models.LookupRule(models.RuleID(id)); !ok {
			errs = append(errs, fmt.Errorf("unknown rule %q", id))
		}
		if rc.Severity != "" {
			if _, err := models.ParseSeverity(rc.Severity); err != nil {
				errs = append(errs, fmt.Errorf("rule %s: %w", id, err))
			}
		}
	}
	if _, err := models.ParseSeverity(c.Output.FailOn); err != nil {
		errs = append(errs, fmt.Errorf("output.fail_on: %w", err))
	}
	if !slices.Contains([]string{"text", "json", "markdown", "toon", "yaml"}, strings.ToLower(c.Output.Format)) {
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output.Format))
	}
	if c.Thresholds.Cyclomatic < 1 || c.Thresholds.Nesting < 1 || c.Thresholds.FunctionLines < 1 || c.Thresholds.ChainDepth < 1 {
		errs = append(errs, errors.New("thresholds must be positive"))
	}
	return errors.Join(errs...)
}

// Settings returns the pass settings described by the config.
func (c *Config) Settings() analyzer.Settings {
	return analyzer.Settings{
		MaxCyclomatic:    c.Thresholds.Cyclomatic,
		MaxNesting:       c.Thresholds.Nesting,
		MaxFunctionLines: c.Thresholds.FunctionLines,
		ChainDepth:       c.Thresholds.ChainDepth,
		MagicNumbers:     slices.Clone(c.MagicNumbers.Allow),
		SafeGlobals:      slices.Clone(c.NullSafety.Globals),
	}
}

// RuleSettings converts the rule overrides for the lint engine. Unknown
// severities are ignored; Validate reports them.
func (c *Config) RuleSettings() map[models.RuleID]lint.RuleSetting {
	out := make(map[models.RuleID]lint.RuleSetting, len(c.Rules))
	for id, rc := range c.Rules {
		var rs lint.RuleSetting
		if rc.Enabled != nil && !*rc.Enabled {
			rs.Disabled = true
		}
		if sev, err := models.ParseSeverity(rc.Severity); err == nil {
			rs.Severity = sev
		}
		out[models.RuleID(id)] = rs
	}
	return out
}

// FailOn returns the exit threshold, defaulting to severe.
func (c *Config) FailOn() models.Severity {
	if sev, err := models.ParseSeverity(c.Output.FailOn); err == nil {
		return sev
	}
	return models.SeveritySevere
}

// IsHostFile reports whether path has one of the analyzed extensions.
func (c *Config) IsHostFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(c.Analysis.Extensions, ext)
}

// ShouldExclude checks if a path should be excluded from analysis.
func (c *Config) ShouldExclude(path string) bool {
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) ||
			strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	base := filepath.Base(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}

	return false
}
