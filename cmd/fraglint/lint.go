package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/panbanda/fraglint/internal/cache"
	"github.com/panbanda/fraglint/internal/metrics"
	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/lint"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/parser"
	"github.com/panbanda/fraglint/pkg/source"
)

// linter lints one host document at a time, consulting the findings cache.
type linter struct {
	engine  *lint.Engine
	cache   *cache.Cache
	metrics *metrics.Collector
	logger  *slog.Logger
}

// cacheFingerprint is everything besides file content that changes results.
type cacheFingerprint struct {
	Version  string                             `json:"version"`
	Settings analyzer.Settings                  `json:"settings"`
	Rules    map[models.RuleID]lint.RuleSetting `json:"rules"`
}

func newLinter(e *env) (*linter, error) {
	p := parser.New(parser.WithLogger(e.logger), parser.WithRecorder(e.metrics))
	settings := e.cfg.Settings()
	rules := e.cfg.RuleSettings()

	engine := lint.New(
		lint.WithParser(p),
		lint.WithSettings(settings),
		lint.WithRules(rules),
		lint.WithLogger(e.logger),
		lint.WithRecorder(e.metrics),
	)

	fp, err := cache.Fingerprint(cacheFingerprint{Version: version, Settings: settings, Rules: rules})
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint config: %w", err)
	}
	c, err := cache.New(e.cfg.Cache.Dir, e.cfg.Cache.TTL, e.cfg.Cache.Enabled && !e.noCache, fp)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return &linter{engine: engine, cache: c, metrics: e.metrics, logger: e.logger}, nil
}

// lintFile analyzes content as the host document at path. A document with
// no fragments yields an empty result.
func (l *linter) lintFile(ctx context.Context, path string, content []byte) (models.FileResult, error) {
	if l.cache.Enabled() {
		res, ok := l.cache.Get(path, content)
		l.metrics.ResultCacheLookup(ok)
		if ok {
			l.logger.Debug("cache hit", "path", path)
			return res, nil
		}
	}

	doc, err := source.Parse(path, content)
	if err != nil {
		return models.FileResult{}, err
	}
	res, err := l.engine.AnalyzeDocument(ctx, doc)
	if errors.Is(err, lint.ErrNoFragments) {
		err = nil
	}
	if err != nil {
		return models.FileResult{}, err
	}
	l.metrics.FileAnalyzed()

	if err := l.cache.Set(path, content, res); err != nil {
		l.logger.Warn("failed to cache result", "path", path, "err", err)
	}
	return res, nil
}
