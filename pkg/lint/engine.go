// Package lint runs the analysis passes over the fragments of host
// documents and turns their output into absolute, filtered and sorted
// findings.
package lint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/analyzer/complexity"
	"github.com/panbanda/fraglint/pkg/analyzer/deadcode"
	"github.com/panbanda/fraglint/pkg/analyzer/nullsafety"
	"github.com/panbanda/fraglint/pkg/analyzer/smells"
	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/parser"
	"github.com/panbanda/fraglint/pkg/source"
	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"
)

// ErrNoFragments is returned by AnalyzeDocument when the document holds no
// script fragments.
var ErrNoFragments = errors.New("no script fragments")

// RuleSetting overrides the defaults of one rule.
type RuleSetting struct {
	Disabled bool
	// Severity replaces the severity of every finding of the rule when set.
	Severity models.Severity
}

// Recorder receives engine events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	FindingReported(rule models.RuleID)
	PassRecovered(pass string)
}

type nopRecorder struct{}

func (nopRecorder) FindingReported(models.RuleID) {}
func (nopRecorder) PassRecovered(string)          {}

// Engine analyzes fragments. It is safe for concurrent use.
type Engine struct {
	parser   *parser.Parser
	passes   []analyzer.Pass
	settings analyzer.Settings
	rules    map[models.RuleID]RuleSetting
	logger   *slog.Logger
	recorder Recorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithParser sets the parser. Defaults to parser.Default().
func WithParser(p *parser.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithPasses replaces the default passes.
func WithPasses(passes ...analyzer.Pass) Option {
	return func(e *Engine) {
		e.passes = passes
	}
}

// WithSettings sets the thresholds handed to every pass.
func WithSettings(s analyzer.Settings) Option {
	return func(e *Engine) {
		e.settings = s
	}
}

// WithRules sets per-rule overrides.
func WithRules(rules map[models.RuleID]RuleSetting) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// DefaultPasses returns one instance of every built-in pass.
func DefaultPasses() []analyzer.Pass {
	return []analyzer.Pass{
		deadcode.New(),
		nullsafety.New(),
		complexity.New(),
		smells.New(),
	}
}

// New creates an engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		passes:   DefaultPasses(),
		settings: analyzer.DefaultSettings(),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.parser == nil {
		e.parser = parser.Default()
	}
	return e
}

// FragmentResult is the outcome of analyzing one fragment.
type FragmentResult struct {
	Findings []models.Finding
	Metrics  models.FragmentMetrics
	// Failure is set when the fragment could not be parsed. The fragment
	// then has no findings.
	Failure *parser.ParseFailure
}

// AnalyzeFragment parses frag and runs every pass over it. guard is the
// guard of the container holding frag, or nil. A parse failure is not an
// error; it is reported in the result. The only error is cancellation.
func (e *Engine) AnalyzeFragment(ctx context.Context, frag source.Fragment, guard *source.Guard) (*FragmentResult, error) {
	script := frag.Script()
	template := frag.IsTemplate()

	var (
		tree *parser.Tree
		err  error
	)
	if template {
		tree, err = e.parser.ParseTemplate(ctx, script)
	} else {
		tree, err = e.parser.Parse(ctx, script)
	}
	result := &FragmentResult{Metrics: models.FragmentMetrics{Path: frag.Path, Line: startLine(frag)}}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var pf *parser.ParseFailure
		if !errors.As(err, &pf) {
			return nil, fmt.Errorf("parse %s: %w", frag.Path, err)
		}
		e.logger.Debug("fragment skipped", "path", frag.Path, "category", pf.Category, "error", pf.Err)
		result.Failure = pf
		return result, nil
	}
	for _, w := range tree.Warnings {
		e.logger.Debug("preprocessor warning", "path", frag.Path, "warning", w)
	}

	unit := &analyzer.Unit{
		Root:     tree.Root,
		Guard:    e.parseGuard(ctx, guard),
		Whole:    !template,
		Label:    frag.Label,
		Settings: e.settings,
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perPass := iter.Map(e.passes, func(p *analyzer.Pass) []models.Finding {
		return e.runPass(*p, unit)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	suppressed := ParseSuppressions(script)
	for _, fs := range perPass {
		for _, f := range fs {
			f, ok := e.apply(f)
			if !ok || suppressed.Suppressed(f) {
				continue
			}
			f.Line = result.Metrics.Line + f.Line - 1
			f.Path = frag.Path
			result.Findings = append(result.Findings, f)
			e.recorder.FindingReported(f.Rule)
		}
	}
	models.SortFindings(result.Findings)

	result.Metrics.Tier = string(tree.Tier)
	result.Metrics.Complexity = complexity.Cyclomatic(tree.Root)
	result.Metrics.Nesting = complexity.Nesting(tree.Root).Depth
	result.Metrics.Functions = len(complexity.Functions(tree.Root))
	return result, nil
}

// AnalyzeDocument analyzes every fragment of doc in parallel. Nothing is
// returned when ctx is cancelled part way.
func (e *Engine) AnalyzeDocument(ctx context.Context, doc *source.Document) (models.FileResult, error) {
	out := models.FileResult{Path: doc.Path}
	if len(doc.Fragments) == 0 {
		return out, ErrNoFragments
	}

	type outcome struct {
		res *FragmentResult
		err error
	}
	outcomes := iter.Map(doc.Fragments, func(f *source.Fragment) outcome {
		if err := ctx.Err(); err != nil {
			return outcome{err: err}
		}
		res, err := e.AnalyzeFragment(ctx, *f, doc.Guard(*f))
		return outcome{res, err}
	})

	for _, o := range outcomes {
		if o.err != nil {
			return models.FileResult{Path: doc.Path}, o.err
		}
		out.Fragments = append(out.Fragments, o.res.Metrics)
		if o.res.Failure != nil {
			out.ParseFailures++
			continue
		}
		out.Findings = append(out.Findings, o.res.Findings...)
	}
	models.SortFindings(out.Findings)
	return out, nil
}

func (e *Engine) parseGuard(ctx context.Context, g *source.Guard) *ast.Branch {
	if g == nil {
		return nil
	}
	tree, err := e.parser.Parse(ctx, g.Script())
	if err != nil {
		e.logger.Debug("guard condition not parsed", "path", g.Path, "error", err)
		return nil
	}
	return tree.Root
}

// runPass runs p and recovers from a panic, which costs the pass its
// findings for this unit and nothing else.
func (e *Engine) runPass(p analyzer.Pass, u *analyzer.Unit) []models.Finding {
	var (
		findings []models.Finding
		pc       panics.Catcher
	)
	pc.Try(func() {
		findings = p.Run(u)
	})
	if r := pc.Recovered(); r != nil {
		e.logger.Error("analysis pass panicked", "pass", p.Name(), "label", u.Label, "panic", r.Value)
		e.recorder.PassRecovered(p.Name())
		return nil
	}
	return findings
}

// apply enforces the rule overrides. It returns false for a disabled rule.
func (e *Engine) apply(f models.Finding) (models.Finding, bool) {
	rs, ok := e.rules[f.Rule]
	if !ok {
		return f, true
	}
	if rs.Disabled {
		return f, false
	}
	if rs.Severity != "" {
		f.Severity = rs.Severity
	}
	return f, true
}

func startLine(f source.Fragment) int {
	return max(f.StartLine, 1)
}
