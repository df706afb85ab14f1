package lint

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/panbanda/fraglint/pkg/analyzer"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/parser"
	"github.com/panbanda/fraglint/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guardedDoc = `{
  "widgets": [
    {
      "render": "<% user.profile %>",
      "text": "<% var label = user.profile.name; %>",
      "onClick": "<% var x = 1; x++; // fraglint-disable-line legacy-declaration %>"
    }
  ]
}`

func newEngine(opts ...Option) *Engine {
	return New(append([]Option{WithParser(parser.New(parser.WithCache(nil)))}, opts...)...)
}

func loadDoc(t *testing.T, content string) *source.Document {
	t.Helper()
	doc, err := source.Parse("widget.json", []byte(content))
	require.NoError(t, err)
	return doc
}

func rules(fs []models.Finding) []models.RuleID {
	out := make([]models.RuleID, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Rule)
	}
	return out
}

func TestAnalyzeDocument(t *testing.T) {
	doc := loadDoc(t, guardedDoc)
	res, err := newEngine().AnalyzeDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "widget.json", res.Path)
	assert.Len(t, res.Fragments, 3)
	assert.Zero(t, res.ParseFailures)

	// The render guard covers user.profile, and the onClick declaration
	// is suppressed inline.
	require.Equal(t, []models.RuleID{models.RuleLegacyDeclaration, models.RuleUnusedVariable}, rules(res.Findings))
	for _, f := range res.Findings {
		assert.Equal(t, 5, f.Line)
		assert.Equal(t, "widgets[0].text", f.Path)
	}
}

func TestAnalyzeFragmentWithoutGuard(t *testing.T) {
	frag := source.Fragment{Path: "text", Text: "<% print(user.profile.name); %>", StartLine: 10}
	res, err := newEngine().AnalyzeFragment(context.Background(), frag, nil)
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	f := res.Findings[0]
	assert.Equal(t, models.RuleUnsafePropertyAccess, f.Rule)
	assert.Equal(t, 10, f.Line)
	assert.Equal(t, "text", f.Path)
	assert.Equal(t, 10, res.Metrics.Line)
	assert.NotEmpty(t, res.Metrics.Tier)
}

func TestAnalyzeFragmentRebasesLines(t *testing.T) {
	frag := source.Fragment{Path: "script", Text: "<%\nlet a = 1;\nvar b = a;\nprint(b);\n%>", StartLine: 20}
	res, err := newEngine().AnalyzeFragment(context.Background(), frag, nil)
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, models.RuleLegacyDeclaration, res.Findings[0].Rule)
	assert.Equal(t, 22, res.Findings[0].Line)
}

func TestAnalyzeFragmentTemplate(t *testing.T) {
	frag := source.Fragment{Path: "title", Text: "Hello <%= name %>, <% var greeting = 'hi'; print(greeting); %>!", StartLine: 3}
	res, err := newEngine().AnalyzeFragment(context.Background(), frag, nil)
	require.NoError(t, err)

	assert.Equal(t, []models.RuleID{models.RuleLegacyDeclaration}, rules(res.Findings))
	assert.Equal(t, 3, res.Findings[0].Line)
}

func TestRuleOverrides(t *testing.T) {
	e := newEngine(WithRules(map[models.RuleID]RuleSetting{
		models.RuleLegacyDeclaration: {Severity: models.SeveritySevere},
		models.RuleUnusedVariable:    {Disabled: true},
	}))
	frag := source.Fragment{Path: "p", Text: "<% var unused = 1; %>", StartLine: 1}
	res, err := e.AnalyzeFragment(context.Background(), frag, nil)
	require.NoError(t, err)

	require.Len(t, res.Findings, 1)
	assert.Equal(t, models.RuleLegacyDeclaration, res.Findings[0].Rule)
	assert.Equal(t, models.SeveritySevere, res.Findings[0].Severity)
}

type panicPass struct{}

func (panicPass) Name() string                       { return "panicky" }
func (panicPass) Rules() []models.RuleID             { return nil }
func (panicPass) Run(*analyzer.Unit) []models.Finding { panic("boom") }

type countingRecorder struct {
	findings  atomic.Int64
	recovered atomic.Int64
}

func (r *countingRecorder) FindingReported(models.RuleID) { r.findings.Add(1) }
func (r *countingRecorder) PassRecovered(string)          { r.recovered.Add(1) }

func TestPassPanicIsContained(t *testing.T) {
	rec := &countingRecorder{}
	e := newEngine(WithPasses(append(DefaultPasses(), panicPass{})...), WithRecorder(rec))
	frag := source.Fragment{Path: "p", Text: "<% var x = 1; print(x); %>", StartLine: 1}

	res, err := e.AnalyzeFragment(context.Background(), frag, nil)
	require.NoError(t, err)
	assert.Equal(t, []models.RuleID{models.RuleLegacyDeclaration}, rules(res.Findings))
	assert.EqualValues(t, 1, rec.recovered.Load())
	assert.EqualValues(t, 1, rec.findings.Load())
}

func TestAnalyzeDocumentNoFragments(t *testing.T) {
	doc := loadDoc(t, `{"title": "plain"}`)
	_, err := newEngine().AnalyzeDocument(context.Background(), doc)
	assert.ErrorIs(t, err, ErrNoFragments)
}

func TestAnalyzeDocumentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := newEngine().AnalyzeDocument(ctx, loadDoc(t, guardedDoc))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Findings)
}

func TestAnalyzeFragmentsIndependent(t *testing.T) {
	e := newEngine()
	a := source.Fragment{Path: "a", Text: "<% var shared = 1; %>", StartLine: 1}
	b := source.Fragment{Path: "b", Text: "<% print(shared); %>", StartLine: 2}

	ra, err := e.AnalyzeFragment(context.Background(), a, nil)
	require.NoError(t, err)
	rb, err := e.AnalyzeFragment(context.Background(), b, nil)
	require.NoError(t, err)

	assert.Contains(t, rules(ra.Findings), models.RuleUnusedVariable, "uses in other fragments do not count")
	assert.Empty(t, rb.Findings)
}
