// Package parser turns fragment text into an ast tree. Parsing runs
// through three tiers: a deterministic recursive-descent grammar, the
// general tree-sitter JavaScript grammar, and a minimal recovery lexer.
// The first tier that succeeds produces the tree.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/preprocess"
)

// Tier identifies the parsing strategy that produced a tree.
type Tier string

const (
	TierDeterministic Tier = "deterministic"
	TierGeneral       Tier = "general"
	TierMinimal       Tier = "minimal"
)

// String returns the string representation.
func (t Tier) String() string {
	return string(t)
}

// Rank orders tiers from most to least precise.
func (t Tier) Rank() int {
	switch t {
	case TierDeterministic:
		return 0
	case TierGeneral:
		return 1
	case TierMinimal:
		return 2
	}
	return 3
}

// Category classifies a parse failure.
type Category string

const (
	CategoryLexical  Category = "lexical"
	CategorySyntax   Category = "syntax"
	CategoryGrammar  Category = "grammar"
	CategoryRecovery Category = "recovery"
	CategoryPanic    Category = "panic"
	CategoryCanceled Category = "canceled"
)

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseFailure is the only error type returned by Parse. Tier is the last
// tier attempted.
type ParseFailure struct {
	Category Category
	Tier     Tier
	Err      error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse failed (%s, %s tier): %v", e.Category, e.Tier, e.Err)
}

func (e *ParseFailure) Unwrap() error {
	return e.Err
}

// Tree is an immutable parse result.
type Tree struct {
	Root *ast.Branch
	Tier Tier
	// Source is the preprocessed text the tree was built from.
	Source   string
	Warnings []string
}

// Recorder receives parse events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ParseCompleted(tier Tier)
	ParseFailed(category Category)
	CacheLookup(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) ParseCompleted(Tier)  {}
func (nopRecorder) ParseFailed(Category) {}
func (nopRecorder) CacheLookup(bool)     {}

// Parser parses fragments. It is safe for concurrent use.
type Parser struct {
	logger   *slog.Logger
	recorder Recorder
	cache    *Cache
	reported sync.Map // once-only log keys
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger for tier fallback and failure notices.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRecorder sets the receiver of parse events.
func WithRecorder(r Recorder) Option {
	return func(p *Parser) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithCache sets the cache consulted before parsing. A nil cache disables
// caching.
func WithCache(c *Cache) Option {
	return func(p *Parser) {
		p.cache = c
	}
}

// New creates a parser with its own cache.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger:   slog.Default(),
		recorder: nopRecorder{},
		cache:    NewCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = sync.OnceValue(func() *Parser { return New() })

// Default returns the process-wide parser and its cache.
func Default() *Parser {
	return defaultParser()
}

// Cache returns the parser's cache, or nil.
func (p *Parser) Cache() *Cache {
	return p.cache
}

// Parse parses one script fragment. Outer fragment delimiters are
// stripped. The returned error is always a *ParseFailure.
func (p *Parser) Parse(ctx context.Context, text string) (*Tree, error) {
	if p.cache == nil {
		return p.parse(ctx, text)
	}
	e, hit := p.cache.LoadOrParse(text, func() (*Tree, error) {
		return p.parse(ctx, text)
	})
	p.recorder.CacheLookup(hit)
	return e.Tree, e.Err
}

func (p *Parser) parse(ctx context.Context, text string) (*Tree, error) {
	pre := preprocess.Rewrite(preprocess.Unwrap(text))
	root, tier, err := p.parseTiers(ctx, pre.Text)
	if err != nil {
		var pf *ParseFailure
		if errors.As(err, &pf) {
			p.recorder.ParseFailed(pf.Category)
		}
		return nil, err
	}
	p.recorder.ParseCompleted(tier)
	return &Tree{Root: root, Tier: tier, Source: pre.Text, Warnings: pre.Warnings}, nil
}

// parseTiers tries each tier in order.
func (p *Parser) parseTiers(ctx context.Context, src string) (*ast.Branch, Tier, error) {
	if strings.TrimSpace(src) == "" {
		return ast.NewBranch(ast.KindProgram), TierDeterministic, nil
	}

	root, err := p.attempt(TierDeterministic, func() (*ast.Branch, error) { return parseProgram(src) })
	if err == nil {
		return root, TierDeterministic, nil
	}
	errs := []error{err}

	if err := ctx.Err(); err != nil {
		return nil, "", &ParseFailure{Category: CategoryCanceled, Tier: TierDeterministic, Err: err}
	}

	p.once("engage:"+string(TierGeneral), "falling back to general grammar", "reason", err.Error())
	root, err = p.attempt(TierGeneral, func() (*ast.Branch, error) { return parseGeneral(ctx, src) })
	if err == nil {
		return root, TierGeneral, nil
	}
	errs = append(errs, err)

	if err := ctx.Err(); err != nil {
		return nil, "", &ParseFailure{Category: CategoryCanceled, Tier: TierGeneral, Err: err}
	}

	p.once("engage:"+string(TierMinimal), "falling back to minimal recovery", "reason", err.Error())
	root, err = p.attempt(TierMinimal, func() (*ast.Branch, error) { return parseMinimal(src) })
	if err == nil {
		return root, TierMinimal, nil
	}
	errs = append(errs, err)

	return nil, "", &ParseFailure{Category: categorize(err), Tier: TierMinimal, Err: errors.Join(errs...)}
}

// attempt runs one tier, turning a panic into that tier's failure.
func (p *Parser) attempt(tier Tier, run func() (*ast.Branch, error)) (root *ast.Branch, err error) {
	defer func() {
		if r := recover(); r != nil {
			root = nil
			err = &ParseFailure{Category: CategoryPanic, Tier: tier, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			cat := categorize(err)
			p.once("fail:"+string(tier)+":"+string(cat), "parse tier failed",
				"tier", tier, "category", cat, "error", err.Error())
		}
	}()
	return run()
}

func categorize(err error) Category {
	var (
		pf *ParseFailure
		le *LexError
		se *SyntaxError
	)
	switch {
	case errors.As(err, &pf):
		return pf.Category
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CategoryCanceled
	case errors.Is(err, ErrNoIdentifiers):
		return CategoryRecovery
	case errors.As(err, &le):
		return CategoryLexical
	case errors.As(err, &se):
		return CategorySyntax
	}
	return CategoryGrammar
}

// once logs a message the first time key is seen by this parser.
func (p *Parser) once(key, msg string, args ...any) {
	if _, seen := p.reported.LoadOrStore(key, struct{}{}); seen {
		return
	}
	p.logger.Warn(msg, args...)
}
