package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/preprocess"
)

// ParseTemplate parses a template expression: literal text interleaved
// with script blocks. Each block is parsed on its own, padded so that its
// lines are those of the template. The root is a template node holding
// text segments and program sub-trees in source order. Blocks that fail to
// parse are left out with a warning; the call fails only when no block
// parses. The tree's tier is the least precise tier any block needed.
func (p *Parser) ParseTemplate(ctx context.Context, text string) (*Tree, error) {
	if p.cache == nil {
		return p.parseTemplate(ctx, text)
	}
	e, hit := p.cache.loadOrParse(templateKey, text, func() (*Tree, error) {
		return p.parseTemplate(ctx, text)
	})
	p.recorder.CacheLookup(hit)
	return e.Tree, e.Err
}

func (p *Parser) parseTemplate(ctx context.Context, text string) (*Tree, error) {
	var (
		children []ast.Node
		warnings []string
		errs     []error
		tier     = TierDeterministic
		blocks   int
	)

	for _, seg := range preprocess.SplitTemplate(text) {
		if !seg.Script {
			children = append(children, ast.NewBranch(ast.KindTemplateSegment,
				ast.NewLeaf(ast.Token{Kind: ast.TokText, Text: seg.Text, Pos: ast.Position{Line: seg.Line, Column: 1}})))
			continue
		}
		blocks++
		padded := strings.Repeat("\n", seg.Line-1) + seg.Text
		pre := preprocess.Rewrite(padded)
		warnings = append(warnings, pre.Warnings...)

		root, blockTier, err := p.parseTiers(ctx, pre.Text)
		if err != nil {
			var pf *ParseFailure
			if errors.As(err, &pf) && pf.Category == CategoryCanceled {
				return nil, err
			}
			errs = append(errs, err)
			warnings = append(warnings, fmt.Sprintf("line %d: script block skipped: %v", seg.Line, err))
			continue
		}
		if blockTier.Rank() > tier.Rank() {
			tier = blockTier
		}
		children = append(children, root)
	}

	if blocks > 0 && len(errs) == blocks {
		p.recorder.ParseFailed(categorize(errs[len(errs)-1]))
		return nil, &ParseFailure{Category: categorize(errs[len(errs)-1]), Tier: TierMinimal, Err: errors.Join(errs...)}
	}
	p.recorder.ParseCompleted(tier)
	return &Tree{
		Root:     ast.NewBranch(ast.KindTemplate, children...),
		Tier:     tier,
		Source:   text,
		Warnings: warnings,
	}, nil
}
