package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/panbanda/fraglint/internal/output"
	"github.com/panbanda/fraglint/pkg/ast"
	"github.com/panbanda/fraglint/pkg/parser"
	"github.com/panbanda/fraglint/pkg/source"
	"github.com/urfave/cli/v2"
)

func parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Show the tier and syntax tree of every fragment",
		ArgsUsage: "[file...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "expr",
				Aliases: []string{"e"},
				Usage:   "Parse this script instead of reading files",
			},
			&cli.BoolFlag{
				Name:  "template",
				Usage: "Treat --expr as a template with literal text around blocks",
			},
		},
		Action: runParse,
	}
}

// parsed is the parse outcome of one fragment.
type parsed struct {
	File     string   `json:"file" yaml:"file"`
	Field    string   `json:"field,omitempty" yaml:"field,omitempty"`
	Line     int      `json:"line" yaml:"line"`
	Tier     string   `json:"tier,omitempty" yaml:"tier,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
	AST      string   `json:"ast,omitempty" yaml:"ast,omitempty"`
}

func runParse(c *cli.Context) error {
	e := envFrom(c)
	p := parser.New(parser.WithLogger(e.logger), parser.WithRecorder(e.metrics))

	var items []parsed
	if expr := c.String("expr"); expr != "" {
		item, err := parseScript(c.Context, p, expr, c.Bool("template"))
		if err != nil {
			return err
		}
		item.File, item.Line = "<expr>", 1
		items = append(items, item)
	} else {
		if c.Args().Len() == 0 {
			return errors.New("parse needs a file or --expr")
		}
		src := source.NewFilesystem()
		for _, path := range c.Args().Slice() {
			doc, err := source.Load(src, path)
			if err != nil {
				return err
			}
			for _, frag := range doc.Fragments {
				item, err := parseScript(c.Context, p, frag.Script(), frag.IsTemplate())
				if err != nil {
					return err
				}
				item.File, item.Field, item.Line = path, frag.Path, frag.StartLine
				items = append(items, item)
			}
		}
	}

	return writeOutput(c, e, &parseView{Items: items})
}

// parseScript parses text. Parse failures are reported in the result; the
// error is only set on cancellation.
func parseScript(ctx context.Context, p *parser.Parser, text string, template bool) (parsed, error) {
	var (
		tree *parser.Tree
		err  error
	)
	if template {
		tree, err = p.ParseTemplate(ctx, text)
	} else {
		tree, err = p.Parse(ctx, text)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return parsed{}, ctxErr
		}
		return parsed{Error: err.Error()}, nil
	}

	var b strings.Builder
	ast.Dump(&b, tree.Root)
	return parsed{Tier: string(tree.Tier), Warnings: tree.Warnings, AST: b.String()}, nil
}

type parseView struct {
	Items []parsed
}

var _ output.Renderable = (*parseView)(nil)

func (v *parseView) RenderData() any {
	return v.Items
}

func (v *parseView) header(it parsed) string {
	name := it.File
	if it.Field != "" {
		name += " " + it.Field
	}
	status := it.Tier
	if it.Error != "" {
		status = "failed"
	}
	return fmt.Sprintf("%s (line %d): %s", name, it.Line, status)
}

func (v *parseView) RenderText(w io.Writer, _ bool) error {
	for _, it := range v.Items {
		fmt.Fprintln(w, v.header(it))
		for _, warn := range it.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn)
		}
		if it.Error != "" {
			fmt.Fprintf(w, "  %s\n", it.Error)
		}
		io.WriteString(w, it.AST)
		fmt.Fprintln(w)
	}
	return nil
}

func (v *parseView) RenderMarkdown(w io.Writer) error {
	for _, it := range v.Items {
		fmt.Fprintf(w, "## %s\n\n", v.header(it))
		if it.Error != "" {
			fmt.Fprintf(w, "%s\n\n", it.Error)
			continue
		}
		fmt.Fprintf(w, "```\n%s```\n\n", it.AST)
	}
	return nil
}
