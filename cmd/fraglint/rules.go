package main

import (
	"slices"

	"github.com/panbanda/fraglint/internal/output"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/urfave/cli/v2"
)

func rulesCmd() *cli.Command {
	return &cli.Command{
		Name:   "rules",
		Usage:  "List the rules with their effective severity",
		Action: runRules,
	}
}

func runRules(c *cli.Context) error {
	e := envFrom(c)
	overrides := e.cfg.RuleSettings()

	rules := slices.Clone(models.Rules)
	for i, r := range rules {
		if rs, ok := overrides[r.ID]; ok && rs.Severity != "" {
			rules[i].Severity = rs.Severity
		}
	}
	enabled := func(id models.RuleID) bool {
		return !overrides[id].Disabled
	}
	return writeOutput(c, e, output.NewRulesTable(rules, enabled))
}
