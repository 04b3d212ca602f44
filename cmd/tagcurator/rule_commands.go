package main

import (
	"github.com/spf13/cobra"
)

func newRuleCommand(ctx *commandContext) *cobra.Command {
	ruleCmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage consolidation rules",
	}

	ruleCmd.AddCommand(newRuleAddCommand(ctx))
	ruleCmd.AddCommand(newRuleListCommand(ctx))

	return ruleCmd
}

func newRuleAddCommand(ctx *commandContext) *cobra.Command {
	var minSimilarity float64

	cmd := &cobra.Command{
		Use:   "add PATTERN REPLACEMENT",
		Short: "Store a rule mapping tags that match PATTERN onto REPLACEMENT",
		Long: `Store a consolidation rule.

PATTERN is a regular expression matched against the whole canonical tag.
Rules are evaluated in the order they were added and take precedence over
similarity suggestions.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.consolidator()
			if err != nil {
				return err
			}
			if err := c.AddRule(args[0], args[1], minSimilarity); err != nil {
				return err
			}

			rules := c.Rules()
			rule := rules[len(rules)-1]

			st, err := ctx.store()
			if err != nil {
				return err
			}
			if err := st.SaveRule(cmd.Context(), rule); err != nil {
				return err
			}

			return ctx.output(cmd, rule, func() string {
				return renderTable([]string{"#", "Pattern", "Replacement", "Min similarity"},
					[][]string{{itoa(len(rules)), rule.Pattern, rule.Replacement, ftoa(rule.MinSimilarity)}},
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight})
			})
		},
	}

	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", 0, "Only apply when the tags are at least this similar")
	return cmd
}

func newRuleListCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List consolidation rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.consolidator()
			if err != nil {
				return err
			}

			rules := c.Rules()
			rows := make([][]string, 0, len(rules))
			for i, r := range rules {
				rows = append(rows, []string{itoa(i + 1), r.Pattern, r.Replacement, ftoa(r.MinSimilarity)})
			}

			return ctx.output(cmd, rules, func() string {
				if len(rows) == 0 {
					return "No rules"
				}
				return renderTable([]string{"#", "Pattern", "Replacement", "Min similarity"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight})
			})
		},
	}
	return cmd
}
