package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/errors"
)

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "List merge suggestions from rules and similarity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.consolidator()
			if err != nil {
				return err
			}

			suggestions := c.SuggestMerges()
			rows := make([][]string, 0, len(suggestions))
			for _, s := range suggestions {
				parts := make([]string, len(s.Tags))
				for i, t := range s.Tags {
					parts[i] = fmt.Sprintf("%s (%d)", t.Tag, t.Frequency)
				}
				rows = append(rows, []string{
					s.Primary, itoa(s.PrimaryFrequency), strings.Join(parts, ", "), string(s.Source), itoa(s.TotalImpact),
				})
			}

			return ctx.output(cmd, suggestions, func() string {
				if len(rows) == 0 {
					return "No merge suggestions"
				}
				return renderTable(
					[]string{"Primary", "Albums", "Absorbs", "Source", "Impact"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight},
				)
			})
		},
	}
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview PRIMARY TAG...",
		Short: "Show the effect and conflicts of a merge without applying it",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.consolidator()
			if err != nil {
				return err
			}

			preview, err := c.PreviewMerge(args[0], args[1:])
			if err != nil {
				return err
			}

			return ctx.output(cmd, preview, func() string {
				out := renderTable(
					[]string{"Primary", "Absorbs", "Affected albums", "Resulting albums"},
					[][]string{{preview.Primary, strings.Join(preview.Tags, ", "), itoa(preview.AffectedAlbums), itoa(preview.ResultingFrequency)}},
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
				)
				if !preview.Clean() {
					out += "\n" + renderConflicts(preview.Conflicts)
				}
				return out
			})
		},
	}
	return cmd
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "merge PRIMARY TAG...",
		Short: "Merge tags into a primary tag and persist the rewritten corpus",
		Long: `Merge tags into a primary tag.

The merge is previewed, queued, applied, and written to the store in one run.
Frequency and relationship conflicts can be overridden with --force; a tag
already involved in another pending merge cannot.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.consolidator()
			if err != nil {
				return err
			}

			if _, err := c.QueueMerge(args[0], args[1:], force); err != nil {
				if errors.Is(err, errors.ErrConflict) {
					conflicts := errors.DetailsAs[[]domain.MergeConflict](err)
					if !ctx.jsonOutput && len(conflicts) > 0 {
						fmt.Fprintln(cmd.ErrOrStderr(), renderConflicts(conflicts))
					}
				}
				return err
			}

			curation, err := ctx.curation()
			if err != nil {
				return err
			}
			report, err := curation.ApplyMerges(cmd.Context())
			if err != nil {
				return err
			}

			return ctx.output(cmd, report, func() string {
				return renderHistory(report.Applied) +
					fmt.Sprintf("\n%d album(s) rewritten, corpus version %d", report.AlbumsRewritten, report.CorpusVersion)
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Override frequency and relationship conflicts")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List applied merges, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.consolidator()
			if err != nil {
				return err
			}

			history := c.MergeHistory()
			return ctx.output(cmd, history, func() string {
				if len(history) == 0 {
					return "No merges applied"
				}
				return renderHistory(history)
			})
		},
	}
	return cmd
}

func renderConflicts(conflicts []domain.MergeConflict) string {
	rows := make([][]string, 0, len(conflicts))
	for _, mc := range conflicts {
		overridable := "yes"
		if !mc.Kind.Overridable() {
			overridable = "no"
		}
		rows = append(rows, []string{string(mc.Kind), overridable, mc.Description})
	}
	return renderTable([]string{"Conflict", "Forceable", "Description"}, rows, nil)
}

func renderHistory(entries []domain.MergeHistoryEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID, e.AppliedAt.Local().Format(time.DateTime), e.Primary, strings.Join(e.Tags, ", "), itoa(e.AlbumsRewritten),
		})
	}
	return renderTable(
		[]string{"ID", "Applied", "Primary", "Absorbed", "Albums"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}
