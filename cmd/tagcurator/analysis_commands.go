package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcurator/internal/config"
	"github.com/listenupapp/tagcurator/internal/domain"
	"github.com/listenupapp/tagcurator/internal/search"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus totals and the most frequent tags with centrality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.analyzer()
			if err != nil {
				return err
			}

			report := a.Report()
			tags := a.TopTags(top)
			stats := a.ComputeStatistics()

			type tagRow struct {
				Tag string `json:"tag"`
				domain.TagStats
			}
			out := struct {
				Report any      `json:"report"`
				Tags   []tagRow `json:"tags"`
			}{Report: report, Tags: make([]tagRow, 0, len(tags))}

			rows := make([][]string, 0, len(tags))
			for _, tc := range tags {
				s := stats[tc.Tag]
				out.Tags = append(out.Tags, tagRow{Tag: tc.Tag, TagStats: s})
				rows = append(rows, []string{tc.Tag, itoa(s.Frequency), ftoa(s.DegreeCentrality), ftoa(s.BetweennessCentrality)})
			}

			return ctx.output(cmd, out, func() string {
				summary := fmt.Sprintf("%d records, %d albums, %d tags, %d edges (%d skipped, %d duplicate albums)",
					report.Records, report.Albums, report.Tags, report.Edges, report.Skipped, report.DuplicateAlbums)
				return summary + "\n" + renderTable(
					[]string{"Tag", "Albums", "Degree", "Betweenness"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
				)
			})
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 20, "Number of tags to list")
	return cmd
}

func newClustersCommand(ctx *commandContext) *cobra.Command {
	var minSize int

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Group tags into communities of the co-occurrence graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.analyzer()
			if err != nil {
				return err
			}
			cfg, err := do.Invoke[*config.Config](ctx.container())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("min-size") {
				minSize = cfg.Clustering.MinSize
			}

			clusters := a.Clusters(minSize, cfg.Clustering.Resolution)

			type clusterOut struct {
				ID   int      `json:"id"`
				Tags []string `json:"tags"`
			}
			ids := make([]int, 0, len(clusters))
			for id := range clusters {
				ids = append(ids, id)
			}
			sort.Ints(ids)

			out := make([]clusterOut, 0, len(ids))
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				out = append(out, clusterOut{ID: id, Tags: clusters[id]})
				rows = append(rows, []string{itoa(id), itoa(len(clusters[id])), strings.Join(clusters[id], ", ")})
			}

			return ctx.output(cmd, out, func() string {
				if len(rows) == 0 {
					return "No clusters"
				}
				return renderTable([]string{"ID", "Size", "Tags"}, rows,
					[]columnAlignment{alignRight, alignRight, alignLeft})
			})
		},
	}

	cmd.Flags().IntVar(&minSize, "min-size", 2, "Smallest cluster to report")
	return cmd
}

func newHierarchyCommand(ctx *commandContext) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Show parent/child relations inferred from tag names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.analyzer()
			if err != nil {
				return err
			}
			report := a.DetectHierarchies()

			if tag != "" {
				tag = a.Normalize(tag)
				out := struct {
					Tag       string   `json:"tag"`
					Parents   []string `json:"parents"`
					Ancestors []string `json:"ancestors"`
					Children  []string `json:"children"`
				}{tag, report.Parents(tag), report.Ancestors(tag), report.Children(tag)}

				return ctx.output(cmd, out, func() string {
					return renderTable([]string{"Relation", "Tags"}, [][]string{
						{"parents", strings.Join(out.Parents, ", ")},
						{"ancestors", strings.Join(out.Ancestors, ", ")},
						{"children", strings.Join(out.Children, ", ")},
					}, nil)
				})
			}

			rows := make([][]string, 0, len(report.Edges))
			for _, e := range report.Edges {
				rows = append(rows, []string{e.Parent, e.Child})
			}
			return ctx.output(cmd, report.Edges, func() string {
				if len(rows) == 0 {
					return "No hierarchy detected"
				}
				out := renderTable([]string{"Parent", "Child"}, rows, nil)
				if n := len(report.Dropped); n > 0 {
					out += fmt.Sprintf("\n%d edge(s) dropped to avoid cycles", n)
				}
				return out
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Show relations of a single tag")
	return cmd
}

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var threshold float64
	var limit int

	cmd := &cobra.Command{
		Use:   "similar TAG",
		Short: "List co-occurring tags with similarity evidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.analyzer()
			if err != nil {
				return err
			}
			sim, err := ctx.similarity()
			if err != nil {
				return err
			}

			tag := a.Normalize(args[0])
			if !a.HasTag(tag) {
				return fmt.Errorf("unknown tag %q", tag)
			}

			neighbors := a.FindSimilarTags(tag, threshold)
			if limit > 0 && len(neighbors) > limit {
				neighbors = neighbors[:limit]
			}

			type similarOut struct {
				Tag     string                     `json:"tag"`
				Overlap float64                    `json:"overlap"`
				Score   domain.SimilarityBreakdown `json:"similarity"`
			}
			out := make([]similarOut, 0, len(neighbors))
			rows := make([][]string, 0, len(neighbors))
			for _, n := range neighbors {
				b := sim.Breakdown(tag, n.Tag)
				out = append(out, similarOut{Tag: n.Tag, Overlap: n.Score, Score: b})
				rows = append(rows, []string{n.Tag, ftoa(n.Score), ftoa(b.Lexical), ftoa(b.Cooccurrence), ftoa(b.Structural), ftoa(b.Combined)})
			}

			return ctx.output(cmd, out, func() string {
				if len(rows) == 0 {
					return fmt.Sprintf("No tags co-occur with %q above %.2f", tag, threshold)
				}
				return renderTable(
					[]string{"Tag", "Overlap", "Lexical", "Co-occurrence", "Structural", "Combined"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				)
			})
		},
	}

	cmd.Flags().Float64Var(&threshold, "min-overlap", 0.1, "Minimum co-occurrence overlap")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of tags (0 for all)")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find tags by name, word, prefix, or near spelling",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := ctx.tagIndex()
			if err != nil {
				return err
			}
			a, err := ctx.analyzer()
			if err != nil {
				return err
			}

			params := search.DefaultSearchParams()
			params.Limit = limit
			if len(args) == 1 {
				params.Query = args[0]
			}

			res, err := idx.Search(cmd.Context(), params)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(res.Hits))
			for _, hit := range res.Hits {
				rows = append(rows, []string{hit.Tag, itoa(a.Frequency(hit.Tag)), ftoa(hit.Score)})
			}
			return ctx.output(cmd, res, func() string {
				if len(rows) == 0 {
					return "No matching tags"
				}
				return renderTable([]string{"Tag", "Albums", "Score"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	return cmd
}
