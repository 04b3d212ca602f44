package main

import (
	"github.com/spf13/cobra"

	"github.com/listenupapp/tagcurator/internal/service"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var appendRecords bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load album tag records from a JSON file into the store",
		Long: `Load album tag records into the store.

FILE holds a JSON array of {"album_id": "...", "tags": ["..."]} objects.
Rows without a tags field are kept and counted as skipped during analysis.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := service.ReadRecordsFile(args[0])
			if err != nil {
				return err
			}

			curation, err := ctx.curation()
			if err != nil {
				return err
			}
			report, err := curation.ImportRecords(cmd.Context(), records, appendRecords)
			if err != nil {
				return err
			}

			return ctx.output(cmd, report, func() string {
				return renderTable(
					[]string{"Records", "Albums", "Tags", "Edges", "Skipped", "Duplicates"},
					[][]string{{
						itoa(report.Records), itoa(report.Albums), itoa(report.Tags),
						itoa(report.Edges), itoa(report.Skipped), itoa(report.DuplicateAlbums),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				)
			})
		},
	}

	cmd.Flags().BoolVar(&appendRecords, "append", false, "Add to the stored records instead of replacing them")
	return cmd
}
