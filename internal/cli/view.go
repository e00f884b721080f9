package cli

import (
	"fmt"

	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/ui/table"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [source]",
		Short: "Browse rows in the interactive grid",
		Long: `Open a CSV file, a JSON array of objects or a SQL query result in the
interactive grid. Use "-" to read CSV from stdin.

When output is not a terminal, the filtered rows are printed as a plain
table instead.

Examples:
  pgrid view orders.csv
  pgrid view orders.csv --sort amount:desc --filter status=draft
  pgrid view --db postgres://localhost/shop --sql 'SELECT * FROM orders'
  cat orders.csv | pgrid view - --no-pager`,
		Args: cobra.MaximumNArgs(1),
		RunE: runView,
	}

	addSourceFlags(cmd)
	addGridFlags(cmd)
	cmd.Flags().Bool("no-pager", false, "Print a plain table instead of the interactive view")
	cmd.Flags().String("format", "", "Print the filtered rows in this format (plain, json, tsv)")

	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	g, cleanup, err := openGrid(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	noPager, _ := cmd.Flags().GetBool("no-pager")

	var format export.Format
	if s, _ := cmd.Flags().GetString("format"); s != "" {
		if format, err = export.ParseFormat(s); err != nil {
			return err
		}
		if !g.CanExport(format) {
			return util.ExportError(string(format), "stdout", fmt.Errorf("%s is not enabled", format))
		}
	}

	exportFormat, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return err
	}

	return table.Display(g, table.DisplayOptions{
		Format:       format,
		NoPager:      noPager,
		ExportFormat: exportFormat,
		Out:          cmd.OutOrStdout(),
	})
}
