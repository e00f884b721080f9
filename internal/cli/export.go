package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/metrics"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [source]",
		Short: "Write the grid to an XLSX, PDF, JSON, TSV or text file",
		Long: `Export the rows that pass the current filters, in sort order, across
all pages. Hidden columns are left out. Use --all to export every row in
input order.

The format is taken from --format, then from the extension of --output,
then from export.format. The file name defaults to export.file_name.

Examples:
  pgrid export orders.csv --format xlsx
  pgrid export orders.csv -o drafts.pdf --filter status=draft
  pgrid export orders.csv --format json -o -      # to stdout`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}

	addSourceFlags(cmd)
	addGridFlags(cmd)
	cmd.Flags().StringP("format", "f", "", "Export format: xlsx, pdf, plain, json, tsv")
	cmd.Flags().StringP("output", "o", "", "Output file, or - for stdout")
	cmd.Flags().Bool("all", false, "Export every row, ignoring filters and sorting")

	return cmd
}

// exportFormat resolves the format from flags, the output name and config.
func exportFormat(flag, output string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if output != "" && output != "-" {
		if ext := filepath.Ext(output); ext != "" {
			if f, err := export.ParseFormat(ext); err == nil {
				return f, nil
			}
		}
	}
	return export.ParseFormat(cfg.Export.Format)
}

func runExport(cmd *cobra.Command, args []string) error {
	flag, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	all, _ := cmd.Flags().GetBool("all")

	format, err := exportFormat(flag, output)
	if err != nil {
		return err
	}

	g, cleanup, err := openGrid(cmd, args)
	if err != nil {
		return err
	}
	defer cleanup()

	if output == "" {
		output = g.FileName(format)
	}
	if !g.CanExport(format) {
		key := "export.pdf"
		if format == export.FormatXLSX {
			key = "export.excel"
		}
		return util.ExportError(string(format), output, grid.ErrExportDisabled).
			WithSuggestions(
				"pgrid config set export.enabled true",
				"pgrid config set "+key+" true",
			)
	}

	// Render fully before touching the output so a failed export leaves no
	// partial file behind.
	var buf bytes.Buffer
	rows := 0
	if all {
		snap := g.Snapshot(grid.ExportAll)
		rows = len(snap.Body)
		err = export.Write(&buf, format, snap)
		metrics.ObserveExport(string(format), err)
	} else {
		rows = g.Projection().TotalFiltered
		err = g.Export(&buf, format)
	}
	if err != nil {
		return util.ExportError(string(format), output, err)
	}

	if output == "-" {
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return util.ExportError(string(format), output, err)
	}

	fmt.Fprintln(cmd.ErrOrStderr(), styles.SuccessMsg(fmt.Sprintf("Exported %d rows to %s", rows, output)))
	return nil
}
