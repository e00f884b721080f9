package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// Set by the root command's pre-run for every subcommand.
var (
	cfg *config.Config
	log = zerolog.Nop()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgrid",
		Short: "Sort, filter, page and export tabular data",
		Long: `pgrid shows CSV files, JSON arrays and PostgreSQL query results in an
interactive data grid with sorting, per-column filters, a quick filter,
column visibility and resizing, and pagination.

The same grid can be exported to XLSX, PDF, JSON, TSV or plain text,
or served over HTTP. View adjustments (sort, filters, page size, hidden
columns and widths) are remembered per grid in the configured storage.

For more information, see: https://github.com/imgajeed76/pgrid`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")

	root.SetVersionTemplate(fmt.Sprintf("pgrid version %s\n  commit: %s\n  built:  %s\n", Version, CommitSHA, BuildDate))

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		noColor, _ := cmd.Flags().GetBool("no-color")
		if noColor {
			styles.SetNoColor(true)
		}

		c, err := config.Load()
		if err != nil {
			return util.NewError("Invalid configuration").
				WithContext(config.Path()).
				WithSuggestions(
					"pgrid config list           # Show current values",
					"pgrid config set <key> <value>",
				).
				Wrap(err)
		}
		cfg = c

		verbose, _ := cmd.Flags().GetBool("verbose")
		log = newLogger(cmd.ErrOrStderr(), cfg.Log.Level, verbose)
		return nil
	}

	root.AddCommand(
		newVersionCmd(),
		newViewCmd(),
		newExportCmd(),
		newServeCmd(),
		newStateCmd(),
		newConfigCmd(),
		newDoctorCmd(),
		newCompletionCmd(),
	)
	return root
}

// newLogger builds the console logger used by every command. --verbose
// forces debug level.
func newLogger(w io.Writer, level string, verbose bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, NoColor: styles.NoColor(), TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// Check if it's a structured GridError
		var gridErr *util.GridError
		if errors.As(err, &gridErr) {
			fmt.Fprintln(os.Stderr, gridErr.Format())
		} else {
			fmt.Fprintln(os.Stderr, styles.ErrorMsg(err.Error()))
		}
		return err
	}
	return nil
}

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pgrid.

To load completions:

Bash:
  $ source <(pgrid completion bash)

Zsh:
  $ pgrid completion zsh > "${fpath[1]}/_pgrid"

Fish:
  $ pgrid completion fish | source

PowerShell:
  PS> pgrid completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(out)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pgrid version %s\n", Version)
			fmt.Fprintf(out, "  commit: %s\n", CommitSHA)
			fmt.Fprintf(out, "  built:  %s\n", BuildDate)
		},
	}
}
