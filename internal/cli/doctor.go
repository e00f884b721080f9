package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/db"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and storage",
		Long: `Run diagnostics to check if pgrid is properly configured.

This command checks:
  - The config file
  - The view state storage backend
  - Database connectivity, when storage.url is set
  - Terminal and clipboard support`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, styles.Boldf("pgrid doctor"))
	fmt.Fprintln(out)

	allOK := true

	fmt.Fprint(out, "Checking config file... ")
	path := config.Path()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(out, styles.Mute("NOT FOUND")+styles.Mutef(" (using defaults, %s)", path))
	} else {
		// Pre-run already refused an invalid file.
		fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (%s)", path))
	}

	fmt.Fprint(out, "Checking view state storage... ")
	switch cfg.Storage.Backend {
	case "none":
		fmt.Fprintln(out, styles.Mute("DISABLED"))
	case "file":
		if err := checkWritable(cfg.StateDir()); err != nil {
			fmt.Fprintln(out, styles.Errorf("FAILED"))
			fmt.Fprintln(out, styles.Indent("Error: "+err.Error(), 2))
			allOK = false
		} else {
			fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (file, %s)", cfg.StateDir()))
		}
	case "postgres":
		if cfg.Storage.URL == "" {
			fmt.Fprintln(out, styles.Errorf("NO URL"))
			fmt.Fprintln(out, styles.Indent(styles.InfoMsg("Set storage.url or PGRID_STORAGE_URL"), 2))
			allOK = false
		} else {
			fmt.Fprintln(out, styles.Successf("OK")+" (postgres)")
		}
	}

	if cfg.Storage.URL != "" {
		fmt.Fprint(out, "Checking database connection... ")
		if err := pingDatabase(cmd.Context(), cfg.Storage.URL); err != nil {
			fmt.Fprintln(out, styles.Errorf("FAILED"))
			fmt.Fprintln(out, styles.Indent(util.RedactURL(cfg.Storage.URL)+"\nError: "+err.Error(), 2))
			allOK = false
		} else {
			fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (%s)", util.RedactURL(cfg.Storage.URL)))
		}
	}

	fmt.Fprint(out, "Checking terminal... ")
	if isTerminal(out) {
		mode := "color"
		if styles.NoColor() {
			mode = "no color"
		}
		if styles.IsAccessible() {
			mode += ", accessible"
		}
		fmt.Fprintln(out, styles.Successf("OK")+fmt.Sprintf(" (%s)", mode))
	} else {
		fmt.Fprintln(out, styles.Mute("NOT A TTY")+styles.Mute(" (view prints plain tables)"))
	}

	fmt.Fprint(out, "Checking clipboard... ")
	if clipboard.Unsupported {
		fmt.Fprintln(out, styles.Warningf("UNAVAILABLE"))
		fmt.Fprintln(out, styles.Indent(styles.InfoMsg("Install xclip, xsel or wl-clipboard to yank cells"), 2))
	} else {
		fmt.Fprintln(out, styles.Successf("OK"))
	}

	fmt.Fprintln(out)
	if allOK {
		fmt.Fprintln(out, styles.Successf("All checks passed!"))
		return nil
	}
	fmt.Fprintln(out, styles.WarningMsg("Some checks failed. See above for details."))
	fmt.Fprintln(out)
	fmt.Fprintln(out, styles.SectionHeader("Next steps"))
	fmt.Fprintln(out, styles.HelpLine("pgrid config list", "show the effective configuration"))
	fmt.Fprintln(out, styles.HelpLine("pgrid config set storage.backend none", "run without stored view state"))
	return fmt.Errorf("doctor found problems")
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func pingDatabase(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := db.ConnectLite(ctx, url)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.Ping(ctx)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
