package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/spf13/cobra"
)

func newStateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and reset stored view state",
		Long: `Every keyed grid stores its sort order, filters, page, page size, hidden
columns and column widths in the configured storage (storage.backend).
The key defaults to the source file name without extension.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List grid keys with stored state",
			Args:  cobra.NoArgs,
			RunE:  runStateList,
		},
		&cobra.Command{
			Use:   "show <key>",
			Short: "Print the stored state of a grid as JSON",
			Args:  cobra.ExactArgs(1),
			RunE:  runStateShow,
		},
		&cobra.Command{
			Use:   "reset <key>",
			Short: "Delete the stored state of a grid",
			Args:  cobra.ExactArgs(1),
			RunE:  runStateReset,
		},
	)
	return cmd
}

// openStateStorage opens storage for the state subcommands, which are
// pointless without it.
func openStateStorage(cmd *cobra.Command) (*storage, error) {
	store, err := openStorage(cmd.Context(), nil)
	if err != nil {
		return nil, err
	}
	if store.adapter == nil {
		return nil, util.NewError("View state storage is disabled").
			WithSuggestions("pgrid config set storage.backend file").
			Wrap(util.ErrStorageDisabled)
	}
	return store, nil
}

func runStateList(cmd *cobra.Command, args []string) error {
	store, err := openStateStorage(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	grids, err := store.adapter.Grids(cmd.Context())
	if err != nil {
		return fmt.Errorf("list stored grids: %w", err)
	}
	if len(grids) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.InfoMsg("No stored view state"))
		return nil
	}
	sort.Strings(grids)
	for _, g := range grids {
		fmt.Fprintln(cmd.OutOrStdout(), g)
	}
	return nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	store, err := openStateStorage(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	p, ok := store.adapter.Load(cmd.Context(), args[0])
	if !ok {
		return util.NewError(fmt.Sprintf("No stored view state for '%s'", args[0])).
			WithSuggestions("pgrid state list")
	}

	out := struct {
		viewstate.Persisted
		ColumnSizing map[string]int `json:"columnSizing,omitempty"`
	}{p, p.ColumnSizing}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runStateReset(cmd *cobra.Command, args []string) error {
	store, err := openStateStorage(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, ok := store.adapter.Load(cmd.Context(), args[0]); !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), styles.WarningMsg(fmt.Sprintf("No stored view state for %s", args[0])))
		return nil
	}
	if err := store.adapter.Reset(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("reset %s: %w", args[0], err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), styles.SuccessMsg(fmt.Sprintf("Reset view state of %s", args[0])))
	return nil
}
