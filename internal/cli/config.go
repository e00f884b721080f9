package cli

import (
	"errors"
	"fmt"

	"github.com/imgajeed76/pgrid/internal/config"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set options",
		Long: `Get and set pgrid options in ` + "`pgrid config path`" + `.

Options:
` + config.GenerateHelpText() + `

Examples:
  pgrid config get grid.page_size
  pgrid config set grid.page_size_options 10,25,50
  pgrid config set storage.backend postgres
  pgrid config list`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one option",
			Args:  cobra.ExactArgs(1),
			RunE:  runConfigGet,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one option",
			Args:  cobra.ExactArgs(2),
			RunE:  runConfigSet,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all options",
			Args:  cobra.NoArgs,
			RunE:  runConfigList,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), config.Path())
			},
		},
	)
	return cmd
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	value, ok := cfg.GetValue(args[0])
	if !ok {
		return util.UnknownConfigKeyError(args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	// Edit the file as written; cfg carries environment overrides that
	// must not be saved.
	fileCfg, err := config.LoadFile(config.Path())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := fileCfg.SetValue(args[0], args[1]); err != nil {
		if errors.Is(err, util.ErrUnknownConfigKey) {
			return util.UnknownConfigKeyError(args[0])
		}
		return err
	}

	if err := fileCfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	value, _ := fileCfg.GetValue(args[0])
	if f, ok := config.Lookup(args[0]); ok && f.Secret {
		value = util.RedactURL(value)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), styles.SuccessMsg(fmt.Sprintf("%s = %s", args[0], value)))
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for _, f := range config.Fields() {
		value, _ := cfg.GetValue(f.Key)
		if f.Secret {
			value = util.RedactURL(value)
		}
		fmt.Fprintf(out, "%s=%s\n", f.Key, value)
	}
	return nil
}
