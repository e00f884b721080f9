package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/imgajeed76/pgrid/internal/db"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/persist"
	"github.com/imgajeed76/pgrid/internal/source"
	"github.com/imgajeed76/pgrid/internal/ui"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/spf13/cobra"
)

// addSourceFlags registers the flags that pick where rows come from.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("sql", "", "Load rows from a PostgreSQL query instead of a file")
	cmd.Flags().String("db", "", "PostgreSQL URL for --sql (default: storage.url)")
}

// addStateFlags registers the flags naming the grid and its stored state.
func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "Storage key for the view state (default: source name)")
	cmd.Flags().Bool("no-state", false, "Do not load or save view state")
	cmd.Flags().String("title", "", "Grid title (default: source name)")
}

// addGridFlags registers the flags that adjust the grid before it is shown.
// They are applied as user actions, so a keyed grid remembers them.
func addGridFlags(cmd *cobra.Command) {
	addStateFlags(cmd)
	cmd.Flags().StringSlice("sort", nil, "Sort by column, e.g. --sort amount:desc,name")
	cmd.Flags().StringArray("filter", nil, "Column filter, e.g. --filter status=draft")
	cmd.Flags().String("search", "", "Quick filter across all columns")
	cmd.Flags().StringSlice("hide", nil, "Hide columns")
	cmd.Flags().Int("page-size", 0, "Rows per page")
	cmd.Flags().Int("page", 0, "Page to open (1-based)")
}

// loadSource reads the table named by args or --sql. The returned
// connection is non-nil for SQL sources and must be closed by the caller.
func loadSource(cmd *cobra.Command, args []string) (*source.Table, *db.DB, error) {
	ctx := cmd.Context()

	query, _ := cmd.Flags().GetString("sql")
	if query == "" {
		if len(args) == 0 {
			return nil, nil, util.MissingArgumentError("source", "pgrid "+cmd.Name()+" data.csv")
		}
		t, err := source.Load(args[0], cmd.InOrStdin())
		if err != nil {
			return nil, nil, util.SourceError(args[0], err)
		}
		log.Debug().Str("source", args[0]).Int("rows", len(t.Records)).Int("columns", len(t.Fields)).Msg("loaded")
		return t, nil, nil
	}

	url, _ := cmd.Flags().GetString("db")
	if url == "" {
		url = cfg.Storage.URL
	}
	if url == "" {
		return nil, nil, util.NoDatabaseError()
	}

	spinner := ui.NewSpinner("Running query")
	spinner.Start()

	conn, err := db.Connect(ctx, url)
	if err != nil {
		spinner.Error("Connection failed")
		return nil, nil, util.DatabaseConnectionError(url, err)
	}

	t, err := source.Query(ctx, conn, query)
	if err != nil {
		spinner.Error("Query failed")
		conn.Close()
		return nil, nil, util.NewError("Query failed").WithContext(query).Wrap(err)
	}
	spinner.Success(fmt.Sprintf("%d rows", len(t.Records)))
	return t, conn, nil
}

// storage is the opened view-state backend.
type storage struct {
	adapter *persist.Adapter
	conn    *db.DB // set for the postgres backend
	owned   bool
}

func (s *storage) Close() {
	if s.owned && s.conn != nil {
		s.conn.Close()
	}
}

// openStorage opens the configured backend. shared, when it points at the
// same database, is reused instead of opening a second pool.
func openStorage(ctx context.Context, shared *db.DB) (*storage, error) {
	switch cfg.Storage.Backend {
	case "none":
		return &storage{}, nil

	case "postgres":
		url := cfg.Storage.URL
		if url == "" {
			return nil, util.NoDatabaseError()
		}
		s := &storage{conn: shared}
		if shared == nil || shared.URL() != url {
			conn, err := db.Connect(ctx, url)
			if err != nil {
				return nil, util.DatabaseConnectionError(url, err)
			}
			s.conn, s.owned = conn, true
		}
		backend, err := persist.NewPostgresBackend(ctx, s.conn)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.adapter = persist.NewAdapter(backend, log)
		return s, nil

	default:
		return &storage{adapter: persist.NewAdapter(persist.NewFileBackend(cfg.StateDir()), log)}, nil
	}
}

// gridOptions builds the grid options for t from config and flags.
func gridOptions(cmd *cobra.Command, t *source.Table, store *storage) grid.Options[source.Record] {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = t.Name
	}
	if noState, _ := cmd.Flags().GetBool("no-state"); noState {
		key = ""
	}
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = t.Name
	}

	opts := grid.Options[source.Record]{
		Columns: t.Columns(),
		Rows:    t.Records,
		Title:   title,
		Pagination: grid.PaginationOptions{
			PageSize:        cfg.Grid.PageSize,
			PageSizeOptions: cfg.Grid.PageSizeOptions,
		},
		Export:     grid.DefaultExportOptions(),
		StorageKey: key,
		Logger:     &log,
	}
	opts.Export.Enabled = cfg.Export.Enabled
	opts.Export.PDF = cfg.Export.PDF
	opts.Export.Excel = cfg.Export.Excel
	if cfg.Export.FileName != "" {
		opts.Export.FileName = cfg.Export.FileName
	}
	if store != nil {
		opts.Persistence = store.adapter
	}
	return opts
}

// applyGridFlags dispatches the adjustments given on the command line.
func applyGridFlags[T any](cmd *cobra.Command, g *grid.Grid[T]) error {
	known := func(id string) error {
		if _, ok := g.Column(id); ok {
			return nil
		}
		ids := make([]string, 0, len(g.Columns()))
		for _, c := range g.Columns() {
			ids = append(ids, c.ID())
		}
		return util.NewError(fmt.Sprintf("Unknown column '%s'", id)).
			WithMessage("Columns: " + strings.Join(ids, ", "))
	}

	if sorts, _ := cmd.Flags().GetStringSlice("sort"); len(sorts) > 0 {
		keys := make([]viewstate.SortKey, 0, len(sorts))
		for _, s := range sorts {
			id, dir, _ := strings.Cut(s, ":")
			if err := known(id); err != nil {
				return err
			}
			keys = append(keys, viewstate.SortKey{ColumnID: id, Desc: strings.EqualFold(dir, "desc")})
		}
		g.Dispatch(viewstate.SetSorting{Sorting: keys})
	}

	filters, _ := cmd.Flags().GetStringArray("filter")
	for _, f := range filters {
		id, value, ok := strings.Cut(f, "=")
		if !ok {
			return util.NewError("Invalid filter").
				WithContext(f).
				WithSuggestions("--filter status=draft")
		}
		if err := known(id); err != nil {
			return err
		}
		if value == "" {
			g.Dispatch(viewstate.ClearColumnFilter{ColumnID: id})
		} else {
			g.Dispatch(viewstate.SetColumnFilter{ColumnID: id, Value: value})
		}
	}

	if cmd.Flags().Changed("search") {
		search, _ := cmd.Flags().GetString("search")
		g.Dispatch(viewstate.SetGlobalFilter{Value: search})
	}

	hide, _ := cmd.Flags().GetStringSlice("hide")
	for _, id := range hide {
		if err := known(id); err != nil {
			return err
		}
		g.Dispatch(viewstate.SetColumnVisibility{ColumnID: id})
	}

	if size, _ := cmd.Flags().GetInt("page-size"); size > 0 {
		g.Dispatch(viewstate.SetPageSize{Size: size})
	}
	if page, _ := cmd.Flags().GetInt("page"); page > 0 {
		g.Dispatch(viewstate.SetPage{Index: page - 1})
	}
	return nil
}

// openGrid loads the source, opens storage and builds the grid. The
// returned cleanup closes every connection that was opened.
func openGrid(cmd *cobra.Command, args []string) (*grid.Grid[source.Record], func(), error) {
	t, conn, err := loadSource(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	store, err := openStorage(cmd.Context(), conn)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, nil, err
	}
	cleanup := func() {
		store.Close()
		if conn != nil {
			conn.Close()
		}
	}

	g, err := grid.New(cmd.Context(), gridOptions(cmd, t, store))
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := applyGridFlags(cmd, g); err != nil {
		cleanup()
		return nil, nil, err
	}
	return g, cleanup, nil
}
