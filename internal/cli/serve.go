package cli

import (
	"fmt"
	"time"

	"github.com/imgajeed76/pgrid/internal/metrics"
	"github.com/imgajeed76/pgrid/internal/server"
	"github.com/imgajeed76/pgrid/internal/ui/styles"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [source]",
		Short: "Serve the grid over HTTP",
		Long: `Serve a grid over HTTP. Each client gets its own grid session, named by
the X-Grid-Session response header; send it back to keep working in the
same session. Sessions share the stored view state of the grid key.

Endpoints:
  GET  /v1/grid                     current page, headers, pagination
  POST /v1/grid/actions             {"type":"toggleSort","columnId":"amount"}
  GET  /v1/grid/facets/{column}     unique values with counts
  GET  /v1/grid/export.{format}     xlsx, pdf, plain, json, tsv
  GET  /v1/health
  GET  /metrics                     Prometheus metrics`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}

	addSourceFlags(cmd)
	addStateFlags(cmd)
	cmd.Flags().String("addr", "", "Listen address (default: server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	t, conn, err := loadSource(cmd, args)
	if err != nil {
		return err
	}
	if conn != nil {
		defer conn.Close()
	}

	store, err := openStorage(ctx, conn)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := server.Options{
		Table:       t,
		Grid:        gridOptions(cmd, t, store),
		SessionTTL:  time.Duration(cfg.Server.SessionTTL) * time.Minute,
		MaxSessions: cfg.Server.MaxSessions,
		Logger:      log,
	}

	pools := make(map[string]*pgxpool.Pool)
	if conn != nil {
		pools["source"] = conn.Pool()
		opts.Database = conn
	}
	if store.conn != nil && store.owned {
		pools["state"] = store.conn.Pool()
		opts.Database = store.conn
	}
	if len(pools) > 0 {
		collector := metrics.NewPoolCollector(pools)
		if err := prometheus.Register(collector); err == nil {
			defer prometheus.Unregister(collector)
		}
	}

	srv, err := server.New(ctx, opts)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s on %s\n",
		styles.SuccessMsg(fmt.Sprintf("Serving %d rows", len(t.Records))),
		styles.Mute("("+t.Name+")"),
		styles.Cyan(addr))

	return srv.ListenAndServe(ctx, addr)
}
