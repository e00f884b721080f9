package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/imgajeed76/pgrid/internal/export"
	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/metrics"
	"github.com/imgajeed76/pgrid/internal/viewstate"
)

// maxActionBody bounds POST /v1/grid/actions.
const maxActionBody = 64 << 10

type headerJSON struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Sortable   bool   `json:"sortable"`
	Sort       string `json:"sort,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Filterable bool   `json:"filterable"`
	Filtered   bool   `json:"filtered"`
	Resizable  bool   `json:"resizable"`
	Width      int    `json:"width"`
}

type rowJSON struct {
	ID    string   `json:"id"`
	Index int      `json:"index"`
	Cells []string `json:"cells"`
}

type paginationJSON struct {
	Page            int   `json:"page"`
	PageCount       int   `json:"pageCount"`
	PageSize        int   `json:"pageSize"`
	PageSizeOptions []int `json:"pageSizeOptions"`
	Total           int   `json:"total"`
	From            int   `json:"from"`
	To              int   `json:"to"`
}

type viewResponse struct {
	Session    string              `json:"session"`
	Title      string              `json:"title,omitempty"`
	State      string              `json:"state"`
	Message    string              `json:"message,omitempty"`
	Headers    []headerJSON        `json:"headers"`
	Rows       []rowJSON           `json:"rows"`
	Footer     []string            `json:"footer,omitempty"`
	Pagination paginationJSON      `json:"pagination"`
	View       viewstate.Persisted `json:"view"`
	Columns    []grid.ColumnToggle `json:"columns"`
}

// view renders the session's grid. Callers hold sess.mu via locked.
func view(sess *session) viewResponse {
	g := sess.grid
	tv := g.Table(-1)
	pv := g.Pagination()

	resp := viewResponse{
		Session: sess.id,
		Title:   tv.Title,
		State:   tv.State.String(),
		Message: tv.Message,
		Headers: make([]headerJSON, len(tv.Headers)),
		Rows:    make([]rowJSON, len(tv.Rows)),
		Pagination: paginationJSON{
			Page:            pv.Page,
			PageCount:       pv.PageCount,
			PageSize:        pv.PageSize,
			PageSizeOptions: pv.PageSizeOptions,
			Total:           pv.Total,
			From:            pv.From,
			To:              pv.To,
		},
		View:    g.State().Persisted(),
		Columns: g.VisibilityMenu(),
	}
	for i, h := range tv.Headers {
		hj := headerJSON{
			ID:         h.ID,
			Label:      h.Label,
			Sortable:   h.Sortable,
			Icon:       h.Icon(),
			Filterable: h.Filterable,
			Filtered:   h.Filtered,
			Resizable:  h.Resizable,
			Width:      h.Width,
		}
		if h.Sorted {
			hj.Sort = "asc"
			if h.Desc {
				hj.Sort = "desc"
			}
		}
		resp.Headers[i] = hj
	}
	for i, row := range tv.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.Text
		}
		resp.Rows[i] = rowJSON{ID: row.ID, Index: row.Index, Cells: cells}
	}
	if tv.Footer != nil {
		resp.Footer = make([]string, len(tv.Footer))
		for i, c := range tv.Footer {
			resp.Footer[i] = c.Text
		}
	}
	return resp
}

func (s *Server) getGrid(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var resp viewResponse
	sess.locked(func() { resp = view(sess) })

	s.writeJSON(w, http.StatusOK, resp)
}

// postAction applies one action envelope and returns the new view.
func (s *Server) postAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBody))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action, err := viewstate.DecodeAction(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var (
		changed bool
		resp    viewResponse
	)
	sess.locked(func() {
		changed = sess.grid.Dispatch(action)
		resp = view(sess)
	})

	if changed {
		w.Header().Set("X-Grid-Changed", "true")
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getFacets(w http.ResponseWriter, r *http.Request) {
	column := chi.URLParam(r, "column")

	sess, err := s.session(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var (
		counts map[string]int
		ok     bool
	)
	sess.locked(func() { counts, ok = sess.grid.Faceted(column) })

	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown or non-filterable column")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"column": column, "values": counts})
}

// getExport takes the snapshot under the session lock and renders the
// document outside it.
func (s *Server) getExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}

	sess, err := s.session(w, r)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	mode := grid.ExportFiltered
	if r.URL.Query().Get("rows") == "all" {
		mode = grid.ExportAll
	}

	var (
		allowed bool
		snap    export.Snapshot
		name    string
	)
	sess.locked(func() {
		allowed = sess.grid.CanExport(format)
		snap = sess.grid.Snapshot(mode)
		name = sess.grid.FileName(format)
	})

	if !allowed {
		s.writeError(w, http.StatusForbidden, string(format)+": "+grid.ErrExportDisabled.Error())
		return
	}

	var buf bytes.Buffer
	err = export.Write(&buf, format, snap)
	metrics.ObserveExport(string(format), err)
	if err != nil {
		s.log.Error().Err(err).Str("format", string(format)).Msg("export failed")
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log.Warn().Err(err).Msg("export write interrupted")
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Sessions  int    `json:"sessions"`
	Rows      int    `json:"rows"`
	Database  string `json:"database,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Sessions: s.sessions.len(),
		Rows:     len(s.opts.Table.Records),
	}
	if s.opts.Database == nil {
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := s.opts.Database.Ping(ctx)
	resp.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		resp.Status = "unavailable"
		resp.Database = err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			resp.Database = "timeout"
		}
		s.log.Warn().Err(err).Msg("health check failed")
		s.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Database = "ok"
	s.writeJSON(w, http.StatusOK, resp)
}
