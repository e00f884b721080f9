package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/persist"
	"github.com/imgajeed76/pgrid/internal/source"
	"github.com/imgajeed76/pgrid/internal/viewstate"
	"github.com/rs/zerolog"
)

const ordersCSV = `customer,status,amount
Smith & Co,draft,10
Jones,draft,20
Blacksmith Ltd,approved,20
JOHN SMITH,Draft,5
Acme,paid,30
`

func testServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	tbl, err := source.ReadCSV("orders", strings.NewReader(ordersCSV), ',')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	opts := Options{
		Table:  tbl,
		Grid:   grid.Options[source.Record]{Pagination: grid.PaginationOptions{PageSize: 2}},
		Logger: zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, method, path, session, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) viewResponse {
	t.Helper()
	var v viewResponse
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func customers(v viewResponse) []string {
	var out []string
	for _, r := range v.Rows {
		out = append(out, r.Cells[0])
	}
	return out
}

func TestGetGrid_CreatesSession(t *testing.T) {
	h := testServer(t, nil).Handler()

	w := do(t, h, http.MethodGet, "/v1/grid", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", w.Code)
	}
	id := w.Header().Get(SessionHeader)
	if id == "" {
		t.Fatal("session header not set")
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}

	v := decodeView(t, w)
	if v.Session != id {
		t.Errorf("session: got %q, want %q", v.Session, id)
	}
	if v.Title != "orders" || v.State != "populated" {
		t.Errorf("title=%q state=%q", v.Title, v.State)
	}
	if got := customers(v); strings.Join(got, "|") != "Smith & Co|Jones" {
		t.Errorf("rows: got %v", got)
	}
	if v.Pagination.PageCount != 3 || v.Pagination.Total != 5 {
		t.Errorf("pagination: %+v", v.Pagination)
	}
	if len(v.Headers) != 3 || v.Headers[2].Icon != "↕" {
		t.Errorf("headers: %+v", v.Headers)
	}
}

func TestPostAction_SessionKeepsState(t *testing.T) {
	h := testServer(t, nil).Handler()

	first := do(t, h, http.MethodGet, "/v1/grid", "", "")
	id := first.Header().Get(SessionHeader)

	w := do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"toggleSort","columnId":"amount"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", w.Code, w.Body)
	}
	if w.Header().Get("X-Grid-Changed") != "true" {
		t.Error("expected X-Grid-Changed")
	}
	v := decodeView(t, w)
	if got := customers(v); strings.Join(got, "|") != "JOHN SMITH|Smith & Co" {
		t.Errorf("sorted rows: got %v", got)
	}
	if v.Headers[2].Sort != "asc" {
		t.Errorf("sort: got %q", v.Headers[2].Sort)
	}

	w = do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"setPage","index":1}`)
	v = decodeView(t, w)
	if got := customers(v); strings.Join(got, "|") != "Jones|Blacksmith Ltd" {
		t.Errorf("page 2: got %v", got)
	}

	// A different session starts from scratch.
	other := decodeView(t, do(t, h, http.MethodGet, "/v1/grid", "", ""))
	if other.Session == id || len(other.View.Sorting) != 0 {
		t.Errorf("other session: %+v", other.View)
	}
}

func TestPostAction_Filters(t *testing.T) {
	h := testServer(t, nil).Handler()
	id := do(t, h, http.MethodGet, "/v1/grid", "", "").Header().Get(SessionHeader)

	do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"setColumnFilter","columnId":"status","value":"draft"}`)
	v := decodeView(t, do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"setGlobalFilter","value":"smith"}`))

	if got := customers(v); strings.Join(got, "|") != "Smith & Co|JOHN SMITH" {
		t.Errorf("filtered rows: got %v", got)
	}
	if !v.Headers[1].Filtered {
		t.Error("status header should be marked filtered")
	}
}

func TestPostAction_BadRequests(t *testing.T) {
	h := testServer(t, nil).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing type", `{}`},
		{"unknown type", `{"type":"explode"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/grid/actions", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400", w.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil || resp.Error == "" {
				t.Errorf("error body: %v %+v", err, resp)
			}
		})
	}
}

func TestPostAction_ExtremePageValues(t *testing.T) {
	adapter := persist.NewAdapter(persist.NewMemoryBackend(), zerolog.Nop())
	h := testServer(t, func(o *Options) {
		o.Grid.StorageKey = "orders"
		o.Grid.Persistence = adapter
	}).Handler()
	id := do(t, h, http.MethodGet, "/v1/grid", "", "").Header().Get(SessionHeader)

	w := do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"setPageSize","size":9223372036854775807}`)
	if w.Code != http.StatusOK {
		t.Fatalf("setPageSize: got %d: %s", w.Code, w.Body)
	}
	v := decodeView(t, w)
	if v.Pagination.PageSize != viewstate.MaxPageSize || v.Pagination.PageCount != 1 || len(v.Rows) != 5 {
		t.Errorf("pagination: %+v rows=%d", v.Pagination, len(v.Rows))
	}

	w = do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"setPage","index":9223372036854775807}`)
	if w.Code != http.StatusOK {
		t.Fatalf("setPage: got %d: %s", w.Code, w.Body)
	}
	if v := decodeView(t, w); v.Pagination.Page != 1 || v.View.PageIndex != 0 {
		t.Errorf("page: %+v view=%+v", v.Pagination, v.View)
	}

	// A fresh session restores the bounded size.
	v = decodeView(t, do(t, h, http.MethodGet, "/v1/grid", "", ""))
	if v.Session == id || v.Pagination.PageSize != viewstate.MaxPageSize {
		t.Errorf("restored pagination: %+v", v.Pagination)
	}
}

func TestSession_PanicReleasesLock(t *testing.T) {
	var broken atomic.Bool
	h := testServer(t, func(o *Options) {
		o.Grid.RowActions = func(source.Record) grid.Cell {
			if broken.Load() {
				panic("renderer failed")
			}
			return grid.TextCell("open")
		}
	}).Handler()
	id := do(t, h, http.MethodGet, "/v1/grid", "", "").Header().Get(SessionHeader)

	broken.Store(true)
	if w := do(t, h, http.MethodGet, "/v1/grid", id, ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	broken.Store(false)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/v1/grid", nil)
		req.Header.Set(SessionHeader, id)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		done <- w
	}()
	select {
	case w := <-done:
		if w.Code != http.StatusOK || w.Header().Get(SessionHeader) != id {
			t.Errorf("status=%d session=%q", w.Code, w.Header().Get(SessionHeader))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("session still locked after a panic")
	}
}

func TestGetFacets(t *testing.T) {
	h := testServer(t, nil).Handler()

	w := do(t, h, http.MethodGet, "/v1/grid/facets/status", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp struct {
		Column string         `json:"column"`
		Values map[string]int `json:"values"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Values["draft"] != 2 || resp.Values["Draft"] != 1 || resp.Values["paid"] != 1 {
		t.Errorf("facets: %v", resp.Values)
	}

	w = do(t, h, http.MethodGet, "/v1/grid/facets/nope", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown column: got %d, want 404", w.Code)
	}
}

func TestGetExport(t *testing.T) {
	s := testServer(t, func(o *Options) {
		o.Grid.Export = grid.ExportOptions{Enabled: true, Excel: true, FileName: "orders"}
	})
	h := s.Handler()

	w := do(t, h, http.MethodGet, "/v1/grid/export.json", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("json: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="orders.json"`) {
		t.Errorf("disposition: %q", cd)
	}
	var rows []map[string]string
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// All filtered rows, not just the two on the page.
	if len(rows) != 5 || rows[4]["customer"] != "Acme" {
		t.Errorf("rows: %v", rows)
	}

	w = do(t, h, http.MethodGet, "/v1/grid/export.xlsx", "", "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Errorf("xlsx: got %d, %d bytes", w.Code, w.Body.Len())
	}

	w = do(t, h, http.MethodGet, "/v1/grid/export.pdf", "", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("pdf disabled: got %d, want 403", w.Code)
	}

	w = do(t, h, http.MethodGet, "/v1/grid/export.doc", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown format: got %d, want 404", w.Code)
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	h := testServer(t, nil).Handler()
	w := do(t, h, http.MethodGet, "/v1/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp healthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "ok" || resp.Rows != 5 {
		t.Errorf("health: %+v", resp)
	}

	h = testServer(t, func(o *Options) { o.Database = fakePinger{err: errors.New("refused")} }).Handler()
	w = do(t, h, http.MethodGet, "/v1/health", "", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("down: got %d, want 503", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testServer(t, nil).Handler()
	do(t, h, http.MethodGet, "/v1/grid", "", "")

	w := do(t, h, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pgrid_http_requests_total") {
		t.Error("request counter missing from /metrics")
	}
}

func TestSessions_ShareSavedView(t *testing.T) {
	adapter := persist.NewAdapter(persist.NewMemoryBackend(), zerolog.Nop())
	h := testServer(t, func(o *Options) {
		o.Grid.StorageKey = "orders"
		o.Grid.Persistence = adapter
	}).Handler()

	id := do(t, h, http.MethodGet, "/v1/grid", "", "").Header().Get(SessionHeader)
	do(t, h, http.MethodPost, "/v1/grid/actions", id, `{"type":"toggleSort","columnId":"customer"}`)

	v := decodeView(t, do(t, h, http.MethodGet, "/v1/grid", "", ""))
	if v.Session == id {
		t.Fatal("expected a new session")
	}
	if len(v.View.Sorting) != 1 || v.View.Sorting[0].ColumnID != "customer" {
		t.Errorf("restored sorting: %+v", v.View.Sorting)
	}
}

func TestSessionTable_Expires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := newSessionTable(time.Minute, 0)
	tbl.now = func() time.Time { return now }

	tbl.put(&session{id: "a"})
	if tbl.get("a") == nil {
		t.Fatal("fresh session missing")
	}

	now = now.Add(30 * time.Second)
	tbl.put(&session{id: "b"})
	now = now.Add(45 * time.Second)

	if tbl.get("a") != nil {
		t.Error("idle session should have expired")
	}
	if tbl.get("b") == nil {
		t.Error("recent session expired early")
	}
	if tbl.len() != 1 {
		t.Errorf("len: got %d, want 1", tbl.len())
	}
}

func TestSessionTable_EvictsOldestWhenFull(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl := newSessionTable(time.Hour, 2)
	tbl.now = func() time.Time { return now }

	tbl.put(&session{id: "a"})
	now = now.Add(time.Second)
	tbl.put(&session{id: "b"})
	now = now.Add(time.Second)
	tbl.get("a")
	now = now.Add(time.Second)

	if evicted := tbl.put(&session{id: "c"}); evicted != "b" {
		t.Errorf("evicted %q, want the least recently seen b", evicted)
	}
	if tbl.len() != 2 || tbl.get("a") == nil || tbl.get("c") == nil {
		t.Errorf("len=%d, want a and c kept", tbl.len())
	}
}

func TestServer_CapsSessions(t *testing.T) {
	s := testServer(t, func(o *Options) { o.MaxSessions = 3 })
	h := s.Handler()
	for i := 0; i < 10; i++ {
		do(t, h, http.MethodGet, "/v1/grid", "", "")
	}
	if got := s.sessions.len(); got != 3 {
		t.Errorf("sessions: got %d, want 3", got)
	}
}

func TestNew_RequiresTable(t *testing.T) {
	if _, err := New(context.Background(), Options{}); err == nil {
		t.Fatal("expected an error without a table")
	}
}
