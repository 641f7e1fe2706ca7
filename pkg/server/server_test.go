package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/canopy/pkg/hierarchy"
	"github.com/vanderheijden86/canopy/pkg/model"
	"github.com/vanderheijden86/canopy/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctrl := hierarchy.New(nil, hierarchy.WithStore(mem), hierarchy.WithDuration(0))
	return New(ctrl, WithLogger(nil)), mem
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeLayout(t *testing.T, rec *httptest.ResponseRecorder) layoutResponse {
	t.Helper()
	var resp struct {
		Nodes []struct {
			ID       string `json:"id"`
			State    string `json:"state"`
			Entering bool   `json:"entering"`
		} `json:"nodes"`
		Links []hierarchy.LinkEdge `json:"links"`
		Error string               `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode layout: %v\n%s", err, rec.Body.String())
	}
	out := layoutResponse{Links: resp.Links, Error: resp.Error}
	for _, n := range resp.Nodes {
		ln := hierarchy.LayoutNode{ID: n.ID, Entering: n.Entering}
		switch n.State {
		case "collapsed":
			ln.State = model.StateCollapsed
		case "expanded":
			ln.State = model.StateExpanded
		}
		out.Nodes = append(out.Nodes, ln)
	}
	return out
}

func TestSaveData(t *testing.T) {
	s, mem := newTestServer(t)

	body := `{"name":"Root","children":[{"name":"A","value":3}]}`
	rec := do(t, s, http.MethodPost, "/saveData", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != msgSaved {
		t.Errorf("body = %q", rec.Body.String())
	}
	if mem.Saves() != 1 {
		t.Errorf("saves = %d, want 1", mem.Saves())
	}
	stored, err := mem.Load(context.Background())
	if err != nil || stored == nil {
		t.Fatalf("stored tree missing: %v", err)
	}
	if stored.Name != "Root" || len(stored.Children) != 1 {
		t.Errorf("stored tree = %+v", stored)
	}
	if stored.ID == "" || stored.Children[0].ID == "" {
		t.Error("ids should be assigned on save")
	}
}

func TestSaveDataRejectsGarbage(t *testing.T) {
	s, mem := newTestServer(t)

	for _, body := range []string{"", "not json", `{"name":""}`} {
		rec := do(t, s, http.MethodPost, "/saveData", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), msgSaveError) {
			t.Errorf("body %q: response %q", body, rec.Body.String())
		}
	}
	if mem.Saves() != 0 {
		t.Errorf("rejected bodies should not save, saves = %d", mem.Saves())
	}
}

func TestSaveDataStoreFailure(t *testing.T) {
	s, mem := newTestServer(t)
	mem.FailSaves(errors.New("disk full"))

	rec := do(t, s, http.MethodPost, "/saveData", `{"name":"Root"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgSaveError) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestSaveDataBodyLimit(t *testing.T) {
	mem := store.NewMemory()
	s := New(hierarchy.New(nil, hierarchy.WithStore(mem), hierarchy.WithDuration(0)),
		WithLogger(nil), WithMaxBody(16))

	rec := do(t, s, http.MethodPost, "/saveData", `{"name":"a long enough root name"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGetTree(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/tree", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	root, err := model.Unmarshal(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got := model.CountAll(root); got != 7 {
		t.Errorf("CountAll = %d, want 7", got)
	}
}

func TestLayoutAndToggle(t *testing.T) {
	s, mem := newTestServer(t)

	resp := decodeLayout(t, do(t, s, http.MethodGet, "/api/layout", ""))
	if len(resp.Nodes) != 7 || len(resp.Links) != 6 {
		t.Fatalf("layout = %d nodes, %d links", len(resp.Nodes), len(resp.Links))
	}

	rec := do(t, s, http.MethodPost, "/api/nodes/node-3/toggle", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d: %s", rec.Code, rec.Body.String())
	}
	resp = decodeLayout(t, rec)
	if len(resp.Nodes) != 4 {
		t.Errorf("after collapse: %d nodes, want 4", len(resp.Nodes))
	}
	for _, n := range resp.Nodes {
		if n.ID == "node-3" && n.State != model.StateCollapsed {
			t.Errorf("node-3 state = %v", n.State)
		}
	}
	if mem.Saves() != 1 {
		t.Errorf("saves = %d", mem.Saves())
	}

	resp = decodeLayout(t, do(t, s, http.MethodPost, "/api/nodes/node-3/toggle", ""))
	entering := 0
	for _, n := range resp.Nodes {
		if n.Entering {
			entering++
		}
	}
	if len(resp.Nodes) != 7 || entering != 3 {
		t.Errorf("after expand: %d nodes, %d entering", len(resp.Nodes), entering)
	}
}

func TestToggleUnknown(t *testing.T) {
	s, mem := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/nodes/node-99/toggle", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	if mem.Saves() != 0 {
		t.Errorf("saves = %d", mem.Saves())
	}
}

func TestToggleStoreFailureKeepsChange(t *testing.T) {
	s, mem := newTestServer(t)
	mem.FailSaves(errors.New("read-only"))

	rec := do(t, s, http.MethodPost, "/api/nodes/node-3/toggle", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeLayout(t, rec)
	if resp.Error == "" {
		t.Error("expected error message in body")
	}
	if len(resp.Nodes) != 4 {
		t.Errorf("collapse should still apply, got %d nodes", len(resp.Nodes))
	}
}

func TestInsertChild(t *testing.T) {
	s, mem := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/nodes/node-7/children", `{"name":"  Token Ring "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got insertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != "node-8" || got.Name != "Token Ring" {
		t.Errorf("inserted = %+v", got)
	}
	if mem.Saves() != 1 {
		t.Errorf("saves = %d", mem.Saves())
	}
}

func TestInsertChildErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"blank name", "/api/nodes/node-1/children", `{"name":"   "}`, http.StatusBadRequest},
		{"unknown parent", "/api/nodes/nope/children", `{"name":"x"}`, http.StatusNotFound},
		{"bad body", "/api/nodes/node-1/children", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mem := newTestServer(t)
			rec := do(t, s, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if mem.Saves() != 0 {
				t.Errorf("saves = %d", mem.Saves())
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/saveData", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("healthz = %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
