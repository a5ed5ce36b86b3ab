package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/traitdex/pkg/cache"
	"github.com/matzehuels/traitdex/pkg/docset"
	"github.com/matzehuels/traitdex/pkg/fragment"
	"github.com/matzehuels/traitdex/pkg/index"
)

// writeFragment renders a table and places it at the fragment path for
// the given trait inside the doc root.
func writeFragment(t *testing.T, root, relPath string, tbl *index.Table) {
	t.Helper()
	data, err := fragment.Render(tbl)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	path := filepath.Join(root, "implementors", filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func testSet(t *testing.T) (*docset.Set, string) {
	t.Helper()
	root := t.TempDir()

	drop := index.NewTable()
	if err := drop.Add("alloc",
		index.Record{Text: `impl Drop for <a href="s.html">String</a>`, Types: []string{"alloc::string::String"}},
	); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := drop.Add("std",
		index.Record{Text: "impl Drop for File", Types: []string{"std::fs::File"}},
		index.Record{Text: "impl Drop for TcpStream", Types: []string{"std::net::TcpStream"}},
	); err != nil {
		t.Fatalf("Add: %v", err)
	}
	writeFragment(t, root, "core/ops/drop/trait.Drop.js", drop)

	clone := index.NewTable()
	if err := clone.Add("core",
		index.Record{Text: "impl Clone for i32", Types: []string{"i32"}},
	); err != nil {
		t.Fatalf("Add: %v", err)
	}
	writeFragment(t, root, "core/clone/trait.Clone.js", clone)

	ds, err := docset.New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set, err := ds.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return set, root
}

func testServer(t *testing.T, store cache.Cache) *httptest.Server {
	t.Helper()
	set, root := testSet(t)
	h := Handler(set, root, store, time.Minute, log.New(io.Discard))
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body), resp.Header
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, cache.NewNullCache())

	status, body, _ := get(t, srv.URL+"/healthz")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	var health struct {
		Status    string `json:"status"`
		Traits    int    `json:"traits"`
		Fragments int    `json:"fragments"`
	}
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || health.Traits != 2 || health.Fragments != 2 {
		t.Errorf("health = %+v", health)
	}
}

func TestListTraits(t *testing.T) {
	srv := testServer(t, cache.NewNullCache())

	status, body, _ := get(t, srv.URL+"/api/traits")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	var traits []struct {
		Trait   string `json:"trait"`
		Crates  int    `json:"crates"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal([]byte(body), &traits); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(traits) != 2 {
		t.Fatalf("got %d traits, want 2", len(traits))
	}
	// Discovery order is lexical within the walk.
	if traits[0].Trait != "core::clone::Clone" || traits[1].Trait != "core::ops::drop::Drop" {
		t.Errorf("traits = %v", traits)
	}
	if traits[1].Crates != 2 || traits[1].Records != 3 {
		t.Errorf("Drop counts = %+v", traits[1])
	}
}

func TestTraitTable(t *testing.T) {
	srv := testServer(t, cache.NewNullCache())

	status, body, header := get(t, srv.URL+"/api/traits/core::ops::drop::Drop")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", status, body)
	}
	if ct := header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	// Crate key order must survive the HTTP round trip.
	if !strings.Contains(body, `"alloc":`) ||
		strings.Index(body, `"alloc":`) > strings.Index(body, `"std":`) {
		t.Errorf("crate order lost: %s", body)
	}

	tbl, err := index.UnmarshalTable([]byte(body))
	if err != nil {
		t.Fatalf("UnmarshalTable: %v", err)
	}
	if tbl.Len() != 2 || tbl.RecordCount() != 3 {
		t.Errorf("table = %d crates, %d records", tbl.Len(), tbl.RecordCount())
	}
}

func TestTraitTableErrors(t *testing.T) {
	srv := testServer(t, cache.NewNullCache())

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown trait", "/api/traits/core::marker::Send", http.StatusNotFound, "TRAIT_NOT_FOUND"},
		{"invalid trait", "/api/traits/not%20a%20trait", http.StatusBadRequest, "INVALID_TRAIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := get(t, srv.URL+tt.path)
			if status != tt.status {
				t.Fatalf("status = %d, want %d: %s", status, tt.status, body)
			}
			var e struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal([]byte(body), &e); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if e.Error != tt.code {
				t.Errorf("error code = %q, want %q", e.Error, tt.code)
			}
		})
	}
}

func TestFragmentEndpoint(t *testing.T) {
	srv := testServer(t, cache.NewNullCache())

	status, body, header := get(t, srv.URL+"/implementors/core/ops/drop/trait.Drop.js")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", status, body)
	}
	if ct := header.Get("Content-Type"); ct != "text/javascript; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	if !strings.HasPrefix(body, "(function() {var implementors = {};") {
		t.Errorf("body is not a fragment: %s", body)
	}
	if !strings.Contains(body, "window.register_implementors") ||
		!strings.Contains(body, "window.pending_implementors") {
		t.Error("fragment shim missing")
	}
	// HTML in descriptors must come through unescaped.
	if !strings.Contains(body, `<a href=\"s.html\">String</a>`) {
		t.Errorf("descriptor HTML mangled: %s", body)
	}

	// Served bytes parse back to the scanned table.
	tbl, err := fragment.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("parsed %d crates, want 2", tbl.Len())
	}
}

func TestFragmentEndpointErrors(t *testing.T) {
	srv := testServer(t, cache.NewNullCache())

	status, _, _ := get(t, srv.URL+"/implementors/core/marker/trait.Send.js")
	if status != http.StatusNotFound {
		t.Errorf("unknown trait: status = %d, want 404", status)
	}

	status, _, _ = get(t, srv.URL+"/implementors/core/ops/whatever.js")
	if status != http.StatusBadRequest {
		t.Errorf("non-fragment path: status = %d, want 400", status)
	}
}

// spyCache records cache traffic for assertions.
type spyCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	sets    int
}

func newSpyCache() *spyCache {
	return &spyCache{entries: make(map[string][]byte)}
}

func (c *spyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *spyCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[key] = data
	return nil
}

func (c *spyCache) Delete(ctx context.Context, key string) error { return nil }
func (c *spyCache) Close() error                                 { return nil }

func TestTraitTableCaching(t *testing.T) {
	spy := newSpyCache()
	srv := testServer(t, spy)

	status, first, _ := get(t, srv.URL+"/api/traits/core::ops::drop::Drop")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	status, second, _ := get(t, srv.URL+"/api/traits/core::ops::drop::Drop")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if first != second {
		t.Error("cached response differs from encoded response")
	}
	if spy.sets != 1 {
		t.Errorf("cache sets = %d, want 1", spy.sets)
	}
	if spy.gets != 2 {
		t.Errorf("cache gets = %d, want 2", spy.gets)
	}
}

func TestFragmentCaching(t *testing.T) {
	spy := newSpyCache()
	srv := testServer(t, spy)

	status, first, _ := get(t, srv.URL+"/implementors/core/clone/trait.Clone.js")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	status, second, _ := get(t, srv.URL+"/implementors/core/clone/trait.Clone.js")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}

	if first != second {
		t.Error("cached response differs from rendered response")
	}
	if spy.sets != 1 {
		t.Errorf("cache sets = %d, want 1", spy.sets)
	}
	if spy.gets != 2 {
		t.Errorf("cache gets = %d, want 2", spy.gets)
	}
}
