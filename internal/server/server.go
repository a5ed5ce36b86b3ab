// Package server exposes a scanned docset over HTTP.
//
// It serves the rendered fragment for each trait under the same path
// layout a static doc host would use, plus a small JSON API for
// inspecting the scanned tables:
//
//	GET /implementors/<module path>/trait.<Name>.js
//	GET /api/traits
//	GET /api/traits/{trait}
//	GET /healthz
//
// Rendered fragments are cached by table content hash and per-trait
// table JSON by doc root and trait, so repeated requests for an
// unchanged trait hit the cache.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/traitdex/pkg/cache"
	"github.com/matzehuels/traitdex/pkg/docset"
	"github.com/matzehuels/traitdex/pkg/errors"
	"github.com/matzehuels/traitdex/pkg/fragment"
	"github.com/matzehuels/traitdex/pkg/index"
	"github.com/matzehuels/traitdex/pkg/observability"
)

// Config defines the inputs for the fragment server.
type Config struct {
	Addr     string
	CacheTTL time.Duration
}

// Server hosts the fragment HTTP server over one scanned docset.
type Server struct {
	cfg        Config
	httpServer *http.Server
	logger     *log.Logger
}

type handler struct {
	set    *docset.Set
	root   string
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// New assembles the server for a scanned set. The cache holds rendered
// fragments; pass a [cache.NullCache] to disable caching.
func New(cfg Config, set *docset.Set, docRoot string, store cache.Cache, logger *log.Logger) *Server {
	h := &handler{
		set:    set,
		root:   docRoot,
		cache:  store,
		keyer:  cache.NewDefaultKeyer(),
		ttl:    cfg.CacheTTL,
		logger: logger,
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(h),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the route handler for a scanned set without binding a
// listener. This is the test-oriented entrypoint.
func Handler(set *docset.Set, docRoot string, store cache.Cache, ttl time.Duration, logger *log.Logger) http.Handler {
	return newRouter(&handler{
		set:    set,
		root:   docRoot,
		cache:  store,
		keyer:  cache.NewDefaultKeyer(),
		ttl:    ttl,
		logger: logger,
	})
}

func newRouter(h *handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.observe)

	r.Get("/healthz", h.health)
	r.Get("/api/traits", h.listTraits)
	r.Get("/api/traits/{trait}", h.traitTable)
	r.Get("/implementors/*", h.fragment)
	return r
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving implementor fragments", "addr", s.cfg.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// observe reports request and response events to the registered hooks.
func (h *handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"traits":    h.set.Len(),
		"fragments": h.set.FragmentCount(),
	})
}

// traitSummary is one row of the trait listing.
type traitSummary struct {
	Trait   string `json:"trait"`
	Crates  int    `json:"crates"`
	Records int    `json:"records"`
}

func (h *handler) listTraits(w http.ResponseWriter, r *http.Request) {
	traits := h.set.Traits()
	out := make([]traitSummary, 0, len(traits))
	for _, trait := range traits {
		tbl, _ := h.set.Table(trait)
		out = append(out, traitSummary{
			Trait:   trait,
			Crates:  tbl.Len(),
			Records: tbl.RecordCount(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) traitTable(w http.ResponseWriter, r *http.Request) {
	trait := chi.URLParam(r, "trait")
	if err := errors.ValidateTraitPath(trait); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, ok := h.set.Table(trait)
	if !ok {
		writeError(w, http.StatusNotFound,
			errors.New(errors.ErrCodeTraitNotFound, "trait %s not in docset", trait))
		return
	}

	data, err := h.tableJSON(r.Context(), trait, tbl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// tableJSON returns the JSON encoding of a trait's table, cached per doc
// root and trait. The set is immutable for the server's lifetime, so the
// key carries no content hash.
func (h *handler) tableJSON(ctx context.Context, trait string, tbl *index.Table) ([]byte, error) {
	key := h.keyer.TableKey(h.root, trait)

	if data, ok, err := h.cache.Get(ctx, key); err != nil {
		h.logger.Warn("table cache read failed", "trait", trait, "error", err)
	} else if ok {
		return data, nil
	}

	data, err := json.Marshal(tbl)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode table")
	}

	if err := h.cache.Set(ctx, key, data, h.ttl); err != nil {
		h.logger.Warn("table cache write failed", "trait", trait, "error", err)
	}
	return data, nil
}

// fragment serves the rendered artifact for one trait. The URL path
// below /implementors/ is the fragment's doc-tree path, so a static host
// and this server are interchangeable for consumers.
func (h *handler) fragment(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")
	trait, err := docset.TraitFromPath(rel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	tbl, ok := h.set.Table(trait)
	if !ok {
		writeError(w, http.StatusNotFound,
			errors.New(errors.ErrCodeTraitNotFound, "trait %s not in docset", trait))
		return
	}

	out, err := h.renderCached(r.Context(), trait, tbl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// renderCached renders the fragment for a table, consulting the cache
// keyed by the table's content hash.
func (h *handler) renderCached(ctx context.Context, trait string, tbl *index.Table) ([]byte, error) {
	tblJSON, err := json.Marshal(tbl)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode table")
	}
	key := h.keyer.FragmentKey(cache.Hash(tblJSON))

	if data, ok, err := h.cache.Get(ctx, key); err != nil {
		h.logger.Warn("fragment cache read failed", "trait", trait, "error", err)
	} else if ok {
		return data, nil
	}

	out, err := fragment.Render(tbl)
	if err != nil {
		return nil, err
	}

	if err := h.cache.Set(ctx, key, out, h.ttl); err != nil {
		h.logger.Warn("fragment cache write failed", "trait", trait, "error", err)
	}
	return out, nil
}

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Error: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
