package cli

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/observability"
	"github.com/matzehuels/gdsview/pkg/pipeline"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags loadFlags
		addr  string
	)

	cmd := &cobra.Command{
		Use:   "serve <file|s3://bucket/key>",
		Short: "Serve a loaded layout over HTTP",
		Long: `Serve loads a layout once and answers queries against it:

  GET   /healthz          liveness and load summary
  GET   /layers           layer list with colors and visibility
  PATCH /layers/{index}   change visible, color or opacity of one layer
  GET   /pick?x=&y=       shape under a world coordinate (all=1 for every hit)
  GET   /bounds           world bounds
  GET   /world.svg        the flattened layout as SVG
  GET   /metrics          Prometheus metrics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = c.config.Serve.Addr
			}

			hooks := observability.NewPrometheusHooks()
			hooks.Register()
			defer observability.Reset()

			l, err := c.load(ctx, args[0], flags, false)
			if err != nil {
				return err
			}
			defer l.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServer(l, c.Logger, hooks.Handler()).routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return listenAndServe(ctx, srv, c.Logger)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

// listenAndServe runs srv until ctx is cancelled, then shuts it down.
func listenAndServe(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// =============================================================================
// Handlers
// =============================================================================

// server answers queries against one loaded layout. Layer edits take the
// write lock; picks and renders share the read lock.
type server struct {
	mu      sync.RWMutex
	name    string
	res     *pipeline.Result
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics http.Handler
	started time.Time
}

func newServer(l *loaded, logger *log.Logger, metrics http.Handler) *server {
	return &server{
		name:    l.name,
		res:     l.res,
		runner:  l.runner,
		logger:  logger,
		metrics: metrics,
		started: time.Now(),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", s.handleHealth)
	r.Get("/layers", s.handleLayers)
	r.Patch("/layers/{index}", s.handlePatchLayer)
	r.Get("/pick", s.handlePick)
	r.Get("/bounds", s.handleBounds)
	r.Get("/world.svg", s.handleWorld)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// instrument tags every response with the load id and reports the request
// to the server hooks under its route pattern.
func (s *server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set("X-Load-ID", s.res.LoadID.String())

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		observability.Server().OnRequest(r.Context(), r.Method, route, status, d)
		s.logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", d)
	})
}

type healthResponse struct {
	Status string  `json:"status"`
	Name   string  `json:"name"`
	Root   string  `json:"root"`
	Shapes int     `json:"shapes"`
	Uptime float64 `json:"uptime_seconds"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Name:   s.name,
		Root:   s.res.RootName(),
		Shapes: s.res.Stats.ShapeInstances,
		Uptime: time.Since(s.started).Seconds(),
	})
}

func (s *server) handleLayers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	writeJSON(w, http.StatusOK, layout.ExportLayers(s.res.Store))
}

// layerPatch holds the fields a PATCH may change; nil fields are kept.
type layerPatch struct {
	Visible *bool    `json:"visible"`
	Color   *string  `json:"color"`
	Opacity *float32 `json:"opacity"`
}

func (s *server) handlePatchLayer(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.ParseInt(chi.URLParam(r, "index"), 10, 16)
	if err != nil {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid layer index %q", chi.URLParam(r, "index")))
		return
	}
	var patch layerPatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid layer patch"))
		return
	}
	if patch.Color != nil {
		if err := errors.ValidateHexColor(*patch.Color); err != nil {
			writeError(w, err)
			return
		}
	}
	if patch.Opacity != nil && (*patch.Opacity < 0 || *patch.Opacity > 1) {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "opacity must be within [0, 1]"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	settings, ok := patchLayer(s.res.Store, int16(index), patch)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeNotFound, "layout has no layer %d", index))
		return
	}
	if err := layout.ApplyLayerSettings(s.res.Store, []layout.LayerSettings{settings}); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "apply layer settings"))
		return
	}
	s.logger.Info("layer updated", "layer", index, "visible", settings.Visible, "color", settings.Color)
	writeJSON(w, http.StatusOK, settings)
}

// patchLayer returns the current settings of the layer with patch applied.
func patchLayer(st *layout.Store, index int16, patch layerPatch) (layout.LayerSettings, bool) {
	for _, ls := range layout.ExportLayers(st) {
		if ls.Index != index {
			continue
		}
		if patch.Visible != nil {
			ls.Visible = *patch.Visible
		}
		if patch.Color != nil {
			c, _ := layout.ParseHexColor(*patch.Color)
			ls.Color = c.Hex()
			if len(*patch.Color) == 9 {
				ls.Opacity = c.A
			}
		}
		if patch.Opacity != nil {
			ls.Opacity = *patch.Opacity
		}
		return ls, true
	}
	return layout.LayerSettings{}, false
}

type pickResponse struct {
	Hit    bool      `json:"hit"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Shape  *hitInfo  `json:"shape,omitempty"`
	Shapes []hitInfo `json:"shapes,omitempty"`
}

func (s *server) handlePick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := parsePoint(q.Get("x"), q.Get("y"))
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	start := time.Now()
	resp := pickResponse{X: p.X, Y: p.Y}
	if all, _ := strconv.ParseBool(q.Get("all")); all {
		for _, id := range s.res.Index.Query(p) {
			resp.Shapes = append(resp.Shapes, describeHit(s.res.Store, id))
		}
		resp.Hit = len(resp.Shapes) > 0
	} else if id, ok := s.res.Index.Pick(p); ok {
		h := describeHit(s.res.Store, id)
		resp.Hit, resp.Shape = true, &h
	}
	observability.Pick().OnPick(r.Context(), resp.Hit, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

type boundsResponse struct {
	Empty bool       `json:"empty"`
	Min   [2]float64 `json:"min"`
	Max   [2]float64 `json:"max"`
}

func (s *server) handleBounds(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	b := worldBounds(s.res)
	s.mu.RUnlock()
	if b.IsEmpty() {
		writeJSON(w, http.StatusOK, boundsResponse{Empty: true})
		return
	}
	writeJSON(w, http.StatusOK, boundsResponse{
		Min: [2]float64{b.Min.X, b.Min.Y},
		Max: [2]float64{b.Max.X, b.Max.Y},
	})
}

func (s *server) handleWorld(w http.ResponseWriter, r *http.Request) {
	bg, _ := strconv.ParseBool(r.URL.Query().Get("background"))
	s.mu.RLock()
	data, _, err := s.runner.Render(r.Context(), s.res, pipeline.RenderOptions{Kind: pipeline.KindWorld, Background: bg})
	s.mu.RUnlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(data)
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), errorResponse{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}
