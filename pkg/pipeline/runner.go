package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gdsview/pkg/cache"
	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/gds"
	gdsio "github.com/matzehuels/gdsview/pkg/io"
	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/observability"
	"github.com/matzehuels/gdsview/pkg/render/hierarchy"
	"github.com/matzehuels/gdsview/pkg/render/svg"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeLibrary  = "library"
	keyTypeArtifact = "artifact"
)

// Runner executes the load pipeline with caching.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the expiry of every cache entry when positive.
	TTL time.Duration
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default key layout and a nil logger uses the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NullCache{}
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// =============================================================================
// Load
// =============================================================================

// Load runs the whole pipeline on data. Progress events are passed to
// opts.OnProgress as they are produced, and ctx is checked between
// builder steps.
func (r *Runner) Load(ctx context.Context, data []byte, opts Options) (*Result, error) {
	l, err := r.Begin(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	for !l.Done() {
		p, err := l.Step(ctx)
		if err != nil {
			observability.Pipeline().OnLoadComplete(ctx, 0, 0, time.Since(l.start), err)
			return nil, err
		}
		if l.opts.OnProgress != nil {
			l.opts.OnProgress(p)
		}
	}
	return l.Finish(ctx)
}

// Loader is one load in progress. It is not safe for concurrent use.
type Loader struct {
	r       *Runner
	opts    Options
	data    []byte
	hash    string
	builder *layout.Builder
	store   *layout.Store
	res     *Result
	start   time.Time

	buildStart time.Time
	finished   bool
}

// Begin validates opts and prepares a load. When the decoded library is
// cached the first step skips decoding.
func (r *Runner) Begin(ctx context.Context, data []byte, opts Options) (*Loader, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	l := &Loader{
		r:     r,
		opts:  opts,
		data:  data,
		hash:  cache.Hash(data),
		start: time.Now(),
		res:   &Result{LoadID: uuid.New(), Theme: layout.Theme(opts.Theme)},
	}
	l.res.InputHash = l.hash

	bopts := layout.BuilderOptions{ChunkSize: opts.ChunkSize, Logger: opts.Logger}
	if lib, hit := r.cachedLibrary(ctx, l.hash, opts); hit {
		l.res.Library = lib
		l.res.CacheInfo.LibraryHit = true
		l.builder = layout.NewBuilderFromLibrary(lib, bopts)
	} else {
		l.builder = layout.NewBuilder(data, bopts)
	}
	l.buildStart = time.Now()
	observability.Pipeline().OnStageStart(ctx, observability.StageBuild)
	return l, nil
}

// Done reports whether the builder has produced its terminal event.
func (l *Loader) Done() bool { return l.store != nil }

// Step advances the builder by one bounded step.
func (l *Loader) Step(ctx context.Context) (layout.Progress, error) {
	if err := ctx.Err(); err != nil {
		return layout.Progress{}, err
	}
	if l.builder.State() == layout.StateParsingRecords {
		return l.decode(ctx)
	}

	p, err := l.builder.Step()
	if err != nil {
		err = classify(err)
		observability.Pipeline().OnStageComplete(ctx, observability.StageBuild, time.Since(l.buildStart), err)
		return p, err
	}
	if p.Store != nil {
		l.store = p.Store
		l.res.Stats.BuildTime = time.Since(l.buildStart) - l.res.Stats.DecodeTime
		observability.Pipeline().OnStageComplete(ctx, observability.StageBuild, l.res.Stats.BuildTime, nil)
	}
	return p, nil
}

// decode runs the parsing step and stores the decoded library.
func (l *Loader) decode(ctx context.Context) (layout.Progress, error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StageDecode)
	start := time.Now()

	p, err := l.builder.Step()
	l.res.Stats.DecodeTime = time.Since(start)
	if err != nil {
		err = classify(err)
		hooks.OnStageComplete(ctx, observability.StageDecode, l.res.Stats.DecodeTime, err)
		hooks.OnStageComplete(ctx, observability.StageBuild, time.Since(l.buildStart), err)
		return p, err
	}
	hooks.OnStageComplete(ctx, observability.StageDecode, l.res.Stats.DecodeTime, nil)

	l.res.Library = l.builder.Library()
	l.r.storeLibrary(ctx, l.hash, l.res.Library)
	return p, nil
}

// Finish selects the root, instantiates it, applies the theme and builds
// the spatial index. It may be called once, after [Loader.Done] reports
// true.
func (l *Loader) Finish(ctx context.Context) (res *Result, err error) {
	if !l.Done() {
		return nil, errors.New(errors.ErrCodeInternal, "load has not finished building")
	}
	if l.finished {
		return nil, errors.Wrap(errors.ErrCodeRootSelected, layout.ErrRootAlreadySelected, "load already finished")
	}
	l.finished = true

	defer func() {
		var shapes, triangles int
		if err == nil {
			shapes, triangles = res.Stats.ShapeInstances, res.Stats.Triangles
		}
		observability.Pipeline().OnLoadComplete(ctx, shapes, triangles, time.Since(l.start), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, res, logger := l.store, l.res, l.opts.Logger
	res.Store = s
	res.Roots = layout.FindRoots(s)
	if res.Root, err = chooseRoot(s, res.Roots, l.opts.RootName); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StageInstantiate)
	start := time.Now()
	res.RootInstance, err = layout.NewInstancer(s, logger).SelectRoot(res.Root)
	res.Stats.InstantiateTime = time.Since(start)
	if err != nil {
		err = classify(err)
		hooks.OnStageComplete(ctx, observability.StageInstantiate, res.Stats.InstantiateTime, err)
		return nil, err
	}
	hooks.OnStageComplete(ctx, observability.StageInstantiate, res.Stats.InstantiateTime, nil)

	if err := layout.ApplyTheme(s, res.Theme); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTheme, err, "apply theme")
	}

	hooks.OnStageStart(ctx, observability.StageIndex)
	start = time.Now()
	res.Index, err = layout.NewSpatialIndex(s)
	res.Stats.IndexTime = time.Since(start)
	hooks.OnStageComplete(ctx, observability.StageIndex, res.Stats.IndexTime, err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build spatial index")
	}

	res.Stats.Stats = s.Stats()
	logger.Info("layout loaded",
		"root", res.RootName(),
		"roots", len(res.Roots),
		"shapes", res.Stats.ShapeInstances,
		"triangles", res.Stats.Triangles,
		"cached", res.CacheInfo.LibraryHit,
		"duration", time.Since(l.start))
	return res, nil
}

// chooseRoot returns the named definition, or the first root when name is
// empty. Any definition may be named explicitly, not only unreferenced ones.
func chooseRoot(s *layout.Store, roots []layout.CellDefID, name string) (layout.CellDefID, error) {
	if name == "" {
		if len(roots) == 0 {
			return 0, errors.Wrap(errors.ErrCodeNoRoots, layout.ErrNoRoots, "layout has no root structure")
		}
		return roots[0], nil
	}
	id, ok := s.DefinitionByName(name)
	if !ok {
		return 0, errors.Wrap(errors.ErrCodeUnknownRoot, layout.ErrUnknownDefinition, "no structure named %q", name)
	}
	return id, nil
}

// classify attaches an error code to the sentinel errors of the lower
// layers. Context errors pass through unchanged.
func classify(err error) error {
	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return err
	case stderrors.Is(err, gds.ErrMalformed):
		return errors.Wrap(errors.ErrCodeDecodeFailed, err, "decode GDSII stream")
	case stderrors.Is(err, layout.ErrDanglingReference):
		return errors.Wrap(errors.ErrCodeDanglingReference, err, "build definitions")
	case stderrors.Is(err, layout.ErrCyclicReference):
		return errors.Wrap(errors.ErrCodeCyclicReference, err, "instantiate root")
	case stderrors.Is(err, layout.ErrRootAlreadySelected):
		return errors.Wrap(errors.ErrCodeRootSelected, err, "instantiate root")
	case stderrors.Is(err, layout.ErrUnknownDefinition):
		return errors.Wrap(errors.ErrCodeUnknownRoot, err, "instantiate root")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "load layout")
}

// =============================================================================
// Library Cache
// =============================================================================

func (r *Runner) cachedLibrary(ctx context.Context, hash string, opts Options) (*gds.Library, bool) {
	if opts.Refresh {
		return nil, false
	}
	hooks := observability.Cache()
	data, ok, err := r.Cache.Get(ctx, r.Keyer.LibraryKey(hash))
	if err != nil {
		r.Logger.Warn("cache lookup failed", "key", keyTypeLibrary, "error", err)
	}
	if !ok || err != nil {
		hooks.OnCacheMiss(ctx, keyTypeLibrary)
		return nil, false
	}
	lib, err := gdsio.ReadJSON(bytes.NewReader(data))
	if err != nil {
		r.Logger.Warn("discarding unreadable cache entry", "key", keyTypeLibrary, "error", err)
		hooks.OnCacheMiss(ctx, keyTypeLibrary)
		return nil, false
	}
	hooks.OnCacheHit(ctx, keyTypeLibrary)
	r.Logger.Debug("decoded library from cache", "hash", hash[:12])
	return lib, true
}

func (r *Runner) storeLibrary(ctx context.Context, hash string, lib *gds.Library) {
	var buf bytes.Buffer
	if err := gdsio.WriteJSON(lib, &buf); err != nil {
		r.Logger.Warn("cannot encode library for cache", "error", err)
		return
	}
	r.set(ctx, keyTypeLibrary, r.Keyer.LibraryKey(hash), buf.Bytes(), r.ttl(cache.TTLLibrary))
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) set(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	err := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Warn("cache write failed", "key", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// =============================================================================
// Render
// =============================================================================

// Render produces an artifact for a loaded layout, cache-first. The
// artifact key covers the root, the theme and the current layer settings,
// so edits to layer colors or visibility yield a fresh rendering.
func (r *Runner) Render(ctx context.Context, res *Result, opts RenderOptions) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, observability.StageRender)
	start := time.Now()

	data, hit, err := r.render(ctx, res, opts)
	hooks.OnStageComplete(ctx, observability.StageRender, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Debug("rendered", "kind", opts.Kind, "format", opts.Format, "bytes", len(data), "cached", hit, "duration", time.Since(start))
	return data, hit, nil
}

func (r *Runner) render(ctx context.Context, res *Result, opts RenderOptions) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(res.InputHash, artifactKeyOpts(res, opts))
	if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, keyTypeArtifact)
		return data, true, nil
	} else if err != nil {
		r.Logger.Warn("cache lookup failed", "key", keyTypeArtifact, "error", err)
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeArtifact)

	var data []byte
	switch opts.Kind {
	case KindWorld:
		var svgOpts []svg.Option
		if opts.Background {
			svgOpts = append(svgOpts, svg.WithBackground(svg.BackgroundFor(res.Theme)))
		}
		if opts.Width > 0 {
			svgOpts = append(svgOpts, svg.WithWidth(opts.Width))
		}
		data = svg.Render(res.Store, svgOpts...)
	case KindHierarchy:
		dot := hierarchy.ToDOT(res.Store, hierarchy.Options{Detailed: opts.Detailed})
		if opts.Format == FormatDOT {
			data = []byte(dot)
			break
		}
		var err error
		if data, err = hierarchy.RenderSVG(ctx, dot); err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "render hierarchy")
		}
	}

	r.set(ctx, keyTypeArtifact, key, data, r.ttl(cache.TTLArtifact))
	return data, false, nil
}

func artifactKeyOpts(res *Result, opts RenderOptions) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Kind: opts.Kind, Format: opts.Format, Root: res.RootName()}
	switch opts.Kind {
	case KindWorld:
		k.Theme = string(res.Theme)
		if opts.Background {
			k.Theme += "+bg"
		}
		k.Layers = layerHash(res.Store)
		if opts.Width > 0 {
			k.Layers += "@" + strconv.FormatFloat(opts.Width, 'g', -1, 64)
		}
	case KindHierarchy:
		if opts.Detailed {
			k.Theme = "detailed"
		}
	}
	return k
}

func layerHash(s *layout.Store) string {
	data, err := json.Marshal(layout.ExportLayers(s))
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}
