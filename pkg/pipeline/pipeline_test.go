package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/gdsview/pkg/cache"
	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/gds"
	"github.com/matzehuels/gdsview/pkg/geom"
	"github.com/matzehuels/gdsview/pkg/layout"
	"github.com/matzehuels/gdsview/pkg/observability"
)

func rect(layer int16, x0, y0, x1, y1 int32) *gds.Boundary {
	return &gds.Boundary{Layer: layer, XY: []gds.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}}
}

func sref(name string, x, y int32) *gds.StructRef {
	return &gds.StructRef{Name: name, XY: gds.Point{X: x, Y: y}}
}

func encode(t *testing.T, structs ...*gds.Structure) []byte {
	t.Helper()
	lib := &gds.Library{Name: "TEST", Version: 600, UserUnits: 1e-3, MeterUnits: 1e-9, Structures: structs}
	var buf bytes.Buffer
	if err := gds.Encode(&buf, lib); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

// invTop places a 10x10 square on layer 1 at x=0 and x=20.
func invTop(t *testing.T) []byte {
	return encode(t,
		&gds.Structure{Name: "INV", Elements: []gds.Element{rect(1, 0, 0, 10, 10)}},
		&gds.Structure{Name: "TOP", Elements: []gds.Element{sref("INV", 0, 0), sref("INV", 20, 0)}},
	)
}

func TestOptions_ValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errors.Code
		check   func(*testing.T, Options)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o Options) {
				if o.ChunkSize != DefaultChunkSize {
					t.Errorf("ChunkSize = %d, want %d", o.ChunkSize, DefaultChunkSize)
				}
				if o.Theme != "dark" {
					t.Errorf("Theme = %q, want dark", o.Theme)
				}
				if o.Logger == nil {
					t.Error("Logger not set")
				}
			},
		},
		{
			name: "explicit values kept",
			opts: Options{ChunkSize: 7, Theme: "light", RootName: "TOP"},
			check: func(t *testing.T, o Options) {
				if o.ChunkSize != 7 || o.Theme != "light" || o.RootName != "TOP" {
					t.Errorf("got %v", o)
				}
			},
		},
		{name: "negative chunk", opts: Options{ChunkSize: -1}, wantErr: errors.ErrCodeInvalidInput},
		{name: "bad theme", opts: Options{Theme: "solarized"}, wantErr: errors.ErrCodeInvalidTheme},
		{name: "bad root name", opts: Options{RootName: "TOP\n"}, wantErr: errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want code %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.check != nil {
				tt.check(t, tt.opts)
			}
			if err := tt.opts.ValidateAndSetDefaults(); err != nil {
				t.Errorf("second call: %v", err)
			}
		})
	}
}

func TestRenderOptions_ValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		opts    RenderOptions
		wantErr errors.Code
	}{
		{opts: RenderOptions{}},
		{opts: RenderOptions{Kind: KindHierarchy, Format: FormatDOT}},
		{opts: RenderOptions{Kind: "tower"}, wantErr: errors.ErrCodeInvalidInput},
		{opts: RenderOptions{Format: "png"}, wantErr: errors.ErrCodeInvalidInput},
		{opts: RenderOptions{Kind: KindWorld, Format: FormatDOT}, wantErr: errors.ErrCodeUnsupported},
		{opts: RenderOptions{Width: -1}, wantErr: errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		err := tt.opts.ValidateAndSetDefaults()
		if tt.wantErr == "" && err != nil {
			t.Errorf("%+v: unexpected error %v", tt.opts, err)
		}
		if tt.wantErr != "" && !errors.Is(err, tt.wantErr) {
			t.Errorf("%+v: error = %v, want %s", tt.opts, err, tt.wantErr)
		}
	}
}

func TestLoad(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	var phases []string
	res, err := r.Load(context.Background(), invTop(t), Options{
		OnProgress: func(p layout.Progress) { phases = append(phases, p.Phase) },
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := res.RootName(); got != "TOP" {
		t.Errorf("root = %q, want TOP", got)
	}
	if len(res.Roots) != 1 {
		t.Errorf("roots = %v, want one", res.Roots)
	}
	if res.Stats.ShapeInstances != 2 || res.Stats.Definitions != 2 {
		t.Errorf("stats = %+v", res.Stats.Stats)
	}
	if res.CacheInfo.LibraryHit {
		t.Error("null cache reported a hit")
	}
	if res.Library == nil || res.Library.Structure("INV") == nil {
		t.Error("decoded library missing")
	}
	if len(phases) == 0 || phases[len(phases)-1] != "Creating definitions for 'TOP'" {
		t.Errorf("phases = %q", phases)
	}
	if phases[0] != layout.PhaseParsing {
		t.Errorf("first phase = %q, want %q", phases[0], layout.PhaseParsing)
	}

	if _, ok := res.Index.Pick(geom.Pt(25, 5)); !ok {
		t.Error("Pick(25,5) found nothing")
	}
	if _, ok := res.Index.Pick(geom.Pt(15, 5)); ok {
		t.Error("Pick(15,5) found a shape in the gap")
	}
}

func TestLoad_RootName(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Load(context.Background(), invTop(t), Options{RootName: "INV"})
	if err != nil {
		t.Fatal(err)
	}
	if res.RootName() != "INV" || res.Stats.ShapeInstances != 1 {
		t.Errorf("root %q with %d shapes", res.RootName(), res.Stats.ShapeInstances)
	}
}

func TestLoad_Errors(t *testing.T) {
	cyclic := func(t *testing.T) []byte {
		return encode(t,
			&gds.Structure{Name: "TOP", Elements: []gds.Element{sref("A", 0, 0)}},
			&gds.Structure{Name: "A", Elements: []gds.Element{sref("B", 0, 0)}},
			&gds.Structure{Name: "B", Elements: []gds.Element{sref("A", 0, 0)}},
		)
	}
	tests := []struct {
		name     string
		data     func(*testing.T) []byte
		opts     Options
		code     errors.Code
		sentinel error
	}{
		{
			name: "truncated stream",
			data: func(t *testing.T) []byte { return invTop(t)[:40] },
			code: errors.ErrCodeDecodeFailed, sentinel: gds.ErrMalformed,
		},
		{
			name: "dangling reference",
			data: func(t *testing.T) []byte {
				return encode(t, &gds.Structure{Name: "TOP", Elements: []gds.Element{sref("MISSING", 0, 0)}})
			},
			code: errors.ErrCodeDanglingReference, sentinel: layout.ErrDanglingReference,
		},
		{
			name: "unknown root",
			data: invTop,
			opts: Options{RootName: "NOPE"},
			code: errors.ErrCodeUnknownRoot, sentinel: layout.ErrUnknownDefinition,
		},
		{
			name: "cycle below root",
			data: cyclic,
			code: errors.ErrCodeCyclicReference, sentinel: layout.ErrCyclicReference,
		},
		{
			name: "no roots",
			data: func(t *testing.T) []byte {
				return encode(t,
					&gds.Structure{Name: "A", Elements: []gds.Element{sref("B", 0, 0)}},
					&gds.Structure{Name: "B", Elements: []gds.Element{sref("A", 0, 0)}},
				)
			},
			code: errors.ErrCodeNoRoots, sentinel: layout.ErrNoRoots,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRunner(nil, nil, nil).Load(context.Background(), tt.data(t), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Fatalf("error = %v, want code %s", err, tt.code)
			}
			if !stderrors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not wrap %v", err, tt.sentinel)
			}
		})
	}
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil).Load(ctx, invTop(t), Options{})
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestLoad_CachesLibrary(t *testing.T) {
	fc, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()
	data := invTop(t)

	first, err := r.Load(ctx, data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Load(ctx, data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LibraryHit || !second.CacheInfo.LibraryHit {
		t.Errorf("hits = %v, %v; want false, true", first.CacheInfo.LibraryHit, second.CacheInfo.LibraryHit)
	}
	if first.Stats.Stats != second.Stats.Stats {
		t.Errorf("cached load differs: %+v vs %+v", first.Stats.Stats, second.Stats.Stats)
	}
	if first.InputHash != second.InputHash || first.LoadID == second.LoadID {
		t.Error("want equal input hashes and distinct load ids")
	}

	refreshed, err := r.Load(ctx, data, Options{Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LibraryHit {
		t.Error("refresh used the cache")
	}
}

func TestLoader_Stepwise(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()
	l, err := r.Begin(ctx, invTop(t), Options{ChunkSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Finish(ctx); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("early Finish error = %v", err)
	}

	steps := 0
	last := 0.0
	for !l.Done() {
		p, err := l.Step(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if p.Percent < last {
			t.Errorf("percent went back from %v to %v", last, p.Percent)
		}
		last = p.Percent
		steps++
	}
	// parse, gather, three single-element chunks
	if steps != 5 {
		t.Errorf("steps = %d, want 5", steps)
	}
	if _, err := l.Finish(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Finish(ctx); !errors.Is(err, errors.ErrCodeRootSelected) {
		t.Errorf("second Finish error = %v", err)
	}
}

func TestRender(t *testing.T) {
	fc, err := cache.NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()
	res, err := r.Load(ctx, invTop(t), Options{})
	if err != nil {
		t.Fatal(err)
	}

	svg, hit, err := r.Render(ctx, res, RenderOptions{})
	if err != nil || hit {
		t.Fatalf("first render: hit=%v err=%v", hit, err)
	}
	if !bytes.HasPrefix(svg, []byte("<svg")) {
		t.Errorf("not an svg document: %.40s", svg)
	}
	again, hit, err := r.Render(ctx, res, RenderOptions{Kind: KindWorld})
	if err != nil || !hit || !bytes.Equal(again, svg) {
		t.Errorf("second render: hit=%v err=%v", hit, err)
	}

	layers := res.Store.Layers()
	if err := res.Store.SetLayerVisible(layers[0], false); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := r.Render(ctx, res, RenderOptions{}); hit {
		t.Error("render after a layer edit hit the cache")
	}

	dot, _, err := r.Render(ctx, res, RenderOptions{Kind: KindHierarchy, Format: FormatDOT})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(dot), "digraph G {") || !strings.Contains(string(dot), `"TOP"`) {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

type stageRecorder struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	stages []string
	loads  int
}

func (r *stageRecorder) OnStageComplete(_ context.Context, stage string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *stageRecorder) OnLoadComplete(context.Context, int, int, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads++
}

func TestLoad_Hooks(t *testing.T) {
	rec := &stageRecorder{}
	observability.SetPipelineHooks(rec)
	defer observability.Reset()

	if _, err := NewRunner(nil, nil, nil).Load(context.Background(), invTop(t), Options{}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		observability.StageDecode,
		observability.StageBuild,
		observability.StageInstantiate,
		observability.StageIndex,
	}
	if strings.Join(rec.stages, ",") != strings.Join(want, ",") {
		t.Errorf("stages = %v, want %v", rec.stages, want)
	}
	if rec.loads != 1 {
		t.Errorf("load completions = %d, want 1", rec.loads)
	}
}
