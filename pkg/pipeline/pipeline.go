// Package pipeline turns layout bytes into a viewable, pickable world.
//
// This package implements the load pipeline shared by every gdsview
// command and the HTTP server:
//
//  1. Decode: parse the GDSII stream, or reuse the decoded library from
//     the cache (keyed by the SHA-256 of the input)
//  2. Build: create cell and shape definitions in bounded chunks
//  3. Roots: find the definitions nothing references and pick one
//  4. Instantiate: flatten the chosen root into world-space instances
//  5. Index: bulk-load the spatial index used for picking
//
// # Usage
//
// Run the whole pipeline:
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Load(ctx, data, pipeline.Options{RootName: "TOP"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	id, ok := res.Index.Pick(geom.Pt(5, 5))
//
// Or drive it one step at a time, for example from a UI event loop:
//
//	l, err := runner.Begin(ctx, data, opts)
//	for !l.Done() {
//	    p, err := l.Step(ctx)
//	    // update progress bar with p.Percent
//	}
//	res, err := l.Finish(ctx)
//
// Render artifacts from a result, cache-first:
//
//	svg, hit, err := runner.Render(ctx, res, pipeline.RenderOptions{Kind: pipeline.KindWorld})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gdsview/pkg/errors"
	"github.com/matzehuels/gdsview/pkg/gds"
	"github.com/matzehuels/gdsview/pkg/layout"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultChunkSize is the number of elements the builder handles per step.
const DefaultChunkSize = layout.DefaultChunkSize

// DefaultTheme is applied to every loaded layout unless overridden.
const DefaultTheme = layout.ThemeDark

// Render kinds and formats.
const (
	KindWorld     = "world"
	KindHierarchy = "hierarchy"

	FormatSVG = "svg"
	FormatDOT = "dot"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a load.
type Options struct {
	// ChunkSize bounds the elements processed per builder step.
	ChunkSize int `json:"chunk_size,omitempty"`

	// RootName selects the root definition. Empty means the first root in
	// definition order.
	RootName string `json:"root_name,omitempty"`

	// Theme colors the layers after instantiation ("dark" or "light").
	Theme string `json:"theme,omitempty"`

	// Refresh skips the cache lookup; the decoded library is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger     *log.Logger           `json:"-"`
	OnProgress func(layout.Progress) `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ChunkSize < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "chunk size must not be negative, got %d", o.ChunkSize)
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Theme == "" {
		o.Theme = string(DefaultTheme)
	}
	if err := errors.ValidateTheme(o.Theme); err != nil {
		return err
	}
	if o.RootName != "" {
		if err := errors.ValidateStructureName(o.RootName); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// RenderOptions selects an artifact for [Runner.Render].
type RenderOptions struct {
	Kind   string `json:"kind"`             // world or hierarchy
	Format string `json:"format,omitempty"` // svg (default) or dot (hierarchy only)

	// Detailed adds shape and reference counts to hierarchy nodes.
	Detailed bool `json:"detailed,omitempty"`

	// Background paints the theme background behind the world.
	Background bool `json:"background,omitempty"`

	// Width of the world SVG in pixels; zero uses the renderer default.
	Width float64 `json:"width,omitempty"`
}

// ValidateAndSetDefaults checks the render options and fills in defaults.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	if o.Kind == "" {
		o.Kind = KindWorld
	}
	if o.Format == "" {
		o.Format = FormatSVG
	}
	switch {
	case o.Kind != KindWorld && o.Kind != KindHierarchy:
		return errors.New(errors.ErrCodeInvalidInput, "invalid kind %q (must be world or hierarchy)", o.Kind)
	case o.Format != FormatSVG && o.Format != FormatDOT:
		return errors.New(errors.ErrCodeInvalidInput, "invalid format %q (must be svg or dot)", o.Format)
	case o.Kind == KindWorld && o.Format == FormatDOT:
		return errors.New(errors.ErrCodeUnsupported, "world rendering supports svg only")
	case o.Width < 0:
		return errors.New(errors.ErrCodeInvalidInput, "width must not be negative")
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result is a loaded, instantiated and indexed layout.
type Result struct {
	// LoadID identifies this load, e.g. in HTTP responses.
	LoadID uuid.UUID

	// InputHash is the SHA-256 of the input bytes.
	InputHash string

	Library *gds.Library
	Store   *layout.Store

	// Roots lists every root definition; Root is the instantiated one.
	Roots        []layout.CellDefID
	Root         layout.CellDefID
	RootInstance layout.CellInstanceID

	Index *layout.SpatialIndex
	Theme layout.Theme

	Stats     Stats
	CacheInfo CacheInfo
}

// RootName returns the name of the instantiated root.
func (r *Result) RootName() string { return r.Store.DefinitionName(r.Root) }

// Stats contains sizes and stage timings of a load.
type Stats struct {
	layout.Stats

	DecodeTime      time.Duration
	BuildTime       time.Duration
	InstantiateTime time.Duration
	IndexTime       time.Duration
}

// Total is the sum of the stage timings.
func (s Stats) Total() time.Duration {
	return s.DecodeTime + s.BuildTime + s.InstantiateTime + s.IndexTime
}

// CacheInfo records which lookups hit the cache.
type CacheInfo struct {
	LibraryHit bool
}

func (o Options) String() string {
	return fmt.Sprintf("chunk=%d root=%q theme=%s refresh=%v", o.ChunkSize, o.RootName, o.Theme, o.Refresh)
}
