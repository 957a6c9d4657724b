package layout

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gdsview/pkg/gds"
	"github.com/matzehuels/gdsview/pkg/geom"
)

// DefaultChunkSize is the number of elements processed per [Builder.Step].
const DefaultChunkSize = 100

// Phase labels reported in [Progress.Phase].
const (
	PhaseParsing   = "Parsing records"
	PhaseGathering = "Gathering definitions"
)

var (
	// ErrDanglingReference is returned when a structure reference names a
	// structure the library does not define.
	ErrDanglingReference = errors.New("reference to undefined structure")

	// ErrBuilderDone is returned by Step once the terminal event was produced.
	ErrBuilderDone = errors.New("builder already finished")
)

// State is the position of a [Builder] in its state machine.
type State int

const (
	StateParsingRecords State = iota
	StateGatheringNames
	StateGeneratingDefinitions
	StateDone
)

func (s State) String() string {
	switch s {
	case StateParsingRecords:
		return "parsing-records"
	case StateGatheringNames:
		return "gathering-names"
	case StateGeneratingDefinitions:
		return "generating-definitions"
	default:
		return "done"
	}
}

// Progress is a snapshot reported after each builder step. Store is set on
// the terminal event only.
type Progress struct {
	Phase   string
	Percent float64
	Store   *Store
}

// BuilderOptions tunes a [Builder].
type BuilderOptions struct {
	// ChunkSize bounds the elements processed per step. Zero means
	// DefaultChunkSize.
	ChunkSize int

	// Logger receives diagnostics about skipped or partially supported
	// elements. Nil discards them.
	Logger *log.Logger
}

// Builder turns a GDSII library into the definitions of a new [Store],
// one bounded step at a time. The caller drives it by calling [Builder.Step]
// (or ranging over [Builder.All]) until the event carrying the store
// arrives. A Builder is single-use: after the terminal event, or after
// any error, it produces nothing else.
type Builder struct {
	chunk  int
	logger *log.Logger

	state State
	err   error
	data  []byte
	lib   *gds.Library
	store *Store

	defs      []CellDefID // one per structure, in library order
	structIdx int
	elemIdx   int
	processed int
	total     int
	current   string
}

// NewBuilder returns a builder that first decodes data as a GDSII stream.
func NewBuilder(data []byte, opts BuilderOptions) *Builder {
	b := newBuilder(opts)
	b.data = data
	return b
}

// NewBuilderFromLibrary returns a builder over an already decoded library.
// Its first step gathers names.
func NewBuilderFromLibrary(lib *gds.Library, opts BuilderOptions) *Builder {
	b := newBuilder(opts)
	b.lib = lib
	b.state = StateGatheringNames
	return b
}

func newBuilder(opts BuilderOptions) *Builder {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Builder{chunk: opts.ChunkSize, logger: opts.Logger, store: NewStore()}
}

// State returns the current state.
func (b *Builder) State() State { return b.state }

// Done reports whether Step has nothing left to produce.
func (b *Builder) Done() bool { return b.state == StateDone || b.err != nil }

// Library returns the decoded library, or nil before parsing.
func (b *Builder) Library() *gds.Library { return b.lib }

// Step advances the builder by one unit of work and reports progress.
// Errors are fatal: once Step fails, every later call returns the same error.
func (b *Builder) Step() (Progress, error) {
	if b.err != nil {
		return Progress{}, b.err
	}

	switch b.state {
	case StateParsingRecords:
		lib, err := gds.DecodeBytes(b.data)
		b.data = nil
		if err != nil {
			return b.fail(err)
		}
		b.lib = lib
		b.state = StateGatheringNames
		return Progress{Phase: PhaseParsing}, nil

	case StateGatheringNames:
		b.gatherNames()
		if b.total == 0 {
			b.state = StateDone
			return Progress{Phase: PhaseGathering, Percent: 100, Store: b.release()}, nil
		}
		b.state = StateGeneratingDefinitions
		return Progress{Phase: PhaseGathering}, nil

	case StateGeneratingDefinitions:
		for range b.chunk {
			if err := b.processElement(); err != nil {
				return b.fail(err)
			}
			if b.processed == b.total {
				break
			}
		}
		p := Progress{
			Phase:   fmt.Sprintf("Creating definitions for '%s'", b.current),
			Percent: 100 * float64(b.processed) / float64(b.total),
		}
		if b.processed == b.total {
			b.state = StateDone
			p.Store = b.release()
		}
		return p, nil

	default:
		return Progress{}, ErrBuilderDone
	}
}

// All returns an iterator over the remaining progress events. It stops
// after the terminal event or after yielding the first error.
func (b *Builder) All() iter.Seq2[Progress, error] {
	return func(yield func(Progress, error) bool) {
		for !b.Done() {
			p, err := b.Step()
			if !yield(p, err) || err != nil {
				return
			}
		}
	}
}

func (b *Builder) fail(err error) (Progress, error) {
	b.err = err
	b.store = nil
	return Progress{}, err
}

// release hands the store to the caller; the builder keeps no reference.
func (b *Builder) release() *Store {
	s := b.store
	b.store = nil
	return s
}

func (b *Builder) gatherNames() {
	b.defs = make([]CellDefID, 0, len(b.lib.Structures))
	for _, st := range b.lib.Structures {
		if _, dup := b.store.DefinitionByName(st.Name); dup {
			b.logger.Warn("duplicate structure name, later definition wins", "structure", st.Name)
		}
		b.defs = append(b.defs, b.store.CreateDefinition(st.Name))
		b.total += len(st.Elements)
	}
}

func (b *Builder) processElement() error {
	for b.elemIdx >= len(b.lib.Structures[b.structIdx].Elements) {
		b.structIdx++
		b.elemIdx = 0
	}
	st := b.lib.Structures[b.structIdx]
	def := b.defs[b.structIdx]
	el := st.Elements[b.elemIdx]
	b.elemIdx++
	b.processed++
	b.current = st.Name

	switch el := el.(type) {
	case *gds.StructRef:
		target, ok := b.store.DefinitionByName(el.Name)
		if !ok {
			return fmt.Errorf("%w: %q in structure %q", ErrDanglingReference, el.Name, st.Name)
		}
		return b.store.AppendCellRef(def, target, b.referenceTransform(st.Name, el))

	case *gds.Boundary:
		return b.addShape(def, el.Layer, geom.NewPolygon(toPoints(el.XY)))

	case *gds.Path:
		outline := geom.PathOutline(toPoints(el.XY), float64(el.Width)/2, geom.CapFromPathType(el.PathType))
		if outline.IsEmpty() {
			b.logger.Warn("path has fewer than two distinct points, skipping", "structure", st.Name, "layer", el.Layer)
			return nil
		}
		return b.addShape(def, el.Layer, outline)

	case *gds.ArrayRef:
		b.logger.Warn("array references are not supported, skipping", "structure", st.Name, "target", el.Name)
	case *gds.Node:
		b.logger.Warn("node elements are not supported, skipping", "structure", st.Name)
	case *gds.Box:
		b.logger.Warn("box elements are not supported, skipping", "structure", st.Name)
	case *gds.Text:
		// Annotations are out of scope; skipped without noise.
	}
	return nil
}

// referenceTransform composes reflect, rotate and translate. Magnification
// and the absolute flags are reported and otherwise ignored.
func (b *Builder) referenceTransform(owner string, ref *gds.StructRef) geom.Transform {
	local := geom.Identity()
	st := ref.Strans
	if st.Reflected {
		local = geom.ReflectX()
	}
	if st.Angle != nil {
		local = local.Then(geom.RotateDegrees(*st.Angle))
	}
	if m := st.Magnification(); m != 1 {
		b.logger.Warn("magnification is not supported, ignoring", "structure", owner, "target", ref.Name, "mag", m)
	}
	if st.AbsMag || st.AbsAngle {
		b.logger.Warn("absolute transforms are not supported, ignoring", "structure", owner, "target", ref.Name)
	}
	return local.Then(geom.Translate(float64(ref.XY.X), float64(ref.XY.Y)))
}

func (b *Builder) addShape(def CellDefID, layer int16, poly geom.Polygon) error {
	_, err := b.store.AppendShapeDef(def, ShapeDefinition{
		Layer:         b.store.GetOrCreateLayer(layer),
		Polygon:       poly,
		Triangulation: geom.Triangulate(poly),
	})
	return err
}

func toPoints(xy []gds.Point) []geom.Point {
	out := make([]geom.Point, len(xy))
	for i, p := range xy {
		out[i] = geom.Pt(float64(p.X), float64(p.Y))
	}
	return out
}
