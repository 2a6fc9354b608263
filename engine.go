package otsubset

import (
	"github.com/npillmayer/otsubset/arena"
	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/handle"
	"github.com/npillmayer/otsubset/intset"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/serialize"
	"github.com/npillmayer/otsubset/subset"
)

// Handle types of the engine. Each kind of object has its own type.
type (
	BlobHandle  = handle.Handle[*otface.Blob]
	FaceHandle  = handle.Handle[*otface.Face]
	SetHandle   = handle.Handle[*intset.Set]
	MapHandle   = handle.Handle[*intset.Map]
	InputHandle = handle.Handle[*subset.Input]
	PlanHandle  = handle.Handle[*subset.Plan]
)

// Engine owns the objects of a subsetting session and the arena used for
// moving data across the engine boundary. An Engine must not be used
// concurrently.
type Engine struct {
	arena  *arena.Arena
	blobs  *handle.Registry[*otface.Blob]
	faces  *handle.Registry[*otface.Face]
	sets   *handle.Registry[*intset.Set]
	maps   *handle.Registry[*intset.Map]
	inputs *handle.Registry[*subset.Input]
	plans  *handle.Registry[*subset.Plan]
	// sets of an input handed out to the client, which do not own them
	borrowed   map[uint64][2]SetHandle
	serializer []serialize.Option
}

type config struct {
	arenaSize  int
	serializer []serialize.Option
}

// Option configures an Engine.
type Option func(*config)

// WithArenaSize sets the initial size of the engine's arena in bytes. The
// arena grows on demand.
func WithArenaSize(n int) Option {
	return func(c *config) {
		c.arenaSize = n
	}
}

// WithSerializerOptions sets options for serializing subset fonts.
func WithSerializerOptions(opts ...serialize.Option) Option {
	return func(c *config) {
		c.serializer = append(c.serializer, opts...)
	}
}

// NewEngine creates an engine with its own arena.
func NewEngine(opts ...Option) *Engine {
	var conf config
	for _, opt := range opts {
		opt(&conf)
	}
	return &Engine{
		arena:      arena.New(conf.arenaSize),
		blobs:      handle.NewRegistry[*otface.Blob]("blob"),
		faces:      handle.NewRegistry[*otface.Face]("face"),
		sets:       handle.NewRegistry[*intset.Set]("set"),
		maps:       handle.NewRegistry[*intset.Map]("map"),
		inputs:     handle.NewRegistry[*subset.Input]("input"),
		plans:      handle.NewRegistry[*subset.Plan]("plan"),
		borrowed:   make(map[uint64][2]SetHandle),
		serializer: conf.serializer,
	}
}

// Stats reports the number of live objects per kind and the number of
// live arena regions.
type Stats struct {
	Blobs, Faces, Sets, Maps, Inputs, Plans int
	Regions                                 int
}

// Stats returns the number of live objects. A client which paired every
// create with a destroy sees all zeros.
func (e *Engine) Stats() Stats {
	return Stats{
		Blobs:   e.blobs.Len(),
		Faces:   e.faces.Len(),
		Sets:    e.sets.Len(),
		Maps:    e.maps.Len(),
		Inputs:  e.inputs.Len(),
		Plans:   e.plans.Len(),
		Regions: e.arena.Live(),
	}
}

// --- Blobs -----------------------------------------------------------------

// CreateBlob creates a blob from data. In mode otface.ReadOnly the engine
// copies data, in mode otface.Writable the engine takes ownership of data
// and the client must not touch it any more.
func (e *Engine) CreateBlob(data []byte, mode otface.Mode) BlobHandle {
	return e.blobs.Register(otface.NewBlob(data, mode))
}

// DestroyBlob drops the client's reference to a blob. Faces created from
// the blob stay usable.
func (e *Engine) DestroyBlob(h BlobHandle) error {
	blob, err := e.blobs.Release(h)
	if err != nil {
		return err
	}
	return blob.Destroy()
}

// BlobLength returns the number of bytes of a blob.
func (e *Engine) BlobLength(h BlobHandle) (int, error) {
	blob, err := e.blobs.Resolve(h)
	if err != nil {
		return 0, err
	}
	return blob.Len(), nil
}

// --- Faces -----------------------------------------------------------------

// CreateFace parses face number index of a blob. It fails with
// core.EMALFORMED if the blob does not hold a usable font or index is out
// of range.
func (e *Engine) CreateFace(blob BlobHandle, index int) (FaceHandle, error) {
	b, err := e.blobs.Resolve(blob)
	if err != nil {
		return FaceHandle{}, err
	}
	face, err := otface.NewFace(b, index)
	if err != nil {
		return FaceHandle{}, err
	}
	return e.faces.Register(face), nil
}

// DestroyFace destroys a face, dropping its reference to its blob.
func (e *Engine) DestroyFace(h FaceHandle) error {
	face, err := e.faces.Release(h)
	if err != nil {
		return err
	}
	return face.Destroy()
}

// ReferenceBlob returns a new handle to the blob of a face, i.e. to the
// binary of the font. The client must destroy the returned handle. A face
// which has no data yields an empty blob; clients have to check its length.
func (e *Engine) ReferenceBlob(h FaceHandle) (BlobHandle, error) {
	face, err := e.faces.Resolve(h)
	if err != nil {
		return BlobHandle{}, err
	}
	return e.blobs.Register(face.Blob().Reference()), nil
}

// FaceGlyphCount returns the number of glyphs of a face.
func (e *Engine) FaceGlyphCount(h FaceHandle) (int, error) {
	face, err := e.faces.Resolve(h)
	if err != nil {
		return 0, err
	}
	return face.NumGlyphs(), nil
}

// --- Subset input ----------------------------------------------------------

// CreateInput creates an empty subset input.
func (e *Engine) CreateInput() InputHandle {
	return e.inputs.Register(subset.NewInput())
}

// DestroyInput destroys a subset input. Handles to its sets become stale.
func (e *Engine) DestroyInput(h InputHandle) error {
	if _, err := e.inputs.Release(h); err != nil {
		return err
	}
	if sets, ok := e.borrowed[h.Raw()]; ok {
		for _, s := range sets {
			if !s.IsZero() {
				_, _ = e.sets.Release(s) // may already have been destroyed by the client
			}
		}
		delete(e.borrowed, h.Raw())
	}
	return nil
}

// InputGlyphSet returns a handle to the set of glyph ids of a subset input.
// The set belongs to the input; adding to it changes the input.
func (e *Engine) InputGlyphSet(h InputHandle) (SetHandle, error) {
	return e.inputSet(h, 0)
}

// InputUnicodeSet returns a handle to the set of code-points of a subset
// input. The set belongs to the input; adding to it changes the input.
func (e *Engine) InputUnicodeSet(h InputHandle) (SetHandle, error) {
	return e.inputSet(h, 1)
}

// InputAddText adds the code-points of text to a subset input, optionally
// with case and decomposition variants.
func (e *Engine) InputAddText(h InputHandle, text string, opts ...subset.TextOption) error {
	in, err := e.inputs.Resolve(h)
	if err != nil {
		return err
	}
	in.AddText(text, opts...)
	return nil
}

func (e *Engine) inputSet(h InputHandle, which int) (SetHandle, error) {
	in, err := e.inputs.Resolve(h)
	if err != nil {
		return SetHandle{}, err
	}
	sets := e.borrowed[h.Raw()]
	if s := sets[which]; !s.IsZero() {
		if _, err := e.sets.Resolve(s); err == nil {
			return s, nil
		}
	}
	set := in.GlyphSet()
	if which == 1 {
		set = in.UnicodeSet()
	}
	sets[which] = e.sets.Register(set)
	e.borrowed[h.Raw()] = sets
	return sets[which], nil
}

// InputSetFlags sets the flags of a subset input. Unknown flag bits are
// ignored.
func (e *Engine) InputSetFlags(h InputHandle, flags uint32) error {
	in, err := e.inputs.Resolve(h)
	if err != nil {
		return err
	}
	in.SetFlags(subset.MaskFlags(flags))
	return nil
}

// InputSetFlagNames sets the flags of a subset input from flag names, e.g.
// "--glyph-names". Unknown names are an error and leave the input
// unchanged.
func (e *Engine) InputSetFlagNames(h InputHandle, names ...string) error {
	in, err := e.inputs.Resolve(h)
	if err != nil {
		return err
	}
	flags, err := subset.ParseFlags(names...)
	if err != nil {
		return err
	}
	in.SetFlags(flags)
	return nil
}

// InputSetFeatures restricts layout closure of a subset input to the given
// OpenType features.
func (e *Engine) InputSetFeatures(h InputHandle, tags ...string) error {
	in, err := e.inputs.Resolve(h)
	if err != nil {
		return err
	}
	features := make([]otface.Tag, len(tags))
	for i, t := range tags {
		if len(t) == 0 || len(t) > 4 {
			return core.Error(core.EINVALID, "invalid feature tag %q", t)
		}
		features[i] = otface.T(t)
	}
	in.SetFeatures(features...)
	return nil
}

// --- Plans -----------------------------------------------------------------

// CreatePlan computes the closure of a subset input over a face. It fails
// with core.EEMPTY if nothing besides .notdef is selected. Creating a plan
// does not consume the input.
func (e *Engine) CreatePlan(face FaceHandle, input InputHandle) (PlanHandle, error) {
	f, err := e.faces.Resolve(face)
	if err != nil {
		return PlanHandle{}, err
	}
	in, err := e.inputs.Resolve(input)
	if err != nil {
		return PlanHandle{}, err
	}
	plan, err := subset.CreatePlan(f, in)
	if err != nil {
		return PlanHandle{}, err
	}
	return e.plans.Register(plan), nil
}

// DestroyPlan destroys a plan.
func (e *Engine) DestroyPlan(h PlanHandle) error {
	_, err := e.plans.Release(h)
	return err
}

// PlanOldToNewGlyphMapping returns a new map from original to new glyph ids.
// The client owns the map and must destroy it.
func (e *Engine) PlanOldToNewGlyphMapping(h PlanHandle) (MapHandle, error) {
	plan, err := e.plans.Resolve(h)
	if err != nil {
		return MapHandle{}, err
	}
	return e.maps.Register(plan.GlyphMap()), nil
}

// SubsetOrFail subsets a face and returns the subset font as a new face. The
// bytes of the new font are available through ReferenceBlob. On failure
// the zero handle is returned together with the error.
func (e *Engine) SubsetOrFail(face FaceHandle, input InputHandle) (FaceHandle, error) {
	f, err := e.faces.Resolve(face)
	if err != nil {
		return FaceHandle{}, err
	}
	in, err := e.inputs.Resolve(input)
	if err != nil {
		return FaceHandle{}, err
	}
	plan, err := subset.CreatePlan(f, in)
	if err != nil {
		tracer().Infof("subsetting failed: %v", err)
		return FaceHandle{}, err
	}
	return e.subsetWithPlan(f, plan)
}

// SubsetPlan serializes a face with an existing plan, returning the subset
// font as a new face.
func (e *Engine) SubsetPlan(face FaceHandle, plan PlanHandle) (FaceHandle, error) {
	f, err := e.faces.Resolve(face)
	if err != nil {
		return FaceHandle{}, err
	}
	p, err := e.plans.Resolve(plan)
	if err != nil {
		return FaceHandle{}, err
	}
	return e.subsetWithPlan(f, p)
}

func (e *Engine) subsetWithPlan(f *otface.Face, plan *subset.Plan) (FaceHandle, error) {
	data, err := serialize.Subset(f, plan, e.serializer...)
	if err != nil {
		tracer().Infof("subsetting failed: %v", err)
		return FaceHandle{}, err
	}
	blob := otface.NewBlob(data, otface.Writable)
	sub, err := otface.NewFace(blob, 0)
	_ = blob.Destroy() // the new face holds the remaining reference
	if err != nil {
		return FaceHandle{}, core.WrapError(err, core.ESUBSET, "subset font cannot be read")
	}
	return e.faces.Register(sub), nil
}
