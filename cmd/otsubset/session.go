package main

import (
	"os"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/text/language"

	"github.com/npillmayer/otsubset"
	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/otface"
	"github.com/npillmayer/otsubset/subset"
)

// session holds the engine objects of one subsetting run.
type session struct {
	e     *otsubset.Engine
	scope *otsubset.Scope
	name  string
	face  otsubset.FaceHandle
	input otsubset.InputHandle
	flags []string
}

func newSession(fontfile string) (*session, error) {
	data, err := otsubset.LoadFont(fontfile)
	if err != nil {
		return nil, err
	}
	s := &session{e: otsubset.NewEngine(), name: otsubset.FontName(data)}
	s.scope = s.e.NewScope()
	blob := s.e.CreateBlob(data, otface.Writable)
	s.face, err = s.e.CreateFace(blob, 0)
	// the face keeps the blob alive
	if derr := s.e.DestroyBlob(blob); err == nil {
		err = derr
	}
	if err != nil {
		_ = s.scope.Close()
		return nil, err
	}
	s.scope.Face(s.face)
	s.input = s.scope.Input(s.e.CreateInput())
	n, _ := s.e.FaceGlyphCount(s.face)
	pterm.Info.Printf("loaded font %q with %d glyphs\n", s.name, n)
	return s, nil
}

func (s *session) close() {
	if err := s.scope.Close(); err != nil {
		tracer().Errorf("cleaning up: %v", err)
	}
}

// configure seeds the subset input the way the command line asks for:
// glyph ids are closed first and the closure is added back to the input,
// then code-points of the text are added and flags are set.
func (s *session) configure(gidList, text string, upper bool, flagList string) error {
	gids, err := parseGlyphIDs(gidList)
	if err != nil {
		return err
	}
	if len(gids) > 0 {
		if err := s.addGlyphs(gids...); err != nil {
			return err
		}
		closed, err := s.closure()
		if err != nil {
			return err
		}
		pterm.Info.Printf("Step 1: glyph ids %v\n", closed)
		if err := s.addGlyphs(closed...); err != nil {
			return err
		}
	}
	if text != "" {
		var opts []subset.TextOption
		if upper {
			opts = append(opts, subset.WithUpperCase(language.Und))
		}
		if err := s.addText(text, opts...); err != nil {
			return err
		}
	}
	return s.setFlags(splitList(flagList)...)
}

func (s *session) addGlyphs(gids ...uint32) error {
	set, err := s.e.InputGlyphSet(s.input)
	if err != nil {
		return err
	}
	return s.e.SetAdd(set, gids...)
}

func (s *session) addText(text string, opts ...subset.TextOption) error {
	tracer().Infof("adding text %q", text)
	return s.e.InputAddText(s.input, text, opts...)
}

func (s *session) setFlags(names ...string) error {
	if err := s.e.InputSetFlagNames(s.input, names...); err != nil {
		return err
	}
	s.flags = names
	return nil
}

// closure computes a plan and returns the retained original glyph ids.
func (s *session) closure() (gids []uint32, err error) {
	sc := s.e.NewScope()
	defer func() {
		if cerr := sc.Close(); err == nil {
			err = cerr
		}
	}()
	plan, err := s.e.CreatePlan(s.face, s.input)
	if err != nil {
		return nil, err
	}
	sc.Plan(plan)
	gmap, err := s.e.PlanOldToNewGlyphMapping(plan)
	if err != nil {
		return nil, err
	}
	sc.Map(gmap)
	keys, err := s.e.MapKeys(gmap)
	if err != nil {
		return nil, err
	}
	sc.Set(keys)
	view, err := s.e.ExtractSet(keys)
	if err != nil {
		return nil, err
	}
	sc.U32View(view)
	return view.Copy()
}

// subset creates the subset font and returns its bytes.
func (s *session) subset() (data []byte, err error) {
	sc := s.e.NewScope()
	defer func() {
		if cerr := sc.Close(); err == nil {
			err = cerr
		}
	}()
	sub, err := s.e.SubsetOrFail(s.face, s.input)
	if err != nil {
		return nil, err
	}
	sc.Face(sub)
	blob, err := s.e.ReferenceBlob(sub)
	if err != nil {
		return nil, err
	}
	sc.Blob(blob)
	if n, err := s.e.BlobLength(blob); err != nil || n == 0 {
		return nil, core.Error(core.ESUBSET, "failed to create subset font, maybe the input file is corrupted?")
	}
	view, err := s.e.BlobData(blob)
	if err != nil {
		return nil, err
	}
	sc.ByteView(view)
	return view.Copy()
}

// run closes the input, subsets the font and writes the result to out.
func (s *session) run(out string) error {
	start := time.Now()
	gids, err := s.closure()
	if err != nil {
		return err
	}
	pterm.Info.Printf("Step 2: glyph ids %v\n", gids)
	pterm.Info.Printf("closed glyph list over %d glyphs\n", len(gids))
	data, err := s.subset()
	if err != nil {
		return err
	}
	pterm.Info.Printf("subset done in %v\n", time.Since(start))
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return core.WrapError(err, core.EINVALID, "cannot write %s", out)
	}
	pterm.Info.Printf("wrote subset to %s\n", out)
	return nil
}

// mapping returns the old to new glyph mapping of a subset of the current
// input, ordered by old glyph id.
func (s *session) mapping() (pairs []glyphPair, err error) {
	sc := s.e.NewScope()
	defer func() {
		if cerr := sc.Close(); err == nil {
			err = cerr
		}
	}()
	plan, err := s.e.CreatePlan(s.face, s.input)
	if err != nil {
		return nil, err
	}
	sc.Plan(plan)
	gmap, err := s.e.PlanOldToNewGlyphMapping(plan)
	if err != nil {
		return nil, err
	}
	sc.Map(gmap)
	keys, err := s.e.MapKeys(gmap)
	if err != nil {
		return nil, err
	}
	sc.Set(keys)
	buf := make([]uint32, 64)
	after := otsubset.Invalid
	for {
		n, more, err := s.e.SetNextMany(keys, after, buf, len(buf))
		if err != nil {
			return nil, err
		}
		for _, old := range buf[:n] {
			v, err := s.e.MapGet(gmap, old)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, glyphPair{old: old, new: v})
		}
		if !more || n == 0 {
			return pairs, nil
		}
		after = buf[n-1]
	}
}
