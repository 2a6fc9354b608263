package otsubset

import (
	"errors"
)

// Scope collects engine objects and destroys them together. Objects are
// destroyed in reverse order of registration.
//
//	sc := e.NewScope()
//	defer sc.Close()
//	set := sc.Set(e.CreateSet())
type Scope struct {
	e        *Engine
	releases []func() error
	closed   bool
}

// NewScope creates an empty scope for objects of e.
func (e *Engine) NewScope() *Scope {
	return &Scope{e: e}
}

func (sc *Scope) push(zero bool, release func() error) {
	if !zero {
		sc.releases = append(sc.releases, release)
	}
}

// Blob registers a blob for destruction and returns it.
func (sc *Scope) Blob(h BlobHandle) BlobHandle {
	sc.push(h.IsZero(), func() error { return sc.e.DestroyBlob(h) })
	return h
}

// Face registers a face for destruction and returns it.
func (sc *Scope) Face(h FaceHandle) FaceHandle {
	sc.push(h.IsZero(), func() error { return sc.e.DestroyFace(h) })
	return h
}

// Set registers a set for destruction and returns it.
func (sc *Scope) Set(h SetHandle) SetHandle {
	sc.push(h.IsZero(), func() error { return sc.e.DestroySet(h) })
	return h
}

// Map registers a map for destruction and returns it.
func (sc *Scope) Map(h MapHandle) MapHandle {
	sc.push(h.IsZero(), func() error { return sc.e.DestroyMap(h) })
	return h
}

// Input registers a subset input for destruction and returns it.
func (sc *Scope) Input(h InputHandle) InputHandle {
	sc.push(h.IsZero(), func() error { return sc.e.DestroyInput(h) })
	return h
}

// Plan registers a plan for destruction and returns it.
func (sc *Scope) Plan(h PlanHandle) PlanHandle {
	sc.push(h.IsZero(), func() error { return sc.e.DestroyPlan(h) })
	return h
}

// U32View registers a view for release and returns it.
func (sc *Scope) U32View(v *U32View) *U32View {
	sc.push(v == nil, v.Release)
	return v
}

// ByteView registers a view for release and returns it.
func (sc *Scope) ByteView(v *ByteView) *ByteView {
	sc.push(v == nil, v.Release)
	return v
}

// Close destroys all objects of the scope, even if some of them fail to
// be destroyed. The errors are joined. Calling Close twice does nothing.
func (sc *Scope) Close() error {
	if sc.closed {
		return nil
	}
	sc.closed = true
	var errs []error
	for i := len(sc.releases) - 1; i >= 0; i-- {
		if err := sc.releases[i](); err != nil {
			errs = append(errs, err)
		}
	}
	sc.releases = nil
	return errors.Join(errs...)
}
