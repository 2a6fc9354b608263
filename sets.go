package otsubset

import (
	"github.com/npillmayer/otsubset/core"
	"github.com/npillmayer/otsubset/intset"
)

// Invalid is the sentinel for "no value": as a start value of SetNextMany
// it starts at the smallest member, as a map value it denotes a missing key.
const Invalid = intset.Invalid

// CreateSet creates an empty set.
func (e *Engine) CreateSet() SetHandle {
	return e.sets.Register(&intset.Set{})
}

// DestroySet destroys a set.
func (e *Engine) DestroySet(h SetHandle) error {
	_, err := e.sets.Release(h)
	return err
}

// SetAdd adds values to a set.
func (e *Engine) SetAdd(h SetHandle, values ...uint32) error {
	set, err := e.sets.Resolve(h)
	if err != nil {
		return err
	}
	for _, v := range values {
		set.Add(v)
	}
	return nil
}

// SetContains is true if v is a member of the set.
func (e *Engine) SetContains(h SetHandle, v uint32) (bool, error) {
	set, err := e.sets.Resolve(h)
	if err != nil {
		return false, err
	}
	return set.Contains(v), nil
}

// SetPopulation returns the number of members of a set.
func (e *Engine) SetPopulation(h SetHandle) (int, error) {
	set, err := e.sets.Resolve(h)
	if err != nil {
		return 0, err
	}
	return set.Population(), nil
}

// SetNextMany writes the members of a set greater than after into out, in
// ascending order, at most max of them. If after is Invalid, writing starts
// with the smallest member. SetNextMany returns the number of values
// written and whether members remain which did not fit.
func (e *Engine) SetNextMany(h SetHandle, after uint32, out []uint32, max int) (written int, truncated bool, err error) {
	set, err := e.sets.Resolve(h)
	if err != nil {
		return 0, false, err
	}
	if max < 0 {
		return 0, false, core.Error(core.EINVALID, "negative count %d", max)
	}
	if max < len(out) {
		out = out[:max]
	}
	written = set.NextMany(after, out)
	last := after
	if written > 0 {
		last = out[written-1]
	}
	if written < len(out) {
		return written, false, nil
	}
	truncated = set.Next(last) != Invalid
	if truncated {
		tracer().Debugf("set extraction truncated after %d values", written)
	}
	return written, truncated, nil
}

// --- Maps ------------------------------------------------------------------

// DestroyMap destroys a map.
func (e *Engine) DestroyMap(h MapHandle) error {
	_, err := e.maps.Release(h)
	return err
}

// MapLen returns the number of keys of a map.
func (e *Engine) MapLen(h MapHandle) (int, error) {
	m, err := e.maps.Resolve(h)
	if err != nil {
		return 0, err
	}
	return m.Len(), nil
}

// MapGet returns the value for key k, or Invalid if k is not a key.
func (e *Engine) MapGet(h MapHandle, k uint32) (uint32, error) {
	m, err := e.maps.Resolve(h)
	if err != nil {
		return Invalid, err
	}
	v, _ := m.Get(k)
	return v, nil
}

// MapKeys returns a new set holding the keys of a map. The client owns the
// set and must destroy it separately from the map.
func (e *Engine) MapKeys(h MapHandle) (SetHandle, error) {
	m, err := e.maps.Resolve(h)
	if err != nil {
		return SetHandle{}, err
	}
	return e.sets.Register(m.Keys()), nil
}

// MapValues returns a new set holding the values of a map. The client owns
// the set.
func (e *Engine) MapValues(h MapHandle) (SetHandle, error) {
	m, err := e.maps.Resolve(h)
	if err != nil {
		return SetHandle{}, err
	}
	return e.sets.Register(m.Values()), nil
}
