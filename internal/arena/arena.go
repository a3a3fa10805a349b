// Package arena implements a generational slot store: a growable table of
// reusable slots where every reference carries the generation it was issued
// under. Freeing a slot bumps its generation, so a reference held across a
// free is detected instead of resolving to whatever occupies the slot next.
package arena

import (
	"fmt"

	"fortio.org/safecast"
)

// Index is a stable reference to an arena entry. The zero Index never refers
// to a live entry. Two indexes are equal only if both slot and generation
// match.
type Index struct {
	slot uint32
	gen  uint32
}

// Slot returns the raw slot position. Slots are assigned in insertion order
// and never move or compact.
func (i Index) Slot() uint32 { return i.slot }

// Generation returns the generation the entry was issued under.
func (i Index) Generation() uint32 { return i.gen }

// IsZero reports whether the index is the invalid zero value.
func (i Index) IsZero() bool { return i == Index{} }

func (i Index) String() string {
	return fmt.Sprintf("%d@%d", i.slot, i.gen)
}

type entry[T any] struct {
	gen      uint32
	occupied bool
	value    T
}

// Arena is a generational slot store. The zero value is ready to use.
//
// Generations start at 1, so a zero Index can never match an occupied slot.
type Arena[T any] struct {
	entries []entry[T]
	free    []uint32 // vacated slots, reused before the table grows
	length  int
}

// Insert stores v and returns its index.
func (a *Arena[T]) Insert(v T) Index {
	return a.InsertWith(func(Index) T { return v })
}

// InsertWith calls fn with the index the value is about to occupy and stores
// the result. This lets a value learn its own identity at insertion time.
func (a *Arena[T]) InsertWith(fn func(Index) T) Index {
	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		s, err := safecast.Conv[uint32](len(a.entries))
		if err != nil {
			panic(fmt.Sprintf("arena: slot count overflow: %v", err))
		}
		slot = s
		a.entries = append(a.entries, entry[T]{})
	}
	e := &a.entries[slot]
	e.gen++
	e.occupied = true
	idx := Index{slot: slot, gen: e.gen}
	e.value = fn(idx)
	a.length++
	return idx
}

// Get returns a pointer to the entry at idx, or false if the slot is vacant
// or the generation does not match (a stale reference).
func (a *Arena[T]) Get(idx Index) (*T, bool) {
	if int(idx.slot) >= len(a.entries) {
		return nil, false
	}
	e := &a.entries[idx.slot]
	if !e.occupied || e.gen != idx.gen {
		return nil, false
	}
	return &e.value, true
}

// AtSlot returns the current occupant of a raw slot position, whatever its
// generation. Callers that walk entries in load order use this to step to
// the next slot without knowing its generation in advance.
func (a *Arena[T]) AtSlot(slot uint32) (Index, *T, bool) {
	if int(slot) >= len(a.entries) {
		return Index{}, nil, false
	}
	e := &a.entries[slot]
	if !e.occupied {
		return Index{}, nil, false
	}
	return Index{slot: slot, gen: e.gen}, &e.value, true
}

// Remove vacates the entry at idx and returns its value. The slot's
// generation is bumped so existing references to the old occupant go stale,
// and the slot joins the free list for reuse.
func (a *Arena[T]) Remove(idx Index) (T, bool) {
	var zero T
	if int(idx.slot) >= len(a.entries) {
		return zero, false
	}
	e := &a.entries[idx.slot]
	if !e.occupied || e.gen != idx.gen {
		return zero, false
	}
	v := e.value
	e.value = zero
	e.occupied = false
	a.free = append(a.free, idx.slot)
	a.length--
	return v, true
}

// Len reports the number of occupied slots.
func (a *Arena[T]) Len() int { return a.length }

// Range calls fn for every occupied entry in slot order until fn returns
// false. Entries must not be inserted or removed during the walk.
func (a *Arena[T]) Range(fn func(Index, *T) bool) {
	for slot := range a.entries {
		e := &a.entries[slot]
		if !e.occupied {
			continue
		}
		if !fn(Index{slot: uint32(slot), gen: e.gen}, &e.value) {
			return
		}
	}
}

// Retain removes every entry for which keep returns false, in slot order.
func (a *Arena[T]) Retain(keep func(Index, *T) bool) {
	for slot := range a.entries {
		e := &a.entries[slot]
		if !e.occupied {
			continue
		}
		idx := Index{slot: uint32(slot), gen: e.gen}
		if !keep(idx, &e.value) {
			a.Remove(idx)
		}
	}
}
