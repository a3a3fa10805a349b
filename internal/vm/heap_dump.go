package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"cinder/internal/arena"
)

// HeapRecord describes one live heap object in a snapshot.
type HeapRecord struct {
	Slot int    `msgpack:"slot"`
	Gen  int    `msgpack:"gen"`
	Kind string `msgpack:"kind"`
	Refs int    `msgpack:"refs"`
	Repr string `msgpack:"repr"`
}

// HeapSnapshot is a point-in-time view of the live heap, ordered by slot.
type HeapSnapshot struct {
	Live    int          `msgpack:"live"`
	Objects []HeapRecord `msgpack:"objects"`
}

// Snapshot captures every live heap object in slot order.
func (vm *VM) Snapshot() HeapSnapshot {
	snap := HeapSnapshot{Live: vm.objects.Len()}
	vm.objects.Range(func(id arena.Index, obj *Object) bool {
		repr, err := vm.Display(id)
		if err != nil {
			repr = "<unrenderable>"
		}
		snap.Objects = append(snap.Objects, HeapRecord{
			Slot: int(id.Slot()),
			Gen:  int(id.Generation()),
			Kind: obj.Value.Kind.String(),
			Refs: len(obj.Children()),
			Repr: repr,
		})
		return true
	})
	return snap
}

// DumpString renders the live heap as a human-readable table, one object
// per line. Empty heap renders as an empty string.
func (vm *VM) DumpString() string {
	snap := vm.Snapshot()
	if len(snap.Objects) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "heap: %d live object(s)\n", snap.Live)
	for _, rec := range snap.Objects {
		fmt.Fprintf(&sb, "  %d@%d %-7s refs=%d %s\n", rec.Slot, rec.Gen, rec.Kind, rec.Refs, rec.Repr)
	}
	return sb.String()
}

// WriteSnapshot serializes a snapshot to w as msgpack.
func WriteSnapshot(w io.Writer, snap HeapSnapshot) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&snap)
}

// ReadSnapshot deserializes a msgpack snapshot from r.
func ReadSnapshot(r io.Reader) (HeapSnapshot, error) {
	var snap HeapSnapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return HeapSnapshot{}, err
	}
	return snap, nil
}
