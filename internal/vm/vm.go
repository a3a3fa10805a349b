package vm

import (
	"io"
	"strings"

	"cinder/internal/arena"
)

// DefaultMaxObjects is the live-object threshold above which an allocation
// triggers a collection when none is configured.
const DefaultMaxObjects = 10

// VM owns the heap and the operand stack. The operand stack holds heap
// references and is the sole root set during a collection.
type VM struct {
	objects    arena.Arena[Object]
	stack      []arena.Index
	maxObjects int
	gcOn       bool
	trace      *Tracer
}

// NewVM creates a VM with the given live-object threshold. Collection
// starts enabled. A threshold of zero or below selects DefaultMaxObjects.
func NewVM(maxObjects int) *VM {
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}
	return &VM{maxObjects: maxObjects, gcOn: true}
}

// SetTracer installs a tracer for heap and collection events. A nil tracer
// disables tracing.
func (vm *VM) SetTracer(t *Tracer) { vm.trace = t }

// SetGC toggles automatic collection. Turning it on while the heap is
// already over threshold collects immediately.
func (vm *VM) SetGC(on bool) {
	vm.gcOn = on
	if vm.gcOn && vm.objects.Len() > vm.maxObjects {
		vm.Collect()
	}
}

// GCEnabled reports whether automatic collection is on.
func (vm *VM) GCEnabled() bool { return vm.gcOn }

// Live reports the number of live heap objects.
func (vm *VM) Live() int { return vm.objects.Len() }

// PushValue allocates v on the heap and pushes its reference onto the
// operand stack. If the allocation brings the live count above the
// threshold and collection is enabled, a collection runs before returning.
func (vm *VM) PushValue(v Value) arena.Index {
	id := vm.objects.InsertWith(func(idx arena.Index) Object {
		return Object{Self: idx, Value: v}
	})
	vm.trace.HeapAlloc(id, v)
	vm.Push(id)
	if vm.gcOn && vm.objects.Len() > vm.maxObjects {
		vm.Collect()
	}
	return id
}

// Push pushes an existing heap reference onto the operand stack.
func (vm *VM) Push(id arena.Index) {
	vm.stack = append(vm.stack, id)
}

// Pop removes and returns the top of the operand stack.
func (vm *VM) Pop() (arena.Index, bool) {
	n := len(vm.stack)
	if n == 0 {
		return arena.Index{}, false
	}
	id := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return id, true
}

// Top returns the top of the operand stack without removing it.
func (vm *VM) Top() (arena.Index, bool) {
	if len(vm.stack) == 0 {
		return arena.Index{}, false
	}
	return vm.stack[len(vm.stack)-1], true
}

// Get returns the heap object for id, or false if the reference is stale
// or was never valid.
func (vm *VM) Get(id arena.Index) (*Object, bool) {
	return vm.objects.Get(id)
}

// Collect runs a full mark-sweep pass rooted at the operand stack. It
// never removes anything reachable from the roots and returns the number
// of objects freed. Survivors come out with their mark bit cleared.
func (vm *VM) Collect() int {
	vm.trace.GCBegin(vm.objects.Len())
	vm.markAll()
	freed := vm.sweep()
	vm.trace.GCEnd(vm.objects.Len(), freed)
	return freed
}

// markAll walks the reference graph from the roots with an explicit work
// list. The mark bit doubles as the visited set, so the walk terminates
// even if a reference cycle were ever introduced.
func (vm *VM) markAll() {
	work := append([]arena.Index(nil), vm.stack...)
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		obj, ok := vm.objects.Get(id)
		if !ok || obj.Marked {
			continue
		}
		obj.Marked = true
		work = append(work, obj.Children()...)
	}
}

// sweep removes every unmarked object and clears the mark on survivors.
func (vm *VM) sweep() int {
	freed := 0
	vm.objects.Retain(func(id arena.Index, obj *Object) bool {
		if obj.Marked {
			obj.Marked = false
			return true
		}
		vm.trace.HeapFree(id)
		freed++
		return false
	})
	return freed
}

// Display renders the value at id in its canonical textual form: integers
// as "<v>i", floats as "<v>f", structs as "Struct(<field>, ...)".
func (vm *VM) Display(id arena.Index) (string, error) {
	var sb strings.Builder
	if err := vm.writeValue(&sb, id); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteValue renders the value at id to w.
func (vm *VM) WriteValue(w io.Writer, id arena.Index) error {
	return vm.writeValue(w, id)
}

func (vm *VM) writeValue(w io.Writer, id arena.Index) error {
	obj, ok := vm.objects.Get(id)
	if !ok {
		return errStaleRef(id.String())
	}
	switch obj.Value.Kind {
	case KindInt:
		return writeString(w, formatInt(obj.Value.Int)+"i")
	case KindFloat:
		return writeString(w, formatFloat(obj.Value.Float)+"f")
	case KindStruct:
		if err := writeString(w, "Struct("); err != nil {
			return err
		}
		for i, field := range obj.Value.Fields {
			if i > 0 {
				if err := writeString(w, ", "); err != nil {
					return err
				}
			}
			if err := vm.writeValue(w, field); err != nil {
				return err
			}
		}
		return writeString(w, ")")
	default:
		return errStaleRef(id.String())
	}
}

func writeString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return &VMError{Code: ErrRender, Message: err.Error()}
	}
	return nil
}
