package vm

import (
	"fmt"
	"io"

	"cinder/internal/arena"
)

// Tracer writes single-line execution, heap and collection events for
// debugging. All methods are safe to call on a nil tracer.
type Tracer struct {
	w io.Writer
}

// NewTracer creates a tracer that writes to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// Exec traces execution of one instruction.
// Format: [exec] ip=<slot@gen> <instr>
func (t *Tracer) Exec(ip arena.Index, in Instr) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[exec] ip=%s %s\n", ip, in)
}

// HeapAlloc traces an allocation.
func (t *Tracer) HeapAlloc(id arena.Index, v Value) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[heap] alloc %s#%s\n", v.Kind, id)
}

// HeapFree traces a slot freed by the sweep phase.
func (t *Tracer) HeapFree(id arena.Index) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[heap] free #%s\n", id)
}

// GCBegin traces the start of a collection pass.
func (t *Tracer) GCBegin(live int) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[gc] begin live=%d\n", live)
}

// GCEnd traces the end of a collection pass.
func (t *Tracer) GCEnd(live, freed int) {
	if t == nil || t.w == nil {
		return
	}
	fmt.Fprintf(t.w, "[gc] end live=%d freed=%d\n", live, freed)
}
