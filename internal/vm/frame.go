package vm

import "cinder/internal/arena"

// Frame is the single execution context of an interpreter run: the
// instruction pointer plus the stack of locals frames introduced by calls.
// Exactly one Frame exists per interpreter; Call pushes a locals entry and
// Return halts outright instead of popping back to a caller.
type Frame struct {
	ip     arena.Index
	locals [][]arena.Index
}

// MoveTo sets the instruction pointer.
func (f *Frame) MoveTo(id arena.Index) {
	f.ip = id
}

// PushLocals enters a fresh locals frame.
func (f *Frame) PushLocals(locals []arena.Index) {
	f.locals = append(f.locals, locals)
}

// TopLocals returns the innermost locals frame.
func (f *Frame) TopLocals() ([]arena.Index, bool) {
	if len(f.locals) == 0 {
		return nil, false
	}
	return f.locals[len(f.locals)-1], true
}
