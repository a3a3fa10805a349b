package vm

import (
	"cinder/internal/arena"
)

// Options configures interpreter construction.
type Options struct {
	MaxObjects int     // live-object GC threshold; DefaultMaxObjects when zero
	DisableGC  bool    // start with automatic collection off
	Trace      *Tracer // execution/heap tracing; nil disables
}

// stepKind is the outcome of executing one instruction.
type stepKind uint8

const (
	stepNext stepKind = iota // advance to the next instruction in load order
	stepJump                 // move the instruction pointer to a target
	stepHalt                 // stop the loop immediately
)

type step struct {
	kind   stepKind
	target arena.Index // for stepJump
}

// Interpreter executes a loaded instruction sequence against a VM. The
// instruction store is append-only for the interpreter's lifetime and is
// never swept; "next" is defined purely by load-time slot order.
type Interpreter struct {
	vm     *VM
	instrs arena.Arena[Instr]
	labels map[string]arena.Index
	frame  *Frame
	trace  *Tracer
}

// New loads instructions with default options. See NewWithOptions.
func New(instrs []Instr) *Interpreter {
	return NewWithOptions(instrs, Options{})
}

// NewWithOptions loads the instruction sequence. A Label entry attaches its
// name to the next real instruction and is then discarded; consecutive
// labels before one instruction resolve to the last one, and a trailing
// label binds nothing. Returns nil when no executable instruction exists.
func NewWithOptions(instrs []Instr, opts Options) *Interpreter {
	it := &Interpreter{
		vm:     NewVM(opts.MaxObjects),
		labels: make(map[string]arena.Index),
		trace:  opts.Trace,
	}
	it.vm.SetTracer(opts.Trace)
	if opts.DisableGC {
		it.vm.SetGC(false)
	}

	var (
		pending    string
		hasPending bool
		first      arena.Index
		hasFirst   bool
	)
	for _, in := range instrs {
		if in.Op == OpLabel {
			pending = in.Label
			hasPending = true
			continue
		}
		id := it.instrs.Insert(in)
		if !hasFirst {
			first = id
			hasFirst = true
		}
		if hasPending {
			it.labels[pending] = id
			hasPending = false
		}
	}
	if !hasFirst {
		return nil
	}
	it.frame = &Frame{ip: first}
	return it
}

// VM returns the interpreter's virtual machine.
func (it *Interpreter) VM() *VM { return it.vm }

// Display renders the heap value at id.
func (it *Interpreter) Display(id arena.Index) (string, error) {
	return it.vm.Display(id)
}

// Run drives the fetch-decode-execute loop until an explicit halt or until
// no further instruction exists, then returns the top-of-stack reference.
func (it *Interpreter) Run() (arena.Index, *VMError) {
	for {
		in, ok := it.instrs.Get(it.frame.ip)
		if !ok {
			break
		}
		it.trace.Exec(it.frame.ip, *in)
		res, err := it.execute(*in)
		if err != nil {
			return arena.Index{}, err
		}
		if res.kind == stepHalt {
			break
		}
		if res.kind == stepJump {
			it.frame.MoveTo(res.target)
			continue
		}
		// Sequential advance: the physically next-loaded instruction,
		// independent of label structure.
		next, _, ok := it.instrs.AtSlot(it.frame.ip.Slot() + 1)
		if !ok {
			break
		}
		it.frame.MoveTo(next)
	}
	top, ok := it.vm.Top()
	if !ok {
		return arena.Index{}, errUnderflow()
	}
	return top, nil
}

func (it *Interpreter) execute(in Instr) (step, *VMError) {
	switch in.Op {
	case OpConstInt:
		it.vm.PushValue(IntValue(in.Int))
	case OpConstFloat:
		it.vm.PushValue(FloatValue(in.Float))
	case OpPushStruct:
		fields := make([]arena.Index, in.N)
		for i := in.N - 1; i >= 0; i-- {
			id, ok := it.vm.Pop()
			if !ok {
				return step{}, errUnderflow()
			}
			fields[i] = id
		}
		it.vm.PushValue(StructValue(fields))
	case OpGetStruct:
		id, ok := it.vm.Pop()
		if !ok {
			return step{}, errUnderflow()
		}
		obj, ok := it.vm.Get(id)
		if !ok {
			return step{}, errStaleRef(id.String())
		}
		if obj.Value.Kind != KindStruct {
			return step{}, it.mismatch(id)
		}
		it.vm.Push(obj.Value.Fields[in.N])
	case OpGetLocal:
		locals, ok := it.frame.TopLocals()
		if !ok {
			return step{}, errUnderflow()
		}
		it.vm.Push(locals[in.N])
	case OpIAdd:
		return it.intArith(func(a, b int32) int32 { return a + b })
	case OpISub:
		return it.intArith(func(a, b int32) int32 { return a - b })
	case OpIMul:
		return it.intArith(func(a, b int32) int32 { return a * b })
	case OpFAdd:
		return it.floatArith(func(a, b float32) float32 { return a + b })
	case OpFSub:
		return it.floatArith(func(a, b float32) float32 { return a - b })
	case OpFMul:
		return it.floatArith(func(a, b float32) float32 { return a * b })
	case OpCEq:
		return it.compare(func(a, b int32) bool { return a == b }, func(a, b float32) bool { return a == b })
	case OpCNe:
		return it.compare(func(a, b int32) bool { return a != b }, func(a, b float32) bool { return a != b })
	case OpCLt:
		return it.compare(func(a, b int32) bool { return a < b }, func(a, b float32) bool { return a < b })
	case OpCLe:
		return it.compare(func(a, b int32) bool { return a <= b }, func(a, b float32) bool { return a <= b })
	case OpCGt:
		return it.compare(func(a, b int32) bool { return a > b }, func(a, b float32) bool { return a > b })
	case OpCGe:
		return it.compare(func(a, b int32) bool { return a >= b }, func(a, b float32) bool { return a >= b })
	case OpCall:
		target, ok := it.labels[in.Label]
		if !ok {
			return step{}, errUnresolvedLabel(in.Label)
		}
		locals := make([]arena.Index, in.N)
		for i := in.N - 1; i >= 0; i-- {
			id, ok := it.vm.Pop()
			if !ok {
				return step{}, errUnderflow()
			}
			locals[i] = id
		}
		it.frame.PushLocals(locals)
		return step{kind: stepJump, target: target}, nil
	case OpJump:
		target, ok := it.labels[in.Label]
		if !ok {
			return step{}, errUnresolvedLabel(in.Label)
		}
		return step{kind: stepJump, target: target}, nil
	case OpJmpCmp:
		target, ok := it.labels[in.Label]
		if !ok {
			return step{}, errUnresolvedLabel(in.Label)
		}
		id, ok := it.vm.Pop()
		if !ok {
			return step{}, errUnderflow()
		}
		obj, ok := it.vm.Get(id)
		if !ok {
			return step{}, errStaleRef(id.String())
		}
		if obj.Value.Kind != KindInt {
			return step{}, it.mismatch(id)
		}
		switch obj.Value.Int {
		case 1:
			return step{kind: stepJump, target: target}, nil
		case 0:
			return step{kind: stepNext}, nil
		default:
			return step{}, it.mismatch(id)
		}
	case OpReturn:
		return step{kind: stepHalt}, nil
	case OpLabel:
		// Labels are consumed at load time and never stored.
	default:
		return step{}, &VMError{Code: ErrInvalidInstrPtr, Message: "unknown opcode " + in.Op.String()}
	}
	return step{kind: stepNext}, nil
}

// popBinop pops the two operands of a binary operation, right-hand side
// first, and resolves both heap objects.
func (it *Interpreter) popBinop() (a, b *Object, err *VMError) {
	idB, ok := it.vm.Pop()
	if !ok {
		return nil, nil, errUnderflow()
	}
	idA, ok := it.vm.Pop()
	if !ok {
		return nil, nil, errUnderflow()
	}
	objA, ok := it.vm.Get(idA)
	if !ok {
		return nil, nil, errStaleRef(idA.String())
	}
	objB, ok := it.vm.Get(idB)
	if !ok {
		return nil, nil, errStaleRef(idB.String())
	}
	return objA, objB, nil
}

func (it *Interpreter) intArith(fn func(a, b int32) int32) (step, *VMError) {
	a, b, err := it.popBinop()
	if err != nil {
		return step{}, err
	}
	if a.Value.Kind != KindInt || b.Value.Kind != KindInt {
		return step{}, it.mismatch(a.Self, b.Self)
	}
	// Read the operands before allocating: the allocation may collect, and
	// the popped operands are no longer rooted.
	res := fn(a.Value.Int, b.Value.Int)
	it.vm.PushValue(IntValue(res))
	return step{kind: stepNext}, nil
}

func (it *Interpreter) floatArith(fn func(a, b float32) float32) (step, *VMError) {
	a, b, err := it.popBinop()
	if err != nil {
		return step{}, err
	}
	if a.Value.Kind != KindFloat || b.Value.Kind != KindFloat {
		return step{}, it.mismatch(a.Self, b.Self)
	}
	res := fn(a.Value.Float, b.Value.Float)
	it.vm.PushValue(FloatValue(res))
	return step{kind: stepNext}, nil
}

func (it *Interpreter) compare(ints func(a, b int32) bool, floats func(a, b float32) bool) (step, *VMError) {
	a, b, err := it.popBinop()
	if err != nil {
		return step{}, err
	}
	var holds bool
	switch {
	case a.Value.Kind == KindInt && b.Value.Kind == KindInt:
		holds = ints(a.Value.Int, b.Value.Int)
	case a.Value.Kind == KindFloat && b.Value.Kind == KindFloat:
		holds = floats(a.Value.Float, b.Value.Float)
	default:
		return step{}, it.mismatch(a.Self, b.Self)
	}
	res := int32(0)
	if holds {
		res = 1
	}
	it.vm.PushValue(IntValue(res))
	return step{kind: stepNext}, nil
}

// mismatch builds a value-mismatch error carrying the rendered operands.
func (it *Interpreter) mismatch(ids ...arena.Index) *VMError {
	rendered := make([]string, 0, len(ids))
	for _, id := range ids {
		s, err := it.vm.Display(id)
		if err != nil {
			s = "<stale " + id.String() + ">"
		}
		rendered = append(rendered, s)
	}
	return errMismatch(rendered...)
}
