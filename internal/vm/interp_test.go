package vm_test

import (
	"strings"
	"testing"

	"cinder/internal/vm"
)

// runToString executes a program and renders the final top-of-stack value.
func runToString(t *testing.T, instrs []vm.Instr) string {
	t.Helper()
	it := vm.New(instrs)
	if it == nil {
		t.Fatal("program has no executable instructions")
	}
	top, vmErr := it.Run()
	if vmErr != nil {
		t.Fatalf("unexpected error: %v", vmErr)
	}
	rendered, err := it.Display(top)
	if err != nil {
		t.Fatalf("failed to render result: %v", err)
	}
	return rendered
}

// runToError executes a program and requires it to fail with code.
func runToError(t *testing.T, instrs []vm.Instr, code vm.ErrorCode) *vm.VMError {
	t.Helper()
	it := vm.New(instrs)
	if it == nil {
		t.Fatal("program has no executable instructions")
	}
	_, vmErr := it.Run()
	if vmErr == nil {
		t.Fatal("expected error, got nil")
	}
	if vmErr.Code != code {
		t.Fatalf("expected %v, got %v (%v)", code, vmErr.Code, vmErr)
	}
	return vmErr
}

func TestArithmetic(t *testing.T) {
	got := runToString(t, []vm.Instr{
		vm.ConstInt(3),
		vm.ConstInt(7),
		vm.ConstInt(2),
		vm.IMul(),
		vm.IMul(),
	})
	if got != "42i" {
		t.Fatalf("got %q, want \"42i\"", got)
	}
}

func TestArithmeticOps(t *testing.T) {
	cases := []struct {
		name string
		prog []vm.Instr
		want string
	}{
		{"iadd", []vm.Instr{vm.ConstInt(40), vm.ConstInt(2), vm.IAdd()}, "42i"},
		{"isub", []vm.Instr{vm.ConstInt(50), vm.ConstInt(8), vm.ISub()}, "42i"},
		{"imul", []vm.Instr{vm.ConstInt(6), vm.ConstInt(7), vm.IMul()}, "42i"},
		{"fadd", []vm.Instr{vm.ConstFloat(1.5), vm.ConstFloat(2), vm.FAdd()}, "3.5f"},
		{"fsub", []vm.Instr{vm.ConstFloat(3), vm.ConstFloat(0.5), vm.FSub()}, "2.5f"},
		{"fmul", []vm.Instr{vm.ConstFloat(2.5), vm.ConstFloat(2), vm.FMul()}, "5f"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := runToString(t, tc.prog); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTypeMismatchIsNotCoerced(t *testing.T) {
	vmErr := runToError(t, []vm.Instr{
		vm.ConstInt(1),
		vm.ConstFloat(2.0),
		vm.IAdd(),
	}, vm.ErrValueMismatch)

	// The error carries both offending operands in rendered form.
	if !strings.Contains(vmErr.Message, "1i") || !strings.Contains(vmErr.Message, "2f") {
		t.Fatalf("error must name both operands, got %q", vmErr.Message)
	}
}

func TestStructRoundTrip(t *testing.T) {
	got := runToString(t, []vm.Instr{
		vm.ConstInt(1),
		vm.ConstInt(2),
		vm.PushStruct(2),
		vm.GetStruct(1),
	})
	if got != "2i" {
		t.Fatalf("got %q, want \"2i\"", got)
	}
}

func TestStructRendering(t *testing.T) {
	got := runToString(t, []vm.Instr{
		vm.ConstInt(1),
		vm.ConstFloat(2.5),
		vm.PushStruct(2),
		vm.ConstInt(3),
		vm.PushStruct(2),
	})
	if got != "Struct(Struct(1i, 2.5f), 3i)" {
		t.Fatalf("got %q", got)
	}
}

func TestGetStructOnScalar(t *testing.T) {
	runToError(t, []vm.Instr{
		vm.ConstInt(1),
		vm.GetStruct(0),
	}, vm.ErrValueMismatch)
}

func TestStackUnderflow(t *testing.T) {
	runToError(t, []vm.Instr{vm.IAdd()}, vm.ErrStackUnderflow)
}

func TestEmptyStackAtEndOfProgram(t *testing.T) {
	// JmpCmp consumes the only value, leaving nothing to return.
	runToError(t, []vm.Instr{
		vm.ConstInt(1),
		vm.JmpCmp("end"),
		vm.Label("end"),
		vm.Return(),
	}, vm.ErrStackUnderflow)
}

func TestUnresolvedLabel(t *testing.T) {
	runToError(t, []vm.Instr{vm.Jump("nope")}, vm.ErrUnresolvedLabel)
}

func TestTrailingLabelBindsNothing(t *testing.T) {
	// A label with no following instruction is dropped at load time, so a
	// jump to it fails at resolution time.
	runToError(t, []vm.Instr{
		vm.ConstInt(1),
		vm.Jump("end"),
		vm.Label("end"),
	}, vm.ErrUnresolvedLabel)
}

func TestConsecutiveLabelsLastWins(t *testing.T) {
	got := runToString(t, []vm.Instr{
		vm.Jump("b"),
		vm.Label("a"),
		vm.Label("b"),
		vm.ConstInt(7),
	})
	if got != "7i" {
		t.Fatalf("got %q, want \"7i\"", got)
	}

	runToError(t, []vm.Instr{
		vm.Jump("a"),
		vm.Label("a"),
		vm.Label("b"),
		vm.ConstInt(7),
	}, vm.ErrUnresolvedLabel)
}

func TestEmptyProgram(t *testing.T) {
	if vm.New(nil) != nil {
		t.Fatal("empty instruction list must yield no interpreter")
	}
	if vm.New([]vm.Instr{vm.Label("only")}) != nil {
		t.Fatal("label-only program must yield no interpreter")
	}
}

func TestJmpCmp(t *testing.T) {
	// Int(1) transfers control to the label.
	got := runToString(t, []vm.Instr{
		vm.ConstInt(1),
		vm.JmpCmp("taken"),
		vm.ConstInt(0),
		vm.Return(),
		vm.Label("taken"),
		vm.ConstInt(42),
	})
	if got != "42i" {
		t.Fatalf("taken branch: got %q, want \"42i\"", got)
	}

	// Int(0) falls through to the next instruction.
	got = runToString(t, []vm.Instr{
		vm.ConstInt(0),
		vm.JmpCmp("taken"),
		vm.ConstInt(7),
		vm.Return(),
		vm.Label("taken"),
		vm.ConstInt(42),
	})
	if got != "7i" {
		t.Fatalf("fall-through: got %q, want \"7i\"", got)
	}

	// Anything else is a value mismatch.
	runToError(t, []vm.Instr{
		vm.ConstInt(2),
		vm.JmpCmp("taken"),
		vm.Label("taken"),
		vm.Return(),
	}, vm.ErrValueMismatch)

	runToError(t, []vm.Instr{
		vm.ConstFloat(1),
		vm.JmpCmp("taken"),
		vm.Label("taken"),
		vm.Return(),
	}, vm.ErrValueMismatch)
}

func TestComparisons(t *testing.T) {
	cases := []struct {
		name string
		prog []vm.Instr
		want string
	}{
		{"ceq true", []vm.Instr{vm.ConstInt(3), vm.ConstInt(3), vm.CEq()}, "1i"},
		{"ceq false", []vm.Instr{vm.ConstInt(3), vm.ConstInt(4), vm.CEq()}, "0i"},
		{"cne", []vm.Instr{vm.ConstInt(3), vm.ConstInt(4), vm.CNe()}, "1i"},
		{"clt", []vm.Instr{vm.ConstInt(3), vm.ConstInt(4), vm.CLt()}, "1i"},
		{"cle equal", []vm.Instr{vm.ConstInt(4), vm.ConstInt(4), vm.CLe()}, "1i"},
		{"cgt", []vm.Instr{vm.ConstInt(3), vm.ConstInt(4), vm.CGt()}, "0i"},
		{"cge", []vm.Instr{vm.ConstInt(5), vm.ConstInt(4), vm.CGe()}, "1i"},
		{"float clt", []vm.Instr{vm.ConstFloat(1.5), vm.ConstFloat(2.5), vm.CLt()}, "1i"},
		{"float ceq", []vm.Instr{vm.ConstFloat(2.5), vm.ConstFloat(2.5), vm.CEq()}, "1i"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := runToString(t, tc.prog); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	runToError(t, []vm.Instr{
		vm.ConstInt(1),
		vm.ConstFloat(1),
		vm.CEq(),
	}, vm.ErrValueMismatch)
}

func TestCallBindsLocals(t *testing.T) {
	got := runToString(t, []vm.Instr{
		vm.ConstInt(40),
		vm.ConstInt(2),
		vm.Call("add", 2),
		vm.Label("add"),
		vm.GetLocal(0),
		vm.GetLocal(1),
		vm.IAdd(),
		vm.Return(),
	})
	if got != "42i" {
		t.Fatalf("got %q, want \"42i\"", got)
	}
}

func TestReturnHaltsOutright(t *testing.T) {
	// Return does not resume at the call site; the instruction after the
	// Call never executes.
	got := runToString(t, []vm.Instr{
		vm.ConstInt(1),
		vm.Call("f", 0),
		vm.ConstInt(99),
		vm.Label("f"),
		vm.ConstInt(5),
		vm.Return(),
	})
	if got != "5i" {
		t.Fatalf("got %q, want \"5i\"", got)
	}
}

func TestCallToUnknownLabel(t *testing.T) {
	runToError(t, []vm.Instr{
		vm.ConstInt(1),
		vm.Call("missing", 1),
	}, vm.ErrUnresolvedLabel)
}

func TestGetLocalWithoutCall(t *testing.T) {
	runToError(t, []vm.Instr{vm.GetLocal(0)}, vm.ErrStackUnderflow)
}

func TestSequentialAdvanceIgnoresLabels(t *testing.T) {
	got := runToString(t, []vm.Instr{
		vm.ConstInt(1),
		vm.Label("skip"),
		vm.ConstInt(2),
		vm.IAdd(),
	})
	if got != "3i" {
		t.Fatalf("got %q, want \"3i\"", got)
	}
}

func TestCollectionDuringRun(t *testing.T) {
	it := vm.NewWithOptions([]vm.Instr{
		vm.ConstInt(1),
		vm.ConstFloat(2.5),
		vm.PushStruct(2),
		vm.ConstInt(7),
		vm.PushStruct(2),
		vm.GetStruct(0),
		vm.GetStruct(1),
	}, vm.Options{MaxObjects: 2})
	if it == nil {
		t.Fatal("program has no executable instructions")
	}
	top, vmErr := it.Run()
	if vmErr != nil {
		t.Fatalf("unexpected error: %v", vmErr)
	}
	got, err := it.Display(top)
	if err != nil {
		t.Fatalf("failed to render result: %v", err)
	}
	if got != "2.5f" {
		t.Fatalf("got %q, want \"2.5f\"", got)
	}
	// The final two GetStruct pops allocate nothing, so the last
	// collection ran at the outer PushStruct with everything still
	// reachable from it.
	if live := it.VM().Live(); live != 5 {
		t.Fatalf("expected 5 live objects, got %d", live)
	}
}

func TestDisabledGCKeepsGarbage(t *testing.T) {
	// With GC on and threshold 1, the comparison result would be the only
	// survivor; with GC off all three allocations remain.
	prog := []vm.Instr{
		vm.ConstInt(1),
		vm.ConstInt(2),
		vm.CEq(),
	}

	it := vm.NewWithOptions(prog, vm.Options{MaxObjects: 1, DisableGC: true})
	if it == nil {
		t.Fatal("program has no executable instructions")
	}
	if _, vmErr := it.Run(); vmErr != nil {
		t.Fatalf("unexpected error: %v", vmErr)
	}
	if live := it.VM().Live(); live != 3 {
		t.Fatalf("expected all 3 allocations to survive with GC off, got %d", live)
	}

	it = vm.NewWithOptions(prog, vm.Options{MaxObjects: 1})
	if it == nil {
		t.Fatal("program has no executable instructions")
	}
	if _, vmErr := it.Run(); vmErr != nil {
		t.Fatalf("unexpected error: %v", vmErr)
	}
	if live := it.VM().Live(); live != 1 {
		t.Fatalf("expected only the result to survive with GC on, got %d", live)
	}
}
