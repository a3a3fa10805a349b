package vm

import "fmt"

// Opcode identifies an instruction.
type Opcode uint8

const (
	// OpInvalid represents an invalid opcode.
	OpInvalid Opcode = iota
	// OpConstInt pushes an integer literal.
	OpConstInt
	// OpConstFloat pushes a float literal.
	OpConstFloat
	// OpPushStruct pops N values and pushes a struct wrapping them.
	OpPushStruct
	// OpGetStruct pops a struct and pushes its i-th field reference.
	OpGetStruct
	// OpGetLocal pushes the i-th reference from the innermost locals frame.
	OpGetLocal
	// OpLabel marks a jump target. Consumed at load time, never executed.
	OpLabel
	// OpIAdd through OpFMul pop two operands of the matching numeric
	// variant and push the combined result.
	OpIAdd
	OpFAdd
	OpISub
	OpFSub
	OpIMul
	OpFMul
	// OpCEq through OpCGe pop two operands of the same variant and push
	// Int(1) if the comparison holds, else Int(0).
	OpCEq
	OpCNe
	OpCLt
	OpCLe
	OpCGt
	OpCGe
	// OpCall pops N values into a fresh locals frame and jumps to a label.
	OpCall
	// OpJump jumps unconditionally to a label.
	OpJump
	// OpJmpCmp pops Int(1) to jump or Int(0) to fall through.
	OpJmpCmp
	// OpReturn halts execution, leaving the operand stack as-is.
	OpReturn
)

var opcodeNames = map[Opcode]string{
	OpConstInt:   "const_int",
	OpConstFloat: "const_float",
	OpPushStruct: "push_struct",
	OpGetStruct:  "get_struct",
	OpGetLocal:   "get_local",
	OpLabel:      "label",
	OpIAdd:       "iadd",
	OpFAdd:       "fadd",
	OpISub:       "isub",
	OpFSub:       "fsub",
	OpIMul:       "imul",
	OpFMul:       "fmul",
	OpCEq:        "ceq",
	OpCNe:        "cne",
	OpCLt:        "clt",
	OpCLe:        "cle",
	OpCGt:        "cgt",
	OpCGe:        "cge",
	OpCall:       "call",
	OpJump:       "jump",
	OpJmpCmp:     "jmp_cmp",
	OpReturn:     "return",
}

// String returns the opcode's mnemonic.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Instr is one decoded instruction. Operand fields are meaningful per
// opcode; unused fields stay zero. Instructions are immutable once loaded.
type Instr struct {
	Op    Opcode
	Int   int32   // OpConstInt literal
	Float float32 // OpConstFloat literal
	N     int     // field count, field index, local index or argument count
	Label string  // OpLabel name or jump/call target
}

// String returns the instruction in mnemonic form for traces.
func (in Instr) String() string {
	switch in.Op {
	case OpConstInt:
		return fmt.Sprintf("%s %d", in.Op, in.Int)
	case OpConstFloat:
		return fmt.Sprintf("%s %s", in.Op, formatFloat(in.Float))
	case OpPushStruct, OpGetStruct, OpGetLocal:
		return fmt.Sprintf("%s %d", in.Op, in.N)
	case OpLabel, OpJump, OpJmpCmp:
		return fmt.Sprintf("%s %s", in.Op, in.Label)
	case OpCall:
		return fmt.Sprintf("%s %s %d", in.Op, in.Label, in.N)
	default:
		return in.Op.String()
	}
}

// ConstInt pushes an integer literal onto the operand stack.
func ConstInt(v int32) Instr { return Instr{Op: OpConstInt, Int: v} }

// ConstFloat pushes a float literal onto the operand stack.
func ConstFloat(v float32) Instr { return Instr{Op: OpConstFloat, Float: v} }

// PushStruct pops n values, preserving left-to-right field order, and
// pushes a struct wrapping them.
func PushStruct(n int) Instr { return Instr{Op: OpPushStruct, N: n} }

// GetStruct pops a struct and pushes its i-th field reference.
func GetStruct(i int) Instr { return Instr{Op: OpGetStruct, N: i} }

// GetLocal pushes the i-th reference from the innermost locals frame.
func GetLocal(i int) Instr { return Instr{Op: OpGetLocal, N: i} }

// Label marks the next real instruction as a jump target named name.
func Label(name string) Instr { return Instr{Op: OpLabel, Label: name} }

// IAdd pops two ints and pushes their sum.
func IAdd() Instr { return Instr{Op: OpIAdd} }

// FAdd pops two floats and pushes their sum.
func FAdd() Instr { return Instr{Op: OpFAdd} }

// ISub pops two ints and pushes their difference.
func ISub() Instr { return Instr{Op: OpISub} }

// FSub pops two floats and pushes their difference.
func FSub() Instr { return Instr{Op: OpFSub} }

// IMul pops two ints and pushes their product.
func IMul() Instr { return Instr{Op: OpIMul} }

// FMul pops two floats and pushes their product.
func FMul() Instr { return Instr{Op: OpFMul} }

// CEq pushes Int(1) if the two popped operands are equal, else Int(0).
func CEq() Instr { return Instr{Op: OpCEq} }

// CNe pushes Int(1) if the two popped operands differ, else Int(0).
func CNe() Instr { return Instr{Op: OpCNe} }

// CLt pushes Int(1) if a < b for popped operands a, b, else Int(0).
func CLt() Instr { return Instr{Op: OpCLt} }

// CLe pushes Int(1) if a <= b for popped operands a, b, else Int(0).
func CLe() Instr { return Instr{Op: OpCLe} }

// CGt pushes Int(1) if a > b for popped operands a, b, else Int(0).
func CGt() Instr { return Instr{Op: OpCGt} }

// CGe pushes Int(1) if a >= b for popped operands a, b, else Int(0).
func CGe() Instr { return Instr{Op: OpCGe} }

// Call pops n values into a fresh locals frame and jumps to label. No
// return address is recorded; see Return.
func Call(label string, n int) Instr { return Instr{Op: OpCall, Label: label, N: n} }

// Jump jumps unconditionally to the instruction after label.
func Jump(label string) Instr { return Instr{Op: OpJump, Label: label} }

// JmpCmp pops a value; Int(1) jumps to label, Int(0) falls through,
// anything else is a value mismatch.
func JmpCmp(label string) Instr { return Instr{Op: OpJmpCmp, Label: label} }

// Return halts execution immediately. The opcode set records no return
// addresses, so Return ends the whole run rather than resuming a caller.
func Return() Instr { return Instr{Op: OpReturn} }
