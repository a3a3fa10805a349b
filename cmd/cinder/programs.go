package main

import (
	"fmt"
	"sort"
	"strings"

	"cinder/internal/vm"
)

// Built-in demonstration programs. There is no source language or
// assembler; instruction sequences are supplied already assembled.
var demoPrograms = map[string][]vm.Instr{
	// 3 * 7 * 2 = 42
	"arith": {
		vm.ConstInt(3),
		vm.ConstInt(7),
		vm.ConstInt(2),
		vm.IMul(),
		vm.IMul(),
	},
	// Builds Struct(Struct(1i, 2.5f), 7i), then digs out the 2.5f. The
	// intermediate wrappers become garbage as fields are extracted.
	"structs": {
		vm.ConstInt(1),
		vm.ConstFloat(2.5),
		vm.PushStruct(2),
		vm.ConstInt(7),
		vm.PushStruct(2),
		vm.GetStruct(0),
		vm.GetStruct(1),
	},
	// One-shot call: bind two arguments as locals, add them. Return halts
	// the run with the sum on top of the stack.
	"call": {
		vm.ConstInt(40),
		vm.ConstInt(2),
		vm.Call("add", 2),
		vm.Label("add"),
		vm.GetLocal(0),
		vm.GetLocal(1),
		vm.IAdd(),
		vm.Return(),
	},
	// Conditional branch: 1 < 2 pushes Int(1), which takes the jump.
	"branch": {
		vm.ConstInt(1),
		vm.ConstInt(2),
		vm.CLt(),
		vm.JmpCmp("taken"),
		vm.ConstInt(0),
		vm.Return(),
		vm.Label("taken"),
		vm.ConstInt(42),
		vm.Return(),
	},
}

func demoProgram(name string) ([]vm.Instr, error) {
	prog, ok := demoPrograms[name]
	if !ok {
		return nil, fmt.Errorf("unknown program %q (available: %s)", name, demoProgramNames())
	}
	return prog, nil
}

func demoProgramNames() string {
	names := make([]string, 0, len(demoPrograms))
	for name := range demoPrograms {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
