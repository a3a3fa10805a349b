// Package vm implements a stack-based bytecode interpreter with a
// mark-sweep garbage collector over a generational heap.
package vm

import (
	"fmt"
	"strconv"

	"cinder/internal/arena"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind uint8

const (
	// KindInvalid represents an invalid value.
	KindInvalid ValueKind = iota
	// KindInt represents a 32-bit signed integer.
	KindInt
	// KindFloat represents a 32-bit float.
	KindFloat
	// KindStruct represents an ordered sequence of heap references.
	KindStruct
)

// String returns a human-readable name for the value kind.
func (k ValueKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStruct:
		return "struct"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is the tagged union of storable heap data. A struct holds only
// references to objects that existed before the struct itself was
// allocated, so the reference graph stays acyclic by construction.
type Value struct {
	Kind   ValueKind
	Int    int32         // for KindInt
	Float  float32       // for KindFloat
	Fields []arena.Index // for KindStruct
}

// IntValue wraps a 32-bit integer.
func IntValue(v int32) Value { return Value{Kind: KindInt, Int: v} }

// FloatValue wraps a 32-bit float.
func FloatValue(v float32) Value { return Value{Kind: KindFloat, Float: v} }

// StructValue wraps an ordered sequence of heap references.
func StructValue(fields []arena.Index) Value {
	return Value{Kind: KindStruct, Fields: fields}
}

// Children returns the direct heap references held by the value. Only
// structs hold references; scalars have none.
func (v Value) Children() []arena.Index {
	if v.Kind == KindStruct {
		return v.Fields
	}
	return nil
}

// formatFloat renders a float32 in its shortest form, "2" for 2.0.
func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func formatInt(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}
