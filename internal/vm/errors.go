package vm

import (
	"fmt"
	"strings"
)

// ErrorCode identifies the class of an execution error.
type ErrorCode int

// Stable error codes - do not change values.
const (
	ErrValueMismatch   ErrorCode = 1001 // VM1001: operand of the wrong variant
	ErrStackUnderflow  ErrorCode = 1002 // VM1002: pop on an empty operand stack
	ErrUnresolvedLabel ErrorCode = 1003 // VM1003: jump/call to an unknown label
	ErrInvalidInstrPtr ErrorCode = 1004 // VM1004: instruction pointer out of range
	ErrInvalidHandle   ErrorCode = 1005 // VM1005: stale or invalid heap reference
	ErrRender          ErrorCode = 1006 // VM1006: rendering/IO failure
)

// String returns the code as "VM1001" format.
func (c ErrorCode) String() string {
	return fmt.Sprintf("VM%d", c)
}

// VMError is a terminal execution failure. Every opcode-level failure
// aborts the current Run call; nothing is retried internally.
type VMError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *VMError) Error() string {
	return fmt.Sprintf("vm error %s: %s", e.Code, e.Message)
}

func errUnderflow() *VMError {
	return &VMError{Code: ErrStackUnderflow, Message: "operand stack underflow"}
}

func errUnresolvedLabel(label string) *VMError {
	return &VMError{Code: ErrUnresolvedLabel, Message: fmt.Sprintf("unresolved label %q", label)}
}

func errStaleRef(what string) *VMError {
	return &VMError{Code: ErrInvalidHandle, Message: "stale or invalid reference: " + what}
}

func errMismatch(rendered ...string) *VMError {
	return &VMError{Code: ErrValueMismatch, Message: "value type mismatch, unexpected " + strings.Join(rendered, ", ")}
}
