// Package invariant provides contract assertions used by hone's shell
// session and executor. Violations panic immediately rather than
// propagating a wrong RunResult downstream.
//
// These are programming-error checks, not user-input validation: a malformed
// .hone file must produce a parse error, never a panic.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
//
// Example:
//
//	func (s *Session) Run(cmd string, name string) (RunResult, error) {
//	    invariant.Precondition(cmd != "", "run command must not be empty")
//	    ...
//	}
func Precondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks a guarantee a function makes to its caller before
// returning.
//
// Example:
//
//	runID := generateRunID(filename, testName, runName, index)
//	invariant.Postcondition(runID != "", "generated run id must not be empty")
func Postcondition(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal consistency property during execution, such
// as a loop making forward progress while draining the sentinel buffer.
func Invariant(condition bool, format string, args ...interface{}) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including a typed nil pointer or interface.
func NotNil(value interface{}, name string) {
	if value == nil || isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value interface{}) bool {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// Positive panics if value <= 0. Typically used on durations and counters
// that the caller has already validated can never be zero or negative.
func Positive(value int, name string) {
	if value <= 0 {
		fail("POSTCONDITION", "%s must be positive, got %d", name, value)
	}
}

// ExpectNoError panics if err is non-nil. Reserved for operations the
// caller has already guaranteed cannot fail (e.g. compiling a pattern that
// was validated earlier in the same call).
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

func fail(kind, format string, args ...interface{}) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]interface{}{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}
	panic(msg)
}
