package errors

import (
	"errors"
	"fmt"
	"runtime/debug"
)

var ErrHandlerPanic = NewError("HANDLER_PANIC", "delivery handler panicked")

// RecoverPanic converts a recovered value into a fatal ErrHandlerPanic carrying
// the panic value and the goroutine stack.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}

	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("panic: %v", v)
	}

	return ErrHandlerPanic.
		WithCause(cause).
		WithDetail("panic_value", fmt.Sprint(r)).
		WithDetail("stack_trace", string(debug.Stack())).
		AsFatal()
}

// StackTrace returns the stack captured by RecoverPanic, if err carries one.
func StackTrace(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	s, _ := e.Details["stack_trace"].(string)
	return s
}
