package assert

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Assert panics with the caller's location when condition is false.
// The optional args are a format string followed by its arguments.
func Assert(condition bool, args ...any) bool {
	if condition {
		return true
	}

	fail(2, args...)
	return false
}

func NoError(err error) {
	if err != nil {
		fail(2, "expected no error, got: %v", err)
	}
}

// Unreachable marks a branch that a valid program state never takes.
func Unreachable(args ...any) {
	fail(2, args...)
}

// Cast attempts to cast the provided value 'data' to the specified
// type 'T'. Panics if 'data' cannot be cast to type 'T'.
//
//	value := Cast[int](someAnyValue)
func Cast[T any](data any) T {
	castedData, ok := data.(T)
	if !ok {
		fail(2, "couldn't cast %T to %T", data, *new(T))
	}
	return castedData
}

func fail(skip int, args ...any) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		file = "unknown"
		line = 0
	}

	filename := filepath.Base(file)

	if len(args) == 0 {
		panic(fmt.Sprintf("Assertion failed at %s:%d\n", filename, line))
	}

	format, _ := args[0].(string)
	message := fmt.Sprintf(format, args[1:]...)
	panic(fmt.Sprintf(
		"Assertion failed: %s at %s:%d\n",
		message,
		filename,
		line,
	))
}
