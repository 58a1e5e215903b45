package optional

import (
	"fmt"

	"github.com/Blackdeer1524/StorageCore/src/pkg/assert"
)

// Optional holds either a value of T or nothing. The zero value is None.
type Optional[T any] struct {
	some  bool
	value T
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{
		some:  true,
		value: value,
	}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (opt *Optional[T]) Emplace(value T) {
	opt.some = true
	opt.value = value
}

func (opt *Optional[T]) Clear() {
	opt.some = false
	opt.value = *new(T) // for deep equality
}

func (opt Optional[T]) Expect(msg string) T {
	assert.Assert(opt.some, msg)
	return opt.value
}

func (opt Optional[T]) Unwrap() T {
	assert.Assert(opt.some, "unwrapped an empty optional")
	return opt.value
}

// UnwrapOr returns the held value or def when empty.
func (opt Optional[T]) UnwrapOr(def T) T {
	if !opt.some {
		return def
	}
	return opt.value
}

func (opt Optional[T]) IsNone() bool {
	return !opt.some
}

func (opt Optional[T]) IsSome() bool {
	return opt.some
}

func (opt Optional[T]) String() string {
	if !opt.some {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", opt.value)
}
