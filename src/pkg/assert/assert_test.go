package assert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssert(t *testing.T) {
	require.True(t, Assert(true))
	require.Panics(t, func() { Assert(false) })
	require.Panics(t, func() { Assert(1 > 2, "one is not greater than %d", 2) })
}

func TestNoError(t *testing.T) {
	require.NotPanics(t, func() { NoError(nil) })
	require.Panics(t, func() { NoError(errors.New("boom")) })
}

func TestCast(t *testing.T) {
	require.Equal(t, 42, Cast[int](any(42)))
	require.Panics(t, func() { Cast[string](any(42)) })
}
