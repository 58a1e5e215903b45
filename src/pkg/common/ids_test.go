package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockIDIsComparable(t *testing.T) {
	m := map[BlockID]int{NewBlockID("a", 1): 1}

	_, ok := m[BlockID{FileName: "a", Number: 1}]
	assert.True(t, ok)

	_, ok = m[NewBlockID("a", 2)]
	assert.False(t, ok)

	assert.Equal(t, "[file a, block 1]", NewBlockID("a", 1).String())
}
