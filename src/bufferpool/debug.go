package bufferpool

import (
	"errors"
	"fmt"

	"github.com/Blackdeer1524/StorageCore/src/pkg/common"
)

// EnsureAllUnpinned reports buffers that still hold pins, except for the
// blocks listed in leaked, which are expected to stay pinned.
func (m *Manager) EnsureAllUnpinned(leaked ...common.BlockID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := make(map[common.BlockID]struct{}, len(leaked))
	for _, blk := range leaked {
		expected[blk] = struct{}{}
	}

	pinned := map[common.BlockID]int{}
	unpinnedLeaked := map[common.BlockID]struct{}{}

	for blk, frameID := range m.blockToFrame {
		pins := m.frames[frameID].pins
		if _, ok := expected[blk]; ok {
			if pins == 0 {
				unpinnedLeaked[blk] = struct{}{}
			}
		} else if pins != 0 {
			pinned[blk] = pins
		}
	}

	var err error
	if len(pinned) > 0 {
		err = fmt.Errorf(
			"not all buffers were properly unpinned: %+v",
			pinned,
		)
	}

	if len(unpinnedLeaked) > 0 {
		err = errors.Join(err, fmt.Errorf(
			"not all leaked buffers stayed pinned: %+v",
			unpinnedLeaked,
		))
	}

	var accounted uint64
	for _, buf := range m.frames {
		if !buf.IsPinned() {
			accounted++
		}
	}
	if accounted != m.numAvailable {
		err = errors.Join(err, fmt.Errorf(
			"available counter is %d, found %d unpinned buffers",
			m.numAvailable,
			accounted,
		))
	}

	return err
}
