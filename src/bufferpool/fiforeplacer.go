package bufferpool

import (
	"container/list"
	"sync"
)

// FIFOReplacer evicts frames in the order they were last chosen as victims.
// Frames enter the queue on their first Unpin. Pin and Unpin only toggle
// eligibility, the queue order changes only when a victim is chosen.
type FIFOReplacer struct {
	mu        sync.Mutex
	order     *list.List
	frames    map[uint64]*list.Element
	evictable map[uint64]bool
}

var (
	_ Replacer = &FIFOReplacer{}
)

func NewFIFOReplacer() *FIFOReplacer {
	return &FIFOReplacer{
		order:     list.New(),
		frames:    make(map[uint64]*list.Element),
		evictable: make(map[uint64]bool),
	}
}

func (f *FIFOReplacer) Pin(frameID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.frames[frameID]; ok {
		f.evictable[frameID] = false
	}
}

func (f *FIFOReplacer) Unpin(frameID uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.frames[frameID]; !ok {
		f.frames[frameID] = f.order.PushBack(frameID)
	}
	f.evictable[frameID] = true
}

func (f *FIFOReplacer) ChooseVictim() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for e := f.order.Front(); e != nil; e = e.Next() {
		frameID := e.Value.(uint64)
		if !f.evictable[frameID] {
			continue
		}

		f.order.MoveToBack(e)
		return frameID, nil
	}

	return 0, ErrNoVictim
}

func (f *FIFOReplacer) GetSize() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n uint64
	for _, ok := range f.evictable {
		if ok {
			n++
		}
	}
	return n
}
