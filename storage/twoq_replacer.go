package storage

import (
	"container/list"
	"sync"
)

// TwoQReplacer implements the 2Q cache replacement algorithm as an optional
// alternate to LRU-K, adapted to the RecordAccess/SetEvictable/Evict/Remove
// contract every Replacer implements. 2Q is simpler than ARC but more
// effective than plain LRU for many workloads. It maintains three lists:
//   - A1 (probationary): first-time access queue, FIFO
//   - A2 (protected): frequently accessed queue, LRU
//   - A1out: a ghost list of frames recently evicted from A1 without a
//     second access, so a quick re-access promotes straight into A2
type TwoQReplacer struct {
	mu sync.Mutex

	a1        *list.List
	a1Map     map[uint32]*list.Element
	a1MaxSize int

	a2        *list.List
	a2Map     map[uint32]*list.Element
	a2MaxSize int

	a1out        *list.List
	a1outMap     map[uint32]*list.Element
	a1outMaxSize int

	evictable map[uint32]bool

	capacity int
}

// NewTwoQReplacer creates a new 2Q replacer with the given capacity.
// Recommended size ratios (from the 2Q paper): A1 at 25% of capacity,
// A2 at 75%, A1out (ghost entries) at 50%.
func NewTwoQReplacer(capacity uint32) *TwoQReplacer {
	c := int(capacity)
	if c < 4 {
		c = 4
	}

	a1Size := c / 4
	if a1Size < 1 {
		a1Size = 1
	}
	a2Size := c - a1Size
	a1outSize := c / 2

	return &TwoQReplacer{
		a1:           list.New(),
		a1Map:        make(map[uint32]*list.Element),
		a1MaxSize:    a1Size,
		a2:           list.New(),
		a2Map:        make(map[uint32]*list.Element),
		a2MaxSize:    a2Size,
		a1out:        list.New(),
		a1outMap:     make(map[uint32]*list.Element),
		a1outMaxSize: a1outSize,
		evictable:    make(map[uint32]bool),
		capacity:     c,
	}
}

// RecordAccess runs the 2Q promotion logic: first access lands in A1,
// second access promotes to A2, and a hit in the A1out ghost list promotes
// straight to A2.
func (r *TwoQReplacer) RecordAccess(frameID uint32, _ AccessType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, exists := r.a2Map[frameID]; exists {
		r.a2.MoveToFront(elem)
		return nil
	}

	if elem, exists := r.a1Map[frameID]; exists {
		r.a1.Remove(elem)
		delete(r.a1Map, frameID)
		r.addToA2(frameID)
		return nil
	}

	if elem, exists := r.a1outMap[frameID]; exists {
		r.a1out.Remove(elem)
		delete(r.a1outMap, frameID)
		r.addToA2(frameID)
		return nil
	}

	r.addToA1(frameID)
	return nil
}

// SetEvictable marks frameID evictable or not. A frameID RecordAccess has
// never placed in A1 or A2 is ignored.
func (r *TwoQReplacer) SetEvictable(frameID uint32, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, inA1 := r.a1Map[frameID]
	_, inA2 := r.a2Map[frameID]
	if !inA1 && !inA2 {
		return
	}
	r.evictable[frameID] = evictable
}

// Evict picks a victim from A1 (oldest first) before A2 (least recently
// used first), skipping any frame not marked evictable.
func (r *TwoQReplacer) Evict() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for e := r.a1.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(uint32)
		if r.evictable[frameID] {
			r.a1.Remove(e)
			delete(r.a1Map, frameID)
			delete(r.evictable, frameID)
			r.addToA1out(frameID)
			return frameID, true
		}
	}

	for e := r.a2.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(uint32)
		if r.evictable[frameID] {
			r.a2.Remove(e)
			delete(r.a2Map, frameID)
			delete(r.evictable, frameID)
			return frameID, true
		}
	}

	return 0, false
}

// Remove erases frameID's tracking state from every queue, including the
// A1out ghost list. It errors if frameID is in A1 or A2 but not evictable.
func (r *TwoQReplacer) Remove(frameID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, exists := r.a1Map[frameID]; exists {
		if !r.evictable[frameID] {
			return ErrNotEvictable("Remove", frameID)
		}
		r.a1.Remove(elem)
		delete(r.a1Map, frameID)
		delete(r.evictable, frameID)
	}

	if elem, exists := r.a2Map[frameID]; exists {
		if !r.evictable[frameID] {
			return ErrNotEvictable("Remove", frameID)
		}
		r.a2.Remove(elem)
		delete(r.a2Map, frameID)
		delete(r.evictable, frameID)
	}

	if elem, exists := r.a1outMap[frameID]; exists {
		r.a1out.Remove(elem)
		delete(r.a1outMap, frameID)
	}

	return nil
}

// Size returns the number of frames currently marked evictable.
func (r *TwoQReplacer) Size() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := uint32(0)
	for _, v := range r.evictable {
		if v {
			count++
		}
	}
	return count
}

func (r *TwoQReplacer) addToA1(frameID uint32) {
	if r.a1.Len() >= r.a1MaxSize {
		elem := r.a1.Back()
		evictedID := elem.Value.(uint32)
		r.a1.Remove(elem)
		delete(r.a1Map, evictedID)
		delete(r.evictable, evictedID)
		r.addToA1out(evictedID)
	}

	elem := r.a1.PushFront(frameID)
	r.a1Map[frameID] = elem
}

func (r *TwoQReplacer) addToA2(frameID uint32) {
	if r.a2.Len() >= r.a2MaxSize {
		elem := r.a2.Back()
		evictedID := elem.Value.(uint32)
		r.a2.Remove(elem)
		delete(r.a2Map, evictedID)
		delete(r.evictable, evictedID)
	}

	elem := r.a2.PushFront(frameID)
	r.a2Map[frameID] = elem
}

func (r *TwoQReplacer) addToA1out(frameID uint32) {
	if r.a1out.Len() >= r.a1outMaxSize {
		elem := r.a1out.Back()
		ghostID := elem.Value.(uint32)
		r.a1out.Remove(elem)
		delete(r.a1outMap, ghostID)
	}

	elem := r.a1out.PushFront(frameID)
	r.a1outMap[frameID] = elem
}

// GetStats returns statistics about the 2Q cache state.
func (r *TwoQReplacer) GetStats() TwoQStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return TwoQStats{
		A1Size:       r.a1.Len(),
		A1MaxSize:    r.a1MaxSize,
		A2Size:       r.a2.Len(),
		A2MaxSize:    r.a2MaxSize,
		A1outSize:    r.a1out.Len(),
		A1outMaxSize: r.a1outMaxSize,
		TotalPages:   len(r.a1Map) + len(r.a2Map),
		Capacity:     r.capacity,
	}
}

// TwoQStats contains statistics about the 2Q cache state.
type TwoQStats struct {
	A1Size       int
	A1MaxSize    int
	A2Size       int
	A2MaxSize    int
	A1outSize    int
	A1outMaxSize int
	TotalPages   int
	Capacity     int
}
