package storage

import (
	"container/list"
	"sync"
)

// ARCReplacer implements the Adaptive Replacement Cache algorithm as an
// optional alternate to LRU-K, adapted to the RecordAccess/SetEvictable/
// Evict/Remove contract every Replacer implements. ARC maintains four LRU
// lists:
//   - T1: recent cache hits (recency)
//   - T2: frequent cache hits (frequency)
//   - B1: ghost entries evicted from T1
//   - B2: ghost entries evicted from T2
//
// The algorithm adaptively adjusts the target size p between T1 and T2
// based on ghost-list hit patterns to fit the current workload.
type ARCReplacer struct {
	capacity int
	p        int

	t1 *list.List
	t2 *list.List
	b1 *list.List
	b2 *list.List

	t1Map map[uint32]*list.Element
	t2Map map[uint32]*list.Element
	b1Map map[uint32]*list.Element
	b2Map map[uint32]*list.Element

	mu sync.Mutex
}

// arcEntry represents a cached frame in ARC. evictable mirrors the
// Replacer-wide SetEvictable contract; a frame never marked evictable is
// never chosen by Evict or ensureCapacity.
type arcEntry struct {
	frameID   uint32
	evictable bool
}

// NewARCReplacer creates a new ARC cache replacer with the given capacity.
func NewARCReplacer(capacity uint32) *ARCReplacer {
	return &ARCReplacer{
		capacity: int(capacity),
		p:        0,
		t1:       list.New(),
		t2:       list.New(),
		b1:       list.New(),
		b2:       list.New(),
		t1Map:    make(map[uint32]*list.Element),
		t2Map:    make(map[uint32]*list.Element),
		b1Map:    make(map[uint32]*list.Element),
		b2Map:    make(map[uint32]*list.Element),
	}
}

// RecordAccess runs the ARC hit/promotion logic for frameID: a hit in T1
// promotes to T2, a repeat hit in T2 refreshes its LRU position, a hit in
// a ghost list (B1 or B2) adapts p and promotes straight into T2, and a
// complete miss inserts into T1.
func (arc *ARCReplacer) RecordAccess(frameID uint32, _ AccessType) error {
	arc.mu.Lock()
	defer arc.mu.Unlock()

	if elem, ok := arc.t1Map[frameID]; ok {
		arc.t1.Remove(elem)
		delete(arc.t1Map, frameID)
		arc.t2Map[frameID] = arc.t2.PushBack(&arcEntry{frameID: frameID})
		arc.ensureCapacity()
		return nil
	}

	if elem, ok := arc.t2Map[frameID]; ok {
		arc.t2.MoveToBack(elem)
		return nil
	}

	if elem, ok := arc.b1Map[frameID]; ok {
		delta := 1
		if arc.b1.Len() < arc.b2.Len() {
			delta = arc.b2.Len() / arc.b1.Len()
		}
		if delta < 1 {
			delta = 1
		}
		arc.p = min(arc.p+delta, arc.capacity)

		arc.b1.Remove(elem)
		delete(arc.b1Map, frameID)
		arc.t2Map[frameID] = arc.t2.PushBack(&arcEntry{frameID: frameID})
		arc.ensureCapacity()
		return nil
	}

	if elem, ok := arc.b2Map[frameID]; ok {
		delta := 1
		if arc.b2.Len() < arc.b1.Len() {
			delta = arc.b1.Len() / arc.b2.Len()
		}
		if delta < 1 {
			delta = 1
		}
		arc.p = max(arc.p-delta, 0)

		arc.b2.Remove(elem)
		delete(arc.b2Map, frameID)
		arc.t2Map[frameID] = arc.t2.PushBack(&arcEntry{frameID: frameID})
		arc.ensureCapacity()
		return nil
	}

	arc.t1Map[frameID] = arc.t1.PushBack(&arcEntry{frameID: frameID})
	arc.ensureCapacity()
	return nil
}

// SetEvictable marks frameID evictable or not. A frameID RecordAccess has
// never placed in T1 or T2 is ignored.
func (arc *ARCReplacer) SetEvictable(frameID uint32, evictable bool) {
	arc.mu.Lock()
	defer arc.mu.Unlock()

	if elem, ok := arc.t1Map[frameID]; ok {
		elem.Value.(*arcEntry).evictable = evictable
		return
	}
	if elem, ok := arc.t2Map[frameID]; ok {
		elem.Value.(*arcEntry).evictable = evictable
	}
}

// Evict selects a victim from T1 before T2, skipping any frame not marked
// evictable, and demotes the chosen frame to the matching ghost list.
func (arc *ARCReplacer) Evict() (uint32, bool) {
	arc.mu.Lock()
	defer arc.mu.Unlock()

	for e := arc.t1.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*arcEntry)
		if entry.evictable {
			frameID := entry.frameID
			arc.t1.Remove(e)
			delete(arc.t1Map, frameID)
			arc.pushGhost(arc.b1, arc.b1Map, frameID)
			return frameID, true
		}
	}

	for e := arc.t2.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*arcEntry)
		if entry.evictable {
			frameID := entry.frameID
			arc.t2.Remove(e)
			delete(arc.t2Map, frameID)
			arc.pushGhost(arc.b2, arc.b2Map, frameID)
			return frameID, true
		}
	}

	return 0, false
}

// Remove erases frameID's tracking state from T1/T2 and both ghost lists.
// It errors if frameID is in T1 or T2 but not evictable.
func (arc *ARCReplacer) Remove(frameID uint32) error {
	arc.mu.Lock()
	defer arc.mu.Unlock()

	if elem, ok := arc.t1Map[frameID]; ok {
		if !elem.Value.(*arcEntry).evictable {
			return ErrNotEvictable("Remove", frameID)
		}
		arc.t1.Remove(elem)
		delete(arc.t1Map, frameID)
	}

	if elem, ok := arc.t2Map[frameID]; ok {
		if !elem.Value.(*arcEntry).evictable {
			return ErrNotEvictable("Remove", frameID)
		}
		arc.t2.Remove(elem)
		delete(arc.t2Map, frameID)
	}

	if elem, ok := arc.b1Map[frameID]; ok {
		arc.b1.Remove(elem)
		delete(arc.b1Map, frameID)
	}

	if elem, ok := arc.b2Map[frameID]; ok {
		arc.b2.Remove(elem)
		delete(arc.b2Map, frameID)
	}

	return nil
}

// ensureCapacity evicts evictable frames from T1 or T2, chosen by the
// adaptive target p, until T1+T2 is back within capacity. Each round searches
// only the chosen list; if that list has no evictable frame it stops, and
// T1+T2 stays above capacity even when the other list has evictable frames.
func (arc *ARCReplacer) ensureCapacity() {
	for arc.t1.Len()+arc.t2.Len() > arc.capacity {
		evicted := false

		if arc.t1.Len() > max(1, arc.p) {
			for e := arc.t1.Front(); e != nil; e = e.Next() {
				entry := e.Value.(*arcEntry)
				if entry.evictable {
					frameID := entry.frameID
					arc.t1.Remove(e)
					delete(arc.t1Map, frameID)
					arc.pushGhost(arc.b1, arc.b1Map, frameID)
					evicted = true
					break
				}
			}
		} else {
			for e := arc.t2.Front(); e != nil; e = e.Next() {
				entry := e.Value.(*arcEntry)
				if entry.evictable {
					frameID := entry.frameID
					arc.t2.Remove(e)
					delete(arc.t2Map, frameID)
					arc.pushGhost(arc.b2, arc.b2Map, frameID)
					evicted = true
					break
				}
			}
		}

		if !evicted {
			break
		}
	}
}

func (arc *ARCReplacer) pushGhost(ghost *list.List, ghostMap map[uint32]*list.Element, frameID uint32) {
	ghostMap[frameID] = ghost.PushBack(frameID)
	if ghost.Len() > arc.capacity {
		oldest := ghost.Front()
		delete(ghostMap, oldest.Value.(uint32))
		ghost.Remove(oldest)
	}
}

// Size returns the number of frames currently marked evictable.
func (arc *ARCReplacer) Size() uint32 {
	arc.mu.Lock()
	defer arc.mu.Unlock()

	count := 0
	for e := arc.t1.Front(); e != nil; e = e.Next() {
		if e.Value.(*arcEntry).evictable {
			count++
		}
	}
	for e := arc.t2.Front(); e != nil; e = e.Next() {
		if e.Value.(*arcEntry).evictable {
			count++
		}
	}
	return uint32(count)
}

// GetStats returns ARC-specific statistics.
func (arc *ARCReplacer) GetStats() map[string]int {
	arc.mu.Lock()
	defer arc.mu.Unlock()

	return map[string]int{
		"t1_size":  arc.t1.Len(),
		"t2_size":  arc.t2.Len(),
		"b1_size":  arc.b1.Len(),
		"b2_size":  arc.b2.Len(),
		"target_p": arc.p,
		"capacity": arc.capacity,
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
