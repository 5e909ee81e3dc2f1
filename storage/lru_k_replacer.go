package storage

import "sync"

// lruKNode tracks one frame's bounded access history and its place in the
// replacer's intrusive list. front points toward the buffer (cache) side of
// the list, back points toward the history-end side.
type lruKNode struct {
	frameID   uint32
	k         uint32
	history   []uint64 // bounded to k entries, oldest first
	evictable bool

	front, back *lruKNode
}

func newLRUKNode(frameID uint32, k uint32) *lruKNode {
	return &lruKNode{frameID: frameID, k: k}
}

func (n *lruKNode) size() int {
	return len(n.history)
}

// recordAccess appends ts to the bounded history and reports whether this
// access is the one that brought the node's history from k-1 up to exactly
// k entries — the transition from the history list to the cache list.
func (n *lruKNode) recordAccess(ts uint64) (reachedK bool) {
	reachedK = len(n.history) == int(n.k)-1
	n.history = append(n.history, ts)
	if len(n.history) > int(n.k) {
		n.history = n.history[1:]
	}
	return reachedK
}

func (n *lruKNode) cleanHistory() {
	n.history = nil
}

// LRUKReplacer implements the LRU-K page replacement policy: a frame with
// fewer than K recorded accesses is evicted in FIFO order (by time it first
// entered the replacer) ahead of any frame with K or more accesses; among
// frames with K or more accesses, the one whose K-th-most-recent access is
// furthest in the past is evicted first.
//
// Frames are held on a single doubly-linked list split into two regions by
// a sentinel: a history region (< k accesses, FIFO order) and a cache region
// (>= k accesses, LRU-K order), bounded at the ends by two more sentinels.
// This mirrors the reference implementation's three-sentinel layout rather
// than two separate lists, so a frame's region transition is just a splice.
type LRUKReplacer struct {
	mu sync.Mutex

	k               uint32
	replacerSize    uint32
	currentTimestamp uint64
	currSize        uint32

	nodeStore map[uint32]*lruKNode

	historyEnd      *lruKNode
	middleSeparator *lruKNode
	bufferStart     *lruKNode
}

// NewLRUKReplacer builds a replacer tracking up to numFrames distinct frame
// IDs (0..numFrames-1), evicting frames with fewer than k accesses before
// any frame with k or more.
func NewLRUKReplacer(numFrames uint32, k uint32) *LRUKReplacer {
	r := &LRUKReplacer{
		k:            k,
		replacerSize: numFrames,
		nodeStore:    make(map[uint32]*lruKNode, numFrames),
	}

	r.historyEnd = &lruKNode{}
	r.middleSeparator = &lruKNode{}
	r.bufferStart = &lruKNode{}

	r.historyEnd.front = r.middleSeparator
	r.historyEnd.back = nil
	r.middleSeparator.front = r.bufferStart
	r.middleSeparator.back = r.historyEnd
	r.bufferStart.front = nil
	r.bufferStart.back = r.middleSeparator

	return r
}

func disLink(n *lruKNode) {
	back, front := n.back, n.front
	if back != nil {
		back.front = front
	}
	if front != nil {
		front.back = back
	}
	n.front = nil
	n.back = nil
}

// moveToEnd splices n so it becomes the sentinel's immediate front-neighbor,
// i.e. the most-recently-touched node in whichever region the sentinel
// anchors.
func moveToEnd(n *lruKNode, sentinel *lruKNode) {
	disLink(n)
	oldFront := sentinel.front
	sentinel.front = n
	if oldFront != nil {
		oldFront.back = n
	}
	n.front = oldFront
	n.back = sentinel
}

func (r *LRUKReplacer) isHistoryEmpty() bool {
	return r.historyEnd.front == r.middleSeparator
}

func (r *LRUKReplacer) isBufferEmpty() bool {
	return r.middleSeparator.front == r.bufferStart
}

// Evict scans the history region (earliest first access first) then the cache
// region (largest backward k-distance first), returning the first
// evictable frame it finds.
func (r *LRUKReplacer) Evict() (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.currSize == 0 {
		return 0, false
	}

	if !r.isHistoryEmpty() {
		for n := r.middleSeparator.back; n != r.historyEnd; n = n.back {
			if n.evictable {
				disLink(n)
				frameID := n.frameID
				n.evictable = false
				n.cleanHistory()
				r.currSize--
				return frameID, true
			}
		}
	}

	if !r.isBufferEmpty() {
		for n := r.bufferStart.back; n != r.middleSeparator; n = n.back {
			if n.evictable {
				disLink(n)
				frameID := n.frameID
				n.evictable = false
				n.cleanHistory()
				r.currSize--
				return frameID, true
			}
		}
	}

	return 0, false
}

// RecordAccess bumps the logical clock and records an access for frameID,
// creating tracking state for it on first sight and moving it to the
// appropriate region of the list.
func (r *LRUKReplacer) RecordAccess(frameID uint32, accessType AccessType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentTimestamp++
	if frameID >= r.replacerSize {
		return ErrInvalidFrame("RecordAccess", frameID)
	}

	n, exists := r.nodeStore[frameID]
	if !exists {
		n = newLRUKNode(frameID, r.k)
		r.nodeStore[frameID] = n
	}
	if !exists || n.front == nil {
		// New, or unlinked by Evict: enters the history region as new.
		n.recordAccess(r.currentTimestamp)
		moveToEnd(n, r.historyEnd)
		return nil
	}

	if n.recordAccess(r.currentTimestamp) {
		moveToEnd(n, r.middleSeparator)
	} else if n.size() < int(r.k) {
		// Still short of k accesses: keeps its FIFO place in the history region.
	} else {
		moveToEnd(n, r.middleSeparator)
	}

	return nil
}

// SetEvictable marks frameID evictable or not, adjusting Size() accordingly.
// A frameID RecordAccess has never seen is ignored.
func (r *LRUKReplacer) SetEvictable(frameID uint32, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.nodeStore[frameID]
	if !exists || n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Remove erases frameID's tracking state. It returns an error if frameID is
// tracked but not currently evictable; a frameID never seen is a silent
// no-op.
func (r *LRUKReplacer) Remove(frameID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, exists := r.nodeStore[frameID]
	if !exists {
		return nil
	}
	if !n.evictable {
		return ErrNotEvictable("Remove", frameID)
	}

	disLink(n)
	delete(r.nodeStore, frameID)
	r.currSize--
	return nil
}

// Size returns the number of frames currently evictable.
func (r *LRUKReplacer) Size() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
