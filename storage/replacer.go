package storage

// AccessType classifies the kind of access RecordAccess is told about. All
// replacers in this package (LRU-K, 2Q, ARC) accept it and ignore it.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex
)

// Replacer tracks which frames are eligible for eviction and picks a victim
// among them. A frame only participates once SetEvictable(frameID, true) has
// been called for it; RecordAccess alone does not make a frame evictable.
type Replacer interface {
	// RecordAccess notes that frameID was just accessed. The LRU-K replacer
	// returns an error if frameID is out of range for its configured
	// capacity; the 2Q and ARC replacers accept any frameID and return nil.
	RecordAccess(frameID uint32, accessType AccessType) error

	// SetEvictable marks frameID as evictable or not. Calling it on a frame
	// RecordAccess has never seen is a no-op.
	SetEvictable(frameID uint32, evictable bool)

	// Evict picks a victim among the evictable frames, removes it from
	// consideration, and returns its frame ID. ok is false if no frame is
	// currently evictable.
	Evict() (frameID uint32, ok bool)

	// Remove erases all tracking state for frameID. It returns an error if
	// frameID is currently tracked but not evictable.
	Remove(frameID uint32) error

	// Size returns the number of frames currently evictable.
	Size() uint32
}

// NewReplacer builds a Replacer for the named algorithm. capacity bounds the
// number of distinct frame IDs the replacer will track; k is only consulted
// by the lru-k algorithm. Unknown algorithm names fall back to lru-k, the
// default policy.
func NewReplacer(algorithm string, capacity uint32, k uint32) Replacer {
	switch algorithm {
	case "2q":
		return NewTwoQReplacer(capacity)
	case "arc":
		return NewARCReplacer(capacity)
	default:
		return NewLRUKReplacer(capacity, k)
	}
}
