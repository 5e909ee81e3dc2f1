package storage

import "sync"

// PageSize is the fixed size, in bytes, of every page frame and every page
// on disk.
const PageSize = 4096

// Page is a fixed-size in-memory frame plus the metadata the buffer pool
// tracks about it. It is never sent over the wire; only the Data payload is
// what ends up on disk.
type Page struct {
	pageID   uint32
	pinCount int32
	isDirty  bool
	data     [PageSize]byte
	latch    *RWLatch

	mu sync.Mutex // guards pageID/pinCount/isDirty
}

// newPage allocates a frame for pageID. Pin count starts at zero; the
// buffer pool is responsible for pinning it before handing it to a caller.
func newPage(pageID uint32) *Page {
	return &Page{pageID: pageID, latch: NewRWLatch()}
}

// GetPageID returns the page ID currently occupying this frame.
func (p *Page) GetPageID() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pageID
}

// GetPinCount returns the number of outstanding pins on this frame.
func (p *Page) GetPinCount() int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pinCount
}

// IsDirty reports whether this frame's content differs from its on-disk copy.
func (p *Page) IsDirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isDirty
}

// SetDirty sets the dirty bit. It is sticky-OR: passing false never clears
// an already-dirty page — only a flush does that.
func (p *Page) SetDirty(dirty bool) {
	if !dirty {
		return
	}
	p.mu.Lock()
	p.isDirty = true
	p.mu.Unlock()
}

// Data returns the page's raw byte buffer.
func (p *Page) Data() []byte {
	return p.data[:]
}

func (p *Page) pin() {
	p.mu.Lock()
	p.pinCount++
	p.mu.Unlock()
}

// unpin decrements the pin count and reports whether it reached zero.
func (p *Page) unpin() (reachedZero bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pinCount > 0 {
		p.pinCount--
	}
	return p.pinCount == 0
}

func (p *Page) reset(pageID uint32) {
	p.mu.Lock()
	p.pageID = pageID
	p.pinCount = 0
	p.isDirty = false
	p.mu.Unlock()
	p.data = [PageSize]byte{}
}
