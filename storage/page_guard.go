package storage

// BasicPageGuard owns one pin on a page acquired through FetchPage or
// NewPage and releases it exactly once, on Drop. It takes no latch of its
// own — callers that need read/write exclusion should upgrade to a
// ReadPageGuard or WritePageGuard instead.
//
// Go has no destructors, so unlike the reference guard this is not
// unpinned implicitly when it goes out of scope; callers must call Drop,
// typically via defer, right after acquiring the guard.
type BasicPageGuard struct {
	bpm     *BufferPoolManager
	page    *Page
	isDirty bool
	dropped bool
}

func newBasicPageGuard(bpm *BufferPoolManager, page *Page) *BasicPageGuard {
	return &BasicPageGuard{bpm: bpm, page: page}
}

// GetPageID returns the ID of the guarded page.
func (g *BasicPageGuard) GetPageID() uint32 {
	return g.page.GetPageID()
}

// Data returns the guarded page's raw byte buffer.
func (g *BasicPageGuard) Data() []byte {
	return g.page.Data()
}

// SetDirty marks the guarded page dirty; Drop's unpin carries the flag
// through to UnpinPage.
func (g *BasicPageGuard) SetDirty() {
	g.isDirty = true
}

// Drop releases the guard's pin. Safe to call more than once — only the
// first call has effect.
func (g *BasicPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.dropped = true
	g.bpm.UnpinPage(g.page.GetPageID(), g.isDirty, AccessUnknown)
}

// UpgradeRead converts the basic guard into a ReadPageGuard holding the
// same pin, additionally taking the page's read latch. The receiver is
// consumed: calling Drop on it afterward is a no-op.
func (g *BasicPageGuard) UpgradeRead() *ReadPageGuard {
	guard := &ReadPageGuard{BasicPageGuard: BasicPageGuard{bpm: g.bpm, page: g.page, isDirty: g.isDirty}}
	g.dropped = true
	guard.page.latch.RLock()
	return guard
}

// UpgradeWrite converts the basic guard into a WritePageGuard holding the
// same pin, additionally taking the page's write latch. The receiver is
// consumed: calling Drop on it afterward is a no-op.
func (g *BasicPageGuard) UpgradeWrite() *WritePageGuard {
	guard := &WritePageGuard{BasicPageGuard: BasicPageGuard{bpm: g.bpm, page: g.page, isDirty: g.isDirty}}
	g.dropped = true
	guard.page.latch.Lock()
	return guard
}

// ReadPageGuard holds a page's read latch for its lifetime, released on
// Drop alongside the underlying pin.
type ReadPageGuard struct {
	BasicPageGuard
}

// Drop releases the read latch, then the pin. Safe to call more than once.
func (g *ReadPageGuard) Drop() {
	if g.dropped {
		return
	}
	g.page.latch.RUnlock()
	g.BasicPageGuard.Drop()
}

// WritePageGuard holds a page's write latch for its lifetime. Holding one
// implies the caller may mutate the page, so Drop always marks it dirty.
type WritePageGuard struct {
	BasicPageGuard
}

// Drop releases the write latch, marks the page dirty, then releases the
// pin. Safe to call more than once.
func (g *WritePageGuard) Drop() {
	if g.dropped {
		return
	}
	g.isDirty = true
	g.page.latch.Unlock()
	g.BasicPageGuard.Drop()
}

// NewPageGuarded allocates a fresh page and wraps it in a BasicPageGuard.
// It returns (nil, nil) under the same no-evictable-frame condition as
// NewPage.
func (bpm *BufferPoolManager) NewPageGuarded() (*BasicPageGuard, error) {
	page, err := bpm.NewPage()
	if err != nil || page == nil {
		return nil, err
	}
	return newBasicPageGuard(bpm, page), nil
}

// FetchPageBasic fetches pageID and wraps it in a BasicPageGuard. It
// returns (nil, nil) under the same no-evictable-frame condition as
// FetchPage.
func (bpm *BufferPoolManager) FetchPageBasic(pageID uint32, accessType AccessType) (*BasicPageGuard, error) {
	page, err := bpm.FetchPage(pageID, accessType)
	if err != nil || page == nil {
		return nil, err
	}
	return newBasicPageGuard(bpm, page), nil
}

// FetchPageRead fetches pageID and returns it wrapped in a ReadPageGuard,
// already holding the page's read latch.
func (bpm *BufferPoolManager) FetchPageRead(pageID uint32, accessType AccessType) (*ReadPageGuard, error) {
	guard, err := bpm.FetchPageBasic(pageID, accessType)
	if err != nil || guard == nil {
		return nil, err
	}
	return guard.UpgradeRead(), nil
}

// FetchPageWrite fetches pageID and returns it wrapped in a WritePageGuard,
// already holding the page's write latch.
func (bpm *BufferPoolManager) FetchPageWrite(pageID uint32, accessType AccessType) (*WritePageGuard, error) {
	guard, err := bpm.FetchPageBasic(pageID, accessType)
	if err != nil || guard == nil {
		return nil, err
	}
	return guard.UpgradeWrite(), nil
}
