package storage

import "sync"

// BufferPoolManager brings disk pages into a fixed-size pool of in-memory
// frames, evicting the least valuable unpinned frame (per its Replacer) when
// the pool has no free frame left. All state is guarded by a single latch
// held for the duration of an operation, including any disk I/O it issues —
// the same trade-off the reference buffer pool manager makes, favoring a
// simple invariant (no operation observes a torn page table) over intra-pool
// concurrency.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize  uint32
	pages     []*Page
	pageTable map[uint32]uint32 // pageID -> frameID
	freeList  []uint32          // frame IDs with no page

	dm        *DiskManager
	scheduler *DiskScheduler
	replacer  Replacer
	metrics   *Metrics
	log       Logger

	prefetcher     *Prefetcher
	enablePrefetch bool

	flusher *AdaptiveFlusher
}

// NewBufferPoolManager builds a pool of cfg.BufferPoolSize frames backed by
// dm, using cfg.CacheReplacer (and cfg.ReplacerK, where relevant) as the
// eviction policy. log defaults to a slog-backed Logger if nil.
func NewBufferPoolManager(cfg *Config, dm *DiskManager, log Logger) (*BufferPoolManager, error) {
	if cfg.BufferPoolSize == 0 {
		return nil, ErrNoFreePages("NewBufferPoolManager")
	}
	if log == nil {
		log = NewSlogLogger()
	}

	poolSize := cfg.BufferPoolSize
	bpm := &BufferPoolManager{
		poolSize:  poolSize,
		pages:     make([]*Page, poolSize),
		pageTable: make(map[uint32]uint32, poolSize),
		freeList:  make([]uint32, poolSize),
		dm:        dm,
		scheduler: NewDiskScheduler(dm, 4, log, compressionTypeFromConfig(cfg.CompressionAlg)),
		replacer:  NewReplacer(cfg.CacheReplacer, poolSize, cfg.ReplacerK),
		metrics:   NewMetrics(),
		log:       log,

		enablePrefetch: cfg.EnablePrefetching,
	}
	bpm.prefetcher = NewPrefetcher(bpm)

	for i := uint32(0); i < poolSize; i++ {
		bpm.freeList[i] = poolSize - 1 - i
	}

	if cfg.AdaptiveFlushEnabled {
		bpm.flusher = NewAdaptiveFlusher(bpm, DefaultAdaptiveFlushConfig())
		if err := bpm.flusher.Start(); err != nil {
			return nil, ErrInternal("NewBufferPoolManager", err)
		}
	}

	return bpm, nil
}

// Close stops the background adaptive flusher, if one is running, and the
// disk scheduler's worker pool. It does not flush remaining dirty pages;
// callers that need that guarantee should call FlushAllPages first.
func (bpm *BufferPoolManager) Close() error {
	if bpm.flusher != nil {
		if err := bpm.flusher.Stop(); err != nil {
			return err
		}
	}
	bpm.scheduler.Stop()
	return nil
}

// compressionTypeFromConfig maps Config.CompressionAlg's string form to the
// CompressionType the disk scheduler's write-back path expects.
func compressionTypeFromConfig(alg string) CompressionType {
	switch alg {
	case "snappy":
		return CompressionSnappy
	case "lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// GetPoolSize returns the number of frames in the pool.
func (bpm *BufferPoolManager) GetPoolSize() uint32 {
	return bpm.poolSize
}

// GetMetrics returns the buffer pool's performance counters.
func (bpm *BufferPoolManager) GetMetrics() *Metrics {
	return bpm.metrics
}

// NewPage allocates a fresh page ID, brings it into the pool pinned once,
// and returns it. It returns (nil, nil) if the pool has no evictable frame
// to give up — a full, all-pinned pool is a normal operating condition, not
// an error.
func (bpm *BufferPoolManager) NewPage() (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok, err := bpm.allocateFrame()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	pageID := bpm.dm.AllocatePage()
	page := newPage(pageID)
	page.pin()

	bpm.pages[frameID] = page
	bpm.pageTable[pageID] = frameID

	if err := bpm.replacer.RecordAccess(frameID, AccessUnknown); err != nil {
		return nil, err
	}
	bpm.replacer.SetEvictable(frameID, false)

	return page, nil
}

// FetchPage returns the page for pageID, pinning it once, reading it from
// disk first if it is not already resident. It returns (nil, nil) under the
// same no-evictable-frame condition as NewPage.
func (bpm *BufferPoolManager) FetchPage(pageID uint32, accessType AccessType) (*Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameID, resident := bpm.pageTable[pageID]; resident {
		page := bpm.pages[frameID]
		page.pin()
		bpm.metrics.RecordCacheHit()
		if err := bpm.replacer.RecordAccess(frameID, accessType); err != nil {
			return nil, err
		}
		bpm.replacer.SetEvictable(frameID, false)
		if bpm.enablePrefetch {
			go bpm.prefetcher.RecordAccess(uint64(pageID), pageID)
		}
		return page, nil
	}

	bpm.metrics.RecordCacheMiss()

	frameID, ok, err := bpm.allocateFrame()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	buf := make([]byte, PageSize)
	future := bpm.scheduler.Schedule(DiskRequest{Type: DiskRequestRead, PageID: pageID, Data: buf})
	if !future.Wait() {
		bpm.freeList = append(bpm.freeList, frameID)
		return nil, ErrDiskOperation("FetchPage", ErrPageNotFound("FetchPage", pageID))
	}

	page := newPage(pageID)
	copy(page.data[:], buf)
	page.pin()

	bpm.pages[frameID] = page
	bpm.pageTable[pageID] = frameID

	if err := bpm.replacer.RecordAccess(frameID, accessType); err != nil {
		return nil, err
	}
	bpm.replacer.SetEvictable(frameID, false)
	if bpm.enablePrefetch {
		go bpm.prefetcher.RecordAccess(uint64(pageID), pageID)
	}

	return page, nil
}

// UnpinPage decrements pageID's pin count and, if isDirty, marks it dirty.
// Once the pin count reaches zero the frame becomes eligible for eviction.
// It returns false if pageID is not resident in the pool or was already
// unpinned.
func (bpm *BufferPoolManager) UnpinPage(pageID uint32, isDirty bool, accessType AccessType) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, resident := bpm.pageTable[pageID]
	if !resident {
		return false
	}

	page := bpm.pages[frameID]
	if isDirty {
		page.SetDirty(true)
	}

	if page.GetPinCount() == 0 {
		return false
	}

	reachedZero := page.unpin()
	if reachedZero {
		bpm.replacer.SetEvictable(frameID, true)
	}

	return true
}

// FlushPage writes pageID to disk unconditionally, whether or not it is
// marked dirty, and clears its dirty bit. It returns false if pageID is not
// resident in the pool.
func (bpm *BufferPoolManager) FlushPage(pageID uint32) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, resident := bpm.pageTable[pageID]
	if !resident {
		return false
	}

	return bpm.flushLocked(bpm.pages[frameID])
}

// flushLocked writes page to disk and clears its dirty bit. Callers must
// hold bpm.mu.
func (bpm *BufferPoolManager) flushLocked(page *Page) bool {
	buf := make([]byte, PageSize)
	copy(buf, page.Data())

	future := bpm.scheduler.Schedule(DiskRequest{Type: DiskRequestWrite, PageID: page.GetPageID(), Data: buf})
	ok := future.Wait()
	if !ok {
		bpm.log.Warn("flush failed", "page_id", page.GetPageID())
		return false
	}

	page.mu.Lock()
	page.isDirty = false
	page.mu.Unlock()

	return true
}

// FlushAllPages writes every resident page to disk unconditionally,
// regardless of dirty state, matching FlushPage's semantics.
func (bpm *BufferPoolManager) FlushAllPages() {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	for _, page := range bpm.pages {
		if page != nil {
			bpm.flushLocked(page)
		}
	}
}

// DeletePage removes pageID from the pool, returning its frame to the free
// list. It fails and returns false if the page is resident and still
// pinned; deleting an absent page trivially succeeds.
func (bpm *BufferPoolManager) DeletePage(pageID uint32) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, resident := bpm.pageTable[pageID]
	if !resident {
		return true
	}

	page := bpm.pages[frameID]
	if page.GetPinCount() > 0 {
		return false
	}

	if err := bpm.replacer.Remove(frameID); err != nil {
		return false
	}

	delete(bpm.pageTable, pageID)
	bpm.pages[frameID] = nil
	bpm.freeList = append(bpm.freeList, frameID)

	return true
}

// GetDirtyPageCount returns the number of resident pages with an unwritten
// modification.
func (bpm *BufferPoolManager) GetDirtyPageCount() int {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	count := 0
	for _, page := range bpm.pages {
		if page != nil && page.IsDirty() {
			count++
		}
	}
	return count
}

// GetDirtyPages returns up to maxPages page IDs currently marked dirty, for
// callers that flush in batches rather than calling FlushAllPages outright.
func (bpm *BufferPoolManager) GetDirtyPages(maxPages int) []uint32 {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	pages := make([]uint32, 0, maxPages)
	for _, page := range bpm.pages {
		if len(pages) >= maxPages {
			break
		}
		if page != nil && page.IsDirty() {
			pages = append(pages, page.GetPageID())
		}
	}
	return pages
}

// allocateFrame returns a frame ready for a new resident page: either one
// from the free list, or one reclaimed by evicting the replacer's current
// victim (flushing it first if dirty). ok is false only when every frame is
// pinned and there is nothing to evict.
func (bpm *BufferPoolManager) allocateFrame() (frameID uint32, ok bool, err error) {
	if n := len(bpm.freeList); n > 0 {
		frameID = bpm.freeList[n-1]
		bpm.freeList = bpm.freeList[:n-1]
		return frameID, true, nil
	}

	frameID, evicted := bpm.replacer.Evict()
	if !evicted {
		return 0, false, nil
	}

	victim := bpm.pages[frameID]
	if victim != nil {
		if victim.IsDirty() {
			if !bpm.flushLocked(victim) {
				return 0, false, ErrDiskOperation("allocateFrame", ErrPageNotFound("allocateFrame", victim.GetPageID()))
			}
			bpm.metrics.RecordDirtyPageFlush()
		}
		delete(bpm.pageTable, victim.GetPageID())
		bpm.pages[frameID] = nil
	}

	bpm.metrics.RecordPageEviction()
	return frameID, true, nil
}
