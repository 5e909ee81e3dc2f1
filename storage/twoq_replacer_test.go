package storage

import "testing"

func accessAndMarkEvictable(r *TwoQReplacer, frameID uint32) {
	r.RecordAccess(frameID, AccessUnknown)
	r.SetEvictable(frameID, true)
}

func TestTwoQReplacerBasic(t *testing.T) {
	r := NewTwoQReplacer(10)

	accessAndMarkEvictable(r, 1)
	accessAndMarkEvictable(r, 2)
	accessAndMarkEvictable(r, 3)

	stats := r.GetStats()
	expectedSize := uint32(stats.A1Size + stats.A2Size)
	if r.Size() != expectedSize {
		t.Errorf("Expected size %d, got %d", expectedSize, r.Size())
	}
}

func TestTwoQReplacerPromotion(t *testing.T) {
	r := NewTwoQReplacer(10)

	r.RecordAccess(1, AccessUnknown)

	stats := r.GetStats()
	if stats.A1Size != 1 || stats.A2Size != 0 {
		t.Errorf("Expected 1 in A1, 0 in A2. Got A1=%d, A2=%d", stats.A1Size, stats.A2Size)
	}

	r.RecordAccess(1, AccessUnknown)

	stats = r.GetStats()
	if stats.A1Size != 0 || stats.A2Size != 1 {
		t.Errorf("Expected 0 in A1, 1 in A2 after promotion. Got A1=%d, A2=%d", stats.A1Size, stats.A2Size)
	}
}

func TestTwoQReplacerEvictFromA1(t *testing.T) {
	r := NewTwoQReplacer(10)

	accessAndMarkEvictable(r, 1)
	accessAndMarkEvictable(r, 2)
	accessAndMarkEvictable(r, 3)

	victim, ok := r.Evict()
	if !ok {
		t.Fatal("Expected a victim")
	}
	if victim != 1 && victim != 2 && victim != 3 {
		t.Errorf("Unexpected victim: %d", victim)
	}

	stats := r.GetStats()
	if stats.A1outSize < 1 {
		t.Errorf("Expected at least 1 ghost entry, got %d", stats.A1outSize)
	}
}

func TestTwoQReplacerGhostListPromotion(t *testing.T) {
	r := NewTwoQReplacer(10)

	accessAndMarkEvictable(r, 1)

	victim, ok := r.Evict()
	if !ok || victim != 1 {
		t.Fatal("Failed to evict page 1")
	}

	stats := r.GetStats()
	if stats.A1outSize != 1 {
		t.Errorf("Expected 1 ghost entry, got %d", stats.A1outSize)
	}

	// Access again: ghost hit promotes straight to A2.
	r.RecordAccess(1, AccessUnknown)

	stats = r.GetStats()
	if stats.A2Size != 1 {
		t.Errorf("Expected 1 in A2 after ghost promotion, got %d", stats.A2Size)
	}
	if stats.A1outSize != 0 {
		t.Errorf("Expected 0 ghost entries after promotion, got %d", stats.A1outSize)
	}
}

func TestTwoQReplacerA1Overflow(t *testing.T) {
	r := NewTwoQReplacer(8) // A1 max is 2

	for i := uint32(1); i <= 5; i++ {
		r.RecordAccess(i, AccessUnknown)
	}

	stats := r.GetStats()
	if stats.A1Size > stats.A1MaxSize {
		t.Errorf("A1 exceeded max size: %d > %d", stats.A1Size, stats.A1MaxSize)
	}
	if stats.A1outSize == 0 {
		t.Error("Expected some pages in ghost list after A1 overflow")
	}
}

func TestTwoQReplacerHotPages(t *testing.T) {
	r := NewTwoQReplacer(100)
	hotPages := []uint32{1, 2, 3, 4, 5}

	for round := 0; round < 10; round++ {
		for _, page := range hotPages {
			r.RecordAccess(page, AccessUnknown)
		}
	}

	stats := r.GetStats()
	if stats.A2Size < len(hotPages) {
		t.Errorf("Expected at least %d pages in A2, got %d", len(hotPages), stats.A2Size)
	}
}

func TestTwoQReplacerRemove(t *testing.T) {
	r := NewTwoQReplacer(10)

	accessAndMarkEvictable(r, 1)
	accessAndMarkEvictable(r, 2)
	accessAndMarkEvictable(r, 3)

	initialSize := r.Size()

	if err := r.Remove(3); err != nil {
		t.Fatalf("Remove on an evictable frame should succeed, got %v", err)
	}

	if r.Size() != initialSize-1 {
		t.Errorf("Expected size %d after removal, got %d", initialSize-1, r.Size())
	}
}

func TestTwoQReplacerRemoveNotEvictable(t *testing.T) {
	r := NewTwoQReplacer(10)
	r.RecordAccess(1, AccessUnknown)

	err := r.Remove(1)
	if err == nil {
		t.Fatal("Remove on a non-evictable tracked frame should error")
	}
}

func TestTwoQReplacerEmpty(t *testing.T) {
	r := NewTwoQReplacer(10)

	if _, ok := r.Evict(); ok {
		t.Error("Expected no victim on empty replacer")
	}
	if r.Size() != 0 {
		t.Errorf("Expected size 0, got %d", r.Size())
	}
}

func TestTwoQReplacerSequentialAccess(t *testing.T) {
	r := NewTwoQReplacer(100)

	for i := uint32(1); i <= 200; i++ {
		r.RecordAccess(i, AccessUnknown)
	}

	stats := r.GetStats()
	if stats.A1Size != stats.A1MaxSize {
		t.Errorf("Expected A1 at capacity (%d), got %d", stats.A1MaxSize, stats.A1Size)
	}
}

func BenchmarkTwoQReplacerRecordAccess(b *testing.B) {
	r := NewTwoQReplacer(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.RecordAccess(uint32(i%1000), AccessUnknown)
	}
}

func BenchmarkTwoQReplacerEvict(b *testing.B) {
	r := NewTwoQReplacer(1000)
	for i := uint32(0); i < 1000; i++ {
		accessAndMarkEvictable(r, i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Evict()
		accessAndMarkEvictable(r, uint32(i%1000))
	}
}
