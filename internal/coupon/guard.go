package coupon

import (
	"context"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	minFilterCapacity = 1024
	falsePositiveRate = 0.01
)

// CodeLister provides the coupon codes the guard is built from.
type CodeLister interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// Guard is a bloom filter over all active coupon codes. The intake path asks
// it before hitting the coupon store, so requests carrying junk codes skip a
// database read. Codes created after the last Reload are reported absent
// until the next one, which only costs those orders their discount lookup
// being deferred by one reload interval; MightContain therefore answers true
// whenever the guard has never been loaded.
type Guard struct {
	store  CodeLister
	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewGuard creates a guard that has not been loaded yet.
func NewGuard(store CodeLister) *Guard {
	return &Guard{store: store}
}

// Reload rebuilds the filter from the coupon store.
func (g *Guard) Reload(ctx context.Context) error {
	codes, err := g.store.ListActiveCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list coupon codes: %w", err)
	}

	capacity := uint(len(codes))
	if capacity < minFilterCapacity {
		capacity = minFilterCapacity
	}

	filter := bloom.NewWithEstimates(capacity, falsePositiveRate)
	for _, code := range codes {
		filter.AddString(Normalize(code))
	}

	g.mu.Lock()
	g.filter = filter
	g.mu.Unlock()

	return nil
}

// MightContain reports whether a normalized code could exist. False means the
// code definitely did not exist at the last reload.
func (g *Guard) MightContain(code string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.filter == nil {
		return true
	}
	return g.filter.TestString(code)
}
