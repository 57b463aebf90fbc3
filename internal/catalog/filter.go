// Package catalog provides a probabilistic guard over the set of known menu
// item ids. A bloom filter never yields false negatives for the id set it
// was built from, but ids added to the backing store afterwards are invisible
// to it. MayContain therefore treats a miss as a staleness signal: it resyncs
// from the store and only answers false when the refreshed filter still
// misses. A true result must still be confirmed against the catalog.
package catalog

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const falsePositiveRate = 0.01

// LoadFunc returns the current set of known ids.
type LoadFunc func(ctx context.Context) ([]string, error)

// IDFilter is a self-resyncing bloom filter of menu item ids.
type IDFilter struct {
	load LoadFunc

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewIDFilter builds a filter over the ids returned by load. Call Reload to
// seed it before use; an unseeded filter answers true for every id.
func NewIDFilter(load LoadFunc) *IDFilter {
	return &IDFilter{load: load}
}

// MayContain reports whether id might be a known menu item. A false result
// is definitive: it is only returned after a resync against the backing
// store confirmed the miss. Any doubt (unseeded filter, failed resync)
// answers true so the caller falls through to an authoritative lookup.
func (f *IDFilter) MayContain(ctx context.Context, id string) bool {
	f.mu.RLock()
	hit := f.filter != nil && f.filter.TestString(id)
	f.mu.RUnlock()
	if hit {
		return true
	}

	// The miss may just mean the filter predates the id. Resync and
	// answer from the current id set.
	if err := f.Reload(ctx); err != nil {
		return true
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(id)
}

// Reload replaces the filter contents from the backing store, sized for the
// current id set.
func (f *IDFilter) Reload(ctx context.Context) error {
	ids, err := f.load(ctx)
	if err != nil {
		return err
	}

	n := uint(len(ids))
	if n < 1024 {
		n = 1024
	}
	next := bloom.NewWithEstimates(n, falsePositiveRate)
	for _, id := range ids {
		next.AddString(id)
	}

	f.mu.Lock()
	f.filter = next
	f.mu.Unlock()
	return nil
}
