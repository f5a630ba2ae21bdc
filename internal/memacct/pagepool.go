//go:build linux

package memacct

// PagePool counts, for each sharing cookie, how many distinct
// (process, VMA, page-slot) occurrences reference it across the
// snapshot. It is the denominator of every "effective" size measure.
// Cookie 0 (unmapped) is never counted. A pool starts empty, accumulates
// during process loading, and is read-only once the snapshot seals.
type PagePool struct {
	counts map[uint64]uint64
}

// NewPagePool returns an empty pool.
func NewPagePool() *PagePool {
	return &PagePool{counts: make(map[uint64]uint64)}
}

// Observe records one occurrence of cookie. Cookie 0 is a no-op.
func (p *PagePool) Observe(cookie uint64) {
	if cookie == 0 {
		return
	}
	p.counts[cookie]++
}

// Count returns the number of occurrences of cookie, or 0 if never observed.
func (p *PagePool) Count(cookie uint64) uint64 {
	return p.counts[cookie]
}

// Len returns the number of distinct non-zero cookies observed.
func (p *PagePool) Len() int { return len(p.counts) }
