//go:build linux

package memacct

// Page is one immutable per-page record: the kernel-supplied sharing
// identifier plus resident/writable bits. Cookie 0 means "not mapped to
// any physical page" — such a page never participates in sharing and
// never increments the page pool.
type Page struct {
	Cookie   uint64
	Resident bool
	Writable bool
}

// Mapped reports whether this page has a backing physical page.
func (p Page) Mapped() bool { return p.Cookie != 0 }
