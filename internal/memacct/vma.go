//go:build linux

package memacct

import (
	"fmt"

	"github.com/exmap-go/exmap/internal/rangeset"
)

// PageContribution is one page-slot's share of a queried mem_range:
// the page record itself and the number of bytes of that slot falling
// inside the range.
type PageContribution struct {
	Page  Page
	Bytes uint64
}

// VMA is one contiguous address range within a process, as reported by
// a single maps line, together with its backing file name, the file
// offset of its first byte, and (once attached) one Page per page-slot
// in address order.
type VMA struct {
	Range    rangeset.Range
	Offset   uint64
	Filename string
	pageSize uint64
	pages    []Page
	pagesSet bool
}

// NewVMA constructs a VMA with no pages attached yet. pageSize must
// evenly divide the range's size.
func NewVMA(r rangeset.Range, offset uint64, filename string, pageSize uint64) VMA {
	return VMA{Range: r, Offset: offset, Filename: filename, pageSize: pageSize}
}

// IsFileBacked reports whether the VMA names a regular file rather
// than an anonymous or pseudo mapping (bracketed tag like [heap]).
func (v *VMA) IsFileBacked() bool {
	n := v.Filename
	return n != "" && !(n[0] == '[' && n[len(n)-1] == ']')
}

// IsVdso reports whether this VMA is the vDSO mapping.
func (v *VMA) IsVdso() bool { return v.Filename == "[vdso]" }

// PageCount returns range.size / page_size.
func (v *VMA) PageCount() int {
	if v.pageSize == 0 {
		return 0
	}
	return int(v.Range.Size() / v.pageSize)
}

// AddPages attaches the per-page records for this VMA, in address
// order. It must be called at most once; a VMA whose source had no
// page block keeps an empty pages slice (not an error — see the
// snapshot lifecycle's "no maps for an in-snapshot process" case).
func (v *VMA) AddPages(pages []Page) error {
	if v.pagesSet {
		return ErrPagesAlreadySet
	}
	v.pages = pages
	v.pagesSet = true
	return nil
}

// Pages returns the attached page records, possibly empty.
func (v *VMA) Pages() []Page { return v.pages }

// AddrToPgnum returns the zero-based page-slot index of addr within
// this VMA, failing if addr lies outside [range.start, range.end).
func (v *VMA) AddrToPgnum(addr uint64) (int, bool) {
	if !v.Range.Contains(addr) {
		return 0, false
	}
	return int((addr - v.Range.Start) / v.pageSize), true
}

// GetPagesForRange partitions mrange — which must lie inside this
// VMA's range — into per-page-slot byte contributions. The start slot
// contributes the remainder of its page if mrange.start isn't page
// aligned, the end slot contributes only the bytes up to mrange.end,
// and every interior slot contributes a full page. If start and end
// fall in the same slot, a single contribution of mrange.size is
// returned.
func (v *VMA) GetPagesForRange(mrange rangeset.Range) ([]PageContribution, error) {
	if !v.Range.ContainsRange(mrange) || mrange.Empty() {
		return nil, fmt.Errorf("%w: range %v outside vma %v", ErrOutOfRange, mrange, v.Range)
	}

	startSlot, ok := v.AddrToPgnum(mrange.Start)
	if !ok {
		return nil, ErrOutOfRange
	}
	endSlot, ok := v.AddrToPgnum(mrange.End - 1)
	if !ok {
		return nil, ErrOutOfRange
	}

	pageAt := func(slot int) Page {
		if slot < len(v.pages) {
			return v.pages[slot]
		}
		return Page{}
	}

	if startSlot == endSlot {
		return []PageContribution{{Page: pageAt(startSlot), Bytes: mrange.Size()}}, nil
	}

	var out []PageContribution

	slotStart := v.Range.Start + uint64(startSlot)*v.pageSize
	firstSlotEnd := slotStart + v.pageSize
	out = append(out, PageContribution{Page: pageAt(startSlot), Bytes: firstSlotEnd - mrange.Start})

	for slot := startSlot + 1; slot < endSlot; slot++ {
		out = append(out, PageContribution{Page: pageAt(slot), Bytes: v.pageSize})
	}

	lastSlotStart := v.Range.Start + uint64(endSlot)*v.pageSize
	out = append(out, PageContribution{Page: pageAt(endSlot), Bytes: mrange.End - lastSlotStart})

	return out, nil
}

func (v *VMA) String() string {
	return fmt.Sprintf("VMA{%v off=%#x file=%q pages=%d}", v.Range, v.Offset, v.Filename, len(v.pages))
}
