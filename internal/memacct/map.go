//go:build linux

package memacct

import (
	"fmt"

	"github.com/exmap-go/exmap/internal/rangeset"
	"github.com/sirupsen/logrus"
)

// VMAHandle is a stable index into a Process's VMA slice.
type VMAHandle int

// Map is a subrange of one VMA, tagged with either the ELF
// virtual-address range it realizes or nothing (anonymous). It is the
// unit against which every size query is ultimately computed.
type Map struct {
	VMA         VMAHandle
	MemRange    rangeset.Range
	ElfRange    rangeset.Range
	HasElfRange bool
	File        *File
}

// NewAnonMap builds a Map with no ELF range.
func NewAnonMap(vma VMAHandle, mr rangeset.Range, f *File) Map {
	return Map{VMA: vma, MemRange: mr, File: f}
}

// NewElfMap builds a Map tagged with the given ELF range; the caller
// guarantees elfRange.Size() == memRange.Size().
func NewElfMap(vma VMAHandle, memRange, elfRange rangeset.Range, f *File) Map {
	return Map{VMA: vma, MemRange: memRange, ElfRange: elfRange, HasElfRange: true, File: f}
}

func (m Map) String() string {
	if m.HasElfRange {
		return fmt.Sprintf("Map{mem=%v elf=%v}", m.MemRange, m.ElfRange)
	}
	return fmt.Sprintf("Map{mem=%v anon}", m.MemRange)
}

// SizesForRange intersects mrange with this map's mem_range, requires
// the intersection to be non-empty, and accumulates the sizing rules
// of 4.I over each page-slot contribution from the parent VMA. vma is
// the VMA this map was carved from (the caller resolves m.VMA through
// its owning Process's arena, since a Map holds a handle, not a
// pointer).
func (m Map) SizesForRange(vma *VMA, pool *PagePool, mrange rangeset.Range) (Sizes, error) {
	sub, ok := m.MemRange.Intersect(mrange)
	if !ok || sub.Empty() {
		return Sizes{}, ErrEmptyRange
	}

	contributions, err := vma.GetPagesForRange(sub)
	if err != nil {
		return Sizes{}, err
	}

	var acc Accumulator
	var total uint64
	for _, c := range contributions {
		if c.Page.Mapped() {
			count := pool.Count(c.Page.Cookie)
			if count == 0 {
				logrus.WithField("cookie", c.Page.Cookie).
					Warn("memacct: page cookie has zero pool count, skipping contribution")
				continue
			}
			acc.Add(c.Page, c.Bytes, count)
		} else {
			acc.Add(c.Page, c.Bytes, 0)
		}
		total += c.Bytes
	}

	sizes := acc.Finish()
	if total != sub.Size() {
		return sizes, fmt.Errorf("memacct: VM accounting mismatch: got %d want %d", total, sub.Size())
	}
	return sizes, nil
}
