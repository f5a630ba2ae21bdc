//go:build linux

package memacct

import (
	"fmt"
	"sort"

	"github.com/exmap-go/exmap/internal/rangeset"
)

// Process is one PID's reconstructed address space: its command line,
// the VMAs reported for it (owned here, value-typed), the Maps the map
// calculator produced from them (also value-typed, sorted and
// gap-free once calculation succeeds), and the set of Files its VMAs
// name.
type Process struct {
	PID     int
	Cmdline string

	vmas       []VMA
	maps       []Map
	mapsLoaded bool
	files      map[string]*File
}

// NewProcess returns a Process with no VMAs attached yet.
func NewProcess(pid int, cmdline string) *Process {
	if cmdline == "" {
		cmdline = "[nocmdline]"
	}
	return &Process{PID: pid, Cmdline: cmdline, files: make(map[string]*File)}
}

// AddVMA appends a VMA, returning the handle to reach it again.
func (p *Process) AddVMA(v VMA) VMAHandle {
	p.vmas = append(p.vmas, v)
	return VMAHandle(len(p.vmas) - 1)
}

// VMAs returns every VMA, in the order they were added (ascending
// address order, by construction of the loader).
func (p *Process) VMAs() []VMA { return p.vmas }

// VMA resolves a handle to its value. Handles are only ever produced
// by AddVMA on this same Process, so out-of-range access is a
// programming error, not a caller-facing one.
func (p *Process) VMA(h VMAHandle) *VMA { return &p.vmas[h] }

// DropVMA removes the VMA at index i (used to drop a zero-page
// [vdso] mapping after page attachment). Handles produced before the
// drop are invalidated; the loader calls this before running the map
// calculator, never after.
func (p *Process) DropVMA(i int) {
	p.vmas = append(p.vmas[:i], p.vmas[i+1:]...)
}

// AddFile records that this process references f.
func (p *Process) AddFile(f *File) { p.files[f.Name] = f }

// Files returns the distinct Files this process's VMAs name.
func (p *Process) Files() []*File {
	out := make([]*File, 0, len(p.files))
	for _, f := range p.files {
		out = append(out, f)
	}
	return out
}

// SetMaps replaces the process's map list wholesale — called once by
// the map calculator on success.
func (p *Process) SetMaps(maps []Map) { p.maps = maps }

// Maps returns the process's maps, sorted by mem_range.start once the
// map calculator has run; empty if it hasn't run or failed.
func (p *Process) Maps() []Map { return p.maps }

// MapsLoaded reports whether the map calculator ever completed
// successfully for this process, as distinct from "present but
// currently has zero maps" — a process whose map reconstruction
// failed still keeps its VMAs but never sets this.
func (p *Process) MapsLoaded() bool { return p.mapsLoaded }

// Sizes sums sizes_for_mem_range over every map in the process against
// the full span of its maps (i.e. the process's total footprint).
func (p *Process) Sizes(pool *PagePool) Sizes {
	var total Sizes
	for _, m := range p.maps {
		s, err := m.SizesForRange(p.VMA(m.VMA), pool, m.MemRange)
		if err != nil {
			continue
		}
		total = total.Add(s)
	}
	return total
}

// SizesForFile restricts the sum to maps realizing f: intersects the
// process's sorted map list with f's map list (by map handle) and sums
// over the intersection.
func (p *Process) SizesForFile(pool *PagePool, f *File) Sizes {
	wanted := make(map[int]struct{})
	for _, h := range f.Maps() {
		wanted[h.Index] = struct{}{}
	}

	var total Sizes
	for i, m := range p.maps {
		if _, ok := wanted[i]; !ok || m.File != f {
			continue
		}
		s, err := m.SizesForRange(p.VMA(m.VMA), pool, m.MemRange)
		if err != nil {
			continue
		}
		total = total.Add(s)
	}
	return total
}

// SizesForFileRange further restricts SizesForFile to the maps whose
// elf_range overlaps elfRange, translating the intersection back into
// mem space via each map's fixed offset (mem_range.start - elf_range.start).
func (p *Process) SizesForFileRange(pool *PagePool, f *File, elfRange rangeset.Range) Sizes {
	wanted := make(map[int]struct{})
	for _, h := range f.Maps() {
		wanted[h.Index] = struct{}{}
	}

	var total Sizes
	for i, m := range p.maps {
		if _, ok := wanted[i]; !ok || m.File != f || !m.HasElfRange {
			continue
		}
		subElf, ok := m.ElfRange.Intersect(elfRange)
		if !ok || subElf.Empty() {
			continue
		}
		delta := m.MemRange.Start - m.ElfRange.Start
		subMem := rangeset.New(subElf.Start+delta, subElf.End+delta)

		s, err := m.SizesForRange(p.VMA(m.VMA), pool, subMem)
		if err != nil {
			continue
		}
		total = total.Add(s)
	}
	return total
}

func (p *Process) String() string {
	return fmt.Sprintf("Process{pid=%d cmdline=%q vmas=%d maps=%d}", p.PID, p.Cmdline, len(p.vmas), len(p.maps))
}

// checkInvariants validates the map-list universal invariants: every
// map has positive size and the list is sorted and non-overlapping.
func (p *Process) checkInvariants() error {
	if len(p.maps) == 0 {
		return nil
	}
	ranges := make([]rangeset.Range, len(p.maps))
	for i, m := range p.maps {
		if m.MemRange.Empty() {
			return fmt.Errorf("memacct: map %d has zero size", i)
		}
		ranges[i] = m.MemRange
	}
	if !sort.SliceIsSorted(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start }) {
		return fmt.Errorf("memacct: maps not sorted by mem_range.start")
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start < ranges[i-1].End {
			return fmt.Errorf("memacct: overlapping maps at index %d", i)
		}
	}
	return nil
}
