//go:build linux

package memacct

import (
	"fmt"
	"sort"

	"github.com/exmap-go/exmap/internal/rangeset"
)

// CalculateMaps walks proc's VMAs in address order and, correlating
// each file's loadable ELF segments against the VMAs that back it,
// produces a contiguous, gap-free, non-overlapping Map cover of the
// process's address space. On any malformed correlation it returns an
// error and leaves proc's map list untouched — the caller drops that
// process's maps but keeps its VMAs, per the snapshot's per-process
// failure isolation.
func CalculateMaps(procHandle ProcessHandle, proc *Process, pool *FilePool, pageSize uint64) error {
	order := vmaOrder(proc)
	if len(order) == 0 {
		proc.SetMaps(nil)
		return nil
	}

	var out []Map
	coveredTo := proc.VMA(order[0]).Range.Start
	i := 0
	exhausted := make(map[*File]bool)

	emit := func(m Map, file *File) {
		idx := len(out)
		out = append(out, m)
		file.AddMap(MapHandle{Process: procHandle, Index: idx})
	}

	for i < len(order) {
		vma := proc.VMA(order[i])
		file := pool.Get(vma.Filename)
		file.AddProc(procHandle)
		proc.AddFile(file)

		if !file.IsElf() || exhausted[file] {
			working := vma.Range.TruncateBelow(coveredTo)
			if working.Empty() {
				return fmt.Errorf("%w: vma %v fully consumed before dispatch", ErrMapReconstruction, vma.Range)
			}
			emit(NewAnonMap(order[i], working, file), file)
			coveredTo = working.End
			i++
			continue
		}

		segs := file.Elf.LoadableSegments()
		if len(segs) == 0 {
			// No loadable segments: treat like a non-ELF file for
			// coverage purposes — still one anonymous map over the
			// VMA's remaining span.
			working := vma.Range.TruncateBelow(coveredTo)
			if working.Empty() {
				return fmt.Errorf("%w: vma %v fully consumed before dispatch", ErrMapReconstruction, vma.Range)
			}
			emit(NewAnonMap(order[i], working, file), file)
			coveredTo = working.End
			i++
			continue
		}

		for _, seg := range segs {
			if i >= len(order) {
				return fmt.Errorf("%w: segment table outruns VMA list", ErrMapReconstruction)
			}
			vma := proc.VMA(order[i])
			workingStart := max64(coveredTo, vma.Range.Start)
			working := rangeset.New(workingStart, vma.Range.End)

			delta := (vma.Range.Start - vma.Offset) - (seg.MemRange.Start - seg.FileOff)
			segMem := rangeset.New(seg.MemRange.Start+delta, seg.MemRange.End+delta)

			if segMem.Start < working.Start {
				return fmt.Errorf("%w: segment %v starts before working range %v", ErrMapReconstruction, segMem, working)
			}

			if segMem.Start > working.Start {
				emit(NewAnonMap(order[i], rangeset.New(working.Start, segMem.Start), file), file)
			}

			sub, ok := segMem.Intersect(working)
			if !ok || sub.Empty() {
				return fmt.Errorf("%w: segment %v does not overlap working range %v", ErrMapReconstruction, segMem, working)
			}
			elfSub := rangeset.New(sub.Start-delta, sub.End-delta)
			emit(NewElfMap(order[i], sub, elfSub, file), file)

			if sub.End < vma.Range.End {
				emit(NewAnonMap(order[i], rangeset.New(sub.End, vma.Range.End), file), file)
			}

			coveredTo = vma.Range.End
			i++

			if segMem.End > vma.Range.End {
				if i >= len(order) {
					return fmt.Errorf("%w: segment overruns past the last VMA", ErrMapReconstruction)
				}
				next := proc.VMA(order[i])
				if next.Range.Start != vma.Range.End {
					return fmt.Errorf("%w: overrun VMA %v not contiguous with %v", ErrMapReconstruction, next.Range, vma.Range)
				}
				if segMem.End > next.Range.End {
					return fmt.Errorf("%w: segment overrun crosses more than one VMA", ErrMapReconstruction)
				}

				overrunMem := rangeset.New(next.Range.Start, segMem.End)
				overrunElf := rangeset.New(elfSub.End, seg.MemRange.End)
				emit(NewElfMap(order[i], overrunMem, overrunElf, file), file)

				coveredTo = segMem.End
				if segMem.End >= next.Range.End {
					i++
				}
			}
		}
		exhausted[file] = true
	}

	proc.SetMaps(out)
	if err := proc.checkInvariants(); err != nil {
		proc.SetMaps(nil)
		return err
	}
	proc.mapsLoaded = true
	return nil
}

// vmaOrder returns the indices of proc's VMAs sorted by range start,
// the address order the calculator requires.
func vmaOrder(proc *Process) []VMAHandle {
	vmas := proc.VMAs()
	order := make([]VMAHandle, len(vmas))
	for i := range vmas {
		order[i] = VMAHandle(i)
	}
	sort.Slice(order, func(a, b int) bool {
		return vmas[order[a]].Range.Start < vmas[order[b]].Range.Start
	})
	return order
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
