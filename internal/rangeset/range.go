// Package rangeset implements half-open integer interval algebra used
// throughout the memory accounting engine: VMA extents, ELF segment
// images, and the ranges a Map is carved from are all Ranges.
package rangeset

import (
	"fmt"
	"sort"
)

// Range is a half-open interval [Start, End) over 64-bit addresses.
// New clamps an inverted pair to an empty range; every other method
// assumes Start <= End and does not check it, so callers building a
// Range literal are expected to maintain it.
type Range struct {
	Start uint64
	End   uint64
}

// New builds a Range. If end < start, the range is empty ([start, start)).
func New(start, end uint64) Range {
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// Size returns End - Start.
func (r Range) Size() uint64 { return r.End - r.Start }

// Empty reports whether the range has zero size.
func (r Range) Empty() bool { return r.Start == r.End }

func (r Range) String() string {
	return fmt.Sprintf("[0x%x, 0x%x)", r.Start, r.End)
}

// Contains reports whether addr lies in [Start, End).
func (r Range) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// ContainsRange reports whether other is fully covered by r.
func (r Range) ContainsRange(other Range) bool {
	if other.Empty() {
		return r.Contains(other.Start) || (other.Start == r.End)
	}
	return other.Start >= r.Start && other.End <= r.End
}

// Overlaps reports whether r and other share at least one address.
func (r Range) Overlaps(other Range) bool {
	if r.Empty() || other.Empty() {
		return false
	}
	return r.Start < other.End && other.Start < r.End
}

// Intersect returns the overlap of r and other, and whether it is non-empty.
func (r Range) Intersect(other Range) (Range, bool) {
	start := max64(r.Start, other.Start)
	end := min64(r.End, other.End)
	if end <= start {
		return Range{}, false
	}
	return Range{Start: start, End: end}, true
}

// Add shifts the range up by v.
func (r Range) Add(v uint64) Range {
	return Range{Start: r.Start + v, End: r.End + v}
}

// Subtract shifts the range down by v.
func (r Range) Subtract(v uint64) Range {
	return Range{Start: r.Start - v, End: r.End - v}
}

// TruncateBelow clips off any part of the range below v.
func (r Range) TruncateBelow(v uint64) Range {
	start := max64(r.Start, v)
	if start > r.End {
		start = r.End
	}
	return Range{Start: start, End: r.End}
}

// TruncateAbove clips off any part of the range at or above v.
func (r Range) TruncateAbove(v uint64) Range {
	end := min64(r.End, v)
	if end < r.Start {
		end = r.Start
	}
	return Range{Start: r.Start, End: end}
}

// Merge combines r and other into a single covering range, if they
// overlap or touch end-to-end. ok is false if they are disjoint.
func (r Range) Merge(other Range) (merged Range, ok bool) {
	if r.Empty() {
		return other, true
	}
	if other.Empty() {
		return r, true
	}
	if r.Start > other.End || other.Start > r.End {
		return Range{}, false
	}
	return Range{Start: min64(r.Start, other.Start), End: max64(r.End, other.End)}, true
}

// MergeList sorts and coalesces a list of ranges, assuming unsorted,
// possibly-overlapping input. The result is sorted, and no two output
// ranges overlap or touch.
func MergeList(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	out := make([]Range, 0, len(sorted))
	cur := sorted[0]
	for _, r := range sorted[1:] {
		if merged, ok := cur.Merge(r); ok {
			cur = merged
			continue
		}
		out = append(out, cur)
		cur = r
	}
	out = append(out, cur)
	return out
}

// InvertList returns the complement of the (merged) sub-ranges within
// universe: the gaps between them, plus any leading/trailing gap.
func InvertList(universe Range, sub []Range) []Range {
	merged := MergeList(sub)
	var out []Range
	cursor := universe.Start
	for _, r := range merged {
		r, ok := r.Intersect(universe)
		if !ok {
			continue
		}
		if r.Start > cursor {
			out = append(out, Range{Start: cursor, End: r.Start})
		}
		if r.End > cursor {
			cursor = r.End
		}
	}
	if cursor < universe.End {
		out = append(out, Range{Start: cursor, End: universe.End})
	}
	return out
}

// AnyOverlap reports whether any two distinct ranges in the list overlap.
func AnyOverlap(ranges []Range) bool {
	sorted := make([]Range, 0, len(ranges))
	for _, r := range ranges {
		if !r.Empty() {
			sorted = append(sorted, r)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return true
		}
	}
	return false
}

// PageAlignDown rounds addr down to the nearest multiple of pageSize.
func PageAlignDown(addr, pageSize uint64) uint64 {
	return addr &^ (pageSize - 1)
}

// PageAlignUp rounds addr up to the nearest multiple of pageSize.
func PageAlignUp(addr, pageSize uint64) uint64 {
	return PageAlignDown(addr+pageSize-1, pageSize)
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
