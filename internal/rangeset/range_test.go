package rangeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntersect(t *testing.T) {
	r, ok := New(2, 6).Intersect(New(3, 7))
	require.True(t, ok)
	assert.Equal(t, New(3, 6), r)
}

func TestIntersect_Disjoint(t *testing.T) {
	_, ok := New(0, 2).Intersect(New(5, 7))
	assert.False(t, ok)
}

func TestIntersect_Touching(t *testing.T) {
	// [0,2) and [2,4) share no addresses (half-open).
	_, ok := New(0, 2).Intersect(New(2, 4))
	assert.False(t, ok)
}

func TestInvertList(t *testing.T) {
	universe := New(0, 10)
	sub := []Range{New(1, 2), New(3, 5), New(5, 7)}
	got := InvertList(universe, sub)
	want := []Range{New(0, 1), New(2, 3), New(7, 10)}
	assert.Equal(t, want, got)
}

func TestInvertList_EmptySub(t *testing.T) {
	universe := New(0, 10)
	got := InvertList(universe, nil)
	assert.Equal(t, []Range{New(0, 10)}, got)
}

func TestInvertList_FullyCovered(t *testing.T) {
	universe := New(0, 10)
	got := InvertList(universe, []Range{New(0, 10)})
	assert.Nil(t, got)
}

func TestAnyOverlap(t *testing.T) {
	assert.True(t, AnyOverlap([]Range{New(1, 2), New(3, 5), New(5, 7), New(6, 8)}))
	assert.False(t, AnyOverlap([]Range{New(1, 2), New(3, 5), New(5, 7)}))
}

func TestMergeList_UnsortedInput(t *testing.T) {
	in := []Range{New(5, 7), New(1, 2), New(3, 5)}
	got := MergeList(in)
	want := []Range{New(1, 2), New(3, 7)}
	assert.Equal(t, want, got)
}

func TestMergeList_Idempotent(t *testing.T) {
	in := []Range{New(5, 7), New(1, 2), New(3, 5)}
	once := MergeList(in)
	twice := MergeList(once)
	assert.Equal(t, once, twice)
}

func TestMergeList_OrderInsensitive(t *testing.T) {
	a := MergeList([]Range{New(1, 3), New(5, 8), New(2, 6)})
	b := MergeList([]Range{New(5, 8), New(2, 6), New(1, 3)})
	assert.Equal(t, a, b)
}

func TestTruncateBelow(t *testing.T) {
	assert.Equal(t, New(5, 10), New(0, 10).TruncateBelow(5))
	assert.Equal(t, New(10, 10), New(0, 10).TruncateBelow(20))
}

func TestTruncateAbove(t *testing.T) {
	assert.Equal(t, New(0, 5), New(0, 10).TruncateAbove(5))
	assert.Equal(t, New(0, 0), New(0, 10).TruncateAbove(0))
}

func TestContainsAndOverlaps(t *testing.T) {
	r := New(10, 20)
	assert.True(t, r.Contains(10))
	assert.False(t, r.Contains(20))
	assert.True(t, r.Overlaps(New(15, 25)))
	assert.False(t, r.Overlaps(New(20, 25)))
}

func TestPageAlign(t *testing.T) {
	const ps = 4096
	assert.Equal(t, uint64(0x1000), PageAlignDown(0x1234, ps))
	assert.Equal(t, uint64(0x2000), PageAlignUp(0x1234, ps))
	assert.Equal(t, uint64(0x1000), PageAlignDown(0x1000, ps))
	assert.Equal(t, uint64(0x1000), PageAlignUp(0x1000, ps))
}

func TestSizeAndEmpty(t *testing.T) {
	r := New(5, 5)
	assert.True(t, r.Empty())
	assert.Equal(t, uint64(0), r.Size())
}
