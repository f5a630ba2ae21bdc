//go:build linux

package memacct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_UnmappedPageContributesOnlyVM(t *testing.T) {
	var acc Accumulator
	acc.Add(Page{}, 100, 0)
	s := acc.Finish()
	assert.Equal(t, uint64(100), s.Get(VM))
	assert.Equal(t, uint64(0), s.Get(Mapped))
	assert.Equal(t, uint64(0), s.Get(Resident))
}

func TestAccumulator_SoleMapped(t *testing.T) {
	var acc Accumulator
	acc.Add(Page{Cookie: 0xAA, Resident: true, Writable: true}, 4096, 1)
	s := acc.Finish()
	assert.Equal(t, uint64(4096), s.Get(VM))
	assert.Equal(t, uint64(4096), s.Get(Mapped))
	assert.Equal(t, uint64(4096), s.Get(SoleMapped))
	assert.Equal(t, uint64(4096), s.Get(Resident))
	assert.Equal(t, uint64(4096), s.Get(Writable))
	assert.Equal(t, uint64(4096), s.Get(EffectiveMapped))
	assert.Equal(t, uint64(4096), s.Get(EffectiveResident))
}

func TestAccumulator_SharedPageFlooring(t *testing.T) {
	var acc Accumulator
	acc.Add(Page{Cookie: 0xAA, Resident: true}, 4096, 4)
	s := acc.Finish()
	assert.Equal(t, uint64(4096), s.Get(Mapped))
	assert.Equal(t, uint64(0), s.Get(SoleMapped))
	assert.Equal(t, uint64(1024), s.Get(EffectiveResident))
}

func TestSizes_AddIsPairwise(t *testing.T) {
	a := Sizes{VM: 10, Mapped: 5}
	b := Sizes{VM: 3, Resident: 2}
	sum := a.Add(b)
	assert.Equal(t, uint64(13), sum.Get(VM))
	assert.Equal(t, uint64(5), sum.Get(Mapped))
	assert.Equal(t, uint64(2), sum.Get(Resident))
}

func TestPagePool_ObservesOnlyNonZeroCookies(t *testing.T) {
	pool := NewPagePool()
	pool.Observe(0)
	pool.Observe(0xAA)
	pool.Observe(0xAA)
	assert.Equal(t, uint64(0), pool.Count(0))
	assert.Equal(t, uint64(2), pool.Count(0xAA))
	assert.Equal(t, 1, pool.Len())
}
