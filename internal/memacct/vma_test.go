//go:build linux

package memacct

import (
	"testing"

	"github.com/exmap-go/exmap/internal/rangeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageSize = 4096

func TestVMA_IsFileBackedAndVdso(t *testing.T) {
	v := NewVMA(rangeset.New(0, pageSize), 0, "/lib/libc.so", pageSize)
	assert.True(t, v.IsFileBacked())
	assert.False(t, v.IsVdso())

	heap := NewVMA(rangeset.New(0, pageSize), 0, "[heap]", pageSize)
	assert.False(t, heap.IsFileBacked())

	vdso := NewVMA(rangeset.New(0, pageSize), 0, "[vdso]", pageSize)
	assert.True(t, vdso.IsVdso())
	assert.False(t, vdso.IsFileBacked())
}

func TestVMA_AddPagesOnce(t *testing.T) {
	v := NewVMA(rangeset.New(0, pageSize), 0, "[heap]", pageSize)
	require.NoError(t, v.AddPages([]Page{{Cookie: 1}}))
	assert.ErrorIs(t, v.AddPages([]Page{{Cookie: 2}}), ErrPagesAlreadySet)
}

func TestVMA_GetPagesForRange_SingleSlot(t *testing.T) {
	v := NewVMA(rangeset.New(0x1000, 0x3000), 0, "[heap]", pageSize)
	require.NoError(t, v.AddPages([]Page{{Cookie: 0xAA}, {Cookie: 0xBB}}))

	contribs, err := v.GetPagesForRange(rangeset.New(0x1100, 0x1200))
	require.NoError(t, err)
	require.Len(t, contribs, 1)
	assert.Equal(t, uint64(0x100), contribs[0].Bytes)
	assert.Equal(t, uint64(0xAA), contribs[0].Page.Cookie)
}

func TestVMA_GetPagesForRange_SpansSlots(t *testing.T) {
	v := NewVMA(rangeset.New(0x1000, 0x4000), 0, "[heap]", pageSize)
	require.NoError(t, v.AddPages([]Page{{Cookie: 1}, {Cookie: 2}, {Cookie: 3}}))

	// start unaligned into slot 0, spans slot 1 fully, ends unaligned into slot 2.
	contribs, err := v.GetPagesForRange(rangeset.New(0x1800, 0x3400))
	require.NoError(t, err)
	require.Len(t, contribs, 3)
	assert.Equal(t, uint64(0x800), contribs[0].Bytes) // 0x2000-0x1800
	assert.Equal(t, uint64(1), contribs[0].Page.Cookie)
	assert.Equal(t, uint64(pageSize), contribs[1].Bytes)
	assert.Equal(t, uint64(2), contribs[1].Page.Cookie)
	assert.Equal(t, uint64(0x400), contribs[2].Bytes) // 0x3400-0x3000
	assert.Equal(t, uint64(3), contribs[2].Page.Cookie)
}

func TestVMA_GetPagesForRange_OutOfBounds(t *testing.T) {
	v := NewVMA(rangeset.New(0x1000, 0x2000), 0, "[heap]", pageSize)
	require.NoError(t, v.AddPages([]Page{{Cookie: 1}}))
	_, err := v.GetPagesForRange(rangeset.New(0x500, 0x1500))
	assert.ErrorIs(t, err, ErrOutOfRange)
}
