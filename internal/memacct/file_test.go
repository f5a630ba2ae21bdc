//go:build linux

package memacct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile_NonELFIsNotFatal(t *testing.T) {
	f := NewFile("[heap]", "[heap]")
	assert.False(t, f.IsElf())
	assert.Nil(t, f.Elf)
}

func TestNewFile_RealELF(t *testing.T) {
	path := buildELFOneLoad(t, 0x1000, 0x1000, 0x1000)
	f := NewFile("a.out", path)
	require.True(t, f.IsElf())
}

func TestFilePool_DedupesByName(t *testing.T) {
	pool := NewFilePool(nil)
	a := pool.Get("[heap]")
	b := pool.Get("[heap]")
	assert.Same(t, a, b)

	_, ok := pool.Lookup("[stack]")
	assert.False(t, ok)
	pool.Get("[stack]")
	_, ok = pool.Lookup("[stack]")
	assert.True(t, ok)

	assert.Len(t, pool.Files(), 2)
}

func TestFile_AddProcAndMapTracking(t *testing.T) {
	f := NewFile("[heap]", "[heap]")
	f.AddProc(ProcessHandle(1))
	f.AddProc(ProcessHandle(2))
	assert.ElementsMatch(t, []ProcessHandle{1, 2}, f.Procs())

	f.AddMap(MapHandle{Process: 1, Index: 0})
	require.Len(t, f.Maps(), 1)
	assert.Equal(t, MapHandle{Process: 1, Index: 0}, f.Maps()[0])
}
