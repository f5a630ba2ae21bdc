//go:build linux

package memacct

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/exmap-go/exmap/internal/rangeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildELFOneLoad writes a minimal ELF64 executable with a single
// PT_LOAD segment [vaddr, vaddr+memsz) backed by [0, filesz) of file
// content, and no section or symbol tables — everything CalculateMaps
// needs and nothing lazyLoadSections would have to chase.
func buildELFOneLoad(t *testing.T, vaddr, filesz, memsz uint64) string {
	t.Helper()
	const (
		ehsize = 64
		phsize = 56
	)
	buf := make([]byte, ehsize+phsize)
	copy(buf[0:4], "\x7f\x45\x4c\x46")
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	binary.LittleEndian.PutUint16(buf[16:18], 2) // ET_EXEC
	binary.LittleEndian.PutUint64(buf[32:40], ehsize)
	binary.LittleEndian.PutUint16(buf[54:56], phsize)
	binary.LittleEndian.PutUint16(buf[56:58], 1)

	ph := buf[ehsize : ehsize+phsize]
	binary.LittleEndian.PutUint32(ph[0:4], 1)    // PT_LOAD
	binary.LittleEndian.PutUint32(ph[4:8], 1|2|4) // R+W+X
	binary.LittleEndian.PutUint64(ph[8:16], 0)    // p_offset
	binary.LittleEndian.PutUint64(ph[16:24], vaddr)
	binary.LittleEndian.PutUint64(ph[32:40], filesz)
	binary.LittleEndian.PutUint64(ph[40:48], memsz)

	dir := t.TempDir()
	path := filepath.Join(dir, "a.out")
	require.NoError(t, os.WriteFile(path, buf, 0o755))
	return path
}

// loadPages attaches count resident pages, each its own cookie, to v
// and returns the cookies so the caller can populate a PagePool.
func loadPages(v *VMA, count int) []uint64 {
	cookies := make([]uint64, count)
	pages := make([]Page, count)
	for i := range pages {
		cookies[i] = uint64(0x1000 + i)
		pages[i] = Page{Cookie: cookies[i], Resident: true}
	}
	_ = v.AddPages(pages)
	return cookies
}

// TestScenario_S4_BssHole: one PT_LOAD with p_vaddr=0x8048000,
// p_filesz=0x800, p_memsz=0x1000, backing a single VMA [0x8048000,
// 0x804A000). Expect an elf map covering the first page and an
// anonymous end-hole map covering the remainder.
func TestScenario_S4_BssHole(t *testing.T) {
	path := buildELFOneLoad(t, 0x8048000, 0x800, 0x1000)

	proc := NewProcess(1, "a.out")
	v := NewVMA(rangeset.New(0x8048000, 0x804A000), 0, "a.out", pageSize)
	loadPages(&v, int((0x804A000-0x8048000)/pageSize))
	proc.AddVMA(v)

	pool := NewFilePool(func(name string) string { return path })
	require.NoError(t, CalculateMaps(0, proc, pool, pageSize))

	maps := proc.Maps()
	require.Len(t, maps, 2)

	assert.Equal(t, rangeset.New(0x8048000, 0x8049000), maps[0].MemRange)
	assert.True(t, maps[0].HasElfRange)
	assert.Equal(t, rangeset.New(0x8048000, 0x8049000), maps[0].ElfRange)

	assert.Equal(t, rangeset.New(0x8049000, 0x804A000), maps[1].MemRange)
	assert.False(t, maps[1].HasElfRange)
}

// TestScenario_S5_SegmentOverrun: two adjacent VMAs naming the same
// file, where the PT_LOAD segment's mem span straddles both. Expect a
// segment map on the first VMA, an overrun elf map on the start of the
// second VMA, and an anonymous end-hole map for the rest of it.
func TestScenario_S5_SegmentOverrun(t *testing.T) {
	const base = 0x10000
	path := buildELFOneLoad(t, base, 0x1800, 0x1800)

	proc := NewProcess(1, "lib.so")
	v1 := NewVMA(rangeset.New(base, base+0x1000), 0, "lib.so", pageSize)
	v2 := NewVMA(rangeset.New(base+0x1000, base+0x2000), 0x1000, "lib.so", pageSize)
	loadPages(&v1, 1)
	loadPages(&v2, 1)
	proc.AddVMA(v1)
	proc.AddVMA(v2)

	pool := NewFilePool(func(name string) string { return path })
	require.NoError(t, CalculateMaps(0, proc, pool, pageSize))

	maps := proc.Maps()
	require.Len(t, maps, 3)

	assert.Equal(t, rangeset.New(base, base+0x1000), maps[0].MemRange)
	assert.True(t, maps[0].HasElfRange)

	assert.Equal(t, rangeset.New(base+0x1000, base+0x1800), maps[1].MemRange)
	assert.True(t, maps[1].HasElfRange)
	assert.Equal(t, rangeset.New(base+0x1000, base+0x1800), maps[1].ElfRange)

	assert.Equal(t, rangeset.New(base+0x1800, base+0x2000), maps[2].MemRange)
	assert.False(t, maps[2].HasElfRange)
}

// TestScenario_S2_NonELFSingleVMA: a file that isn't ELF-backed yields
// exactly one anonymous map covering its whole VMA.
func TestScenario_S2_NonELFSingleVMA(t *testing.T) {
	proc := NewProcess(1, "bash")
	v := NewVMA(rangeset.New(0x1000, 0x3000), 0, "[heap]", pageSize)
	loadPages(&v, 2)
	proc.AddVMA(v)

	pool := NewFilePool(nil)
	require.NoError(t, CalculateMaps(0, proc, pool, pageSize))

	maps := proc.Maps()
	require.Len(t, maps, 1)
	assert.Equal(t, rangeset.New(0x1000, 0x3000), maps[0].MemRange)
	assert.False(t, maps[0].HasElfRange)
	assert.True(t, proc.MapsLoaded())
}

// TestCalculateMaps_EmptyProcess: a process with no VMAs gets an empty
// map list and no error, never an invariant panic.
func TestCalculateMaps_EmptyProcess(t *testing.T) {
	proc := NewProcess(1, "")
	pool := NewFilePool(nil)
	require.NoError(t, CalculateMaps(0, proc, pool, pageSize))
	assert.Empty(t, proc.Maps())
}
