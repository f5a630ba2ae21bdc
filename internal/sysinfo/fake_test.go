package sysinfo

import (
	"testing"

	"github.com/exmap-go/exmap/internal/rangeset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFake_SanityCheckHonorsUnavailable(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.SanityCheck())

	f.Unavailable = true
	assert.Error(t, f.SanityCheck())
}

func TestFake_RoundTripsCannedProcess(t *testing.T) {
	f := NewFake()
	f.Own = 1
	f.AddProcess(7, FakeProc{
		Cmdline: "myproc",
		VMAs:    []VMALine{{Range: rangeset.New(0x1000, 0x2000), Filename: "[heap]"}},
		Pages:   []PageBlock{{VMAStart: 0x1000, Pages: []PageRecord{{Resident: true, Cookie: 1}}}},
	})

	assert.Equal(t, 1, f.OwnPID())

	pids, err := f.PIDs()
	require.NoError(t, err)
	assert.Equal(t, []int{7}, pids)

	cmdline, err := f.Cmdline(7)
	require.NoError(t, err)
	assert.Equal(t, "myproc", cmdline)

	vmas, err := f.VMAs(7)
	require.NoError(t, err)
	require.Len(t, vmas, 1)
	assert.Equal(t, "[heap]", vmas[0].Filename)

	pages, err := f.PageInfo(7)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, uint64(0x1000), pages[0].VMAStart)
}

func TestFake_UnknownPIDErrors(t *testing.T) {
	f := NewFake()
	_, err := f.Cmdline(99)
	assert.Error(t, err)
	_, err = f.VMAs(99)
	assert.Error(t, err)
	_, err = f.PageInfo(99)
	assert.Error(t, err)
}

func TestFake_VMAsErrOverride(t *testing.T) {
	f := NewFake()
	f.AddProcess(1, FakeProc{VMAsErr: assert.AnError})
	_, err := f.VMAs(1)
	assert.ErrorIs(t, err, assert.AnError)
}
