package sysinfo

import "fmt"

// Fake is an in-memory SystemInfo for tests, mirroring the mocked
// source the original implementation used to test the map calculator
// and snapshot lifecycle without a real kernel or process tree.
type Fake struct {
	Unavailable bool
	Own         int
	Procs       map[int]FakeProc
}

// FakeProc is one process's canned responses.
type FakeProc struct {
	Cmdline string
	VMAs    []VMALine
	Pages   []PageBlock

	// VMAsErr, if set, is returned instead of VMAs/nil error — used to
	// simulate a process whose maps vanished mid-read.
	VMAsErr error
}

// NewFake returns an empty Fake source.
func NewFake() *Fake {
	return &Fake{Procs: make(map[int]FakeProc)}
}

// AddProcess registers canned responses for pid.
func (f *Fake) AddProcess(pid int, p FakeProc) {
	f.Procs[pid] = p
}

func (f *Fake) SanityCheck() error {
	if f.Unavailable {
		return fmt.Errorf("sysinfo: fake source marked unavailable")
	}
	return nil
}

func (f *Fake) OwnPID() int { return f.Own }

func (f *Fake) PIDs() ([]int, error) {
	out := make([]int, 0, len(f.Procs))
	for pid := range f.Procs {
		out = append(out, pid)
	}
	return out, nil
}

func (f *Fake) Cmdline(pid int) (string, error) {
	p, ok := f.Procs[pid]
	if !ok {
		return "", fmt.Errorf("sysinfo: no such fake pid %d", pid)
	}
	return p.Cmdline, nil
}

func (f *Fake) VMAs(pid int) ([]VMALine, error) {
	p, ok := f.Procs[pid]
	if !ok {
		return nil, fmt.Errorf("sysinfo: no such fake pid %d", pid)
	}
	if p.VMAsErr != nil {
		return nil, p.VMAsErr
	}
	return p.VMAs, nil
}

func (f *Fake) PageInfo(pid int) ([]PageBlock, error) {
	p, ok := f.Procs[pid]
	if !ok {
		return nil, fmt.Errorf("sysinfo: no such fake pid %d", pid)
	}
	return p.Pages, nil
}
