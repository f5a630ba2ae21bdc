//go:build linux

package memacct

import (
	"sync"

	"github.com/exmap-go/exmap/internal/sysinfo"
	"github.com/sirupsen/logrus"
)

// Snapshot is the sealed, read-only result of loading every accessible
// process's memory map at one point in time. It owns the page pool,
// the file pool, and every loaded Process; nothing mutates after Load
// returns.
type Snapshot struct {
	PageSize uint64

	pool  *PagePool
	files *FilePool
	procs []*Process
	byPID map[int]ProcessHandle
}

// loadMu serializes snapshot construction: the underlying page-info
// control endpoint is a single-writer protocol (write a PID, read the
// response), so two concurrent loads would race on it.
var loadMu sync.Mutex

// Load drives one full snapshot: sanity-checks the source, enumerates
// PIDs, loads each process's VMAs and page records, runs the map
// calculator per process, and returns the sealed result. A source that
// fails its sanity check is a fatal, whole-snapshot error; a process
// that fails partway through is dropped or degraded in place — see
// 4.K for the exact per-stage behavior — and never aborts the rest of
// the load.
func Load(src sysinfo.SystemInfo, pageSize uint64, resolvePath func(name string) string) (*Snapshot, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if err := src.SanityCheck(); err != nil {
		return nil, ErrSourceUnavailable
	}

	pids, err := src.PIDs()
	if err != nil {
		return nil, ErrSourceUnavailable
	}

	snap := &Snapshot{
		PageSize: pageSize,
		pool:     NewPagePool(),
		files:    NewFilePool(resolvePath),
		byPID:    make(map[int]ProcessHandle),
	}

	selfPID := src.OwnPID()

	for _, pid := range pids {
		if pid == selfPID {
			continue
		}
		proc, ok := snap.loadProcess(src, pid)
		if !ok {
			continue
		}
		h := ProcessHandle(len(snap.procs))
		snap.procs = append(snap.procs, proc)
		snap.byPID[pid] = h

		if err := CalculateMaps(h, proc, snap.files, pageSize); err != nil {
			logrus.WithError(err).WithField("pid", pid).Warn("memacct: map reconstruction failed, dropping maps")
			proc.SetMaps(nil)
		}
	}

	return snap, nil
}

// loadProcess reads one PID's cmdline, VMA list, and page records. A
// process with no VMAs at all is a kernel thread and is dropped
// silently (ok == false). A [vdso] VMA left with zero pages after
// attachment is dropped for distro/kernel variance reasons, but never
// causes the whole process to be dropped.
func (s *Snapshot) loadProcess(src sysinfo.SystemInfo, pid int) (*Process, bool) {
	cmdline, err := src.Cmdline(pid)
	if err != nil {
		cmdline = ""
	}

	vmaLines, err := src.VMAs(pid)
	if err != nil || len(vmaLines) == 0 {
		return nil, false
	}

	proc := NewProcess(pid, cmdline)
	startToHandle := make(map[uint64]VMAHandle)
	for _, line := range vmaLines {
		v := NewVMA(line.Range, line.Offset, line.Filename, s.PageSize)
		h := proc.AddVMA(v)
		startToHandle[line.Range.Start] = h
	}

	pageBlocks, err := src.PageInfo(pid)
	if err != nil {
		logrus.WithError(err).WithField("pid", pid).Warn("memacct: failed to read page records")
	}
	for _, block := range pageBlocks {
		h, ok := startToHandle[block.VMAStart]
		if !ok {
			logrus.WithFields(logrus.Fields{"pid": pid, "start": block.VMAStart}).
				Warn("memacct: page block references unknown VMA start, skipping")
			continue
		}
		vma := proc.VMA(h)
		pages := make([]Page, 0, len(block.Pages))
		for _, rec := range block.Pages {
			p := Page{Cookie: rec.Cookie, Resident: rec.Resident, Writable: rec.Writable}
			pages = append(pages, p)
			s.pool.Observe(p.Cookie)
		}
		if err := vma.AddPages(pages); err != nil {
			logrus.WithError(err).WithField("pid", pid).Warn("memacct: duplicate page block for VMA")
		}
	}

	s.dropEmptyVdso(proc)
	return proc, true
}

func (s *Snapshot) dropEmptyVdso(proc *Process) {
	vmas := proc.VMAs()
	for i := len(vmas) - 1; i >= 0; i-- {
		if vmas[i].IsVdso() && len(vmas[i].Pages()) == 0 {
			proc.DropVMA(i)
		}
	}
}

// Processes returns every retained process.
func (s *Snapshot) Processes() []*Process { return s.procs }

// Process looks up a process by PID.
func (s *Snapshot) Process(pid int) (*Process, bool) {
	h, ok := s.byPID[pid]
	if !ok {
		return nil, false
	}
	return s.procs[h], true
}

// Files returns every distinct backing file seen across all processes.
func (s *Snapshot) Files() []*File { return s.files.Files() }

// File looks up a file by name.
func (s *Snapshot) File(name string) (*File, bool) { return s.files.Lookup(name) }

// PagePool exposes the sealed page pool for size queries outside the
// process/file convenience methods.
func (s *Snapshot) PagePool() *PagePool { return s.pool }
