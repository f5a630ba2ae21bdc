package memacct

import "errors"

var (
	// ErrSourceUnavailable means the page-info data source failed its
	// sanity check; the whole snapshot load aborts.
	ErrSourceUnavailable = errors.New("memacct: page-info source unavailable")

	// ErrNoSuchProcess names a missing PID. Snapshot.Process does not
	// return it: a missing PID is reported as ok == false.
	ErrNoSuchProcess = errors.New("memacct: no such process")

	// ErrNoSuchFile names a missing file. Snapshot.File does not return
	// it: a missing name is reported as ok == false.
	ErrNoSuchFile = errors.New("memacct: no such file")

	// ErrOutOfRange means an address or range lies outside the VMA it
	// was queried against.
	ErrOutOfRange = errors.New("memacct: address out of range")

	// ErrPagesAlreadySet means add_pages was called more than once on a VMA.
	ErrPagesAlreadySet = errors.New("memacct: pages already attached to VMA")

	// ErrMapReconstruction means the map calculator detected a malformed
	// VMA/ELF correlation for a process; that process's maps are
	// discarded but the snapshot continues.
	ErrMapReconstruction = errors.New("memacct: map reconstruction failed")

	// ErrEmptyRange is returned by size queries over an empty or
	// out-of-bounds range.
	ErrEmptyRange = errors.New("memacct: empty range")
)
