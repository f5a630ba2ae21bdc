// Package sysinfo abstracts the external data sources a snapshot load
// needs: the process directory (PIDs, cmdlines, maps lines) and the
// kernel-resident page-info control endpoint. Concrete Linux access
// lives in linux.go; Fake lets memacct tests run hermetically, the
// same way the original mocked its SysInfo interface.
package sysinfo

import "github.com/exmap-go/exmap/internal/rangeset"

// VMALine is one parsed line of a process's maps listing.
type VMALine struct {
	Range    rangeset.Range
	Offset   uint64
	Filename string
}

// PageRecord is one page-info line within a VMA block.
type PageRecord struct {
	Resident bool
	Writable bool
	Cookie   uint64
}

// PageBlock groups the page records the source reported for the VMA
// starting at VMAStart.
type PageBlock struct {
	VMAStart uint64
	Pages    []PageRecord
}

// SystemInfo is the abstract source of everything a snapshot load
// reads from the outside world.
type SystemInfo interface {
	// SanityCheck reports whether the source is reachable at all; a
	// failure here is fatal to the whole snapshot.
	SanityCheck() error

	// PIDs enumerates every accessible process.
	PIDs() ([]int, error)

	// OwnPID is the observer's own PID, skipped during enumeration.
	OwnPID() int

	// Cmdline returns the raw command line of pid, empty if unavailable.
	Cmdline(pid int) (string, error)

	// VMAs returns the parsed maps lines for pid, in file order.
	VMAs(pid int) ([]VMALine, error)

	// PageInfo returns the per-VMA page blocks the kernel source
	// reports for pid.
	PageInfo(pid int) ([]PageBlock, error)
}
