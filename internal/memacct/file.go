//go:build linux

package memacct

import (
	"fmt"

	"github.com/exmap-go/exmap/internal/elf"
	"github.com/sirupsen/logrus"
)

// ProcessHandle is a stable index into a Snapshot's process arena —
// used instead of an owning pointer so File<->Process references never
// form a cycle.
type ProcessHandle int

// File is a backing-file identity: a name, an optional ELF reader (nil
// when the path doesn't resolve to a regular ELF-magic file or parsing
// failed after the magic check — either way that's not fatal to the
// snapshot), the set of processes that reference it, and the Maps
// realizing it across every such process.
type File struct {
	Name string
	Elf  *elf.File

	procs map[ProcessHandle]struct{}
	maps  []MapHandle
}

// MapHandle identifies one Map within its owning Process's map list.
type MapHandle struct {
	Process ProcessHandle
	Index   int
}

// NewFile opens path as an ELF file if possible; parse failure (not a
// regular file, bad magic, corrupt header) yields a File with Elf ==
// nil rather than an error — the caller treats that as "anonymous
// backing", never as a snapshot-ending failure.
func NewFile(name, path string) *File {
	f := &File{Name: name, procs: make(map[ProcessHandle]struct{})}

	ef, err := elf.Open(path)
	if err != nil {
		logrus.WithError(err).WithField("path", path).Debug("memacct: file has no usable ELF image")
		return f
	}
	f.Elf = ef
	return f
}

// IsElf reports whether the ELF reader loaded successfully.
func (f *File) IsElf() bool { return f.Elf != nil }

// AddProc records that process h references this file.
func (f *File) AddProc(h ProcessHandle) { f.procs[h] = struct{}{} }

// Procs returns the set of processes referencing this file.
func (f *File) Procs() []ProcessHandle {
	out := make([]ProcessHandle, 0, len(f.procs))
	for h := range f.procs {
		out = append(out, h)
	}
	return out
}

// AddMap records that map h realizes part of this file.
func (f *File) AddMap(h MapHandle) { f.maps = append(f.maps, h) }

// Maps returns every map handle realizing this file, across all
// referencing processes.
func (f *File) Maps() []MapHandle { return f.maps }

func (f *File) String() string {
	return fmt.Sprintf("File{%q elf=%v procs=%d maps=%d}", f.Name, f.IsElf(), len(f.procs), len(f.maps))
}

// FilePool is the deduplicating registry of Files by name: the map
// calculator and snapshot loader ask it for a file, and get back the
// same *File for the same name every time within one snapshot.
type FilePool struct {
	resolvePath func(name string) string
	files       map[string]*File
	order       []string
}

// NewFilePool returns an empty pool. resolvePath turns a VMA's
// filename into a filesystem path to attempt to open as ELF (identity
// for most names; the concrete system-info layer may rewrite things
// like a relative path into an absolute one).
func NewFilePool(resolvePath func(name string) string) *FilePool {
	if resolvePath == nil {
		resolvePath = func(name string) string { return name }
	}
	return &FilePool{resolvePath: resolvePath, files: make(map[string]*File)}
}

// Get returns the File for name, creating and caching it on first
// request.
func (p *FilePool) Get(name string) *File {
	if f, ok := p.files[name]; ok {
		return f
	}
	f := NewFile(name, p.resolvePath(name))
	p.files[name] = f
	p.order = append(p.order, name)
	return f
}

// Lookup returns the already-created File for name without creating
// one, for callers that only want to know if it exists.
func (p *FilePool) Lookup(name string) (*File, bool) {
	f, ok := p.files[name]
	return f, ok
}

// Files returns every distinct File in the pool, in first-seen order.
func (p *FilePool) Files() []*File {
	out := make([]*File, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.files[name])
	}
	return out
}
