//go:build linux

// Package elf is a narrow, purpose-built ELF32/ELF64 reader: just enough
// of the format to enumerate loadable segments and the defined symbol
// table of a mapped file. It intentionally does not depend on
// debug/elf — that package eagerly collapses segment, section, and
// symbol loading into one call and offers no hook for the best-effort
// euid-drop this package needs around the raw file open (see
// privilege_linux.go). It models the same HeaderOnly -> SegmentsLoaded
// -> SectionsLoaded progression as the original C++ implementation's
// lazy_load_sections, guarded against reentrancy.
package elf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/exmap-go/exmap/internal/rangeset"
	"github.com/sirupsen/logrus"
)

type loadState int

const (
	stateHeaderOnly loadState = iota
	stateSegmentsLoaded
	stateSectionsLoaded
)

// File is a parsed ELF object: its program headers (eager) and, on
// first request, its section headers and symbol table (lazy).
type File struct {
	path            string
	class           Class
	order           binary.ByteOrder
	eType           uint16
	hdr             header
	state           loadState
	loadingSections bool

	segments []Segment
	sections []Section
	symtab   *Section // points into sections, set once correlated
}

// Open reads the ELF header and program-header table of path. It
// returns ErrNotRegularFile for anything that isn't a plain file and
// ErrBadMagic/ErrUnsupportedClass/ErrShortHeader for a file whose first
// four bytes aren't the ELF magic or whose header doesn't parse —
// callers treat all of these as "not actually an ELF file", not as a
// snapshot-ending failure.
func Open(path string) (*File, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrNotRegularFile
	}

	f, err := openAsOwner(path)
	if err != nil {
		return nil, fmt.Errorf("elf: open %s: %w", path, err)
	}
	defer f.Close()

	headerBuf := make([]byte, ehsize64)
	n, err := io.ReadFull(f, headerBuf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("elf: read header %s: %w", path, err)
	}
	hdr, err := parseHeader(headerBuf[:n])
	if err != nil {
		return nil, err
	}

	ef := &File{
		path:  path,
		class: hdr.class,
		order: hdr.order,
		eType: hdr.eType,
		hdr:   hdr,
		state: stateHeaderOnly,
	}

	if err := ef.loadSegments(f); err != nil {
		return nil, err
	}
	ef.state = stateSegmentsLoaded
	return ef, nil
}

// Path returns the filesystem path this File was opened from.
func (f *File) Path() string { return f.path }

// IsExecutable reports whether e_type == ET_EXEC.
func (f *File) IsExecutable() bool { return f.eType == etExec }

// IsSharedObject reports whether e_type == ET_DYN.
func (f *File) IsSharedObject() bool { return f.eType == etDyn }

// Segments returns every program-header entry, in file order.
func (f *File) Segments() []Segment { return f.segments }

// LoadableSegments returns the PT_LOAD program-header entries, in file order.
func (f *File) LoadableSegments() []Segment {
	out := make([]Segment, 0, len(f.segments))
	for _, s := range f.segments {
		if s.IsLoad() {
			out = append(out, s)
		}
	}
	return out
}

func (f *File) loadSegments(r io.ReaderAt) error {
	entries, err := readTable(r, f.hdr.phoff, f.hdr.phnum, f.hdr.phentsize)
	if err != nil {
		logrus.WithError(err).WithField("path", f.path).Warn("elf: failed to load segment table")
		return ErrNoSegments
	}
	for _, buf := range entries {
		f.segments = append(f.segments, segmentFromRaw(parsePhdr(f.class, f.order, buf)))
	}
	return nil
}

// lazyLoadSections loads the section header table, names each section
// from the section-name string table, and loads the symbol table (if
// any) the first time any section-related accessor is called.
// Re-entrant calls while loading is in progress are a no-op success,
// mirroring the original's recursion guard.
func (f *File) lazyLoadSections() error {
	if f.state == stateSectionsLoaded || f.loadingSections {
		return nil
	}
	f.loadingSections = true
	defer func() { f.loadingSections = false }()

	file, err := openAsOwner(f.path)
	if err != nil {
		return fmt.Errorf("elf: reopen %s: %w", f.path, err)
	}
	defer file.Close()

	entries, err := readTable(file, f.hdr.shoff, f.hdr.shnum, f.hdr.shentsize)
	if err != nil || len(entries) == 0 {
		logrus.WithField("path", f.path).Warn("elf: no section header table")
		return ErrNoSections
	}

	sections := make([]Section, 0, len(entries))
	for _, buf := range entries {
		sections = append(sections, sectionFromRaw(parseShdr(f.class, f.order, buf)))
	}

	if int(f.hdr.shstrndx) >= len(sections) {
		logrus.WithField("path", f.path).Warn("elf: invalid section name string table index")
		return ErrBadStringTableIndex
	}
	strtab := sections[f.hdr.shstrndx]
	if !strtab.IsStringTable() {
		logrus.WithField("path", f.path).Warn("elf: e_shstrndx does not name a string table")
		return ErrBadStringTableIndex
	}

	for i := range sections {
		name, err := findString(file, strtab, sections[i].nameIndexHack())
		if err == nil {
			sections[i].Name = name
		}
	}

	var symtabIdx = -1
	for i := range sections {
		if sections[i].IsSymbolTable() {
			symtabIdx = i
			break
		}
	}
	if symtabIdx >= 0 {
		linked := int(sections[symtabIdx].Link)
		var strSec *Section
		if linked >= 0 && linked < len(sections) {
			strSec = &sections[linked]
		}
		syms, err := f.loadSymbols(file, sections[symtabIdx], strSec)
		if err != nil {
			logrus.WithError(err).WithField("path", f.path).Warn("elf: failed to load symbol table")
		} else {
			sections[symtabIdx].symbols = syms
		}
		f.symtab = &sections[symtabIdx]
	}

	f.sections = sections
	f.state = stateSectionsLoaded
	return nil
}

// Sections returns every section, loading them on first call.
func (f *File) Sections() ([]Section, error) {
	if err := f.lazyLoadSections(); err != nil {
		return nil, err
	}
	return f.sections, nil
}

// Section returns the i'th section header (0-indexed).
func (f *File) Section(i int) (Section, bool) {
	if err := f.lazyLoadSections(); err != nil {
		return Section{}, false
	}
	if i < 0 || i >= len(f.sections) {
		return Section{}, false
	}
	return f.sections[i], true
}

// SectionByName returns the first section with the given name.
func (f *File) SectionByName(name string) (Section, bool) {
	if err := f.lazyLoadSections(); err != nil {
		return Section{}, false
	}
	for _, s := range f.sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// MappableSections returns sections with a non-zero sh_addr.
func (f *File) MappableSections() ([]Section, error) {
	if err := f.lazyLoadSections(); err != nil {
		return nil, err
	}
	var out []Section
	for _, s := range f.sections {
		if s.Addr() != 0 {
			out = append(out, s)
		}
	}
	return out, nil
}

// AllSymbols returns every symbol-table entry. Absence of a symbol
// table is not an error: it simply yields an empty slice, matching the
// design note that "no symbols known" is not fatal.
func (f *File) AllSymbols() []Symbol {
	_ = f.lazyLoadSections()
	if f.symtab == nil {
		return nil
	}
	return f.symtab.Symbols()
}

// DefinedSymbols returns symbols with a non-empty name and non-zero value.
func (f *File) DefinedSymbols() []Symbol {
	var out []Symbol
	for _, s := range f.AllSymbols() {
		if s.IsDefined() {
			out = append(out, s)
		}
	}
	return out
}

// Symbol returns the first symbol matching name.
func (f *File) Symbol(name string) (Symbol, bool) {
	for _, s := range f.AllSymbols() {
		if s.Name == name {
			return s, true
		}
	}
	return Symbol{}, false
}

// FindSymbolsInMemRange returns defined symbols whose
// [st_value, st_value+st_size) range overlaps mrange.
func (f *File) FindSymbolsInMemRange(mrange rangeset.Range) []Symbol {
	_ = f.lazyLoadSections()
	if f.symtab == nil {
		return nil
	}
	return f.symtab.FindSymbolsInMemRange(mrange)
}

// readTable reads numChunks entries of chunkSize bytes starting at
// offset, returning one []byte per entry. offset == 0, numChunks < 1,
// or a short read are all reported as errors — the caller treats that
// as "this table doesn't exist", not as a hard failure.
func readTable(r io.ReaderAt, offset uint64, numChunks, chunkSize uint16) ([][]byte, error) {
	if offset == 0 {
		return nil, fmt.Errorf("no table at offset 0")
	}
	if numChunks < 1 {
		return nil, fmt.Errorf("invalid chunk count %d", numChunks)
	}
	if chunkSize == 0 {
		return nil, fmt.Errorf("invalid chunk size %d", chunkSize)
	}
	total := int(numChunks) * int(chunkSize)
	buf := make([]byte, total)
	if _, err := r.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("read %d bytes at %#x: %w", total, offset, err)
	}
	out := make([][]byte, numChunks)
	for i := 0; i < int(numChunks); i++ {
		out[i] = buf[i*int(chunkSize) : (i+1)*int(chunkSize)]
	}
	return out, nil
}

// loadSymbols reads and decodes every entry of a symbol-table section,
// resolving each symbol's name from strtab if present.
func (f *File) loadSymbols(r io.ReaderAt, symtab Section, strtab *Section) ([]Symbol, error) {
	if symtab.EntSize == 0 {
		return nil, ErrBadSymtabEntrySize
	}
	total := symtab.FileRange.Size()
	if total%symtab.EntSize != 0 {
		return nil, ErrBadSymtabEntrySize
	}
	count := total / symtab.EntSize
	if count == 0 {
		return nil, nil
	}
	if count > (1 << 20) {
		return nil, fmt.Errorf("elf: implausible symbol count %d", count)
	}

	buf := make([]byte, total)
	if _, err := r.ReadAt(buf, int64(symtab.FileRange.Start)); err != nil {
		return nil, fmt.Errorf("elf: read symbol table: %w", err)
	}

	syms := make([]Symbol, 0, count)
	for i := uint64(0); i < count; i++ {
		row := buf[i*symtab.EntSize : (i+1)*symtab.EntSize]
		raw := parseSym(f.class, f.order, row)
		name := ""
		if strtab != nil {
			if n, err := findString(r, *strtab, int(raw.name)); err == nil {
				name = n
			}
		}
		syms = append(syms, symbolFromRaw(raw, name))
	}
	return syms, nil
}

// findString reads a NUL-terminated string from a string-table section
// at the given byte index.
func findString(r io.ReaderAt, strtab Section, index int) (string, error) {
	if !strtab.IsStringTable() || index < 0 {
		return "", fmt.Errorf("elf: not a string table or bad index %d", index)
	}
	const maxStringLen = 1024
	buf := make([]byte, maxStringLen)
	n, err := r.ReadAt(buf, int64(strtab.FileRange.Start)+int64(index))
	if err != nil && err != io.EOF && n == 0 {
		return "", err
	}
	buf = buf[:n]
	if i := indexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

func indexByte(buf []byte, b byte) int {
	for i, c := range buf {
		if c == b {
			return i
		}
	}
	return -1
}
