package elf

import "errors"

var (
	// ErrNotRegularFile means the path does not resolve to a regular file.
	ErrNotRegularFile = errors.New("elf: not a regular file")

	// ErrBadMagic means the first four bytes are not the ELF magic.
	ErrBadMagic = errors.New("elf: bad magic")

	// ErrUnsupportedClass means e_ident[EI_CLASS] is neither ELFCLASS32 nor
	// ELFCLASS64, or e_ident[EI_DATA] is neither ELFDATA2LSB nor ELFDATA2MSB.
	ErrUnsupportedClass = errors.New("elf: unsupported class")

	// ErrShortHeader means the file is too small to hold a full ELF header.
	ErrShortHeader = errors.New("elf: short header")

	// ErrNoSegments means the program header table is absent or empty.
	ErrNoSegments = errors.New("elf: no segments")

	// ErrNoSections means the section header table is absent or empty.
	ErrNoSections = errors.New("elf: no sections")

	// ErrBadStringTableIndex means e_shstrndx does not name a valid section.
	ErrBadStringTableIndex = errors.New("elf: bad string table index")

	// ErrBadSymtabEntrySize means sh_entsize is zero or does not evenly divide sh_size.
	ErrBadSymtabEntrySize = errors.New("elf: bad symbol table entry size")
)
