package elf

import "github.com/exmap-go/exmap/internal/rangeset"

// Section is one section-header entry.
type Section struct {
	Name      string
	FileRange rangeset.Range
	MemRange  rangeset.Range
	Link      uint32
	EntSize   uint64
	shType    uint32
	nameIndex uint32
	symbols   []Symbol
}

// nameIndexHack returns the raw sh_name string-table offset for this section.
func (s Section) nameIndexHack() int { return int(s.nameIndex) }

// Addr returns sh_addr (0 for sections with no memory presence).
func (s Section) Addr() uint64 { return s.MemRange.Start }

// IsNull reports whether sh_type == SHT_NULL.
func (s Section) IsNull() bool { return s.shType == shtNull }

// IsStringTable reports whether sh_type == SHT_STRTAB.
func (s Section) IsStringTable() bool { return s.shType == shtStrtab }

// IsSymbolTable reports whether sh_type == SHT_SYMTAB.
func (s Section) IsSymbolTable() bool { return s.shType == shtSymtab }

// IsNobits reports whether sh_type == SHT_NOBITS (e.g. .bss).
func (s Section) IsNobits() bool { return s.shType == shtNobits }

// Symbols returns the symbols loaded for this section (only populated
// for a symbol-table section, after the file's sections have been loaded).
func (s Section) Symbols() []Symbol { return s.symbols }

// FindSymbolsInMemRange returns defined symbols of this section whose
// [value, value+size) overlaps mrange.
func (s Section) FindSymbolsInMemRange(mrange rangeset.Range) []Symbol {
	var out []Symbol
	for _, sym := range s.symbols {
		if sym.IsDefined() && mrange.Overlaps(sym.Range) {
			out = append(out, sym)
		}
	}
	return out
}

func sectionFromRaw(s rawShdr) Section {
	return Section{
		FileRange: rangeset.New(s.offset, s.offset+s.size),
		MemRange:  rangeset.New(s.addr, s.addr+s.size),
		Link:      s.link,
		EntSize:   s.entsize,
		shType:    s.shType,
		nameIndex: s.name,
	}
}
