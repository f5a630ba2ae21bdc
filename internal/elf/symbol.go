package elf

import "github.com/exmap-go/exmap/internal/rangeset"

// SymbolKind classifies a symbol by the type nibble of st_info
// (ELF32_ST_TYPE / ELF64_ST_TYPE). This is not required by the core
// sizing algorithm, but lets a caller separate function symbols from
// data symbols when attributing cost per symbol.
type SymbolKind int

const (
	KindOther SymbolKind = iota
	KindFunc
	KindData
	KindFile
	KindSection
)

// Symbol is one entry of the symbol table.
type Symbol struct {
	Name  string
	Range rangeset.Range
	Size  uint64
	kind  SymbolKind
}

// IsDefined reports whether the symbol has a name and a non-zero value,
// matching the original's is_defined() check.
func (s Symbol) IsDefined() bool {
	return s.Name != "" && s.Range.Start != 0
}

// Kind classifies the symbol (function, data object, file, section, other).
func (s Symbol) Kind() SymbolKind { return s.kind }

func kindFromType(t uint8) SymbolKind {
	switch t & 0xf {
	case sttFunc:
		return KindFunc
	case sttObject:
		return KindData
	case sttFile:
		return KindFile
	case sttSection:
		return KindSection
	default:
		return KindOther
	}
}

func symbolFromRaw(r rawSym, name string) Symbol {
	return Symbol{
		Name:  name,
		Range: rangeset.New(r.value, r.value+r.size),
		Size:  r.size,
		kind:  kindFromType(r.info),
	}
}
