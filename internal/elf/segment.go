package elf

import "github.com/exmap-go/exmap/internal/rangeset"

// Segment is one program-header entry: a chunk of the file mapped into
// memory at a given virtual address.
type Segment struct {
	Type     uint32
	MemRange rangeset.Range
	FileOff  uint64
	FileSize uint64
	flags    uint32
}

// IsLoad reports whether p_type == PT_LOAD.
func (s Segment) IsLoad() bool { return s.Type == ptLoad }

// IsReadable reports whether PF_R is set.
func (s Segment) IsReadable() bool { return s.flags&pfR != 0 }

// IsWritable reports whether PF_W is set.
func (s Segment) IsWritable() bool { return s.flags&pfW != 0 }

// IsExecutable reports whether PF_X is set.
func (s Segment) IsExecutable() bool { return s.flags&pfX != 0 }

func segmentFromRaw(p rawPhdr) Segment {
	return Segment{
		Type:     p.pType,
		MemRange: rangeset.New(p.vaddr, p.vaddr+p.memsz),
		FileOff:  p.offset,
		FileSize: p.filesz,
		flags:    p.flags,
	}
}
