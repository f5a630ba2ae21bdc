package elf

import "encoding/binary"

// Class distinguishes 32-bit and 64-bit ELF objects (e_ident[EI_CLASS]).
type Class uint8

const (
	classNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

const (
	dataNone Class = 0
	dataLSB  Class = 1
	dataMSB  Class = 2
)

const magic = "\x7f\x45\x4c\x46"

// Segment types (p_type) we care about. The rest pass through as opaque.
const (
	ptLoad = 1
)

// Segment flags (p_flags).
const (
	pfX = 1 << 0
	pfW = 1 << 1
	pfR = 1 << 2
)

// Section types (sh_type) we care about.
const (
	shtNull   = 0
	shtSymtab = 2
	shtStrtab = 3
	shtNobits = 8
)

// Symbol type nibble of st_info (ELF32_ST_TYPE / ELF64_ST_TYPE).
const (
	sttNotype  = 0
	sttObject  = 1
	sttFunc    = 2
	sttSection = 3
	sttFile    = 4
)

// e_type values.
const (
	etExec = 2
	etDyn  = 3
)

const (
	ehsize32 = 52
	ehsize64 = 64

	phentsize32 = 32
	phentsize64 = 56

	shentsize32 = 40
	shentsize64 = 64

	symsize32 = 16
	symsize64 = 24
)

type header struct {
	class     Class
	order     binary.ByteOrder
	eType     uint16
	phoff     uint64
	phentsize uint16
	phnum     uint16
	shoff     uint64
	shentsize uint16
	shnum     uint16
	shstrndx  uint16
}

// parseHeader decodes an ELF32 or ELF64 file header from the first
// ehsize64 bytes of the file (that's enough to cover either layout).
func parseHeader(buf []byte) (header, error) {
	if len(buf) < ehsize32 {
		return header{}, ErrShortHeader
	}
	if string(buf[:4]) != magic {
		return header{}, ErrBadMagic
	}
	class := Class(buf[4])
	var order binary.ByteOrder
	switch Class(buf[5]) {
	case dataLSB:
		order = binary.LittleEndian
	case dataMSB:
		order = binary.BigEndian
	default:
		return header{}, ErrUnsupportedClass
	}

	var h header
	h.class = class
	h.order = order

	switch class {
	case Class32:
		if len(buf) < ehsize32 {
			return header{}, ErrShortHeader
		}
		h.eType = order.Uint16(buf[16:18])
		h.phoff = uint64(order.Uint32(buf[28:32]))
		h.shoff = uint64(order.Uint32(buf[32:36]))
		h.phentsize = order.Uint16(buf[42:44])
		h.phnum = order.Uint16(buf[44:46])
		h.shentsize = order.Uint16(buf[46:48])
		h.shnum = order.Uint16(buf[48:50])
		h.shstrndx = order.Uint16(buf[50:52])
	case Class64:
		if len(buf) < ehsize64 {
			return header{}, ErrShortHeader
		}
		h.eType = order.Uint16(buf[16:18])
		h.phoff = order.Uint64(buf[32:40])
		h.shoff = order.Uint64(buf[40:48])
		h.phentsize = order.Uint16(buf[54:56])
		h.phnum = order.Uint16(buf[56:58])
		h.shentsize = order.Uint16(buf[58:60])
		h.shnum = order.Uint16(buf[60:62])
		h.shstrndx = order.Uint16(buf[62:64])
	default:
		return header{}, ErrUnsupportedClass
	}
	return h, nil
}

type rawPhdr struct {
	pType  uint32
	offset uint64
	vaddr  uint64
	filesz uint64
	memsz  uint64
	flags  uint32
}

func parsePhdr(class Class, order binary.ByteOrder, buf []byte) rawPhdr {
	var p rawPhdr
	switch class {
	case Class32:
		p.pType = order.Uint32(buf[0:4])
		p.offset = uint64(order.Uint32(buf[4:8]))
		p.vaddr = uint64(order.Uint32(buf[8:12]))
		p.filesz = uint64(order.Uint32(buf[16:20]))
		p.memsz = uint64(order.Uint32(buf[20:24]))
		p.flags = order.Uint32(buf[24:28])
	case Class64:
		p.pType = order.Uint32(buf[0:4])
		p.flags = order.Uint32(buf[4:8])
		p.offset = order.Uint64(buf[8:16])
		p.vaddr = order.Uint64(buf[16:24])
		p.filesz = order.Uint64(buf[32:40])
		p.memsz = order.Uint64(buf[40:48])
	}
	return p
}

type rawShdr struct {
	name    uint32
	shType  uint32
	addr    uint64
	offset  uint64
	size    uint64
	link    uint32
	entsize uint64
}

func parseShdr(class Class, order binary.ByteOrder, buf []byte) rawShdr {
	var s rawShdr
	switch class {
	case Class32:
		s.name = order.Uint32(buf[0:4])
		s.shType = order.Uint32(buf[4:8])
		s.addr = uint64(order.Uint32(buf[12:16]))
		s.offset = uint64(order.Uint32(buf[16:20]))
		s.size = uint64(order.Uint32(buf[20:24]))
		s.link = order.Uint32(buf[24:28])
		s.entsize = uint64(order.Uint32(buf[36:40]))
	case Class64:
		s.name = order.Uint32(buf[0:4])
		s.shType = order.Uint32(buf[4:8])
		s.addr = order.Uint64(buf[16:24])
		s.offset = order.Uint64(buf[24:32])
		s.size = order.Uint64(buf[32:40])
		s.link = order.Uint32(buf[40:44])
		s.entsize = order.Uint64(buf[56:64])
	}
	return s
}

type rawSym struct {
	name  uint32
	value uint64
	size  uint64
	info  uint8
}

func parseSym(class Class, order binary.ByteOrder, buf []byte) rawSym {
	var s rawSym
	switch class {
	case Class32:
		s.name = order.Uint32(buf[0:4])
		s.value = uint64(order.Uint32(buf[4:8]))
		s.size = uint64(order.Uint32(buf[8:12]))
		s.info = buf[12]
	case Class64:
		s.name = order.Uint32(buf[0:4])
		s.info = buf[4]
		s.value = order.Uint64(buf[8:16])
		s.size = order.Uint64(buf[16:24])
	}
	return s
}
