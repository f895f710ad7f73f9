package alloc

import "github.com/joshuapare/kheapkit/internal/format"

// Addr is a linear address inside the heap; 0 is the null pointer.
type Addr = uint32

// arena is a word-addressed view of the reserved range. Headers, free-cell
// links and skip-list forward pointers all live inside it; Go memory only
// holds list heads.
type arena struct {
	mem  []byte
	base Addr
}

func (ar *arena) word(addr Addr) uint32 {
	return format.ReadU32(ar.mem, int(addr-ar.base))
}

func (ar *arena) setWord(addr Addr, v uint32) {
	format.PutU32(ar.mem, int(addr-ar.base), v)
}

// bytes returns the n bytes at addr.
func (ar *arena) bytes(addr Addr, n uint32) []byte {
	off := addr - ar.base
	return ar.mem[off : off+n : off+n]
}

// Header fields shared by bin pages and big block headers.

func (ar *arena) next(h Addr) Addr         { return ar.word(h + format.HdrNextOffset) }
func (ar *arena) setNext(h, v Addr)        { ar.setWord(h+format.HdrNextOffset, v) }
func (ar *arena) head(h Addr) Addr         { return ar.word(h + format.HdrHeadOffset) }
func (ar *arena) setHead(h, v Addr)        { ar.setWord(h+format.HdrHeadOffset, v) }
func (ar *arena) size(h Addr) uint32       { return ar.word(h + format.HdrSizeOffset) }
func (ar *arena) setSize(h Addr, v uint32) { ar.setWord(h+format.HdrSizeOffset, v) }
func (ar *arena) magic(h Addr) uint32      { return ar.word(h + format.HdrMagicOffset) }
func (ar *arena) setMagic(h Addr)          { ar.setWord(h+format.HdrMagicOffset, format.BinMagic) }

// Big block header fields.

func (ar *arena) prev(h Addr) Addr  { return ar.word(h + format.BigPrevOffset) }
func (ar *arena) setPrev(h, v Addr) { ar.setWord(h+format.BigPrevOffset, v) }

func (ar *arena) forward(h Addr, level int) Addr {
	return ar.word(h + format.BigForwardOffset + Addr(level)*format.WordSize)
}

func (ar *arena) setForward(h Addr, level int, v Addr) {
	ar.setWord(h+format.BigForwardOffset+Addr(level)*format.WordSize, v)
}

// isBig tells the two header variants apart: a bin page stores its class in
// the size field, a big block stores a byte count far above NumBins.
func (ar *arena) isBig(h Addr) bool {
	return ar.size(h) > format.NumBins
}

// payload returns the first usable byte of a big block.
func payload(h Addr) Addr { return h + format.BigHeaderSize }

// end returns the first address past the block headed by h.
func (ar *arena) end(h Addr) Addr {
	if ar.isBig(h) {
		return h + format.BigHeaderSize + ar.size(h)
	}
	return h + format.PageSize
}
