package format

import "encoding/binary"

// Arena words are 32-bit little-endian values. Every header field and every
// free-cell link is read and written through these helpers so the layout
// does not depend on the host's pointer width or byte order.

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}
