// Package codec holds the framing primitives shared by the object-file
// and executable containers: little-endian fixed-width integer helpers
// and the closed serialization error taxonomy (spec §7).
package codec

import (
	"encoding/binary"
	"fmt"
)

// InvalidArchitectureError reports an unrecognized architecture byte.
type InvalidArchitectureError struct {
	Byte byte
}

func (e *InvalidArchitectureError) Error() string {
	return fmt.Sprintf("invalid architecture byte 0x%02x", e.Byte)
}

// InvalidSectionTypeError reports an unrecognized section type tag.
type InvalidSectionTypeError struct {
	Byte byte
}

func (e *InvalidSectionTypeError) Error() string {
	return fmt.Sprintf("invalid section type tag 0x%02x", e.Byte)
}

// InvalidSegmentTypeError reports an unrecognized segment type tag.
type InvalidSegmentTypeError struct {
	Byte byte
}

func (e *InvalidSegmentTypeError) Error() string {
	return fmt.Sprintf("invalid segment type tag 0x%02x", e.Byte)
}

// Sentinel members of the closed serialization error taxonomy that carry
// no payload.
var (
	ErrInvalidSymbolTableHeader = fmt.Errorf("invalid symbol table header")
	ErrInvalidData              = fmt.Errorf("invalid data")
	ErrDataTooShort             = fmt.Errorf("data too short")
)

// Uint32 reads a little-endian uint32 at the start of data. The caller
// must ensure len(data) >= 4; decoders check DataTooShort before calling.
func Uint32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

// PutUint32 appends the little-endian encoding of v to dst.
func PutUint32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// Uint64 reads a little-endian uint64 at the start of data.
func Uint64(data []byte) uint64 {
	return binary.LittleEndian.Uint64(data)
}

// PutUint64 appends the little-endian encoding of v to dst.
func PutUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// ReadNULString reads bytes from blob starting at offset until a NUL
// terminator (exclusive) or the end of blob. Used by the symbol and
// relocation table name blobs.
func ReadNULString(blob []byte, offset uint32) string {
	end := int(offset)
	for end < len(blob) && blob[end] != 0 {
		end++
	}
	return string(blob[offset:end])
}

// AppendNULString appends name followed by a NUL terminator to blob,
// returning the offset at which name starts.
func AppendNULString(blob []byte, name string) (newBlob []byte, offset uint32) {
	offset = uint32(len(blob))
	blob = append(blob, name...)
	blob = append(blob, 0)
	return blob, offset
}
