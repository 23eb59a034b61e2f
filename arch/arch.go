// Package arch defines the closed set of supported instruction-set
// architectures and the single table mapping each to its text-byte
// width, the minimum addressable instruction unit, in bits. Packages
// that need a width consult this table rather than hard-coding it (spec
// §4.11): placer for section sizing, linker for relocation arithmetic.
// objectfile and executable use only the architecture byte for framing.
package arch

import (
	"github.com/monistode/binutils/codec"
)

// Architecture is a closed enumeration of the instruction-set families
// this module's container and linker understand.
type Architecture uint8

const (
	Stack       Architecture = 0
	Accumulator Architecture = 1
	Risc        Architecture = 2
)

func (a Architecture) String() string {
	switch a {
	case Stack:
		return "stack"
	case Accumulator:
		return "accumulator"
	case Risc:
		return "risc"
	default:
		return "unknown"
	}
}

// textByteWidths is the sole table translating an architecture to its
// text-byte width, in bits.
var textByteWidths = map[Architecture]uint64{
	Stack:       6,
	Accumulator: 8,
	Risc:        8,
}

// TextByteWidth returns the architecture's instruction addressing unit,
// in bits.
func (a Architecture) TextByteWidth() uint64 {
	return textByteWidths[a]
}

// FromByte decodes the wire-format architecture discriminator (spec §6).
func FromByte(b byte) (Architecture, error) {
	switch Architecture(b) {
	case Stack, Accumulator, Risc:
		return Architecture(b), nil
	default:
		return 0, &codec.InvalidArchitectureError{Byte: b}
	}
}

// Byte returns the wire-format discriminator for the architecture.
func (a Architecture) Byte() byte {
	return byte(a)
}
