// Package executable implements the loadable executable container (spec
// §4.7): a single architecture, an entry point, and an ordered sequence
// of loadable segments, with exactly one special segment — always last —
// carrying the symbol side table.
package executable

import (
	"github.com/monistode/binutils/address"
	"github.com/monistode/binutils/arch"
	"github.com/monistode/binutils/codec"
	"github.com/monistode/binutils/container"
	"github.com/monistode/binutils/symtab"
	"github.com/pkg/errors"
)

// Segment is a loadable (or, for the special symbol-table segment,
// non-loadable) unit in the final executable.
type Segment struct {
	AddressSpaceStart uint64 // bytes
	AddressSpaceSize  uint64 // bytes
	Flags             container.SegmentFlags
	Data              *address.BitBuffer
	Symbols           []symtab.Symbol
}

func (s *Segment) header() container.SegmentHeader {
	return container.SegmentHeader{
		AddressSpaceStart: s.AddressSpaceStart,
		AddressSpaceSize:  s.AddressSpaceSize,
		DiskBitCount:      s.Data.Len(),
		Flags:             s.Flags,
	}
}

// Executable is a collection of loadable segments for a single
// architecture, with a known entry point.
type Executable struct {
	Architecture arch.Architecture
	EntryPoint   uint64
	Segments     []*Segment
}

// New returns an executable with no segments.
func New(architecture arch.Architecture, entryPoint uint64) *Executable {
	return &Executable{Architecture: architecture, EntryPoint: entryPoint}
}

// AddSegment appends a loadable segment.
func (e *Executable) AddSegment(s *Segment) {
	e.Segments = append(e.Segments, s)
}

const executableHeaderSize = 17

// Serialize encodes the executable per spec §4.7: header, then N+1
// segment headers (regular segments, then the special symbol-table
// segment), then payloads in the same order.
func (e *Executable) Serialize() []byte {
	symbols := symtab.New()
	for i, seg := range e.Segments {
		for _, sym := range seg.Symbols {
			symbols.Add(uint32(i), sym)
		}
	}
	symHeader, symPayload := symbols.SerializeAsSegment()

	out := make([]byte, 0, executableHeaderSize+(len(e.Segments)+1)*25)
	out = append(out, e.Architecture.Byte())
	out = codec.PutUint64(out, uint64(len(e.Segments)+1))
	out = codec.PutUint64(out, e.EntryPoint)

	for _, seg := range e.Segments {
		out = append(out, seg.header().Serialize()...)
	}
	out = append(out, symHeader.Serialize()...)

	for _, seg := range e.Segments {
		out = append(out, seg.Data.ToBytes()...)
	}
	out = append(out, symPayload...)

	return out
}

// Deserialize decodes an executable per spec §4.7's framing constraints:
// exactly one special segment, which must be last.
func Deserialize(data []byte) (int, *Executable, error) {
	if len(data) < executableHeaderSize {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	architecture, err := arch.FromByte(data[0])
	if err != nil {
		return 0, nil, errors.WithStack(err)
	}
	segmentCount := codec.Uint64(data[1:9])
	entryPoint := codec.Uint64(data[9:17])
	if segmentCount < 1 {
		return 0, nil, errors.WithStack(codec.ErrInvalidData)
	}

	offset := executableHeaderSize
	headers := make([]container.SegmentHeader, 0, segmentCount)
	for i := uint64(0); i < segmentCount; i++ {
		n, h, err := container.DeserializeSegmentHeader(data[offset:])
		if err != nil {
			return 0, nil, errors.Wrapf(err, "segment header %d", i)
		}
		headers = append(headers, h)
		offset += n
	}

	n := len(headers)
	special := headers[n-1]
	if !special.Flags.Special {
		return 0, nil, errors.WithStack(codec.ErrInvalidData)
	}
	for _, h := range headers[:n-1] {
		if h.Flags.Special {
			return 0, nil, errors.WithStack(codec.ErrInvalidData)
		}
	}

	regularHeaders := headers[:n-1]

	payloadOffset := offset
	symbolPayloadOffset := payloadOffset
	for _, h := range regularHeaders {
		symbolPayloadOffset += int(h.SegmentSize())
	}
	if symbolPayloadOffset > len(data) {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	symSize, symbols, err := symtab.DeserializeSegment(special, data[symbolPayloadOffset:])
	if err != nil {
		return 0, nil, errors.Wrap(err, "symbol table segment")
	}

	segments := make([]*Segment, 0, len(regularHeaders))
	cursor := payloadOffset
	for i, h := range regularHeaders {
		size := int(h.SegmentSize())
		if cursor+size > len(data) {
			return 0, nil, errors.WithStack(codec.ErrDataTooShort)
		}
		buf := address.NewBitBufferFromBytes(data[cursor:cursor+size], h.DiskBitCount)
		segments = append(segments, &Segment{
			AddressSpaceStart: h.AddressSpaceStart,
			AddressSpaceSize:  h.AddressSpaceSize,
			Flags:             h.Flags,
			Data:              buf,
			Symbols:           symbols.Get(uint32(i)),
		})
		cursor += size
	}

	totalConsumed := symbolPayloadOffset + symSize
	return totalConsumed, &Executable{Architecture: architecture, EntryPoint: entryPoint, Segments: segments}, nil
}
