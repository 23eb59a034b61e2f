// Package objectfile implements the relocatable object-file container
// (spec §4.6): a single architecture plus an ordered sequence of
// sections, with symbols and relocations gathered into two side tables
// on serialization and scattered back onto their owning sections on
// deserialization.
package objectfile

import (
	"github.com/monistode/binutils/address"
	"github.com/monistode/binutils/arch"
	"github.com/monistode/binutils/codec"
	"github.com/monistode/binutils/container"
	"github.com/monistode/binutils/reloctab"
	"github.com/monistode/binutils/symtab"
	"github.com/pkg/errors"
)

// Section is a relocatable unit of code. Text is presently the only
// variant — the on-disk format reserves tag 0 for it and leaves room for
// future kinds the way the original Rust `enum Section { Text(...) }`
// does.
type Section struct {
	Data        *address.BitBuffer
	Symbols     []symtab.Symbol
	Relocations []reloctab.Relocation
}

// NewTextSection wraps a bit buffer into an owning Text section.
func NewTextSection(data *address.BitBuffer) *Section {
	return &Section{Data: data}
}

// AddSymbol records a symbol owned by this section, at a bit address
// relative to the section's own start.
func (s *Section) AddSymbol(name string, addr address.Address) {
	s.Symbols = append(s.Symbols, symtab.Symbol{Name: name, Address: addr})
}

// AddRelocation records a patch site owned by this section.
func (s *Section) AddRelocation(symbol string, addr address.Address, relative bool) {
	s.Relocations = append(s.Relocations, reloctab.Relocation{Symbol: symbol, Address: addr, Relative: relative})
}

func (s *Section) header() container.SectionHeader {
	return container.SectionHeader{Type: container.SectionTypeText, TextBitLength: s.Data.Len()}
}

// ObjectFile is a collection of relocatable sections for a single
// architecture.
type ObjectFile struct {
	Architecture arch.Architecture
	Sections     []*Section
}

// New returns an object file with no sections.
func New(architecture arch.Architecture) *ObjectFile {
	return &ObjectFile{Architecture: architecture}
}

// AddSection appends a section, which becomes addressable by its index
// (its section_id in the symbol/relocation side tables).
func (o *ObjectFile) AddSection(s *Section) {
	o.Sections = append(o.Sections, s)
}

const objectHeaderSize = 9

// Serialize encodes the object file per spec §4.6: header, then N+2
// section headers (N text headers, symbol table, relocation table), then
// payloads in the same order.
func (o *ObjectFile) Serialize() []byte {
	symbols := symtab.New()
	relocations := reloctab.New()
	for i, s := range o.Sections {
		for _, sym := range s.Symbols {
			symbols.Add(uint32(i), sym)
		}
		for _, r := range s.Relocations {
			relocations.Add(uint32(i), r)
		}
	}

	symHeader, symPayload := symbols.SerializeAsSection()
	relHeader, relPayload := relocations.Serialize()

	out := make([]byte, 0, objectHeaderSize+(len(o.Sections)+2)*16)
	out = append(out, o.Architecture.Byte())
	out = codec.PutUint64(out, uint64(len(o.Sections)+2))

	headers := make([]container.SectionHeader, 0, len(o.Sections)+2)
	for _, s := range o.Sections {
		headers = append(headers, s.header())
	}
	headers = append(headers, symHeader, relHeader)
	for _, h := range headers {
		out = append(out, h.Serialize()...)
	}

	for _, s := range o.Sections {
		out = append(out, s.Data.ToBytes()...)
	}
	out = append(out, symPayload...)
	out = append(out, relPayload...)

	return out
}

// Deserialize decodes an object file per spec §4.6's framing and
// ordering constraints.
func Deserialize(data []byte) (int, *ObjectFile, error) {
	if len(data) < objectHeaderSize {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	architecture, err := arch.FromByte(data[0])
	if err != nil {
		return 0, nil, errors.WithStack(err)
	}
	sectionCount := codec.Uint64(data[1:9])
	if sectionCount < 2 {
		return 0, nil, errors.WithStack(codec.ErrInvalidData)
	}

	offset := objectHeaderSize
	headers := make([]container.SectionHeader, 0, sectionCount)
	for i := uint64(0); i < sectionCount; i++ {
		n, h, err := container.DeserializeSectionHeader(data[offset:])
		if err != nil {
			return 0, nil, errors.Wrapf(err, "section header %d", i)
		}
		headers = append(headers, h)
		offset += n
	}

	n := len(headers)
	symHeader := headers[n-2]
	relHeader := headers[n-1]
	if symHeader.Type != container.SectionTypeSymbolTable || relHeader.Type != container.SectionTypeRelocationTable {
		return 0, nil, errors.WithStack(codec.ErrInvalidData)
	}
	for _, h := range headers[:n-2] {
		if h.Type == container.SectionTypeSymbolTable || h.Type == container.SectionTypeRelocationTable {
			return 0, nil, errors.WithStack(codec.ErrInvalidData)
		}
	}

	textHeaders := headers[:n-2]

	// Locate the symbol-table payload by summing the preceding (text)
	// payload sizes, per spec §4.6.
	payloadOffset := offset
	symbolTablePayloadOffset := payloadOffset
	for _, h := range textHeaders {
		symbolTablePayloadOffset += int(h.SectionSize())
	}

	if symbolTablePayloadOffset > len(data) {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	symSize, symbols, err := symtab.DeserializeSection(symHeader, data[symbolTablePayloadOffset:])
	if err != nil {
		return 0, nil, errors.Wrap(err, "symbol table")
	}
	relOffset := symbolTablePayloadOffset + symSize
	if relOffset > len(data) {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	relSize, relocations, err := reloctab.Deserialize(relHeader, data[relOffset:])
	if err != nil {
		return 0, nil, errors.Wrap(err, "relocation table")
	}

	// Rewind to the first text payload and decode each text section,
	// attaching the symbols and relocations it owns by index.
	sections := make([]*Section, 0, len(textHeaders))
	cursor := payloadOffset
	for i, h := range textHeaders {
		size := int(h.SectionSize())
		if cursor+size > len(data) {
			return 0, nil, errors.WithStack(codec.ErrDataTooShort)
		}
		buf := address.NewBitBufferFromBytes(data[cursor:cursor+size], h.TextBitLength)
		sections = append(sections, &Section{
			Data:        buf,
			Symbols:     symbols.Get(uint32(i)),
			Relocations: relocations.Get(uint32(i)),
		})
		cursor += size
	}

	totalConsumed := relOffset + relSize
	return totalConsumed, &ObjectFile{Architecture: architecture, Sections: sections}, nil
}
