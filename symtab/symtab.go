// Package symtab implements the section-scoped symbol side table shared
// by object files and executables (spec §4.4): a fixed-width entry array
// followed by a NUL-terminated name blob, serialized either as a
// SectionHeader-framed section (inside an object file) or as a
// SegmentHeader-framed special segment (inside an executable) — same
// byte payload, different framing, per spec §9's "symbol table wart".
package symtab

import (
	"github.com/monistode/binutils/address"
	"github.com/monistode/binutils/codec"
	"github.com/monistode/binutils/container"
	"github.com/pkg/errors"
)

// Symbol is a named address, section-relative before placement and
// absolute within the global address space after.
type Symbol struct {
	Name    string
	Address address.Address
}

type entry struct {
	sectionID  uint32
	addr       address.Address
	nameOffset uint32
}

const entrySize = 12

// SymbolTable is an ordered collection of symbols grouped by the
// (object-local) section they belong to.
type SymbolTable struct {
	entries []entry
	names   []byte
}

// New returns an empty symbol table.
func New() *SymbolTable {
	return &SymbolTable{}
}

// Add appends a symbol owned by sectionID, preserving insertion order.
func (t *SymbolTable) Add(sectionID uint32, sym Symbol) {
	var offset uint32
	t.names, offset = codec.AppendNULString(t.names, sym.Name)
	t.entries = append(t.entries, entry{sectionID: sectionID, addr: sym.Address, nameOffset: offset})
}

// Get returns every symbol owned by sectionID, in the order they were
// added.
func (t *SymbolTable) Get(sectionID uint32) []Symbol {
	var out []Symbol
	for _, e := range t.entries {
		if e.sectionID == sectionID {
			out = append(out, Symbol{Name: codec.ReadNULString(t.names, e.nameOffset), Address: e.addr})
		}
	}
	return out
}

// Len reports the number of entries in the table.
func (t *SymbolTable) Len() int {
	return len(t.entries)
}

func (t *SymbolTable) payload() []byte {
	data := make([]byte, 0, len(t.entries)*entrySize+len(t.names))
	for _, e := range t.entries {
		data = codec.PutUint32(data, e.sectionID)
		data = codec.PutUint32(data, uint32(e.addr))
		data = codec.PutUint32(data, e.nameOffset)
	}
	data = append(data, t.names...)
	return data
}

// SerializeAsSection returns the SectionHeader and payload for embedding
// this table as a section inside an object file.
func (t *SymbolTable) SerializeAsSection() (container.SectionHeader, []byte) {
	header := container.SectionHeader{
		Type:        container.SectionTypeSymbolTable,
		EntryCount:  uint32(len(t.entries)),
		NamesLength: uint32(len(t.names)),
	}
	return header, t.payload()
}

// SerializeAsSegment returns the SegmentHeader and payload for embedding
// this table as the special last segment inside an executable. Per spec
// §4.3/§9, address_space_size carries the entry count and disk_bit_count
// carries the payload byte size (not a bit count, despite the field
// name) for this one segment kind.
func (t *SymbolTable) SerializeAsSegment() (container.SegmentHeader, []byte) {
	payload := t.payload()
	header := container.SegmentHeader{
		AddressSpaceStart: 0,
		AddressSpaceSize:  uint64(len(t.entries)),
		DiskBitCount:      uint64(len(payload)),
		Flags:             container.SegmentFlags{Special: true},
	}
	return header, payload
}

func decodeEntries(data []byte, count uint32, blobLen uint32, blobStart int) ([]entry, error) {
	entries := make([]entry, 0, count)
	offset := 0
	for i := uint32(0); i < count; i++ {
		if offset+entrySize > blobStart {
			return nil, errors.WithStack(codec.ErrDataTooShort)
		}
		sectionID := codec.Uint32(data[offset:])
		addr := codec.Uint32(data[offset+4:])
		nameOffset := codec.Uint32(data[offset+8:])
		if nameOffset >= blobLen {
			return nil, errors.WithStack(codec.ErrInvalidData)
		}
		entries = append(entries, entry{sectionID: sectionID, addr: address.Address(addr), nameOffset: nameOffset})
		offset += entrySize
	}
	return entries, nil
}

// DeserializeSection decodes a symbol table section payload given its
// SectionHeader.
func DeserializeSection(header container.SectionHeader, data []byte) (int, *SymbolTable, error) {
	required := int(header.EntryCount)*entrySize + int(header.NamesLength)
	if len(data) < required {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	entries, err := decodeEntries(data, header.EntryCount, header.NamesLength, int(header.EntryCount)*entrySize)
	if err != nil {
		return 0, nil, err
	}
	namesStart := int(header.EntryCount) * entrySize
	names := data[namesStart : namesStart+int(header.NamesLength)]
	if len(names) > 0 {
		if err := requireNUL(names); err != nil {
			return 0, nil, err
		}
	}
	return required, &SymbolTable{entries: entries, names: append([]byte(nil), names...)}, nil
}

// DeserializeSegment decodes a symbol table segment payload given its
// SegmentHeader. AddressSpaceSize carries the entry count and
// DiskBitCount the payload byte length, per the special-segment
// convention.
func DeserializeSegment(header container.SegmentHeader, data []byte) (int, *SymbolTable, error) {
	required := int(header.DiskBitCount)
	if len(data) < required {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	count := uint32(header.AddressSpaceSize)
	namesStart := int(count) * entrySize
	if namesStart > required {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}
	blobLen := uint32(required - namesStart)
	entries, err := decodeEntries(data, count, blobLen, namesStart)
	if err != nil {
		return 0, nil, err
	}
	names := data[namesStart:required]
	if len(names) > 0 {
		if err := requireNUL(names); err != nil {
			return 0, nil, err
		}
	}
	return required, &SymbolTable{entries: entries, names: append([]byte(nil), names...)}, nil
}

func requireNUL(names []byte) error {
	for _, b := range names {
		if b == 0 {
			return nil
		}
	}
	return errors.WithStack(codec.ErrInvalidData)
}
