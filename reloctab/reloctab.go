// Package reloctab implements the section-scoped relocation side table
// (spec §4.5): one fixed-width entry per patch site plus a shared
// NUL-terminated symbol-name blob, identical in shape to symtab's table
// except for the entry layout and that it only ever appears inside
// object files — relocations are consumed and erased at link time.
package reloctab

import (
	"github.com/monistode/binutils/address"
	"github.com/monistode/binutils/codec"
	"github.com/monistode/binutils/container"
	"github.com/pkg/errors"
)

// Relocation is a patch site: rewrite the signed 16-bit field at Address
// within the owning section once Symbol's address is known, either to
// its absolute value or (if Relative) to its distance from the site.
type Relocation struct {
	Symbol   string
	Address  address.Address
	Relative bool
}

type entry struct {
	sectionID  uint32
	nameOffset uint32
	addr       address.Address
	relative   bool
}

const entrySize = 16

// RelocationTable is an ordered collection of relocations grouped by the
// section they patch.
type RelocationTable struct {
	entries []entry
	names   []byte
}

// New returns an empty relocation table.
func New() *RelocationTable {
	return &RelocationTable{}
}

// Add appends a relocation owned by sectionID, preserving insertion
// order.
func (t *RelocationTable) Add(sectionID uint32, r Relocation) {
	var offset uint32
	t.names, offset = codec.AppendNULString(t.names, r.Symbol)
	t.entries = append(t.entries, entry{sectionID: sectionID, nameOffset: offset, addr: r.Address, relative: r.Relative})
}

// Get returns every relocation owned by sectionID, in insertion order.
func (t *RelocationTable) Get(sectionID uint32) []Relocation {
	var out []Relocation
	for _, e := range t.entries {
		if e.sectionID == sectionID {
			out = append(out, Relocation{
				Symbol:   codec.ReadNULString(t.names, e.nameOffset),
				Address:  e.addr,
				Relative: e.relative,
			})
		}
	}
	return out
}

// Len reports the number of entries in the table.
func (t *RelocationTable) Len() int {
	return len(t.entries)
}

// Serialize returns the SectionHeader and payload for embedding this
// table as a section inside an object file.
func (t *RelocationTable) Serialize() (container.SectionHeader, []byte) {
	data := make([]byte, 0, len(t.entries)*entrySize+len(t.names))
	for _, e := range t.entries {
		data = codec.PutUint32(data, e.sectionID)
		data = codec.PutUint32(data, e.nameOffset)
		data = codec.PutUint32(data, uint32(e.addr))
		var relByte byte
		if e.relative {
			relByte = 1
		}
		data = append(data, relByte, 0, 0, 0)
	}
	data = append(data, t.names...)
	header := container.SectionHeader{
		Type:        container.SectionTypeRelocationTable,
		EntryCount:  uint32(len(t.entries)),
		NamesLength: uint32(len(t.names)),
	}
	return header, data
}

// Deserialize decodes a relocation table section payload given its
// SectionHeader.
func Deserialize(header container.SectionHeader, data []byte) (int, *RelocationTable, error) {
	required := int(header.EntryCount)*entrySize + int(header.NamesLength)
	if len(data) < required {
		return 0, nil, errors.WithStack(codec.ErrDataTooShort)
	}

	entries := make([]entry, 0, header.EntryCount)
	offset := 0
	for i := uint32(0); i < header.EntryCount; i++ {
		sectionID := codec.Uint32(data[offset:])
		nameOffset := codec.Uint32(data[offset+4:])
		addr := codec.Uint32(data[offset+8:])
		relative := data[offset+12] != 0
		if nameOffset >= header.NamesLength {
			return 0, nil, errors.WithStack(codec.ErrInvalidData)
		}
		entries = append(entries, entry{sectionID: sectionID, nameOffset: nameOffset, addr: address.Address(addr), relative: relative})
		offset += entrySize
	}

	namesStart := offset
	names := data[namesStart : namesStart+int(header.NamesLength)]
	if len(names) > 0 {
		found := false
		for _, b := range names {
			if b == 0 {
				found = true
				break
			}
		}
		if !found {
			return 0, nil, errors.WithStack(codec.ErrInvalidData)
		}
	}

	return required, &RelocationTable{entries: entries, names: append([]byte(nil), names...)}, nil
}
