// Package placer assigns each section of an object file a non-
// overlapping address-space offset (spec §4.9) and exposes the
// placement-time symbol lookup the linker resolves relocations against.
package placer

import (
	"github.com/monistode/binutils/address"
	"github.com/monistode/binutils/arch"
	"github.com/monistode/binutils/objectfile"
)

// AddressSpace is the address space a section's bytes are laid out
// within. Sections in different address spaces never interfere with one
// another.
type AddressSpace int

const (
	TextSpace AddressSpace = iota
	DataSpace
	Unified
)

// PlacedSection pairs a section with the address space it occupies and
// the text-byte offset the placer assigns it.
type PlacedSection struct {
	Section     *objectfile.Section
	Space       AddressSpace
	offsetBytes uint64
}

// NewPlacedSection wraps a section for placement. Producers that don't
// distinguish text/data address spaces should pass Unified, matching the
// common case where a single architecture has one flat address space.
func NewPlacedSection(section *objectfile.Section, space AddressSpace) *PlacedSection {
	return &PlacedSection{Section: section, Space: space}
}

// OffsetBytes returns the text-byte offset this section was assigned.
// Only meaningful after Placement.Place has run.
func (p *PlacedSection) OffsetBytes() uint64 {
	return p.offsetBytes
}

// SizeBytes returns the section's footprint in text-bytes for the given
// text-byte width.
func (p *PlacedSection) SizeBytes(textByteWidth uint64) uint64 {
	bitLen := p.Section.Data.Len()
	return (bitLen + textByteWidth - 1) / textByteWidth
}

func (p *PlacedSection) offsetBits(textByteWidth uint64) uint64 {
	return p.offsetBytes * textByteWidth
}

// FindSymbol returns the placed (bit-absolute) address of a symbol owned
// by this section, if any.
func (p *PlacedSection) FindSymbol(name string, textByteWidth uint64) (address.Address, bool) {
	for _, sym := range p.Section.Symbols {
		if sym.Name == name {
			return sym.Address.Add(p.offsetBits(textByteWidth)), true
		}
	}
	return 0, false
}

// Placement is the result of laying out every section of an object file
// for one architecture.
type Placement struct {
	Sections     []*PlacedSection
	Architecture arch.Architecture
}

// NewPlacement wraps sections for placement against a single
// architecture's text-byte width.
func NewPlacement(sections []*PlacedSection, architecture arch.Architecture) *Placement {
	return &Placement{Sections: sections, Architecture: architecture}
}

// Place assigns every section a non-overlapping text-byte offset within
// its address space, in a single linear pass per space, in the order the
// sections were supplied (spec §4.9). Different address spaces are
// placed independently, each starting at 0.
func (p *Placement) Place() {
	textByteWidth := p.Architecture.TextByteWidth()
	for _, space := range []AddressSpace{TextSpace, DataSpace, Unified} {
		var next uint64
		for _, section := range p.Sections {
			if section.Space != space {
				continue
			}
			section.offsetBytes = next
			next += section.SizeBytes(textByteWidth)
		}
	}
}

// FindSymbol scans every placed section in supplied order and returns
// the first matching symbol's placed address. First definition wins.
func (p *Placement) FindSymbol(name string) (address.Address, bool) {
	textByteWidth := p.Architecture.TextByteWidth()
	for _, section := range p.Sections {
		if addr, ok := section.FindSymbol(name, textByteWidth); ok {
			return addr, true
		}
	}
	return 0, false
}
