// Package linker implements the link/place pipeline's final stage (spec
// §4.10): given an object file, place its sections, resolve every
// relocation's symbolic reference and patch the bit-packed text
// accordingly, emitting one loadable Segment per Section.
package linker

import (
	"fmt"
	"io"
	"log"

	"github.com/monistode/binutils/container"
	"github.com/monistode/binutils/executable"
	"github.com/monistode/binutils/objectfile"
	"github.com/monistode/binutils/placer"
)

// SymbolNotFoundError reports a relocation whose symbol is defined in no
// placed section.
type SymbolNotFoundError struct {
	Symbol string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Symbol)
}

// RelocationOutOfRangeError reports a relocation whose resolved
// displacement, in text-bytes, lies outside ±2^16.
type RelocationOutOfRangeError struct {
	Symbol string
}

func (e *RelocationOutOfRangeError) Error() string {
	return fmt.Sprintf("relocation out of range: %s", e.Symbol)
}

// EntryPointResolver picks an executable's entry point, in text-byte
// units, from a completed placement. Spec §9 leaves entry-point
// discovery out of scope beyond this hook; BySymbol is the conventional
// implementation.
type EntryPointResolver func(*placer.Placement) (uint64, bool)

// BySymbol resolves the entry point to the placed address of the named
// symbol, converted from bits to text-byte units.
func BySymbol(name string) EntryPointResolver {
	return func(p *placer.Placement) (uint64, bool) {
		addr, ok := p.FindSymbol(name)
		if !ok {
			return 0, false
		}
		return uint64(addr) / p.Architecture.TextByteWidth(), true
	}
}

// NoEntryPoint always reports no entry point, leaving it at 0, matching
// the original's unresolved TODO for callers that don't need one.
func NoEntryPoint(*placer.Placement) (uint64, bool) {
	return 0, false
}

// Linker resolves symbols and patches relocations for a single,
// already-assembled object file. It holds no state across calls to Link;
// the embedded logger only controls verbose phase diagnostics, the way
// the teacher's `yld` gates -v output.
type Linker struct {
	Log *log.Logger
}

// New returns a Linker with logging disabled.
func New() *Linker {
	return &Linker{Log: log.New(io.Discard, "", 0)}
}

// Link places every section of obj, resolves all relocations against the
// resulting placement, and emits the linked Executable. Any relocation
// error aborts the link immediately; no partial executable is returned.
func (l *Linker) Link(obj *objectfile.ObjectFile, resolveEntry EntryPointResolver) (*executable.Executable, error) {
	if l.Log == nil {
		l.Log = log.New(io.Discard, "", 0)
	}

	l.Log.Printf("placing %d sections for %s", len(obj.Sections), obj.Architecture)
	placed := make([]*placer.PlacedSection, 0, len(obj.Sections))
	for _, s := range obj.Sections {
		placed = append(placed, placer.NewPlacedSection(s, placer.Unified))
	}
	placement := placer.NewPlacement(placed, obj.Architecture)
	placement.Place()

	textByteWidth := obj.Architecture.TextByteWidth()

	l.Log.Printf("relocating %d sections", len(placed))
	segments := make([]*executable.Segment, 0, len(placed))
	for _, p := range placed {
		segment, err := relocateSection(p, placement, textByteWidth)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}

	var entryPoint uint64
	if resolveEntry != nil {
		entryPoint, _ = resolveEntry(placement)
	}

	l.Log.Printf("entry point resolved to %d", entryPoint)
	exe := executable.New(obj.Architecture, entryPoint)
	for _, seg := range segments {
		exe.AddSegment(seg)
	}
	return exe, nil
}

func relocateSection(p *placer.PlacedSection, placement *placer.Placement, textByteWidth uint64) (*executable.Segment, error) {
	data := p.Section.Data.Clone()

	for _, reloc := range p.Section.Relocations {
		symAddr, ok := placement.FindSymbol(reloc.Symbol)
		if !ok {
			return nil, &SymbolNotFoundError{Symbol: reloc.Symbol}
		}

		var disp int64
		if reloc.Relative {
			disp = symAddr.Sub(reloc.Address)
		} else {
			disp = int64(symAddr)
		}
		offset := disp / int64(textByteWidth)

		if offset > (1<<16) || offset < -(1<<16) {
			return nil, &RelocationOutOfRangeError{Symbol: reloc.Symbol}
		}

		existing := data.Read16(reloc.Address)
		patched := existing + uint16(offset)
		data.Write16(reloc.Address, patched)
	}

	bitLen := data.Len()
	return &executable.Segment{
		AddressSpaceStart: p.OffsetBytes(),
		AddressSpaceSize:  (bitLen + textByteWidth - 1) / textByteWidth,
		Flags:             container.SegmentFlags{Exec: true, Read: true},
		Data:              data,
		Symbols:           p.Section.Symbols,
	}, nil
}
