package placer

import (
	"testing"

	"github.com/monistode/binutils/address"
	"github.com/monistode/binutils/arch"
	"github.com/monistode/binutils/objectfile"
	"github.com/stretchr/testify/require"
)

func TestPlaceAssignsNonOverlappingOffsets(t *testing.T) {
	first := objectfile.NewTextSection(address.NewBitBuffer(18)) // 3 text-bytes @ 6 bits
	second := objectfile.NewTextSection(address.NewBitBuffer(6)) // 1 text-byte

	p1 := NewPlacedSection(first, Unified)
	p2 := NewPlacedSection(second, Unified)
	placement := NewPlacement([]*PlacedSection{p1, p2}, arch.Stack)
	placement.Place()

	require.Equal(t, uint64(0), p1.OffsetBytes())
	require.Equal(t, uint64(3), p2.OffsetBytes())
}

func TestPlaceKeepsAddressSpacesIndependent(t *testing.T) {
	text := objectfile.NewTextSection(address.NewBitBuffer(6))
	data := objectfile.NewTextSection(address.NewBitBuffer(6))

	pt := NewPlacedSection(text, TextSpace)
	pd := NewPlacedSection(data, DataSpace)
	placement := NewPlacement([]*PlacedSection{pt, pd}, arch.Stack)
	placement.Place()

	require.Equal(t, uint64(0), pt.OffsetBytes())
	require.Equal(t, uint64(0), pd.OffsetBytes())
}

func TestFindSymbolFirstMatchWins(t *testing.T) {
	first := objectfile.NewTextSection(address.NewBitBuffer(18))
	first.AddSymbol("L", address.Address(6))
	second := objectfile.NewTextSection(address.NewBitBuffer(6))
	second.AddSymbol("L", address.Address(0))

	p1 := NewPlacedSection(first, Unified)
	p2 := NewPlacedSection(second, Unified)
	placement := NewPlacement([]*PlacedSection{p1, p2}, arch.Stack)
	placement.Place()

	addr, ok := placement.FindSymbol("L")
	require.True(t, ok)
	require.Equal(t, address.Address(6), addr)
}

func TestFindSymbolAccountsForSectionOffset(t *testing.T) {
	first := objectfile.NewTextSection(address.NewBitBuffer(18))
	second := objectfile.NewTextSection(address.NewBitBuffer(6))
	second.AddSymbol("L", address.Address(0))

	p1 := NewPlacedSection(first, Unified)
	p2 := NewPlacedSection(second, Unified)
	placement := NewPlacement([]*PlacedSection{p1, p2}, arch.Stack)
	placement.Place()

	addr, ok := placement.FindSymbol("L")
	require.True(t, ok)
	// second section starts at text-byte offset 3 (18 bits / 6-bit width),
	// so its bit-absolute base is 18.
	require.Equal(t, address.Address(18), addr)
}

func TestFindSymbolUndefined(t *testing.T) {
	placement := NewPlacement(nil, arch.Stack)
	_, ok := placement.FindSymbol("missing")
	require.False(t, ok)
}
