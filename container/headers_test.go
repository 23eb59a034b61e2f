package container

import "testing"

func TestSectionHeaderTextRoundTrip(t *testing.T) {
	h := SectionHeader{Type: SectionTypeText, TextBitLength: 18}
	data := h.Serialize()
	if len(data) != sectionHeaderSize {
		t.Fatalf("Serialize length: got %d, want %d", len(data), sectionHeaderSize)
	}
	n, got, err := DeserializeSectionHeader(data)
	if err != nil {
		t.Fatalf("DeserializeSectionHeader: %v", err)
	}
	if n != sectionHeaderSize {
		t.Fatalf("consumed: got %d, want %d", n, sectionHeaderSize)
	}
	if got != h {
		t.Fatalf("round trip: got %+v, want %+v", got, h)
	}
	if got.SectionSize() != 3 {
		t.Fatalf("SectionSize: got %d, want 3 (ceil(18/8))", got.SectionSize())
	}
}

func TestSectionHeaderSymbolTableRoundTrip(t *testing.T) {
	h := SectionHeader{Type: SectionTypeSymbolTable, EntryCount: 2, NamesLength: 9}
	data := h.Serialize()
	_, got, err := DeserializeSectionHeader(data)
	if err != nil {
		t.Fatalf("DeserializeSectionHeader: %v", err)
	}
	if got != h {
		t.Fatalf("round trip: got %+v, want %+v", got, h)
	}
	if want := uint64(2*12 + 9); got.SectionSize() != want {
		t.Fatalf("SectionSize: got %d, want %d", got.SectionSize(), want)
	}
}

func TestSectionHeaderInvalidType(t *testing.T) {
	data := make([]byte, sectionHeaderSize)
	data[0] = 0x7f
	if _, _, err := DeserializeSectionHeader(data); err == nil {
		t.Fatalf("expected error for invalid section type")
	}
}

func TestSectionHeaderTruncated(t *testing.T) {
	data := make([]byte, sectionHeaderSize-1)
	if _, _, err := DeserializeSectionHeader(data); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}

func TestSegmentHeaderRoundTrip(t *testing.T) {
	h := SegmentHeader{
		AddressSpaceStart: 10,
		AddressSpaceSize:  20,
		DiskBitCount:      18,
		Flags:             SegmentFlags{Exec: true, Read: true},
	}
	data := h.Serialize()
	if len(data) != segmentHeaderSize {
		t.Fatalf("Serialize length: got %d, want %d", len(data), segmentHeaderSize)
	}
	n, got, err := DeserializeSegmentHeader(data)
	if err != nil {
		t.Fatalf("DeserializeSegmentHeader: %v", err)
	}
	if n != segmentHeaderSize {
		t.Fatalf("consumed: got %d, want %d", n, segmentHeaderSize)
	}
	if got != h {
		t.Fatalf("round trip: got %+v, want %+v", got, h)
	}
	if got.SegmentSize() != 3 {
		t.Fatalf("SegmentSize: got %d, want 3 (ceil(18/8))", got.SegmentSize())
	}
}

func TestSegmentFlagsAllBits(t *testing.T) {
	f := SegmentFlags{Exec: true, Write: true, Read: true, Special: true}
	if f.toByte() != SegmentFlagExec|SegmentFlagWrite|SegmentFlagRead|SegmentFlagSpecial {
		t.Fatalf("toByte: got %#x", f.toByte())
	}
	if got := flagsFromByte(f.toByte()); got != f {
		t.Fatalf("flagsFromByte round trip: got %+v, want %+v", got, f)
	}
}

func TestSegmentHeaderTruncated(t *testing.T) {
	data := make([]byte, segmentHeaderSize-1)
	if _, _, err := DeserializeSegmentHeader(data); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}
