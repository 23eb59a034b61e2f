package codec

import "testing"

func TestUint32RoundTrip(t *testing.T) {
	buf := PutUint32(nil, 0xDEADBEEF)
	if len(buf) != 4 {
		t.Fatalf("len: got %d, want 4", len(buf))
	}
	if got := Uint32(buf); got != 0xDEADBEEF {
		t.Fatalf("Uint32: got %#x, want 0xDEADBEEF", got)
	}
}

func TestUint64RoundTrip(t *testing.T) {
	buf := PutUint64(nil, 0x0102030405060708)
	if len(buf) != 8 {
		t.Fatalf("len: got %d, want 8", len(buf))
	}
	if got := Uint64(buf); got != 0x0102030405060708 {
		t.Fatalf("Uint64: got %#x, want 0x0102030405060708", got)
	}
}

func TestPutAppendsToExistingSlice(t *testing.T) {
	buf := []byte{0xFF}
	buf = PutUint32(buf, 1)
	if len(buf) != 5 || buf[0] != 0xFF {
		t.Fatalf("PutUint32 should append, got %v", buf)
	}
}

func TestNULStringRoundTrip(t *testing.T) {
	var blob []byte
	var off1, off2 uint32
	blob, off1 = AppendNULString(blob, "main")
	blob, off2 = AppendNULString(blob, "")

	if got := ReadNULString(blob, off1); got != "main" {
		t.Fatalf("ReadNULString: got %q, want %q", got, "main")
	}
	if got := ReadNULString(blob, off2); got != "" {
		t.Fatalf("ReadNULString (empty): got %q, want empty", got)
	}
}

func TestReadNULStringWithoutTerminatorReadsToEnd(t *testing.T) {
	blob := []byte("truncated")
	if got := ReadNULString(blob, 0); got != "truncated" {
		t.Fatalf("ReadNULString: got %q, want %q", got, "truncated")
	}
}

func TestErrorMessages(t *testing.T) {
	if (&InvalidArchitectureError{Byte: 0x7f}).Error() == "" {
		t.Fatalf("InvalidArchitectureError.Error() should not be empty")
	}
	if (&InvalidSectionTypeError{Byte: 0x7f}).Error() == "" {
		t.Fatalf("InvalidSectionTypeError.Error() should not be empty")
	}
	if (&InvalidSegmentTypeError{Byte: 0x7f}).Error() == "" {
		t.Fatalf("InvalidSegmentTypeError.Error() should not be empty")
	}
}
