package arch

import "testing"

func TestTextByteWidths(t *testing.T) {
	cases := map[Architecture]uint64{
		Stack:       6,
		Accumulator: 8,
		Risc:        8,
	}
	for a, want := range cases {
		if got := a.TextByteWidth(); got != want {
			t.Errorf("%s.TextByteWidth(): got %d, want %d", a, got, want)
		}
	}
}

func TestFromByteRoundTrip(t *testing.T) {
	for _, a := range []Architecture{Stack, Accumulator, Risc} {
		got, err := FromByte(a.Byte())
		if err != nil {
			t.Fatalf("FromByte(%d): unexpected error %v", a.Byte(), err)
		}
		if got != a {
			t.Fatalf("FromByte(%d): got %v, want %v", a.Byte(), got, a)
		}
	}
}

func TestFromByteInvalid(t *testing.T) {
	if _, err := FromByte(0x7f); err == nil {
		t.Fatalf("FromByte(0x7f): expected error, got nil")
	}
}
