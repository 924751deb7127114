package types

import "testing"

func TestBytesToHash(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03}
	h := BytesToHash(b)
	if h[HashLength-1] != 0x03 || h[HashLength-2] != 0x02 || h[HashLength-3] != 0x01 {
		t.Fatalf("BytesToHash failed: got %x", h)
	}
	for i := 0; i < HashLength-3; i++ {
		if h[i] != 0 {
			t.Fatalf("BytesToHash did not left-pad: byte %d is %x", i, h[i])
		}
	}
}

func TestHexToAddress(t *testing.T) {
	a := HexToAddress("0xdead")
	if a[AddressLength-1] != 0xad || a[AddressLength-2] != 0xde {
		t.Fatalf("HexToAddress failed: got %x", a)
	}
	if a.IsZero() {
		t.Fatal("address should not be zero")
	}
}

func TestRepeatAddress(t *testing.T) {
	a := RepeatAddress(0x5f)
	for i, b := range a {
		if b != 0x5f {
			t.Fatalf("byte %d = %x, want 5f", i, b)
		}
	}
}

func TestHashWord(t *testing.T) {
	h := HexToHash("0x01")
	if h.Word() != Uint64ToWord(1) {
		t.Fatalf("Word() = %v, want 1", h.Word())
	}
}
