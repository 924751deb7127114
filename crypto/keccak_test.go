package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/eth2030/evmsim/core/types"
)

func TestKeccak256EmptyString(t *testing.T) {
	hash := Keccak256([]byte{})
	got := hex.EncodeToString(hash)
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got != want {
		t.Errorf("Keccak256(empty) = %s, want %s", got, want)
	}
}

func TestKeccak256Hello(t *testing.T) {
	hash := Keccak256([]byte("hello"))
	got := hex.EncodeToString(hash)
	want := "1c8aff950685c2ed4bc3174f3472287b56d9517b9c948127319a09a7a36deac8"
	if got != want {
		t.Errorf("Keccak256(hello) = %s, want %s", got, want)
	}
}

func TestKeccak256MultipleInputs(t *testing.T) {
	combined := Keccak256([]byte("helloworld"))
	separate := Keccak256([]byte("hello"), []byte("world"))
	if hex.EncodeToString(combined) != hex.EncodeToString(separate) {
		t.Errorf("Keccak256 multi-input mismatch: %x != %x", combined, separate)
	}
}

func TestKeccak256WordMatchesHash(t *testing.T) {
	if Keccak256Word([]byte("x")) != Keccak256Hash([]byte("x")).Word() {
		t.Error("Keccak256Word and Keccak256Hash disagree")
	}
}

func TestCreateAddress(t *testing.T) {
	creator := types.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	tests := []struct {
		nonce uint64
		want  string
	}{
		{0, "0x333c3310824b7c685133f2bedb2ca4b8b4df633d"},
		{1, "0x8bda78331c916a08481428e4b07c96d3e916d165"},
	}
	for _, tt := range tests {
		if got := CreateAddress(creator, tt.nonce); got != types.HexToAddress(tt.want) {
			t.Errorf("CreateAddress(nonce=%d) = %s, want %s", tt.nonce, got, tt.want)
		}
	}
}

func TestCreateAddress2(t *testing.T) {
	tests := []struct {
		creator string
		salt    string
		code    []byte
		want    string
	}{
		{"0x0000000000000000000000000000000000000000", "0x00", []byte{0x00}, "0x4d1a2e2bb4f88f0250f26ffff098b0b30b26bf38"},
		{"0xdeadbeef00000000000000000000000000000000", "0x00", []byte{0x00}, "0xb928f69bb1d91cd65274e3c79d8986362984fda3"},
	}
	for _, tt := range tests {
		got := CreateAddress2(types.HexToAddress(tt.creator), types.HexToWord(tt.salt), Keccak256(tt.code))
		if got != types.HexToAddress(tt.want) {
			t.Errorf("CreateAddress2(%s) = %s, want %s", tt.creator, got, tt.want)
		}
	}
}
