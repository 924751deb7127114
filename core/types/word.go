package types

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Word is the interpreter's native 32-byte big-endian operand.
type Word [WordLength]byte

// BytesToWord left-pads b with zeros. Inputs longer than 32 bytes keep
// their low-order 32 bytes.
func BytesToWord(b []byte) Word {
	var w Word
	if len(b) > WordLength {
		b = b[len(b)-WordLength:]
	}
	copy(w[WordLength-len(b):], b)
	return w
}

// BytesToWordOnes left-pads b with 0xff bytes, producing the twos-complement
// extension of a short negative value.
func BytesToWordOnes(b []byte) Word {
	if len(b) > WordLength {
		b = b[len(b)-WordLength:]
	}
	var w Word
	for i := 0; i < WordLength-len(b); i++ {
		w[i] = 0xff
	}
	copy(w[WordLength-len(b):], b)
	return w
}

// RightPadWord copies b into the high-order end of a word and zero-fills the
// rest. Inputs longer than 32 bytes are truncated.
func RightPadWord(b []byte) Word {
	var w Word
	copy(w[:], b)
	return w
}

// Uint64ToWord encodes v as a big-endian word.
func Uint64ToWord(v uint64) Word {
	return WordFromUint256(uint256.NewInt(v))
}

// WordFromUint256 encodes an unsigned 256-bit integer.
func WordFromUint256(v *uint256.Int) Word {
	return Word(v.Bytes32())
}

// AddressToWord places a in the low 20 bytes of a word.
func AddressToWord(a Address) Word {
	return BytesToWord(a[:])
}

// HexToWord parses an optionally 0x-prefixed hex string.
func HexToWord(s string) Word {
	return BytesToWord(fromHex(s))
}

// Uint256 returns the unsigned interpretation of w.
func (w Word) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes32(w[:])
}

// Signed returns the twos-complement interpretation of w.
func (w Word) Signed() *big.Int {
	v := new(big.Int).SetBytes(w[:])
	if w[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return v
}

// Address returns the low 20 bytes of w.
func (w Word) Address() Address {
	return BytesToAddress(w[WordLength-AddressLength:])
}

// Uint64 returns the low 64 bits and whether the value fits in them.
func (w Word) Uint64() (uint64, bool) {
	v := w.Uint256()
	return v.Uint64(), v.IsUint64()
}

// IsZero reports whether every byte of w is zero.
func (w Word) IsZero() bool { return w == Word{} }

// Bytes returns a copy of the word's bytes.
func (w Word) Bytes() []byte { return append([]byte(nil), w[:]...) }

// Hex returns the 0x-prefixed hex encoding of all 32 bytes.
func (w Word) Hex() string { return fmt.Sprintf("0x%x", w[:]) }

// String implements fmt.Stringer.
func (w Word) String() string { return w.Hex() }

// MarshalText encodes the word as 0x-prefixed hex.
func (w Word) MarshalText() ([]byte, error) { return []byte(w.Hex()), nil }
