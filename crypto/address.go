package crypto

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// CreateAddress derives the address of a contract deployed by CREATE:
// keccak256(rlp([creator, nonce]))[12:].
func CreateAddress(creator types.Address, nonce uint64) types.Address {
	enc, err := rlp.EncodeToBytes([]interface{}{creator[:], nonce})
	if err != nil {
		// A byte string and an integer always encode.
		panic(err)
	}
	return types.BytesToAddress(Keccak256(enc)[12:])
}

// CreateAddress2 derives the address of a contract deployed by CREATE2:
// keccak256(0xff ++ creator ++ salt ++ keccak256(initCode))[12:].
func CreateAddress2(creator types.Address, salt types.Word, initCodeHash []byte) types.Address {
	return types.BytesToAddress(Keccak256([]byte{0xff}, creator[:], salt[:], initCodeHash)[12:])
}
