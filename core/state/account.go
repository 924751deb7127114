package state

import "github.com/eth2030/evmsim/core/types"

// Account is one address's record in the world state. A zero CodeHash means
// the account has no code.
type Account struct {
	Nonce    uint64
	Balance  types.Word
	Storage  map[types.Word]types.Word
	CodeHash types.Word
}

func newAccount() *Account {
	return &Account{Storage: make(map[types.Word]types.Word)}
}

// HasCode reports whether the account references stored code.
func (a *Account) HasCode() bool { return !a.CodeHash.IsZero() }
