package state

import (
	"bytes"
	"sort"

	"github.com/eth2030/evmsim/core/types"
)

// SlotView is one storage entry of an AccountView.
type SlotView struct {
	Slot  types.Word `json:"slot"`
	Value types.Word `json:"value"`
}

// AccountView is a read-only copy of an account for presentation.
type AccountView struct {
	Address  types.Address `json:"address"`
	Nonce    uint64        `json:"nonce"`
	Balance  types.Word    `json:"balance"`
	CodeHash types.Word    `json:"codeHash"`
	Storage  []SlotView    `json:"storage"`
}

func viewOf(addr types.Address, acct *Account) AccountView {
	v := AccountView{
		Address:  addr,
		Nonce:    acct.Nonce,
		Balance:  acct.Balance,
		CodeHash: acct.CodeHash,
		Storage:  make([]SlotView, 0, len(acct.Storage)),
	}
	for k, val := range acct.Storage {
		v.Storage = append(v.Storage, SlotView{Slot: k, Value: val})
	}
	sort.Slice(v.Storage, func(i, j int) bool {
		return bytes.Compare(v.Storage[i].Slot[:], v.Storage[j].Slot[:]) < 0
	})
	return v
}

// Account returns a view of the account at addr.
func (s *WorldState) Account(addr types.Address) (AccountView, bool) {
	acct := s.accounts[addr]
	if acct == nil {
		return AccountView{}, false
	}
	return viewOf(addr, acct), true
}

// Accounts returns views of every account sorted by address.
func (s *WorldState) Accounts() []AccountView {
	out := make([]AccountView, 0, len(s.accounts))
	for addr, acct := range s.accounts {
		out = append(out, viewOf(addr, acct))
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0
	})
	return out
}

// CodeCount returns the number of distinct code blobs stored.
func (s *WorldState) CodeCount() int { return len(s.code) }
