package state

import "github.com/eth2030/evmsim/core/types"

// journalEntry is a revertible state change.
type journalEntry interface {
	revert(s *WorldState)
}

// journal tracks world state modifications for snapshot/revert.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int // snapshot ID -> entry index
	nextID    int
}

func newJournal() *journal {
	return &journal{
		snapshots: make(map[int]int),
	}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, s *WorldState) bool {
	idx, ok := j.snapshots[id]
	if !ok {
		return false
	}
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:idx]

	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
	return true
}

// reset drops every entry and snapshot. Called once a top-level invocation
// has finished and its effects are final.
func (j *journal) reset() {
	j.entries = j.entries[:0]
	for sid := range j.snapshots {
		delete(j.snapshots, sid)
	}
}

type createAccountChange struct {
	addr types.Address
}

func (ch createAccountChange) revert(s *WorldState) {
	delete(s.accounts, ch.addr)
}

type deleteAccountChange struct {
	addr types.Address
	prev *Account
}

func (ch deleteAccountChange) revert(s *WorldState) {
	s.accounts[ch.addr] = ch.prev
}

type balanceChange struct {
	addr types.Address
	prev types.Word
}

func (ch balanceChange) revert(s *WorldState) {
	if acct := s.accounts[ch.addr]; acct != nil {
		acct.Balance = ch.prev
	}
}

type nonceChange struct {
	addr types.Address
	prev uint64
}

func (ch nonceChange) revert(s *WorldState) {
	if acct := s.accounts[ch.addr]; acct != nil {
		acct.Nonce = ch.prev
	}
}

type codeChange struct {
	addr     types.Address
	prevHash types.Word
}

func (ch codeChange) revert(s *WorldState) {
	if acct := s.accounts[ch.addr]; acct != nil {
		acct.CodeHash = ch.prevHash
	}
}

type storageChange struct {
	addr       types.Address
	slot       types.Word
	prev       types.Word
	prevExists bool
}

func (ch storageChange) revert(s *WorldState) {
	acct := s.accounts[ch.addr]
	if acct == nil {
		return
	}
	if ch.prevExists {
		acct.Storage[ch.slot] = ch.prev
	} else {
		delete(acct.Storage, ch.slot)
	}
}

type logChange struct{}

func (logChange) revert(s *WorldState) {
	if n := len(s.logs); n > 0 {
		s.logs = s.logs[:n-1]
	}
}
