// Package state implements the simulator's world state: accounts with their
// storage, content-addressed code, the log sequence and the static-mode flag,
// plus an optional remote read-through provider for storage misses.
package state

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
	"github.com/eth2030/evmsim/crypto"
	"github.com/eth2030/evmsim/log"
	"github.com/eth2030/evmsim/metrics"
)

// WorldState is the persistent account map shared by every call frame of an
// invocation. It is not safe for concurrent use; callers running several
// interpreters over one WorldState must hold Lock for the duration of each
// top-level invocation.
type WorldState struct {
	mu sync.Mutex

	accounts map[types.Address]*Account
	code     map[types.Word][]byte
	logs     []types.LogEntry
	static   bool

	// remote caches slots fetched from the provider for addresses that have
	// no local account.
	remote   map[types.Address]map[types.Word]types.Word
	provider StorageProvider

	journal *journal
	log     *log.Logger
	metrics *metrics.Registry
}

// Option configures a WorldState.
type Option func(*WorldState)

// WithProvider installs a remote read-through provider for storage misses.
func WithProvider(p StorageProvider) Option {
	return func(s *WorldState) { s.provider = p }
}

// WithLogger sets the logger used for provider activity.
func WithLogger(l *log.Logger) Option {
	return func(s *WorldState) {
		if l != nil {
			s.log = l.Module("state")
		}
	}
}

// WithMetrics sets the registry that receives provider metrics.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *WorldState) {
		if r != nil {
			s.metrics = r
		}
	}
}

// New creates an empty world state.
func New(opts ...Option) *WorldState {
	s := &WorldState{
		accounts: make(map[types.Address]*Account),
		code:     make(map[types.Word][]byte),
		remote:   make(map[types.Address]map[types.Word]types.Word),
		journal:  newJournal(),
		log:      log.Default().Module("state"),
		metrics:  metrics.DefaultRegistry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lock acquires exclusive use of the world state for one top-level
// invocation.
func (s *WorldState) Lock() { s.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (s *WorldState) Unlock() { s.mu.Unlock() }

// HasProvider reports whether a remote provider is configured.
func (s *WorldState) HasProvider() bool { return s.provider != nil }

// StaticMode reports whether state mutation is currently forbidden.
func (s *WorldState) StaticMode() bool { return s.static }

// SetStaticMode sets the static flag and returns its previous value.
func (s *WorldState) SetStaticMode(on bool) bool {
	prev := s.static
	s.static = on
	return prev
}

// Exists reports whether addr has an account record.
func (s *WorldState) Exists(addr types.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

func (s *WorldState) createAccount(addr types.Address) *Account {
	acct := newAccount()
	s.accounts[addr] = acct
	s.journal.append(createAccountChange{addr: addr})
	return acct
}

// InitAccount creates a zeroed account with nonce 1 if addr has none. It is
// a no-op for existing accounts.
func (s *WorldState) InitAccount(addr types.Address) {
	if s.Exists(addr) {
		return
	}
	s.createAccount(addr).Nonce = 1
}

// DeleteAccount removes the account record. Code entries it referenced are
// left in place since other accounts may share them.
func (s *WorldState) DeleteAccount(addr types.Address) {
	acct, ok := s.accounts[addr]
	if !ok {
		return
	}
	s.journal.append(deleteAccountChange{addr: addr, prev: acct})
	delete(s.accounts, addr)
}

// Nonce returns the account nonce, or 0 for a missing account.
func (s *WorldState) Nonce(addr types.Address) uint64 {
	if acct := s.accounts[addr]; acct != nil {
		return acct.Nonce
	}
	return 0
}

// IncrementNonce advances the nonce of an existing account.
func (s *WorldState) IncrementNonce(addr types.Address) error {
	acct := s.accounts[addr]
	if acct == nil {
		return vmerr.ErrAccountNotFound
	}
	s.journal.append(nonceChange{addr: addr, prev: acct.Nonce})
	acct.Nonce++
	return nil
}

// Balance returns the balance of an existing account.
func (s *WorldState) Balance(addr types.Address) (types.Word, error) {
	acct := s.accounts[addr]
	if acct == nil {
		return types.Word{}, vmerr.ErrAccountNotFound
	}
	return acct.Balance, nil
}

// SetBalance overwrites the balance, creating a zeroed account if needed.
// It is the seeding entry point for drivers and tests and ignores static
// mode.
func (s *WorldState) SetBalance(addr types.Address, bal types.Word) {
	acct := s.accounts[addr]
	if acct == nil {
		acct = s.createAccount(addr)
	}
	s.journal.append(balanceChange{addr: addr, prev: acct.Balance})
	acct.Balance = bal
}

// Transfer moves value between two existing accounts. Both new balances are
// computed before either is written, so a failure leaves both untouched.
func (s *WorldState) Transfer(from, to types.Address, value types.Word) error {
	if s.static {
		return vmerr.ErrStaticStateChange
	}
	src, dst := s.accounts[from], s.accounts[to]
	if src == nil || dst == nil {
		return vmerr.ErrAccountNotFound
	}
	amount := value.Uint256()
	srcBal := src.Balance.Uint256()
	if srcBal.Lt(amount) {
		return vmerr.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	newSrc := new(uint256.Int).Sub(srcBal, amount)
	newDst, overflow := new(uint256.Int).AddOverflow(dst.Balance.Uint256(), amount)
	if overflow {
		return vmerr.ErrOperationNotAllowed
	}
	s.journal.append(balanceChange{addr: from, prev: src.Balance})
	s.journal.append(balanceChange{addr: to, prev: dst.Balance})
	src.Balance = types.WordFromUint256(newSrc)
	dst.Balance = types.WordFromUint256(newDst)
	return nil
}

// SLoad reads a storage slot. A missing account falls through to the remote
// provider when one is configured; the fetched value is cached. Without a
// provider missing accounts and slots read as zero.
func (s *WorldState) SLoad(ctx context.Context, addr types.Address, slot types.Word) (types.Word, error) {
	if acct := s.accounts[addr]; acct != nil {
		return acct.Storage[slot], nil
	}
	if s.provider == nil {
		return types.Word{}, nil
	}
	if cached, ok := s.remote[addr][slot]; ok {
		return cached, nil
	}

	timer := metrics.NewTimer(s.metrics.Histogram(metrics.StateRemoteTime))
	val, err := s.provider.StorageAt(ctx, addr, slot)
	elapsed := timer.Stop()
	if err != nil {
		s.metrics.Counter(metrics.StateRemoteMiss).Inc()
		s.log.Warn("remote storage fetch failed", "address", addr.Hex(), "slot", slot.Hex(), "err", err)
		return types.Word{}, vmerr.Provider(err)
	}
	s.metrics.Counter(metrics.StateRemoteFetch).Inc()
	s.log.Debug("remote storage fetched", "address", addr.Hex(), "slot", slot.Hex(), "value", val.Hex(), "elapsed", elapsed)

	if s.remote[addr] == nil {
		s.remote[addr] = make(map[types.Word]types.Word)
	}
	s.remote[addr][slot] = val
	return val, nil
}

// SStore writes a storage slot of an existing account.
func (s *WorldState) SStore(addr types.Address, slot, value types.Word) error {
	if s.static {
		return vmerr.ErrStaticStateChange
	}
	acct := s.accounts[addr]
	if acct == nil {
		return vmerr.ErrAccountNotFound
	}
	prev, existed := acct.Storage[slot]
	s.journal.append(storageChange{addr: addr, slot: slot, prev: prev, prevExists: existed})
	acct.Storage[slot] = value
	return nil
}

// PutCodeAt stores code under its Keccak-256 hash and points the account at
// it, creating a zeroed account when addr has none.
func (s *WorldState) PutCodeAt(addr types.Address, code []byte) (types.Word, error) {
	if len(code) == 0 {
		return types.Word{}, vmerr.ErrEmptyCode
	}
	if s.static {
		return types.Word{}, vmerr.ErrStaticStateChange
	}
	hash := crypto.Keccak256Word(code)
	if _, ok := s.code[hash]; !ok {
		s.code[hash] = append([]byte(nil), code...)
	}
	acct := s.accounts[addr]
	if acct == nil {
		acct = s.createAccount(addr)
	}
	s.journal.append(codeChange{addr: addr, prevHash: acct.CodeHash})
	acct.CodeHash = hash
	return hash, nil
}

// ClearCode detaches any code from the account.
func (s *WorldState) ClearCode(addr types.Address) error {
	if s.static {
		return vmerr.ErrStaticStateChange
	}
	acct := s.accounts[addr]
	if acct == nil {
		return vmerr.ErrAccountNotFound
	}
	s.journal.append(codeChange{addr: addr, prevHash: acct.CodeHash})
	acct.CodeHash = types.Word{}
	return nil
}

// GetCodeAt returns the code referenced by the account's code hash.
func (s *WorldState) GetCodeAt(addr types.Address) ([]byte, error) {
	acct := s.accounts[addr]
	if acct == nil {
		return nil, vmerr.ErrAccountNotFound
	}
	if !acct.HasCode() {
		return nil, vmerr.ErrCodeNotFound
	}
	code, ok := s.code[acct.CodeHash]
	if !ok {
		return nil, vmerr.ErrCodeNotFound
	}
	return code, nil
}

// Code returns the account's code, or nil when there is none.
func (s *WorldState) Code(addr types.Address) []byte {
	code, err := s.GetCodeAt(addr)
	if err != nil {
		return nil
	}
	return code
}

// CodeHash returns the recorded code hash, zero for no code.
func (s *WorldState) CodeHash(addr types.Address) types.Word {
	if acct := s.accounts[addr]; acct != nil {
		return acct.CodeHash
	}
	return types.Word{}
}

// AddLog appends a log entry.
func (s *WorldState) AddLog(entry types.LogEntry) error {
	if s.static {
		return vmerr.ErrStaticStateChange
	}
	s.logs = append(s.logs, entry.Copy())
	s.journal.append(logChange{})
	return nil
}

// Logs returns a copy of the log sequence in emission order.
func (s *WorldState) Logs() []types.LogEntry {
	out := make([]types.LogEntry, len(s.logs))
	for i, l := range s.logs {
		out[i] = l.Copy()
	}
	return out
}

// Snapshot opens a revertible boundary and returns its identifier.
func (s *WorldState) Snapshot() int {
	return s.journal.snapshot()
}

// RevertToSnapshot undoes every change made since the snapshot was taken.
// It reports false for an unknown or already reverted identifier.
func (s *WorldState) RevertToSnapshot(id int) bool {
	return s.journal.revertToSnapshot(id, s)
}

// Commit makes every change final and discards the journal.
func (s *WorldState) Commit() {
	s.journal.reset()
}

// JournalLength returns the number of uncommitted changes.
func (s *WorldState) JournalLength() int {
	return s.journal.length()
}
