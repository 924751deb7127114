package state

import (
	"context"
	"errors"
	"testing"

	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
	"github.com/eth2030/evmsim/crypto"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func word(v uint64) types.Word { return types.Uint64ToWord(v) }

func TestInitAccount(t *testing.T) {
	s := New()
	addr := testAddr(1)
	s.InitAccount(addr)
	if got := s.Nonce(addr); got != 1 {
		t.Fatalf("nonce = %d, want 1", got)
	}
	if err := s.IncrementNonce(addr); err != nil {
		t.Fatalf("IncrementNonce: %v", err)
	}
	s.InitAccount(addr)
	if got := s.Nonce(addr); got != 2 {
		t.Fatalf("nonce after idempotent init = %d, want 2", got)
	}
}

func TestIncrementNonceMissing(t *testing.T) {
	s := New()
	if err := s.IncrementNonce(testAddr(9)); !errors.Is(err, vmerr.ErrAccountNotFound) {
		t.Fatalf("IncrementNonce(missing) = %v, want account not found", err)
	}
}

func TestSStoreSLoad(t *testing.T) {
	s := New()
	addr := testAddr(1)
	ctx := context.Background()

	if err := s.SStore(addr, word(1), word(2)); !errors.Is(err, vmerr.ErrAccountNotFound) {
		t.Fatalf("SStore(missing) = %v, want account not found", err)
	}
	s.InitAccount(addr)
	if err := s.SStore(addr, word(1), word(2)); err != nil {
		t.Fatalf("SStore: %v", err)
	}
	got, err := s.SLoad(ctx, addr, word(1))
	if err != nil || got != word(2) {
		t.Fatalf("SLoad = %v, %v; want 2", got, err)
	}
	got, err = s.SLoad(ctx, addr, word(7))
	if err != nil || !got.IsZero() {
		t.Fatalf("SLoad(untouched) = %v, %v; want 0", got, err)
	}
	got, err = s.SLoad(ctx, testAddr(5), word(1))
	if err != nil || !got.IsZero() {
		t.Fatalf("SLoad(missing account) = %v, %v; want 0", got, err)
	}
}

func TestSStoreStaticMode(t *testing.T) {
	s := New()
	addr := testAddr(1)
	s.InitAccount(addr)
	if err := s.SStore(addr, word(1), word(2)); err != nil {
		t.Fatal(err)
	}
	if prev := s.SetStaticMode(true); prev {
		t.Fatal("static mode should start off")
	}
	if err := s.SStore(addr, word(1), word(3)); !errors.Is(err, vmerr.ErrStaticStateChange) {
		t.Fatalf("SStore in static mode = %v, want static violation", err)
	}
	got, _ := s.SLoad(context.Background(), addr, word(1))
	if got != word(2) {
		t.Fatalf("storage changed under static mode: %v", got)
	}
}

func TestTransfer(t *testing.T) {
	s := New()
	a, b := testAddr(1), testAddr(2)
	s.SetBalance(a, word(100))

	if err := s.Transfer(a, b, word(1)); !errors.Is(err, vmerr.ErrAccountNotFound) {
		t.Fatalf("Transfer to missing = %v, want account not found", err)
	}
	s.InitAccount(b)
	if err := s.Transfer(a, b, word(101)); !errors.Is(err, vmerr.ErrInsufficientBalance) {
		t.Fatalf("Transfer overdraw = %v, want insufficient balance", err)
	}
	if err := s.Transfer(a, b, word(40)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	balA, _ := s.Balance(a)
	balB, _ := s.Balance(b)
	if balA != word(60) || balB != word(40) {
		t.Fatalf("balances = %v, %v; want 60, 40", balA, balB)
	}

	s.SetStaticMode(true)
	if err := s.Transfer(a, b, word(1)); !errors.Is(err, vmerr.ErrStaticStateChange) {
		t.Fatalf("Transfer in static mode = %v, want static violation", err)
	}
}

func TestTransferOverflowLeavesBalances(t *testing.T) {
	s := New()
	a, b := testAddr(1), testAddr(2)
	var max types.Word
	for i := range max {
		max[i] = 0xff
	}
	s.SetBalance(a, word(10))
	s.SetBalance(b, max)
	if err := s.Transfer(a, b, word(5)); !errors.Is(err, vmerr.ErrOperationNotAllowed) {
		t.Fatalf("Transfer overflow = %v, want operation not allowed", err)
	}
	balA, _ := s.Balance(a)
	if balA != word(10) {
		t.Fatalf("source balance = %v, want 10", balA)
	}
}

func TestPutCodeAt(t *testing.T) {
	s := New()
	addr := testAddr(3)
	code := []byte{0x60, 0x01, 0x00}

	if _, err := s.PutCodeAt(addr, nil); !errors.Is(err, vmerr.ErrEmptyCode) {
		t.Fatalf("PutCodeAt(empty) = %v, want empty code", err)
	}
	hash, err := s.PutCodeAt(addr, code)
	if err != nil {
		t.Fatalf("PutCodeAt: %v", err)
	}
	if hash != crypto.Keccak256Word(code) {
		t.Fatalf("code hash = %v, want keccak of code", hash)
	}
	if s.CodeHash(addr) != hash {
		t.Fatal("account does not reference the stored hash")
	}
	got, err := s.GetCodeAt(addr)
	if err != nil || string(got) != string(code) {
		t.Fatalf("GetCodeAt = %x, %v; want %x", got, err, code)
	}

	// Identical code at a second address shares one entry.
	if _, err := s.PutCodeAt(testAddr(4), code); err != nil {
		t.Fatal(err)
	}
	if s.CodeCount() != 1 {
		t.Fatalf("CodeCount = %d, want 1", s.CodeCount())
	}

	s.SetStaticMode(true)
	if _, err := s.PutCodeAt(addr, code); !errors.Is(err, vmerr.ErrStaticStateChange) {
		t.Fatalf("PutCodeAt in static mode = %v, want static violation", err)
	}
}

func TestGetCodeAtErrors(t *testing.T) {
	s := New()
	if _, err := s.GetCodeAt(testAddr(1)); !errors.Is(err, vmerr.ErrAccountNotFound) {
		t.Fatalf("GetCodeAt(missing) = %v, want account not found", err)
	}
	s.InitAccount(testAddr(1))
	if _, err := s.GetCodeAt(testAddr(1)); !errors.Is(err, vmerr.ErrCodeNotFound) {
		t.Fatalf("GetCodeAt(no code) = %v, want code not found", err)
	}
	if s.Code(testAddr(1)) != nil {
		t.Fatal("Code() should be nil without code")
	}
}

func TestDeleteAccountKeepsCode(t *testing.T) {
	s := New()
	addr := testAddr(1)
	if _, err := s.PutCodeAt(addr, []byte{0x00}); err != nil {
		t.Fatal(err)
	}
	s.DeleteAccount(addr)
	if s.Exists(addr) {
		t.Fatal("account still exists after delete")
	}
	if s.CodeCount() != 1 {
		t.Fatalf("CodeCount = %d, want 1", s.CodeCount())
	}
}

func TestLogs(t *testing.T) {
	s := New()
	entry := types.LogEntry{Address: testAddr(1), Topics: []types.Word{word(1)}, Data: []byte{0xaa}}
	if err := s.AddLog(entry); err != nil {
		t.Fatal(err)
	}
	entry.Data[0] = 0xbb
	logs := s.Logs()
	if len(logs) != 1 || logs[0].Data[0] != 0xaa {
		t.Fatalf("logs = %+v, want one entry with data aa", logs)
	}
	s.SetStaticMode(true)
	if err := s.AddLog(entry); !errors.Is(err, vmerr.ErrStaticStateChange) {
		t.Fatalf("AddLog in static mode = %v, want static violation", err)
	}
}

func TestAccountsSorted(t *testing.T) {
	s := New()
	s.InitAccount(testAddr(3))
	s.InitAccount(testAddr(1))
	if err := s.SStore(testAddr(1), word(9), word(1)); err != nil {
		t.Fatal(err)
	}
	if err := s.SStore(testAddr(1), word(2), word(1)); err != nil {
		t.Fatal(err)
	}
	views := s.Accounts()
	if len(views) != 2 || views[0].Address != testAddr(1) {
		t.Fatalf("Accounts() = %+v, want sorted by address", views)
	}
	if views[0].Storage[0].Slot != word(2) || views[0].Storage[1].Slot != word(9) {
		t.Fatalf("storage not sorted by slot: %+v", views[0].Storage)
	}
	if _, ok := s.Account(testAddr(7)); ok {
		t.Fatal("Account(missing) reported ok")
	}
}
