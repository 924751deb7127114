package state

import (
	"context"
	"testing"

	"github.com/eth2030/evmsim/core/types"
)

func TestNestedSnapshotBasic(t *testing.T) {
	s := New()
	addr := testAddr(1)
	s.SetBalance(addr, word(100))

	outer := s.Snapshot()
	s.SetBalance(addr, word(150))
	if err := s.IncrementNonce(addr); err != nil {
		t.Fatal(err)
	}

	inner := s.Snapshot()
	s.SetBalance(addr, word(175))
	if err := s.SStore(addr, word(1), word(1)); err != nil {
		t.Fatal(err)
	}

	if !s.RevertToSnapshot(inner) {
		t.Fatal("inner revert failed")
	}
	bal, _ := s.Balance(addr)
	if bal != word(150) || s.Nonce(addr) != 1 {
		t.Fatalf("after inner revert balance=%v nonce=%d, want 150, 1", bal, s.Nonce(addr))
	}
	if v, _ := s.SLoad(context.Background(), addr, word(1)); !v.IsZero() {
		t.Fatalf("storage after inner revert = %v, want 0", v)
	}

	if !s.RevertToSnapshot(outer) {
		t.Fatal("outer revert failed")
	}
	bal, _ = s.Balance(addr)
	if bal != word(100) || s.Nonce(addr) != 0 {
		t.Fatalf("after outer revert balance=%v nonce=%d, want 100, 0", bal, s.Nonce(addr))
	}
	if s.RevertToSnapshot(inner) {
		t.Fatal("reverting an invalidated snapshot should fail")
	}
}

func TestRevertAccountLifecycle(t *testing.T) {
	s := New()
	kept, created := testAddr(1), testAddr(2)
	if _, err := s.PutCodeAt(kept, []byte{0x00}); err != nil {
		t.Fatal(err)
	}
	s.Commit()

	snap := s.Snapshot()
	s.InitAccount(created)
	s.DeleteAccount(kept)
	if err := s.AddLog(types.LogEntry{Address: created}); err != nil {
		t.Fatal(err)
	}
	s.RevertToSnapshot(snap)

	if s.Exists(created) {
		t.Fatal("created account survived revert")
	}
	if !s.Exists(kept) || s.Code(kept) == nil {
		t.Fatal("deleted account was not restored with its code")
	}
	if len(s.Logs()) != 0 {
		t.Fatalf("logs after revert = %d, want 0", len(s.Logs()))
	}
}

func TestCommitClearsJournal(t *testing.T) {
	s := New()
	s.InitAccount(testAddr(1))
	snap := s.Snapshot()
	s.SetBalance(testAddr(1), word(5))
	if s.JournalLength() == 0 {
		t.Fatal("journal should record changes")
	}
	s.Commit()
	if s.JournalLength() != 0 {
		t.Fatalf("journal length after commit = %d, want 0", s.JournalLength())
	}
	if s.RevertToSnapshot(snap) {
		t.Fatal("snapshot should not survive commit")
	}
	bal, _ := s.Balance(testAddr(1))
	if bal != word(5) {
		t.Fatalf("balance = %v, want 5", bal)
	}
}

func TestRevertCodeChange(t *testing.T) {
	s := New()
	addr := testAddr(1)
	first, _ := s.PutCodeAt(addr, []byte{0x01})
	snap := s.Snapshot()
	if _, err := s.PutCodeAt(addr, []byte{0x02}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearCode(addr); err != nil {
		t.Fatal(err)
	}
	s.RevertToSnapshot(snap)
	if s.CodeHash(addr) != first {
		t.Fatalf("code hash = %v, want %v", s.CodeHash(addr), first)
	}
}
