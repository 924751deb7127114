package vm

import (
	"errors"
	"testing"

	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
)

func w(v uint64) types.Word { return types.Uint64ToWord(v) }

func TestStackPushPop(t *testing.T) {
	st := NewStack()
	st.Push(w(42))
	st.Push(w(99))

	if st.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", st.Len())
	}
	val, err := st.Pop()
	if err != nil || val != w(99) {
		t.Errorf("Pop() = %v, %v, want 99", val, err)
	}
	val, err = st.Pop()
	if err != nil || val != w(42) {
		t.Errorf("Pop() = %v, %v, want 42", val, err)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d, want 0", st.Len())
	}
}

func TestStackUnderflow(t *testing.T) {
	st := NewStack()
	if _, err := st.Pop(); !errors.Is(err, vmerr.ErrStackUnderflow) {
		t.Fatalf("Pop on empty = %v, want ErrStackUnderflow", err)
	}
	if _, err := st.Peek(); !errors.Is(err, vmerr.ErrStackUnderflow) {
		t.Fatalf("Peek on empty = %v, want ErrStackUnderflow", err)
	}
	st.Push(w(1))
	if _, err := st.PopN(2); !errors.Is(err, vmerr.ErrStackUnderflow) {
		t.Fatalf("PopN(2) with one item = %v, want ErrStackUnderflow", err)
	}
	if st.Len() != 1 {
		t.Fatalf("failed PopN must not consume items, Len() = %d", st.Len())
	}
}

func TestStackLimit(t *testing.T) {
	st := NewStack()
	for i := 0; i < StackLimit; i++ {
		if err := st.Push(w(uint64(i))); err != nil {
			t.Fatalf("Push #%d: %v", i, err)
		}
	}
	if err := st.Push(w(0)); !errors.Is(err, vmerr.ErrStackTooDeep) {
		t.Fatalf("Push #1025 = %v, want ErrStackTooDeep", err)
	}
	if st.Len() != StackLimit {
		t.Fatalf("Len() = %d, want %d", st.Len(), StackLimit)
	}
}

func TestStackPopNOrder(t *testing.T) {
	st := NewStack()
	for i := uint64(1); i <= 3; i++ {
		st.Push(w(i))
	}
	got, err := st.PopN(3)
	if err != nil {
		t.Fatal(err)
	}
	want := []types.Word{w(3), w(2), w(1)}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PopN[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStackDupSwap(t *testing.T) {
	st := NewStack()
	st.Push(w(1))
	st.Push(w(2))
	st.Push(w(3))

	if err := st.Dup(3); err != nil {
		t.Fatal(err)
	}
	if top, _ := st.Peek(); top != w(1) {
		t.Fatalf("after DUP3 top = %v, want 1", top)
	}
	if err := st.Swap(3); err != nil {
		t.Fatal(err)
	}
	items := st.Items()
	want := []types.Word{w(1), w(3), w(2), w(1)}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("Items()[%d] = %v, want %v", i, items[i], want[i])
		}
	}

	if err := st.Dup(5); !errors.Is(err, vmerr.ErrStackUnderflow) {
		t.Errorf("Dup(5) = %v, want ErrStackUnderflow", err)
	}
	if err := st.Swap(4); !errors.Is(err, vmerr.ErrStackUnderflow) {
		t.Errorf("Swap(4) = %v, want ErrStackUnderflow", err)
	}
}
