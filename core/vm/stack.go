package vm

import (
	"fmt"

	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
)

// StackLimit is the maximum number of words a stack can hold.
const StackLimit = 1024

// Stack is the operand stack of one frame.
type Stack struct {
	data []types.Word
}

// NewStack returns a new empty stack.
func NewStack() *Stack {
	return &Stack{data: make([]types.Word, 0, 16)}
}

// Push pushes a value onto the stack.
func (st *Stack) Push(val types.Word) error {
	if len(st.data) >= StackLimit {
		return vmerr.ErrStackTooDeep
	}
	st.data = append(st.data, val)
	return nil
}

// Pop removes and returns the top element.
func (st *Stack) Pop() (types.Word, error) {
	n := len(st.data)
	if n == 0 {
		return types.Word{}, vmerr.ErrStackUnderflow
	}
	ret := st.data[n-1]
	st.data = st.data[:n-1]
	return ret, nil
}

// PopN pops n words, top first.
func (st *Stack) PopN(n int) ([]types.Word, error) {
	if n > len(st.data) {
		return nil, vmerr.ErrStackUnderflow
	}
	out := make([]types.Word, n)
	for i := 0; i < n; i++ {
		out[i] = st.data[len(st.data)-1-i]
	}
	st.data = st.data[:len(st.data)-n]
	return out, nil
}

// Peek returns the top element without removing it.
func (st *Stack) Peek() (types.Word, error) {
	if len(st.data) == 0 {
		return types.Word{}, vmerr.ErrStackUnderflow
	}
	return st.data[len(st.data)-1], nil
}

// Dup pushes a copy of the n-th element from the top (1 = top).
func (st *Stack) Dup(n int) error {
	if n < 1 || n > len(st.data) {
		return fmt.Errorf("%w: dup%d with %d items", vmerr.ErrStackUnderflow, n, len(st.data))
	}
	return st.Push(st.data[len(st.data)-n])
}

// Swap exchanges the top element with the n-th element below it.
func (st *Stack) Swap(n int) error {
	if n < 1 || n >= len(st.data) {
		return fmt.Errorf("%w: swap%d with %d items", vmerr.ErrStackUnderflow, n, len(st.data))
	}
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
	return nil
}

// Len returns the number of items on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Items returns a copy of the stack, top first.
func (st *Stack) Items() []types.Word {
	out := make([]types.Word, len(st.data))
	for i := range st.data {
		out[i] = st.data[len(st.data)-1-i]
	}
	return out
}
