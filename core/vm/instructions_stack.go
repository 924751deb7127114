package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
)

func opPush0(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Word{})
}

// makePush builds PUSHn. The immediate is read from the n bytes after the
// opcode; a truncated immediate is a bytecode bounds violation.
func makePush(n int) executionFunc {
	return func(evm *EVM, f *Frame) error {
		start := f.PC + 1
		end := start + uint64(n)
		if end > uint64(len(f.Code)) {
			return vmerr.ErrBytecodeOutOfBounds
		}
		if err := f.Stack.Push(types.BytesToWord(f.Code[start:end])); err != nil {
			return err
		}
		f.PC += uint64(n)
		return nil
	}
}

func makeDup(n int) executionFunc {
	return func(evm *EVM, f *Frame) error {
		return f.Stack.Dup(n)
	}
}

func makeSwap(n int) executionFunc {
	return func(evm *EVM, f *Frame) error {
		return f.Stack.Swap(n)
	}
}
