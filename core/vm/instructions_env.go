package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/crypto"
)

func opAddress(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.AddressToWord(f.Address))
}

func opBalance(evm *EVM, f *Frame) error {
	w, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	bal, err := evm.State.Balance(w.Address())
	if err != nil {
		return err
	}
	return f.Stack.Push(bal)
}

func opOrigin(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.AddressToWord(evm.origin))
}

func opCaller(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.AddressToWord(f.Caller))
}

func opCallValue(evm *EVM, f *Frame) error {
	return f.Stack.Push(f.Value)
}

func opCallDataLoad(evm *EVM, f *Frame) error {
	off, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return f.Stack.Push(types.Word(sliceData(f.Input, off, types.WordLength)))
}

func opCallDataSize(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(uint64(len(f.Input))))
}

func opCallDataCopy(evm *EVM, f *Frame) error {
	return copyToMemory(f, f.Input)
}

func opCodeSize(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(uint64(len(f.Code))))
}

func opCodeCopy(evm *EVM, f *Frame) error {
	return copyToMemory(f, f.Code)
}

func opGasPrice(evm *EVM, f *Frame) error {
	return f.Stack.Push(evm.Block.GasPrice)
}

func opExtCodeSize(evm *EVM, f *Frame) error {
	w, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return f.Stack.Push(types.Uint64ToWord(uint64(len(evm.State.Code(w.Address())))))
}

func opExtCodeCopy(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(4)
	if err != nil {
		return err
	}
	return copyRegion(f, args[1], args[2], args[3], evm.State.Code(args[0].Address()))
}

func opExtCodeHash(evm *EVM, f *Frame) error {
	w, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return f.Stack.Push(evm.State.CodeHash(w.Address()))
}

func opReturnDataSize(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(uint64(len(f.ReturnData))))
}

func opReturnDataCopy(evm *EVM, f *Frame) error {
	return copyToMemory(f, f.ReturnData)
}

// opBlockhash returns a deterministic stand-in: the hash of the requested
// block number word.
func opBlockhash(evm *EVM, f *Frame) error {
	num, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return f.Stack.Push(crypto.Keccak256Word(num[:]))
}

func opCoinbase(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.AddressToWord(evm.Block.Coinbase))
}

func opTimestamp(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(evm.Block.Timestamp))
}

func opNumber(evm *EVM, f *Frame) error {
	return f.Stack.Push(evm.Block.Number)
}

func opDifficulty(evm *EVM, f *Frame) error {
	return f.Stack.Push(evm.Block.Difficulty)
}

func opGasLimit(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(evm.Block.GasLimit))
}

func opChainID(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(evm.Block.ChainID))
}

func opSelfBalance(evm *EVM, f *Frame) error {
	bal, err := evm.State.Balance(f.Address)
	if err != nil {
		return err
	}
	return f.Stack.Push(bal)
}

func opBaseFee(evm *EVM, f *Frame) error {
	return f.Stack.Push(evm.Block.BaseFee)
}
