package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
)

func opStop(evm *EVM, f *Frame) error {
	f.halt(nil)
	return nil
}

func opJump(evm *EVM, f *Frame) error {
	dest, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return f.jumpTo(dest)
}

// opJumpi validates the destination only when the branch is taken.
func opJumpi(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(2)
	if err != nil {
		return err
	}
	if args[1].IsZero() {
		f.PC++
		return nil
	}
	return f.jumpTo(args[0])
}

func opPc(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(f.PC))
}

func opGas(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(f.Gas))
}

func opJumpdest(evm *EVM, f *Frame) error {
	return nil
}

func opReturn(evm *EVM, f *Frame) error {
	data, err := readRegion(f)
	if err != nil {
		return err
	}
	f.halt(data)
	return nil
}

// opRevert records the payload as the frame's output before failing so
// the caller can read it through RETURNDATACOPY.
func opRevert(evm *EVM, f *Frame) error {
	data, err := readRegion(f)
	if err != nil {
		return err
	}
	f.ReturnData = data
	return vmerr.Revert(data)
}

// opSelfdestruct moves the whole balance to the beneficiary, removes the
// executing account and halts.
func opSelfdestruct(evm *EVM, f *Frame) error {
	w, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	if evm.State.StaticMode() {
		return vmerr.ErrStaticStateChange
	}
	beneficiary := w.Address()
	bal, err := evm.State.Balance(f.Address)
	if err != nil {
		return err
	}
	if beneficiary != f.Address && !bal.IsZero() {
		evm.State.InitAccount(beneficiary)
		if err := evm.State.Transfer(f.Address, beneficiary, bal); err != nil {
			return err
		}
	}
	evm.State.DeleteAccount(f.Address)
	f.halt(nil)
	return nil
}
