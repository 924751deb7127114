package vm

import "context"

func (evm *EVM) context() context.Context {
	if evm.ctx != nil {
		return evm.ctx
	}
	return context.Background()
}

func opSload(evm *EVM, f *Frame) error {
	slot, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	val, err := evm.State.SLoad(evm.context(), f.Address, slot)
	if err != nil {
		return err
	}
	return f.Stack.Push(val)
}

func opSstore(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(2)
	if err != nil {
		return err
	}
	return evm.State.SStore(f.Address, args[0], args[1])
}
