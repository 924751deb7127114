package vm

import "github.com/eth2030/evmsim/core/types"

// makeLog builds LOGn: pops (offset, size) then n topics.
func makeLog(n int) executionFunc {
	return func(evm *EVM, f *Frame) error {
		data, err := readRegion(f)
		if err != nil {
			return err
		}
		topics, err := f.Stack.PopN(n)
		if err != nil {
			return err
		}
		return evm.State.AddLog(types.LogEntry{
			Address: f.Address,
			Topics:  topics,
			Data:    data,
		})
	}
}
