package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
	"github.com/eth2030/evmsim/crypto"
)

// memRange converts an (offset, size) operand pair to native integers. A
// zero size yields an empty range regardless of offset.
func memRange(offset, size types.Word) (uint64, uint64, error) {
	n, ok := size.Uint64()
	if !ok {
		return 0, 0, vmerr.ErrMemoryLimit
	}
	if n == 0 {
		return 0, 0, nil
	}
	off, ok := offset.Uint64()
	if !ok {
		return 0, 0, vmerr.ErrMemoryLimit
	}
	return off, n, nil
}

// memOffset converts a single offset operand.
func memOffset(offset types.Word) (uint64, error) {
	off, ok := offset.Uint64()
	if !ok {
		return 0, vmerr.ErrMemoryLimit
	}
	return off, nil
}

// readRegion pops (offset, size) and reads that memory region.
func readRegion(f *Frame) ([]byte, error) {
	args, err := f.Stack.PopN(2)
	if err != nil {
		return nil, err
	}
	off, size, err := memRange(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return f.Memory.Read(off, size)
}

func opPop(evm *EVM, f *Frame) error {
	_, err := f.Stack.Pop()
	return err
}

func opMload(evm *EVM, f *Frame) error {
	w, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	off, err := memOffset(w)
	if err != nil {
		return err
	}
	val, err := f.Memory.Load(off)
	if err != nil {
		return err
	}
	return f.Stack.Push(val)
}

func opMstore(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(2)
	if err != nil {
		return err
	}
	off, err := memOffset(args[0])
	if err != nil {
		return err
	}
	return f.Memory.Store(off, args[1])
}

func opMstore8(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(2)
	if err != nil {
		return err
	}
	off, err := memOffset(args[0])
	if err != nil {
		return err
	}
	return f.Memory.Store8(off, args[1][types.WordLength-1])
}

func opMsize(evm *EVM, f *Frame) error {
	return f.Stack.Push(types.Uint64ToWord(uint64(f.Memory.Len())))
}

func opMcopy(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(3)
	if err != nil {
		return err
	}
	_, size, err := memRange(types.Word{}, args[2])
	if err != nil || size == 0 {
		return err
	}
	dst, err := memOffset(args[0])
	if err != nil {
		return err
	}
	src, err := memOffset(args[1])
	if err != nil {
		return err
	}
	return f.Memory.Copy(dst, src, size)
}

func opKeccak256(evm *EVM, f *Frame) error {
	data, err := readRegion(f)
	if err != nil {
		return err
	}
	return f.Stack.Push(crypto.Keccak256Word(data))
}

// sliceData returns size bytes of data starting at start, zero-padded past
// the end. A start beyond the data yields all zeros. Callers bound size.
func sliceData(data []byte, start types.Word, size uint64) []byte {
	out := make([]byte, size)
	copy(out, dataTail(data, start))
	return out
}

// dataTail returns data from start onwards, or nil when start lies past the
// end.
func dataTail(data []byte, start types.Word) []byte {
	s, ok := start.Uint64()
	if !ok || s >= uint64(len(data)) {
		return nil
	}
	return data[s:]
}

// copyToMemory pops (memOffset, dataOffset, size) and copies the selected
// slice of src into memory.
func copyToMemory(f *Frame, src []byte) error {
	args, err := f.Stack.PopN(3)
	if err != nil {
		return err
	}
	return copyRegion(f, args[0], args[1], args[2], src)
}

// copyRegion writes size bytes of src from dataOff into memory at memOff,
// zero-padded. Memory is extended, and its limit checked, before any byte
// is copied.
func copyRegion(f *Frame, memOff, dataOff, size types.Word, src []byte) error {
	off, n, err := memRange(memOff, size)
	if err != nil || n == 0 {
		return err
	}
	return f.Memory.WritePadded(off, n, dataTail(src, dataOff))
}
