package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
	"github.com/eth2030/evmsim/crypto"
	"github.com/eth2030/evmsim/metrics"
)

// callParams describes the frame a call-family instruction opens.
type callParams struct {
	kind     FrameKind
	caller   types.Address
	address  types.Address // storage and balance context of the callee
	codeAddr types.Address // account whose code runs; ignored for creates
	code     []byte        // init code for creates
	value    types.Word
	input    []byte
	gas      uint64
}

// enter runs a nested frame and returns its output together with its
// failure, if any. The caller's frame is left exactly as it was: it stays
// on the frame stack below the callee and is never touched by it.
func (evm *EVM) enter(parent *Frame, p callParams) ([]byte, error) {
	if !evm.frames.CanPush() {
		return nil, vmerr.ErrCallDepthExceeded
	}
	code := p.code
	if !p.kind.IsCreate() {
		code = evm.State.Code(p.codeAddr)
	}

	child := newFrame(p.kind, code, p.gas, evm.config.MemoryLimit)
	child.Caller = p.caller
	child.Address = p.address
	child.Value = p.value
	child.Input = p.input
	child.snapshot = evm.State.Snapshot()
	if p.kind == FrameStaticCall {
		child.prevStatic = evm.State.SetStaticMode(true)
	}
	if err := evm.frames.Push(child); err != nil {
		return nil, err
	}

	depth := evm.metrics.Gauge(metrics.VMCallDepth)
	depth.Inc()
	evm.metrics.Counter(metrics.VMCalls).Inc()
	if t := evm.config.Tracer; t != nil {
		t.CaptureEnter(p.kind, p.caller, p.address, p.input, p.gas, p.value)
	}
	evm.log.Debug("frame enter", "kind", p.kind, "depth", child.Depth, "address", p.address.Hex(), "codeSize", len(code))

	var err error
	if len(code) > 0 {
		err = evm.run(child)
	}

	evm.frames.Pop()
	depth.Dec()
	if p.kind == FrameStaticCall {
		evm.State.SetStaticMode(child.prevStatic)
	}
	if err != nil {
		evm.metrics.Counter(metrics.VMCallsFailed).Inc()
		if vmerr.IsRevert(err) {
			evm.metrics.Counter(metrics.VMReverts).Inc()
		}
		if evm.config.AtomicRevert {
			evm.State.RevertToSnapshot(child.snapshot)
		}
	}

	used := p.gas - child.Gas
	if evm.config.GasMode == GasMetered {
		if used > parent.Gas {
			used = parent.Gas
		}
		parent.Gas -= used
	}
	if t := evm.config.Tracer; t != nil {
		t.CaptureExit(child.ReturnData, used, err)
	}
	evm.log.Debug("frame exit", "kind", p.kind, "depth", child.Depth, "err", err)
	return child.ReturnData, err
}

// forwardGas caps a requested gas operand at what the caller has left.
func forwardGas(f *Frame, requested types.Word) uint64 {
	g, ok := requested.Uint64()
	if !ok || g > f.Gas {
		return f.Gas
	}
	return g
}

// finishCall completes the call protocol in the caller's frame: the
// callee's output becomes the caller's return data and the caller's nonce
// advances. The success flag is pushed last.
func (evm *EVM) finishCall(f *Frame, output []byte, callErr error) error {
	f.ReturnData = output
	if err := evm.State.IncrementNonce(f.Address); err != nil {
		return err
	}
	return pushBool(f, callErr == nil)
}

// callArgs are the stack operands shared by the call family.
type callArgs struct {
	gas     types.Word
	to      types.Address
	value   types.Word
	inOff   types.Word
	inSize  types.Word
	retOff  types.Word
	retSize types.Word
}

func popCallArgs(f *Frame, withValue bool) (callArgs, error) {
	n := 6
	if withValue {
		n = 7
	}
	w, err := f.Stack.PopN(n)
	if err != nil {
		return callArgs{}, err
	}
	a := callArgs{gas: w[0], to: w[1].Address()}
	rest := w[2:]
	if withValue {
		a.value, rest = w[2], w[3:]
	}
	a.inOff, a.inSize, a.retOff, a.retSize = rest[0], rest[1], rest[2], rest[3]
	return a, nil
}

// callInput reads the input region from memory.
func callInput(f *Frame, a callArgs) ([]byte, error) {
	off, size, err := memRange(a.inOff, a.inSize)
	if err != nil {
		return nil, err
	}
	return f.Memory.Read(off, size)
}

// writeOutput copies output into the return region, truncated or
// zero-padded to its size.
func writeOutput(f *Frame, a callArgs, output []byte) error {
	off, size, err := memRange(a.retOff, a.retSize)
	if err != nil {
		return err
	}
	return f.Memory.WritePadded(off, size, output)
}

func (evm *EVM) doCall(f *Frame, kind FrameKind) error {
	withValue := kind == FrameCall || kind == FrameCallCode
	a, err := popCallArgs(f, withValue)
	if err != nil {
		return err
	}
	if withValue && !a.value.IsZero() && evm.State.StaticMode() {
		return vmerr.ErrStaticStateChange
	}
	input, err := callInput(f, a)
	if err != nil {
		return err
	}

	p := callParams{
		kind:     kind,
		codeAddr: a.to,
		input:    input,
		gas:      forwardGas(f, a.gas),
	}
	switch kind {
	case FrameCall:
		p.caller, p.address, p.value = f.Address, a.to, a.value
	case FrameStaticCall:
		p.caller, p.address = f.Address, a.to
	case FrameCallCode:
		p.caller, p.address, p.value = f.Caller, f.Address, a.value
	case FrameDelegateCall:
		p.caller, p.address, p.value = f.Caller, f.Address, f.Value
	}

	output, callErr := evm.enter(f, p)
	if abortsInvocation(callErr) {
		return callErr
	}
	if err := evm.finishCall(f, output, callErr); err != nil {
		return err
	}
	if err := writeOutput(f, a, output); err != nil {
		return err
	}
	if kind == FrameCall && callErr == nil && !a.value.IsZero() {
		evm.State.InitAccount(a.to)
		return evm.State.Transfer(f.Address, a.to, a.value)
	}
	return nil
}

func opCall(evm *EVM, f *Frame) error         { return evm.doCall(f, FrameCall) }
func opCallCode(evm *EVM, f *Frame) error     { return evm.doCall(f, FrameCallCode) }
func opDelegateCall(evm *EVM, f *Frame) error { return evm.doCall(f, FrameDelegateCall) }
func opStaticCall(evm *EVM, f *Frame) error   { return evm.doCall(f, FrameStaticCall) }

func opCreate(evm *EVM, f *Frame) error {
	value, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	initCode, err := readRegion(f)
	if err != nil {
		return err
	}
	addr := crypto.CreateAddress(f.Address, evm.State.Nonce(f.Address))
	return evm.create(f, FrameCreate, addr, initCode, value)
}

func opCreate2(evm *EVM, f *Frame) error {
	value, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	initCode, err := readRegion(f)
	if err != nil {
		return err
	}
	salt, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	addr := crypto.CreateAddress2(f.Address, salt, crypto.Keccak256(initCode))
	return evm.create(f, FrameCreate2, addr, initCode, value)
}

// create deploys initCode at addr. The init code runs as a nested frame
// with empty input; on success its output becomes the account's code and
// the new address is pushed, otherwise 0 is pushed. Unless addr already
// holds code, the value moves to the new account whether or not the
// constructor succeeded. With atomic revert a failed constructor leaves no
// account behind, so nothing moves.
func (evm *EVM) create(f *Frame, kind FrameKind, addr types.Address, initCode []byte, value types.Word) error {
	if evm.State.StaticMode() {
		return vmerr.ErrStaticStateChange
	}
	evm.metrics.Counter(metrics.VMCreates).Inc()

	var (
		output  []byte
		initErr error
	)
	collision := !evm.State.CodeHash(addr).IsZero()
	if collision {
		initErr = vmerr.ErrOperationNotAllowed
		evm.log.Debug("create collision", "address", addr.Hex())
	} else {
		snapshot := evm.State.Snapshot()
		evm.State.InitAccount(addr)
		if len(initCode) > 0 {
			if _, err := evm.State.PutCodeAt(addr, initCode); err != nil {
				return err
			}
		}
		output, initErr = evm.enter(f, callParams{
			kind:    kind,
			caller:  f.Address,
			address: addr,
			code:    initCode,
			value:   value,
			gas:     f.Gas,
		})
		if abortsInvocation(initErr) {
			return initErr
		}
		if initErr != nil && evm.config.AtomicRevert {
			evm.State.RevertToSnapshot(snapshot)
		}
		if err := evm.installCode(addr, output, initErr); err != nil {
			return err
		}
	}

	f.ReturnData = output
	if err := evm.State.IncrementNonce(f.Address); err != nil {
		return err
	}
	if initErr != nil {
		if err := f.Stack.Push(types.Word{}); err != nil {
			return err
		}
	} else if err := f.Stack.Push(types.AddressToWord(addr)); err != nil {
		return err
	}
	if collision || value.IsZero() || !evm.State.Exists(addr) {
		return nil
	}
	return evm.State.Transfer(f.Address, addr, value)
}

// installCode replaces the init code at addr with the constructor output.
// A failed or empty-output constructor leaves the account without code.
func (evm *EVM) installCode(addr types.Address, output []byte, initErr error) error {
	if !evm.State.Exists(addr) {
		return nil
	}
	if initErr == nil && len(output) > 0 {
		_, err := evm.State.PutCodeAt(addr, output)
		return err
	}
	if evm.State.CodeHash(addr).IsZero() {
		return nil
	}
	return evm.State.ClearCode(addr)
}
