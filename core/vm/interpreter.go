package vm

import (
	"context"
	"errors"

	"github.com/eth2030/evmsim/core/vmerr"
	"github.com/eth2030/evmsim/metrics"
)

// ctxCheckInterval is how many steps run between context cancellation
// checks.
const ctxCheckInterval = 1024

// run interprets f until it halts or fails. A failure is returned as a
// *RunError locating the failing step within f.
func (evm *EVM) run(f *Frame) error {
	ops := evm.metrics.Counter(metrics.VMOpsExecuted)
	for f.PC < uint64(len(f.Code)) {
		pc := f.PC
		op := OpCode(f.Code[pc])
		evm.opCount++
		ops.Inc()

		if evm.opCount%ctxCheckInterval == 0 && evm.ctx != nil {
			if err := evm.ctx.Err(); err != nil {
				return evm.stepError(pc, op, err)
			}
		}

		operation := evm.table[op]
		if t := evm.config.Tracer; t != nil {
			t.CaptureState(pc, op, f.Gas, operation.gas, f.Depth, f.Stack)
		}
		if operation.execute == nil {
			return evm.stepError(pc, op, operation.undefined(op))
		}

		sLen := f.Stack.Len()
		if sLen < operation.minStack {
			return evm.stepError(pc, op, vmerr.ErrStackUnderflow)
		}
		if sLen > operation.maxStack {
			return evm.stepError(pc, op, vmerr.ErrStackOverflow)
		}
		if err := charge(evm.config.GasMode, &f.Gas, operation.gas); err != nil {
			return evm.stepError(pc, op, err)
		}

		if err := operation.execute(evm, f); err != nil {
			return evm.stepError(pc, op, err)
		}
		if operation.halts {
			return nil
		}
		if !operation.jumps {
			f.PC++
		}
	}
	return nil
}

// stepError locates err at the failing step. An error that already
// carries a location from a nested frame passes through unchanged.
func (evm *EVM) stepError(pc uint64, op OpCode, err error) error {
	var re *RunError
	if errors.As(err, &re) {
		return err
	}
	return &RunError{PC: pc, Op: op, Err: err, OpCount: evm.opCount}
}

// abortsInvocation reports whether err from a nested frame must stop the
// whole invocation instead of failing only the call that opened the frame.
func abortsInvocation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// halt ends f successfully with the given output.
func (f *Frame) halt(output []byte) {
	f.ReturnData = output
	f.PC = uint64(len(f.Code))
}
