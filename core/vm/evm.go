// Package vm implements the stack-machine interpreter: the jump-table
// dispatch loop, the operand stack and linear memory of each frame, and the
// nested call/create protocol over a shared state.WorldState.
package vm

import (
	"context"
	"fmt"

	"github.com/eth2030/evmsim/core/state"
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
	"github.com/eth2030/evmsim/log"
	"github.com/eth2030/evmsim/metrics"
)

// DefaultMaxCallDepth bounds how deeply frames may nest below the top-level
// invocation.
const DefaultMaxCallDepth = 1024

// DefaultAddress is the execution address used when a Message names none.
var DefaultAddress = types.RepeatAddress(0x5f)

// Config holds interpreter options.
type Config struct {
	// MaxCallDepth is the deepest nesting allowed. A call beyond it fails
	// and pushes 0 at the call site.
	MaxCallDepth int
	GasMode      GasMode
	// AtomicRevert rolls back every world state change made by a frame that
	// ends in error. When unset, changes made before the failure persist.
	AtomicRevert bool
	MemoryLimit  uint64
	Tracer       Tracer
	Logger       *log.Logger
	Metrics      *metrics.Registry
}

// BlockContext is the block environment visible to the block opcodes.
type BlockContext struct {
	Coinbase   types.Address
	Timestamp  uint64
	Number     types.Word
	Difficulty types.Word
	GasLimit   uint64
	ChainID    uint64
	BaseFee    types.Word
	GasPrice   types.Word
}

// DefaultBlockContext returns the simulated block used when the caller does
// not supply one.
func DefaultBlockContext() BlockContext {
	return BlockContext{
		Coinbase:   types.RepeatAddress(0xc0),
		Number:     types.Uint64ToWord(0xffffffff),
		Difficulty: types.Uint64ToWord(0x4545454545454545),
		GasLimit:   DefaultGas,
		ChainID:    1,
		BaseFee:    types.Uint64ToWord(0x0a),
	}
}

// Message describes one top-level invocation.
type Message struct {
	Caller  types.Address
	Origin  types.Address // defaults to Caller
	Address types.Address // defaults to DefaultAddress
	Value   types.Word
	Gas     uint64 // defaults to DefaultGas
	Data    []byte
	Code    []byte
}

// Result is the read-only outcome of a top-level invocation. It is returned
// alongside a *RunError when execution fails so the final frame can still be
// inspected.
type Result struct {
	Stack      []types.Word // top first
	Memory     []types.Word // 32-byte chunks
	ReturnData []byte
	OpCount    uint64
	GasLeft    uint64
	Logs       []types.LogEntry
}

// RunError reports where a frame stopped with an error.
type RunError struct {
	PC      uint64
	Op      OpCode
	Err     error
	OpCount uint64
}

func (e *RunError) Error() string {
	return fmt.Sprintf("pc=%d op=%s opcount=%d: %v", e.PC, e.Op, e.OpCount, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Kind returns the error kind of the underlying failure.
func (e *RunError) Kind() vmerr.Kind { return vmerr.KindOf(e.Err) }

// EVM interprets bytecode against a world state. An EVM runs one
// invocation at a time.
type EVM struct {
	Block BlockContext
	State *state.WorldState

	config  Config
	table   *JumpTable
	frames  *FrameStack
	origin  types.Address
	opCount uint64
	log     *log.Logger
	metrics *metrics.Registry

	// ctx is the context of the invocation in progress.
	ctx context.Context
}

// NewEVM creates an interpreter over st.
func NewEVM(st *state.WorldState, block BlockContext, cfg Config) *EVM {
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = DefaultMemoryLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.DefaultRegistry
	}
	return &EVM{
		Block:   block,
		State:   st,
		config:  cfg,
		table:   newJumpTable(),
		log:     cfg.Logger.Module("vm"),
		metrics: cfg.Metrics,
	}
}

// Config returns the interpreter configuration.
func (evm *EVM) Config() Config { return evm.config }

// Depth returns the current number of active frames.
func (evm *EVM) Depth() int {
	if evm.frames == nil {
		return 0
	}
	return evm.frames.Depth()
}

// Execute runs msg.Code at msg.Address. The code is first stored at that
// address. The world state is locked for the whole invocation.
func (evm *EVM) Execute(ctx context.Context, msg Message) (*Result, error) {
	if len(msg.Code) == 0 {
		return nil, &RunError{Op: STOP, Err: vmerr.ErrEmptyBytecode}
	}
	if msg.Address.IsZero() {
		msg.Address = DefaultAddress
	}
	if msg.Origin.IsZero() {
		msg.Origin = msg.Caller
	}
	if msg.Gas == 0 {
		msg.Gas = DefaultGas
	}

	evm.State.Lock()
	defer evm.State.Unlock()

	evm.ctx = ctx
	evm.origin = msg.Origin
	evm.opCount = 0
	evm.frames = NewFrameStack(evm.config.MaxCallDepth)
	defer func() { evm.ctx = nil }()

	if _, err := evm.State.PutCodeAt(msg.Address, msg.Code); err != nil {
		return nil, &RunError{Op: OpCode(msg.Code[0]), Err: err}
	}

	f := newFrame(FrameTop, msg.Code, msg.Gas, evm.config.MemoryLimit)
	f.Caller = msg.Caller
	f.Address = msg.Address
	f.Value = msg.Value
	f.Input = append([]byte(nil), msg.Data...)
	f.snapshot = evm.State.Snapshot()
	if err := evm.frames.Push(f); err != nil {
		return nil, err
	}

	if t := evm.config.Tracer; t != nil {
		t.CaptureStart(msg.Caller, msg.Address, msg.Data, msg.Gas, msg.Value)
	}
	evm.log.Debug("execute", "address", msg.Address.Hex(), "caller", msg.Caller.Hex(), "codeSize", len(msg.Code), "gas", msg.Gas)

	timer := metrics.NewTimer(evm.metrics.Histogram(metrics.VMExecutionTime))
	err := evm.run(f)
	timer.Stop()
	evm.frames.Pop()

	if err != nil && evm.config.AtomicRevert {
		evm.State.RevertToSnapshot(f.snapshot)
	}
	evm.State.Commit()

	if t := evm.config.Tracer; t != nil {
		t.CaptureEnd(f.ReturnData, msg.Gas-f.Gas, err)
	}

	res := &Result{
		Stack:      f.Stack.Items(),
		Memory:     f.Memory.Chunks(),
		ReturnData: append([]byte(nil), f.ReturnData...),
		OpCount:    evm.opCount,
		GasLeft:    f.Gas,
		Logs:       evm.State.Logs(),
	}
	if err != nil {
		if vmerr.IsRevert(err) {
			evm.metrics.Counter(metrics.VMReverts).Inc()
		}
		evm.log.Warn("execution failed", "err", err)
		return res, err
	}
	return res, nil
}
