package vm

import "github.com/eth2030/evmsim/core/vmerr"

// executionFunc runs one instruction against the current frame.
type executionFunc func(evm *EVM, f *Frame) error

// operation is the jump table entry for one opcode byte.
type operation struct {
	execute  executionFunc
	gas      uint64
	minStack int // minimum stack items required
	maxStack int // maximum stack items allowed before execution
	halts    bool
	jumps    bool // handler sets pc itself

	// notImplemented marks recognized opcodes the interpreter does not
	// model; they fail with a not-implemented error instead of an
	// invalid-opcode error.
	notImplemented bool
}

// undefined returns the error raised by an entry with no handler.
func (o *operation) undefined(op OpCode) error {
	if o.notImplemented {
		return vmerr.NotImplemented(byte(op))
	}
	return vmerr.InvalidOpcode(byte(op))
}

// JumpTable maps every opcode byte to its operation.
type JumpTable [256]*operation

func minStack(pops, pushes int) int { return pops }

func maxStack(pops, pushes int) int { return StackLimit + pops - pushes }

func newOp(exec executionFunc, gas uint64, pops, pushes int) *operation {
	return &operation{
		execute:  exec,
		gas:      gas,
		minStack: minStack(pops, pushes),
		maxStack: maxStack(pops, pushes),
	}
}

// newJumpTable builds the instruction set. Every byte without a handler
// maps to an entry that raises invalid-opcode.
func newJumpTable() *JumpTable {
	var jt JumpTable

	jt[STOP] = &operation{execute: opStop, maxStack: StackLimit, halts: true}
	jt[ADD] = newOp(opAdd, GasFastestStep, 2, 1)
	jt[MUL] = newOp(opMul, GasFastStep, 2, 1)
	jt[SUB] = newOp(opSub, GasFastestStep, 2, 1)
	jt[DIV] = newOp(opDiv, GasFastStep, 2, 1)
	jt[SDIV] = newOp(opSdiv, GasFastStep, 2, 1)
	jt[MOD] = newOp(opMod, GasFastStep, 2, 1)
	jt[SMOD] = newOp(opSmod, GasFastStep, 2, 1)
	jt[ADDMOD] = newOp(opAddmod, GasMidStep, 3, 1)
	jt[MULMOD] = newOp(opMulmod, GasMidStep, 3, 1)
	jt[EXP] = newOp(opExp, GasSlowStep, 2, 1)
	jt[SIGNEXTEND] = newOp(opSignExtend, GasFastStep, 2, 1)

	jt[LT] = newOp(opLt, GasFastestStep, 2, 1)
	jt[GT] = newOp(opGt, GasFastestStep, 2, 1)
	jt[SLT] = newOp(opSlt, GasFastestStep, 2, 1)
	jt[SGT] = newOp(opSgt, GasFastestStep, 2, 1)
	jt[EQ] = newOp(opEq, GasFastestStep, 2, 1)
	jt[ISZERO] = newOp(opIszero, GasFastestStep, 1, 1)
	jt[AND] = newOp(opAnd, GasFastestStep, 2, 1)
	jt[OR] = newOp(opOr, GasFastestStep, 2, 1)
	jt[XOR] = newOp(opXor, GasFastestStep, 2, 1)
	jt[NOT] = newOp(opNot, GasFastestStep, 1, 1)
	jt[BYTE] = newOp(opByte, GasFastestStep, 2, 1)
	jt[SHL] = newOp(opSHL, GasFastestStep, 2, 1)
	jt[SHR] = newOp(opSHR, GasFastestStep, 2, 1)
	jt[SAR] = newOp(opSAR, GasFastestStep, 2, 1)

	jt[KECCAK256] = newOp(opKeccak256, GasKeccak256, 2, 1)

	jt[ADDRESS] = newOp(opAddress, GasQuickStep, 0, 1)
	jt[BALANCE] = newOp(opBalance, GasWarmAccess, 1, 1)
	jt[ORIGIN] = newOp(opOrigin, GasQuickStep, 0, 1)
	jt[CALLER] = newOp(opCaller, GasQuickStep, 0, 1)
	jt[CALLVALUE] = newOp(opCallValue, GasQuickStep, 0, 1)
	jt[CALLDATALOAD] = newOp(opCallDataLoad, GasFastestStep, 1, 1)
	jt[CALLDATASIZE] = newOp(opCallDataSize, GasQuickStep, 0, 1)
	jt[CALLDATACOPY] = newOp(opCallDataCopy, GasFastestStep, 3, 0)
	jt[CODESIZE] = newOp(opCodeSize, GasQuickStep, 0, 1)
	jt[CODECOPY] = newOp(opCodeCopy, GasFastestStep, 3, 0)
	jt[GASPRICE] = newOp(opGasPrice, GasQuickStep, 0, 1)
	jt[EXTCODESIZE] = newOp(opExtCodeSize, GasWarmAccess, 1, 1)
	jt[EXTCODECOPY] = newOp(opExtCodeCopy, GasWarmAccess, 4, 0)
	jt[RETURNDATASIZE] = newOp(opReturnDataSize, GasQuickStep, 0, 1)
	jt[RETURNDATACOPY] = newOp(opReturnDataCopy, GasFastestStep, 3, 0)
	jt[EXTCODEHASH] = newOp(opExtCodeHash, GasWarmAccess, 1, 1)

	jt[BLOCKHASH] = newOp(opBlockhash, GasExtStep, 1, 1)
	jt[COINBASE] = newOp(opCoinbase, GasQuickStep, 0, 1)
	jt[TIMESTAMP] = newOp(opTimestamp, GasQuickStep, 0, 1)
	jt[NUMBER] = newOp(opNumber, GasQuickStep, 0, 1)
	jt[DIFFICULTY] = newOp(opDifficulty, GasQuickStep, 0, 1)
	jt[GASLIMIT] = newOp(opGasLimit, GasQuickStep, 0, 1)
	jt[CHAINID] = newOp(opChainID, GasQuickStep, 0, 1)
	jt[SELFBALANCE] = newOp(opSelfBalance, GasFastStep, 0, 1)
	jt[BASEFEE] = newOp(opBaseFee, GasQuickStep, 0, 1)

	jt[POP] = newOp(opPop, GasQuickStep, 1, 0)
	jt[MLOAD] = newOp(opMload, GasFastestStep, 1, 1)
	jt[MSTORE] = newOp(opMstore, GasFastestStep, 2, 0)
	jt[MSTORE8] = newOp(opMstore8, GasFastestStep, 2, 0)
	jt[SLOAD] = newOp(opSload, GasSload, 1, 1)
	jt[SSTORE] = newOp(opSstore, GasSstore, 2, 0)
	jt[JUMP] = newOp(opJump, GasMidStep, 1, 0)
	jt[JUMP].jumps = true
	jt[JUMPI] = newOp(opJumpi, GasSlowStep, 2, 0)
	jt[JUMPI].jumps = true
	jt[PC] = newOp(opPc, GasQuickStep, 0, 1)
	jt[MSIZE] = newOp(opMsize, GasQuickStep, 0, 1)
	jt[GAS] = newOp(opGas, GasQuickStep, 0, 1)
	jt[JUMPDEST] = newOp(opJumpdest, GasJumpDest, 0, 0)
	jt[MCOPY] = newOp(opMcopy, GasFastestStep, 3, 0)
	jt[PUSH0] = newOp(opPush0, GasQuickStep, 0, 1)

	for i := 0; i < 32; i++ {
		jt[PUSH1+OpCode(i)] = newOp(makePush(i+1), GasFastestStep, 0, 1)
	}
	for i := 1; i <= 16; i++ {
		jt[DUP1+OpCode(i-1)] = newOp(makeDup(i), GasFastestStep, i, i+1)
		jt[SWAP1+OpCode(i-1)] = newOp(makeSwap(i), GasFastestStep, i+1, i+1)
	}
	for i := 0; i <= 4; i++ {
		jt[LOG0+OpCode(i)] = newOp(makeLog(i), logGas(i), 2+i, 0)
	}

	jt[CREATE] = newOp(opCreate, GasCreate, 3, 1)
	jt[CALL] = newOp(opCall, GasCall, 7, 1)
	jt[CALLCODE] = newOp(opCallCode, GasCall, 7, 1)
	jt[RETURN] = newOp(opReturn, GasZero, 2, 0)
	jt[RETURN].halts = true
	jt[DELEGATECALL] = newOp(opDelegateCall, GasCall, 6, 1)
	jt[CREATE2] = newOp(opCreate2, GasCreate, 4, 1)
	jt[STATICCALL] = newOp(opStaticCall, GasCall, 6, 1)
	jt[REVERT] = newOp(opRevert, GasZero, 2, 0)
	jt[SELFDESTRUCT] = newOp(opSelfdestruct, GasSelfdestruct, 1, 0)
	jt[SELFDESTRUCT].halts = true

	for _, op := range []OpCode{BLOBHASH, BLOBBASEFEE, TLOAD, TSTORE} {
		jt[op] = &operation{notImplemented: true}
	}
	for i := range jt {
		if jt[i] == nil {
			jt[i] = &operation{}
		}
	}
	return &jt
}
