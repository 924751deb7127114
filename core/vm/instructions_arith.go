package vm

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/evmsim/core/types"
)

func pushUint(f *Frame, v *uint256.Int) error {
	return f.Stack.Push(types.WordFromUint256(v))
}

func pushBool(f *Frame, b bool) error {
	if b {
		return f.Stack.Push(types.Uint64ToWord(1))
	}
	return f.Stack.Push(types.Word{})
}

// binary pops a (top) then b and pushes fn(a, b).
func binary(f *Frame, fn func(z, a, b *uint256.Int) *uint256.Int) error {
	a, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	b, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return pushUint(f, fn(new(uint256.Int), a.Uint256(), b.Uint256()))
}

// ternary pops a, b then n and pushes fn(a, b, n).
func ternary(f *Frame, fn func(z, a, b, n *uint256.Int) *uint256.Int) error {
	args, err := f.Stack.PopN(3)
	if err != nil {
		return err
	}
	return pushUint(f, fn(new(uint256.Int), args[0].Uint256(), args[1].Uint256(), args[2].Uint256()))
}

func compare(f *Frame, fn func(a, b *uint256.Int) bool) error {
	a, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	b, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return pushBool(f, fn(a.Uint256(), b.Uint256()))
}

func opAdd(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Add) }
func opMul(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Mul) }
func opSub(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Sub) }
func opDiv(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Div) }
func opSdiv(evm *EVM, f *Frame) error { return binary(f, (*uint256.Int).SDiv) }
func opMod(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Mod) }
func opSmod(evm *EVM, f *Frame) error { return binary(f, (*uint256.Int).SMod) }
func opExp(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Exp) }

func opAddmod(evm *EVM, f *Frame) error { return ternary(f, (*uint256.Int).AddMod) }
func opMulmod(evm *EVM, f *Frame) error { return ternary(f, (*uint256.Int).MulMod) }

// opSignExtend extends the sign of the (back+1)-byte value num. A back of
// 31 or more leaves num unchanged.
func opSignExtend(evm *EVM, f *Frame) error {
	args, err := f.Stack.PopN(2)
	if err != nil {
		return err
	}
	back, num := args[0], args[1]
	b, ok := back.Uint64()
	if !ok || b >= types.WordLength-1 {
		return f.Stack.Push(num)
	}
	low := num[types.WordLength-1-int(b):]
	if low[0]&0x80 != 0 {
		return f.Stack.Push(types.BytesToWordOnes(low))
	}
	return f.Stack.Push(types.BytesToWord(low))
}

func opLt(evm *EVM, f *Frame) error  { return compare(f, (*uint256.Int).Lt) }
func opGt(evm *EVM, f *Frame) error  { return compare(f, (*uint256.Int).Gt) }
func opSlt(evm *EVM, f *Frame) error { return compare(f, (*uint256.Int).Slt) }
func opSgt(evm *EVM, f *Frame) error { return compare(f, (*uint256.Int).Sgt) }
func opEq(evm *EVM, f *Frame) error  { return compare(f, (*uint256.Int).Eq) }

func opIszero(evm *EVM, f *Frame) error {
	a, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return pushBool(f, a.IsZero())
}

func opAnd(evm *EVM, f *Frame) error { return binary(f, (*uint256.Int).And) }
func opOr(evm *EVM, f *Frame) error  { return binary(f, (*uint256.Int).Or) }
func opXor(evm *EVM, f *Frame) error { return binary(f, (*uint256.Int).Xor) }

func opNot(evm *EVM, f *Frame) error {
	a, err := f.Stack.Pop()
	if err != nil {
		return err
	}
	return pushUint(f, new(uint256.Int).Not(a.Uint256()))
}

// opByte pushes the i-th most significant byte of x, or 0 for i >= 32.
func opByte(evm *EVM, f *Frame) error {
	return binary(f, func(z, i, x *uint256.Int) *uint256.Int {
		return z.Set(x).Byte(i)
	})
}

func opSHL(evm *EVM, f *Frame) error {
	return binary(f, func(z, shift, value *uint256.Int) *uint256.Int {
		if !shift.LtUint64(256) {
			return z.Clear()
		}
		return z.Lsh(value, uint(shift.Uint64()))
	})
}

func opSHR(evm *EVM, f *Frame) error {
	return binary(f, func(z, shift, value *uint256.Int) *uint256.Int {
		if !shift.LtUint64(256) {
			return z.Clear()
		}
		return z.Rsh(value, uint(shift.Uint64()))
	})
}

func opSAR(evm *EVM, f *Frame) error {
	return binary(f, func(z, shift, value *uint256.Int) *uint256.Int {
		if shift.GtUint64(255) {
			if value.Sign() >= 0 {
				return z.Clear()
			}
			return z.SetAllOne()
		}
		return z.SRsh(value, uint(shift.Uint64()))
	})
}
