package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
)

// FrameKind records which instruction opened a frame.
type FrameKind uint8

const (
	FrameTop          FrameKind = iota // top-level invocation
	FrameCall                          // CALL
	FrameStaticCall                    // STATICCALL
	FrameDelegateCall                  // DELEGATECALL
	FrameCallCode                      // CALLCODE
	FrameCreate                        // CREATE
	FrameCreate2                       // CREATE2
)

// String returns the name of the instruction that opened the frame.
func (k FrameKind) String() string {
	switch k {
	case FrameTop:
		return "TOP"
	case FrameCall:
		return "CALL"
	case FrameStaticCall:
		return "STATICCALL"
	case FrameDelegateCall:
		return "DELEGATECALL"
	case FrameCallCode:
		return "CALLCODE"
	case FrameCreate:
		return "CREATE"
	case FrameCreate2:
		return "CREATE2"
	default:
		return "UNKNOWN"
	}
}

// IsCreate reports whether the frame runs init code.
func (k FrameKind) IsCreate() bool {
	return k == FrameCreate || k == FrameCreate2
}

// Frame is the complete mutable execution state of one call. A nested call
// pushes a fresh Frame; the caller's Frame sits untouched below it until the
// callee is popped.
type Frame struct {
	Kind       FrameKind
	Caller     types.Address
	Address    types.Address // storage and balance context
	Value      types.Word
	Input      []byte
	ReturnData []byte // output of the most recent completed sub-call, or this frame's own output once halted
	Code       []byte
	PC         uint64
	Gas        uint64
	Stack      *Stack
	Memory     *Memory
	Depth      int

	snapshot   int
	prevStatic bool
	jumpdests  map[uint64]bool
}

func newFrame(kind FrameKind, code []byte, gas uint64, memLimit uint64) *Frame {
	return &Frame{
		Kind:     kind,
		Code:     code,
		Gas:      gas,
		Stack:    NewStack(),
		Memory:   NewMemory(memLimit),
		snapshot: -1,
	}
}

// op returns the opcode at pc, or STOP past the end.
func (f *Frame) op(pc uint64) OpCode {
	if pc < uint64(len(f.Code)) {
		return OpCode(f.Code[pc])
	}
	return STOP
}

// jumpTo validates dest and moves pc there.
func (f *Frame) jumpTo(dest types.Word) error {
	d, ok := dest.Uint64()
	if !ok || d >= uint64(len(f.Code)) {
		return vmerr.ErrBytecodeOutOfBounds
	}
	if OpCode(f.Code[d]) != JUMPDEST || !f.isCode(d) {
		return vmerr.ErrInvalidJump
	}
	f.PC = d
	return nil
}

// isCode reports whether pos holds an opcode rather than PUSH data.
func (f *Frame) isCode(pos uint64) bool {
	if f.jumpdests == nil {
		f.jumpdests = make(map[uint64]bool)
		for i := uint64(0); i < uint64(len(f.Code)); i++ {
			op := OpCode(f.Code[i])
			if op == JUMPDEST {
				f.jumpdests[i] = true
			}
			i += uint64(op.PushSize())
		}
	}
	return f.jumpdests[pos]
}

// FrameStack holds the active frames, outermost first, and enforces the
// call depth limit.
type FrameStack struct {
	frames   []*Frame
	maxDepth int
}

// NewFrameStack creates a FrameStack allowing nesting up to maxDepth below
// the top-level frame.
func NewFrameStack(maxDepth int) *FrameStack {
	return &FrameStack{
		frames:   make([]*Frame, 0, 16),
		maxDepth: maxDepth,
	}
}

// Depth returns the number of active frames.
func (fs *FrameStack) Depth() int {
	return len(fs.frames)
}

// CanPush reports whether another frame fits under the depth limit.
func (fs *FrameStack) CanPush() bool {
	return len(fs.frames) <= fs.maxDepth
}

// Push installs f as the current frame and sets its depth.
func (fs *FrameStack) Push(f *Frame) error {
	if !fs.CanPush() {
		return vmerr.ErrCallDepthExceeded
	}
	f.Depth = len(fs.frames)
	fs.frames = append(fs.frames, f)
	return nil
}

// Pop removes and returns the current frame, or nil when empty.
func (fs *FrameStack) Pop() *Frame {
	n := len(fs.frames)
	if n == 0 {
		return nil
	}
	f := fs.frames[n-1]
	fs.frames[n-1] = nil
	fs.frames = fs.frames[:n-1]
	return f
}

// Current returns the active frame, or nil when empty.
func (fs *FrameStack) Current() *Frame {
	if n := len(fs.frames); n > 0 {
		return fs.frames[n-1]
	}
	return nil
}

// Parent returns the frame below the current one, or nil.
func (fs *FrameStack) Parent() *Frame {
	if n := len(fs.frames); n > 1 {
		return fs.frames[n-2]
	}
	return nil
}
