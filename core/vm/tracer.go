package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/log"
)

// Tracer observes an invocation step by step. Hooks are called
// synchronously from the interpreter loop.
type Tracer interface {
	// CaptureStart is called once before the top-level frame runs.
	CaptureStart(from, to types.Address, input []byte, gas uint64, value types.Word)
	// CaptureState is called before each instruction is executed.
	CaptureState(pc uint64, op OpCode, gas, cost uint64, depth int, stack *Stack)
	// CaptureEnter is called when a nested frame is opened.
	CaptureEnter(kind FrameKind, from, to types.Address, input []byte, gas uint64, value types.Word)
	// CaptureExit is called when a nested frame returns.
	CaptureExit(output []byte, gasUsed uint64, err error)
	// CaptureEnd is called once after the top-level frame finishes.
	CaptureEnd(output []byte, gasUsed uint64, err error)
}

// StructLogEntry is a single step recorded by StructLogger.
type StructLogEntry struct {
	Pc      uint64       `json:"pc"`
	Op      OpCode       `json:"-"`
	OpName  string       `json:"op"`
	Gas     uint64       `json:"gas"`
	GasCost uint64       `json:"gasCost"`
	Depth   int          `json:"depth"`
	Stack   []types.Word `json:"stack,omitempty"`
}

// CallEvent records a frame being entered or exited.
type CallEvent struct {
	Type    string        `json:"type"` // "enter" or "exit"
	Kind    string        `json:"kind,omitempty"`
	From    types.Address `json:"from,omitempty"`
	To      types.Address `json:"to,omitempty"`
	Gas     uint64        `json:"gas,omitempty"`
	Value   types.Word    `json:"value,omitempty"`
	Input   string        `json:"input,omitempty"`
	Output  string        `json:"output,omitempty"`
	GasUsed uint64        `json:"gasUsed,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// StructLogger collects every step and call event in memory. When a writer
// is attached each record is also streamed to it as a JSON line.
type StructLogger struct {
	Logs  []StructLogEntry
	Calls []CallEvent

	// MaxStack limits the number of stack items captured per step,
	// top first. Zero captures the whole stack.
	MaxStack int

	output  []byte
	err     error
	gasUsed uint64
	writer  io.Writer
}

// NewStructLogger returns an empty StructLogger.
func NewStructLogger() *StructLogger {
	return &StructLogger{}
}

// NewStreamingStructLogger returns a StructLogger that also writes each
// record to w.
func NewStreamingStructLogger(w io.Writer) *StructLogger {
	return &StructLogger{writer: w}
}

func (t *StructLogger) CaptureStart(from, to types.Address, input []byte, gas uint64, value types.Word) {
	t.Logs = t.Logs[:0]
	t.Calls = t.Calls[:0]
	t.output, t.err, t.gasUsed = nil, nil, 0
	t.enter(CallEvent{Type: "enter", Kind: FrameTop.String(), From: from, To: to, Gas: gas, Value: value, Input: fmt.Sprintf("%x", input)})
}

func (t *StructLogger) CaptureState(pc uint64, op OpCode, gas, cost uint64, depth int, stack *Stack) {
	items := stack.Items()
	if t.MaxStack > 0 && len(items) > t.MaxStack {
		items = items[:t.MaxStack]
	}
	entry := StructLogEntry{
		Pc:      pc,
		Op:      op,
		OpName:  op.String(),
		Gas:     gas,
		GasCost: cost,
		Depth:   depth,
		Stack:   items,
	}
	t.Logs = append(t.Logs, entry)
	if t.writer != nil {
		t.writeJSON(entry)
	}
}

func (t *StructLogger) CaptureEnter(kind FrameKind, from, to types.Address, input []byte, gas uint64, value types.Word) {
	t.enter(CallEvent{Type: "enter", Kind: kind.String(), From: from, To: to, Gas: gas, Value: value, Input: fmt.Sprintf("%x", input)})
}

func (t *StructLogger) CaptureExit(output []byte, gasUsed uint64, err error) {
	t.exit(output, gasUsed, err)
}

func (t *StructLogger) CaptureEnd(output []byte, gasUsed uint64, err error) {
	t.output = append([]byte(nil), output...)
	t.gasUsed = gasUsed
	t.err = err
	t.exit(output, gasUsed, err)
}

func (t *StructLogger) enter(ev CallEvent) {
	t.Calls = append(t.Calls, ev)
	if t.writer != nil {
		t.writeJSON(ev)
	}
}

func (t *StructLogger) exit(output []byte, gasUsed uint64, err error) {
	ev := CallEvent{Type: "exit", Output: fmt.Sprintf("%x", output), GasUsed: gasUsed}
	if err != nil {
		ev.Error = err.Error()
	}
	t.enter(ev)
}

func (t *StructLogger) writeJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = t.writer.Write(data)
}

// Output returns the top-level return data of the traced invocation.
func (t *StructLogger) Output() []byte { return t.output }

// Error returns the top-level error of the traced invocation.
func (t *StructLogger) Error() error { return t.err }

// GasUsed returns the gas consumed by the top-level frame.
func (t *StructLogger) GasUsed() uint64 { return t.gasUsed }

// FormatTrace renders the captured steps one per line.
func (t *StructLogger) FormatTrace() string {
	var b strings.Builder
	for i, step := range t.Logs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-5d %-14s gas=%-10d cost=%-6d depth=%d", step.Pc, step.OpName, step.Gas, step.GasCost, step.Depth)
		if len(step.Stack) > 0 {
			b.WriteString("  stack=[")
			for j, w := range step.Stack {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(w.Hex())
			}
			b.WriteByte(']')
		}
	}
	return b.String()
}

// LogTracer reports steps and frame transitions through a structured
// logger at debug level.
type LogTracer struct {
	log *log.Logger
}

// NewLogTracer returns a tracer writing to l.
func NewLogTracer(l *log.Logger) *LogTracer {
	return &LogTracer{log: l.Module("trace")}
}

func (t *LogTracer) CaptureStart(from, to types.Address, input []byte, gas uint64, value types.Word) {
	t.log.Debug("start", "from", from.Hex(), "to", to.Hex(), "inputSize", len(input), "gas", gas, "value", value.Hex())
}

func (t *LogTracer) CaptureState(pc uint64, op OpCode, gas, cost uint64, depth int, stack *Stack) {
	t.log.Debug("step", "pc", pc, "op", op.String(), "gas", gas, "cost", cost, "depth", depth, "stack", stack.Len())
}

func (t *LogTracer) CaptureEnter(kind FrameKind, from, to types.Address, input []byte, gas uint64, value types.Word) {
	t.log.Debug("enter", "kind", kind.String(), "from", from.Hex(), "to", to.Hex(), "inputSize", len(input), "gas", gas)
}

func (t *LogTracer) CaptureExit(output []byte, gasUsed uint64, err error) {
	t.log.Debug("exit", "outputSize", len(output), "gasUsed", gasUsed, "err", err)
}

func (t *LogTracer) CaptureEnd(output []byte, gasUsed uint64, err error) {
	t.log.Debug("end", "outputSize", len(output), "gasUsed", gasUsed, "err", err)
}
