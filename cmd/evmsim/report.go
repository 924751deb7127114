package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/evmsim/core/state"
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vm"
)

// report is the printable outcome of one invocation.
type report struct {
	Stack      []types.Word           `json:"stack"`
	Memory     []types.Word           `json:"memory"`
	ReturnData hexutil.Bytes          `json:"returnData"`
	Logs       []logView              `json:"logs"`
	Accounts   []state.AccountView    `json:"accounts"`
	OpCount    uint64                 `json:"opCount"`
	GasLeft    uint64                 `json:"gasLeft"`
	Error      *errorReport           `json:"error,omitempty"`
	Trace      []vm.StructLogEntry    `json:"trace,omitempty"`
	Metrics    map[string]interface{} `json:"metrics,omitempty"`
}

type logView struct {
	Address types.Address `json:"address"`
	Topics  []types.Word  `json:"topics"`
	Data    hexutil.Bytes `json:"data"`
}

// errorReport locates a failed invocation.
type errorReport struct {
	PC      uint64 `json:"pc"`
	Op      string `json:"op"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	OpCount uint64 `json:"opCount"`
}

func newReport(res *vm.Result, st *state.WorldState, runErr error, tracer *vm.StructLogger) *report {
	rep := &report{
		Stack:    []types.Word{},
		Memory:   []types.Word{},
		Logs:     []logView{},
		Accounts: st.Accounts(),
	}
	if res != nil {
		rep.Stack = res.Stack
		rep.Memory = res.Memory
		rep.ReturnData = res.ReturnData
		rep.OpCount = res.OpCount
		rep.GasLeft = res.GasLeft
		for _, l := range res.Logs {
			rep.Logs = append(rep.Logs, logView{Address: l.Address, Topics: l.Topics, Data: l.Data})
		}
	}
	if tracer != nil {
		rep.Trace = tracer.Logs
	}
	if runErr != nil {
		rep.Error = &errorReport{Message: runErr.Error()}
		var re *vm.RunError
		if errors.As(runErr, &re) {
			rep.Error.PC = re.PC
			rep.Error.Op = re.Op.String()
			rep.Error.Kind = re.Kind().String()
			rep.Error.OpCount = re.OpCount
			rep.Error.Message = re.Err.Error()
		}
	}
	return rep
}

func (r *report) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (r *report) writeText(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Stack (top first, signed decimal):\n")
	for i, v := range r.Stack {
		fmt.Fprintf(&b, "  %4d: %s  %s\n", i, v.Hex(), v.Signed().String())
	}
	b.WriteString("Memory:\n")
	for i, v := range r.Memory {
		fmt.Fprintf(&b, "  0x%04x: %s\n", i*types.WordLength, v.Hex())
	}
	fmt.Fprintf(&b, "Return data: %s\n", r.ReturnData)
	if len(r.Logs) > 0 {
		b.WriteString("Logs:\n")
		for i, l := range r.Logs {
			topics := make([]string, len(l.Topics))
			for j, t := range l.Topics {
				topics[j] = t.Hex()
			}
			fmt.Fprintf(&b, "  %d: address=%s topics=[%s] data=%s\n", i, l.Address.Hex(), strings.Join(topics, ", "), l.Data)
		}
	}
	b.WriteString("Accounts:\n")
	for _, a := range r.Accounts {
		fmt.Fprintf(&b, "  %s nonce=%d balance=%s codeHash=%s\n", a.Address.Hex(), a.Nonce, a.Balance.Uint256().Dec(), a.CodeHash.Hex())
		for _, s := range a.Storage {
			fmt.Fprintf(&b, "    %s = %s\n", s.Slot.Hex(), s.Value.Hex())
		}
	}
	fmt.Fprintf(&b, "Ops executed: %d\n", r.OpCount)
	fmt.Fprintf(&b, "Gas left: %d\n", r.GasLeft)

	if len(r.Trace) > 0 {
		b.WriteString("Trace:\n")
		t := &vm.StructLogger{Logs: r.Trace}
		b.WriteString(t.FormatTrace())
		b.WriteByte('\n')
	}
	if len(r.Metrics) > 0 {
		b.WriteString("Metrics:\n")
		data, err := json.MarshalIndent(r.Metrics, "  ", "  ")
		if err != nil {
			return err
		}
		b.WriteString("  ")
		b.Write(data)
		b.WriteByte('\n')
	}
	if e := r.Error; e != nil {
		if e.Op != "" {
			fmt.Fprintf(&b, "Error: %s at pc=%d op=%s kind=%s opcount=%d\n", e.Message, e.PC, e.Op, e.Kind, e.OpCount)
		} else {
			fmt.Fprintf(&b, "Error: %s\n", e.Message)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
