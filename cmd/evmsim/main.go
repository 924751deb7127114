// Command evmsim runs bytecode through the stack-machine interpreter and
// prints the final stack, memory, return data, logs and accounts.
//
// Usage:
//
//	evmsim [flags]
//
// Flags:
//
//	-code       Bytecode as hex
//	-codefile   File holding the bytecode as hex
//	-calldata   Call data as hex
//	-value      Call value (decimal or 0x-prefixed hex)
//	-balance    Initial balance of the execution address
//	-caller     Caller address
//	-address    Execution address (default: 0x5f5f...5f)
//	-gas        Gas available to the top-level frame
//	-rpc        JSON-RPC endpoint for remote storage reads
//	-config     TOML configuration file
//	-verbosity  Log level 0-5 (default: 2)
//	-trace      Record a per-instruction trace
//	-atomic     Revert state changes of failed frames
//	-metered    Deduct gas instead of only checking it
//	-json       Print the report as JSON
//	-metrics    Include interpreter metrics in the report
//	-version    Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"github.com/eth2030/evmsim/core/state"
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vm"
	"github.com/eth2030/evmsim/log"
	"github.com/eth2030/evmsim/metrics"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is the actual entry point, returning an exit code. Accepts CLI
// arguments (without the program name) so it can be tested in isolation.
func run(args []string) int {
	return runWith(args, os.Stdout, os.Stderr)
}

func runWith(args []string, stdout, stderr io.Writer) int {
	opts, exit, code := parseFlags(args, stdout, stderr)
	if exit {
		return code
	}

	cfg, err := LoadConfig(opts.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	ApplyEnvironment(cfg)
	opts.applyTo(cfg)
	if err := ValidateConfig(cfg); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	msg, balance, err := opts.message(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	reg := metrics.NewRegistry()

	stOpts := []state.Option{state.WithLogger(logger), state.WithMetrics(reg)}
	if cfg.RPC.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.rpcTimeout())
		provider, err := state.DialProvider(ctx, cfg.RPC.URL, cfg.rpcTimeout())
		cancel()
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		defer provider.Close()
		stOpts = append(stOpts, state.WithProvider(provider))
	}
	st := state.New(stOpts...)
	if st.HasProvider() {
		logger.Info("Remote storage enabled", "url", cfg.RPC.URL)
	}
	if !balance.IsZero() {
		addr := msg.Address
		if addr.IsZero() {
			addr = vm.DefaultAddress
		}
		st.SetBalance(addr, balance)
		st.Commit()
	}

	vmCfg := cfg.vmConfig()
	vmCfg.Logger = logger
	vmCfg.Metrics = reg
	var tracer *vm.StructLogger
	if opts.trace {
		tracer = vm.NewStructLogger()
		vmCfg.Tracer = tracer
	}
	evm := vm.NewEVM(st, cfg.blockContext(), vmCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := evm.Execute(ctx, msg)
	rep := newReport(res, st, runErr, tracer)
	if opts.showMetrics {
		rep.Metrics = reg.Snapshot()
	}

	if opts.json {
		err = rep.writeJSON(stdout)
	} else {
		err = rep.writeText(stdout)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if runErr != nil {
		return 1
	}
	return 0
}

// options holds the raw command-line values.
type options struct {
	code       string
	codeFile   string
	calldata   string
	value      string
	balance    string
	caller     string
	address    string
	gas        uint64
	rpc        string
	configFile string
	verbosity  int

	trace       bool
	atomic      bool
	metered     bool
	json        bool
	showMetrics bool

	fs *flagSet
}

// parseFlags parses CLI arguments. Returns the options, whether the caller
// should exit immediately, and the exit code.
func parseFlags(args []string, stdout, stderr io.Writer) (*options, bool, int) {
	opts := new(options)
	fs := newCustomFlagSet("evmsim", stderr)
	fs.StringVar(&opts.code, "code", "", "bytecode as hex")
	fs.StringVar(&opts.codeFile, "codefile", "", "file holding the bytecode as hex")
	fs.StringVar(&opts.calldata, "calldata", "", "call data as hex")
	fs.StringVar(&opts.value, "value", "0", "call value (decimal or 0x-prefixed hex)")
	fs.StringVar(&opts.balance, "balance", "0", "initial balance of the execution address")
	fs.StringVar(&opts.caller, "caller", "", "caller address")
	fs.StringVar(&opts.address, "address", "", "execution address")
	fs.Uint64Var(&opts.gas, "gas", vm.DefaultGas, "gas available to the top-level frame")
	fs.StringVar(&opts.rpc, "rpc", "", "JSON-RPC endpoint for remote storage reads")
	fs.StringVar(&opts.configFile, "config", "", "TOML configuration file")
	fs.IntVar(&opts.verbosity, "verbosity", 2, "log level 0-5 (0=silent, 5=trace)")
	fs.BoolVar(&opts.trace, "trace", false, "record a per-instruction trace")
	fs.BoolVar(&opts.atomic, "atomic", false, "revert state changes of failed frames")
	fs.BoolVar(&opts.metered, "metered", false, "deduct gas instead of only checking it")
	fs.BoolVar(&opts.json, "json", false, "print the report as JSON")
	fs.BoolVar(&opts.showMetrics, "metrics", false, "include interpreter metrics in the report")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, true, 0
		}
		return opts, true, 2
	}
	if *showVersion {
		fmt.Fprintf(stdout, "evmsim %s (commit %s)\n", version, commit)
		return opts, true, 0
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments %v\n", fs.Args())
		return opts, true, 2
	}
	opts.fs = fs
	return opts, false, 0
}

// applyTo overrides cfg with every flag given explicitly on the command
// line.
func (o *options) applyTo(cfg *Config) {
	if o.fs.isSet("gas") {
		cfg.Gas = o.gas
	}
	if o.fs.isSet("rpc") {
		cfg.RPC.URL = o.rpc
	}
	if o.fs.isSet("verbosity") {
		cfg.Verbosity = o.verbosity
	}
	if o.fs.isSet("atomic") {
		cfg.AtomicRevert = o.atomic
	}
	if o.fs.isSet("metered") {
		cfg.GasMode = gasModeCheck
		if o.metered {
			cfg.GasMode = gasModeMetered
		}
	}
}

// message assembles the invocation from the options. It also returns the
// balance to seed at the execution address.
func (o *options) message(cfg *Config) (vm.Message, types.Word, error) {
	var msg vm.Message

	codeHex := o.code
	switch {
	case o.code != "" && o.codeFile != "":
		return msg, types.Word{}, errors.New("-code and -codefile are mutually exclusive")
	case o.codeFile != "":
		data, err := os.ReadFile(o.codeFile)
		if err != nil {
			return msg, types.Word{}, fmt.Errorf("read code file: %w", err)
		}
		codeHex = string(data)
	case o.code == "":
		return msg, types.Word{}, errors.New("no bytecode given, use -code or -codefile")
	}

	var err error
	if msg.Code, err = parseHex(codeHex); err != nil {
		return msg, types.Word{}, fmt.Errorf("code: %w", err)
	}
	if msg.Data, err = parseHex(o.calldata); err != nil {
		return msg, types.Word{}, fmt.Errorf("calldata: %w", err)
	}
	if msg.Value, err = parseWord(o.value); err != nil {
		return msg, types.Word{}, fmt.Errorf("value: %w", err)
	}
	balance, err := parseWord(o.balance)
	if err != nil {
		return msg, types.Word{}, fmt.Errorf("balance: %w", err)
	}
	if msg.Caller, err = parseAddress(o.caller); err != nil {
		return msg, types.Word{}, fmt.Errorf("caller: %w", err)
	}
	if msg.Address, err = parseAddress(o.address); err != nil {
		return msg, types.Word{}, fmt.Errorf("address: %w", err)
	}
	msg.Gas = cfg.Gas
	return msg, balance, nil
}

// parseHex decodes a hex string with or without 0x prefix. Whitespace is
// ignored and an odd number of digits gets a leading zero.
func parseHex(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, nil
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hexutil.Decode("0x" + s)
}

// parseWord accepts a decimal number or 0x-prefixed hex of at most 32
// bytes.
func parseWord(s string) (types.Word, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Word{}, nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		b, err := parseHex(s)
		if err != nil {
			return types.Word{}, err
		}
		if len(b) > types.WordLength {
			return types.Word{}, fmt.Errorf("%s exceeds 256 bits", s)
		}
		return types.BytesToWord(b), nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return types.Word{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return types.WordFromUint256(v), nil
}

// parseAddress accepts a 20-byte hex address. An empty string is the zero
// address.
func parseAddress(s string) (types.Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return types.Address{}, nil
	}
	if !common.IsHexAddress(s) {
		return types.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return types.Address(common.HexToAddress(s)), nil
}

// newLogger builds the structured logger writing to w.
func newLogger(cfg *Config, w io.Writer) (*log.Logger, error) {
	if cfg.Verbosity == 0 {
		return log.Discard(), nil
	}
	level, err := log.ParseLevel(verbosityToLevel(cfg.Verbosity))
	if err != nil {
		return nil, err
	}
	if cfg.LogFormat == "json" {
		return log.NewJSON(w, level), nil
	}
	return log.NewText(w, level), nil
}
