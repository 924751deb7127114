package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/naoina/toml"

	"github.com/eth2030/evmsim/core/state"
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vm"
)

// Configuration errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Gas mode names accepted in configuration.
const (
	gasModeCheck   = "check"
	gasModeMetered = "metered"
)

// Config aggregates the interpreter settings from the TOML file, the
// environment and the command line.
type Config struct {
	Gas          uint64
	MaxCallDepth int
	GasMode      string
	AtomicRevert bool
	MemoryLimit  uint64

	// Verbosity is the log level 0-5 (0=silent, 5=trace).
	Verbosity int
	LogFormat string

	Block BlockConfig
	RPC   RPCConfig

	// ConfigFile is the path the configuration was loaded from.
	ConfigFile string `toml:"-"`
}

// BlockConfig is the simulated block environment.
type BlockConfig struct {
	Coinbase   string
	Timestamp  uint64
	Number     uint64
	Difficulty uint64
	GasLimit   uint64
	ChainID    uint64
	BaseFee    uint64
	GasPrice   uint64
}

// RPCConfig configures the optional remote storage provider.
type RPCConfig struct {
	URL     string
	Timeout string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	block := vm.DefaultBlockContext()
	number, _ := block.Number.Uint64()
	difficulty, _ := block.Difficulty.Uint64()
	baseFee, _ := block.BaseFee.Uint64()
	return &Config{
		Gas:          vm.DefaultGas,
		MaxCallDepth: vm.DefaultMaxCallDepth,
		GasMode:      gasModeCheck,
		MemoryLimit:  vm.DefaultMemoryLimit,
		Verbosity:    2,
		LogFormat:    "text",
		Block: BlockConfig{
			Coinbase:   block.Coinbase.Hex(),
			Number:     number,
			Difficulty: difficulty,
			GasLimit:   block.GasLimit,
			ChainID:    block.ChainID,
			BaseFee:    baseFee,
		},
		RPC: RPCConfig{
			Timeout: state.DefaultProviderTimeout.String(),
		},
	}
}

// TOML keys match struct fields case-insensitively, with underscores
// ignored, so both max_call_depth and MaxCallDepth are accepted.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return strings.ToLower(strings.ReplaceAll(key, "_", ""))
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// LoadConfig reads configuration from a TOML file path on top of the
// defaults. An empty path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := tomlSettings.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			err = errors.New(path + ", " + err.Error())
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ConfigFile = path

	MergeDefaults(cfg)
	return cfg, nil
}

// MergeDefaults fills zero-valued fields that have no meaningful zero with
// the built-in defaults.
func MergeDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Gas == 0 {
		cfg.Gas = defaults.Gas
	}
	if cfg.MaxCallDepth == 0 {
		cfg.MaxCallDepth = defaults.MaxCallDepth
	}
	if cfg.GasMode == "" {
		cfg.GasMode = defaults.GasMode
	}
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = defaults.MemoryLimit
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaults.LogFormat
	}
	if cfg.Block.GasLimit == 0 {
		cfg.Block.GasLimit = defaults.Block.GasLimit
	}
	if cfg.Block.ChainID == 0 {
		cfg.Block.ChainID = defaults.Block.ChainID
	}
	if cfg.Block.Coinbase == "" {
		cfg.Block.Coinbase = defaults.Block.Coinbase
	}
	if cfg.RPC.Timeout == "" {
		cfg.RPC.Timeout = defaults.RPC.Timeout
	}
}

// ApplyEnvironment overrides Config fields from environment variables with
// the EVMSIM_ prefix (e.g., EVMSIM_GAS, EVMSIM_RPC_URL). Unparseable
// values are ignored.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv("EVMSIM_GAS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Gas = n
		}
	}
	if v := os.Getenv("EVMSIM_MAX_CALL_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCallDepth = n
		}
	}
	if v := os.Getenv("EVMSIM_GAS_MODE"); v != "" {
		cfg.GasMode = v
	}
	if v := os.Getenv("EVMSIM_ATOMIC_REVERT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AtomicRevert = b
		}
	}
	if v := os.Getenv("EVMSIM_MEMORY_LIMIT"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MemoryLimit = n
		}
	}
	if v := os.Getenv("EVMSIM_VERBOSITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Verbosity = n
		}
	}
	if v := os.Getenv("EVMSIM_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("EVMSIM_CHAIN_ID"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Block.ChainID = n
		}
	}
	if v := os.Getenv("EVMSIM_RPC_URL"); v != "" {
		cfg.RPC.URL = v
	}
	if v := os.Getenv("EVMSIM_RPC_TIMEOUT"); v != "" {
		cfg.RPC.Timeout = v
	}
}

// ValidateConfig checks the Config for internal consistency and returns
// an error describing the first problem found.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if cfg.MaxCallDepth < 1 {
		return fmt.Errorf("%w: max_call_depth must be positive, got %d", ErrInvalidConfig, cfg.MaxCallDepth)
	}
	switch cfg.GasMode {
	case gasModeCheck, gasModeMetered:
	default:
		return fmt.Errorf("%w: unknown gas_mode %q", ErrInvalidConfig, cfg.GasMode)
	}
	if cfg.Verbosity < 0 || cfg.Verbosity > 5 {
		return fmt.Errorf("%w: verbosity must be 0-5, got %d", ErrInvalidConfig, cfg.Verbosity)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, cfg.LogFormat)
	}
	if !common.IsHexAddress(cfg.Block.Coinbase) {
		return fmt.Errorf("%w: invalid coinbase %q", ErrInvalidConfig, cfg.Block.Coinbase)
	}
	if _, err := time.ParseDuration(cfg.RPC.Timeout); err != nil {
		return fmt.Errorf("%w: rpc timeout: %v", ErrInvalidConfig, err)
	}
	return nil
}

// vmConfig translates the settings into interpreter options.
func (c *Config) vmConfig() vm.Config {
	mode := vm.GasCheckOnly
	if c.GasMode == gasModeMetered {
		mode = vm.GasMetered
	}
	return vm.Config{
		MaxCallDepth: c.MaxCallDepth,
		GasMode:      mode,
		AtomicRevert: c.AtomicRevert,
		MemoryLimit:  c.MemoryLimit,
	}
}

// blockContext builds the simulated block. The coinbase must already be
// validated.
func (c *Config) blockContext() vm.BlockContext {
	return vm.BlockContext{
		Coinbase:   types.Address(common.HexToAddress(c.Block.Coinbase)),
		Timestamp:  c.Block.Timestamp,
		Number:     types.Uint64ToWord(c.Block.Number),
		Difficulty: types.Uint64ToWord(c.Block.Difficulty),
		GasLimit:   c.Block.GasLimit,
		ChainID:    c.Block.ChainID,
		BaseFee:    types.Uint64ToWord(c.Block.BaseFee),
		GasPrice:   types.Uint64ToWord(c.Block.GasPrice),
	}
}

// rpcTimeout returns the parsed provider timeout.
func (c *Config) rpcTimeout() time.Duration {
	d, err := time.ParseDuration(c.RPC.Timeout)
	if err != nil {
		return state.DefaultProviderTimeout
	}
	return d
}

// verbosityToLevel maps the 0-5 verbosity scale onto a level name understood
// by log.ParseLevel.
func verbosityToLevel(v int) string {
	switch {
	case v <= 1:
		return "error"
	case v == 2:
		return "warn"
	case v == 3:
		return "info"
	default:
		return "debug"
	}
}
