package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vm"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, vm.DefaultGas, cfg.Gas)
	require.Equal(t, vm.DefaultMaxCallDepth, cfg.MaxCallDepth)
	require.Equal(t, gasModeCheck, cfg.GasMode)
	require.False(t, cfg.AtomicRevert)
	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `gas = 500000
max_call_depth = 8
gas_mode = "metered"
atomic_revert = true

[block]
coinbase = "0x00000000000000000000000000000000000000aa"
number = 42
chain_id = 5

[rpc]
url = "http://localhost:8545"
timeout = "3s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, uint64(500000), cfg.Gas)
	require.Equal(t, 8, cfg.MaxCallDepth)
	require.Equal(t, gasModeMetered, cfg.GasMode)
	require.True(t, cfg.AtomicRevert)
	require.Equal(t, uint64(42), cfg.Block.Number)
	require.Equal(t, uint64(5), cfg.Block.ChainID)
	require.Equal(t, "http://localhost:8545", cfg.RPC.URL)
	require.Equal(t, path, cfg.ConfigFile)
	// Unset fields keep their defaults.
	require.Equal(t, uint64(vm.DefaultMemoryLimit), cfg.MemoryLimit)
	require.NoError(t, ValidateConfig(cfg))

	vmCfg := cfg.vmConfig()
	require.Equal(t, vm.GasMetered, vmCfg.GasMode)
	require.True(t, vmCfg.AtomicRevert)

	block := cfg.blockContext()
	require.Equal(t, types.BytesToAddress([]byte{0xaa}), block.Coinbase)
	require.Equal(t, types.Uint64ToWord(42), block.Number)
	require.Equal(t, "3s", cfg.rpcTimeout().String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.toml")
	require.True(t, errors.Is(err, ErrConfigFileNotFound), "err = %v", err)
}

func TestLoadConfigUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("no_such_setting = 1\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("gas = = 1\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestApplyEnvironment(t *testing.T) {
	t.Setenv("EVMSIM_GAS", "1234")
	t.Setenv("EVMSIM_MAX_CALL_DEPTH", "3")
	t.Setenv("EVMSIM_GAS_MODE", "metered")
	t.Setenv("EVMSIM_ATOMIC_REVERT", "true")
	t.Setenv("EVMSIM_CHAIN_ID", "not-a-number")
	t.Setenv("EVMSIM_RPC_URL", "http://node:8545")

	cfg := DefaultConfig()
	ApplyEnvironment(cfg)
	require.Equal(t, uint64(1234), cfg.Gas)
	require.Equal(t, 3, cfg.MaxCallDepth)
	require.Equal(t, gasModeMetered, cfg.GasMode)
	require.True(t, cfg.AtomicRevert)
	require.Equal(t, uint64(1), cfg.Block.ChainID, "unparseable value must be ignored")
	require.Equal(t, "http://node:8545", cfg.RPC.URL)
}

func TestMergeDefaults(t *testing.T) {
	cfg := &Config{Verbosity: 3}
	MergeDefaults(cfg)
	require.Equal(t, vm.DefaultGas, cfg.Gas)
	require.Equal(t, gasModeCheck, cfg.GasMode)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 3, cfg.Verbosity)
	require.NoError(t, ValidateConfig(cfg))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"depth", func(c *Config) { c.MaxCallDepth = 0 }},
		{"gas mode", func(c *Config) { c.GasMode = "free" }},
		{"verbosity", func(c *Config) { c.Verbosity = 9 }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"coinbase", func(c *Config) { c.Block.Coinbase = "0x12" }},
		{"timeout", func(c *Config) { c.RPC.Timeout = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := ValidateConfig(cfg)
			require.True(t, errors.Is(err, ErrInvalidConfig), "err = %v", err)
		})
	}
	require.Error(t, ValidateConfig(nil))
}
