package vm

import "github.com/eth2030/evmsim/core/vmerr"

// Representative per-category costs. Only a flat cost per opcode category
// is modeled; dynamic components (memory expansion, cold access, copy size)
// are not charged.
const (
	GasZero        uint64 = 0
	GasJumpDest    uint64 = 1
	GasQuickStep   uint64 = 2  // base
	GasFastestStep uint64 = 3  // very low
	GasFastStep    uint64 = 5  // low
	GasMidStep     uint64 = 8  // mid
	GasSlowStep    uint64 = 10 // high
	GasExtStep     uint64 = 20

	GasKeccak256    uint64 = 30
	GasWarmAccess   uint64 = 100
	GasSload        uint64 = 100
	GasSstore       uint64 = 20000
	GasLog          uint64 = 375
	GasLogTopic     uint64 = 375
	GasCall         uint64 = 100
	GasCreate       uint64 = 32000
	GasSelfdestruct uint64 = 5000
)

// DefaultGas is the gas given to a top-level invocation when none is set.
const DefaultGas uint64 = 30_000_000

// GasMode selects how operation costs are applied.
type GasMode uint8

const (
	// GasCheckOnly verifies remaining gas covers each cost but never
	// deducts it.
	GasCheckOnly GasMode = iota
	// GasMetered verifies and deducts every cost.
	GasMetered
)

// String returns the mode name.
func (m GasMode) String() string {
	if m == GasMetered {
		return "metered"
	}
	return "check-only"
}

// charge applies cost to the frame's gas according to mode.
func charge(mode GasMode, gas *uint64, cost uint64) error {
	if *gas < cost {
		return vmerr.ErrOutOfGas
	}
	if mode == GasMetered {
		*gas -= cost
	}
	return nil
}

func logGas(topics int) uint64 {
	return GasLog + uint64(topics)*GasLogTopic
}
