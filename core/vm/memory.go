package vm

import (
	"github.com/eth2030/evmsim/core/types"
	"github.com/eth2030/evmsim/core/vmerr"
)

// DefaultMemoryLimit caps a single frame's memory.
const DefaultMemoryLimit = 32 << 20

// Memory is a frame's byte-addressable linear store. It grows in 32-byte
// steps to cover every access and never shrinks.
type Memory struct {
	store []byte
	limit uint64
}

// NewMemory returns an empty memory bounded by limit bytes. A zero limit
// selects DefaultMemoryLimit.
func NewMemory(limit uint64) *Memory {
	if limit == 0 {
		limit = DefaultMemoryLimit
	}
	return &Memory{limit: limit}
}

// expand grows the store to the smallest 32-byte multiple covering
// [offset, offset+size).
func (m *Memory) expand(offset, size uint64) error {
	if size == 0 {
		return nil
	}
	end := offset + size
	if end < offset || end > m.limit {
		return vmerr.ErrMemoryLimit
	}
	if end <= uint64(len(m.store)) {
		return nil
	}
	words := (end + 31) / 32
	m.store = append(m.store, make([]byte, words*32-uint64(len(m.store)))...)
	return nil
}

// Read returns a copy of [offset, offset+size), extending memory first.
func (m *Memory) Read(offset, size uint64) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	if err := m.expand(offset, size); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out, nil
}

// Write copies data to offset, extending memory first.
func (m *Memory) Write(offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := m.expand(offset, uint64(len(data))); err != nil {
		return err
	}
	copy(m.store[offset:], data)
	return nil
}

// WritePadded writes exactly size bytes at offset: data truncated to size,
// or zero-filled past its end.
func (m *Memory) WritePadded(offset, size uint64, data []byte) error {
	if size == 0 {
		return nil
	}
	if err := m.expand(offset, size); err != nil {
		return err
	}
	dst := m.store[offset : offset+size]
	n := copy(dst, data)
	clear(dst[n:])
	return nil
}

// Load reads the word at offset.
func (m *Memory) Load(offset uint64) (types.Word, error) {
	b, err := m.Read(offset, types.WordLength)
	if err != nil {
		return types.Word{}, err
	}
	return types.Word(b), nil
}

// Store writes a word at offset.
func (m *Memory) Store(offset uint64, w types.Word) error {
	return m.Write(offset, w[:])
}

// Store8 writes a single byte at offset.
func (m *Memory) Store8(offset uint64, b byte) error {
	return m.Write(offset, []byte{b})
}

// Copy moves size bytes from src to dst. The source is staged through a
// temporary buffer so overlapping ranges copy correctly.
func (m *Memory) Copy(dst, src, size uint64) error {
	if size == 0 {
		return nil
	}
	buf, err := m.Read(src, size)
	if err != nil {
		return err
	}
	return m.Write(dst, buf)
}

// Len returns the current length of the memory in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Chunks returns memory as consecutive 32-byte words.
func (m *Memory) Chunks() []types.Word {
	out := make([]types.Word, 0, len(m.store)/32)
	for off := 0; off < len(m.store); off += 32 {
		out = append(out, types.RightPadWord(m.store[off:]))
	}
	return out
}
