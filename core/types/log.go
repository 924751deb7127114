package types

// MaxTopicsPerLog is the maximum number of indexed topics in a single log
// entry. LOG0..LOG4 carry 0-4 topics.
const MaxTopicsPerLog = 4

// LogEntry is one record appended by a LOG opcode.
type LogEntry struct {
	Address Address
	Topics  []Word
	Data    []byte
}

// Copy returns a deep copy of the entry.
func (l LogEntry) Copy() LogEntry {
	cp := LogEntry{Address: l.Address}
	if l.Topics != nil {
		cp.Topics = append([]Word(nil), l.Topics...)
	}
	if l.Data != nil {
		cp.Data = append([]byte(nil), l.Data...)
	}
	return cp
}
