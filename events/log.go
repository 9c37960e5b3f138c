package events

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Record is an event committed to the log.
type Record struct {
	Seq   uint64 // 1-based position in the log
	Topic common.Hash
	Event Event
}

/*
Log is an append-only, in-memory list of committed events. Safe for
concurrent use.
*/
type Log struct {
	mu      sync.RWMutex
	records []Record
	first   uint64
}

// NewLog creates log whose next record will get sequence number lastSeq+1.
func NewLog(lastSeq uint64) *Log {
	return &Log{first: lastSeq + 1}
}

// Append adds events as one batch and returns the records created.
func (l *Log) Append(evs ...Event) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, 0, len(evs))
	for _, e := range evs {
		r := Record{Seq: l.first + uint64(len(l.records)), Topic: Topic(e), Event: e}
		l.records = append(l.records, r)
		out = append(out, r)
	}
	return out
}

// LastSeq returns the sequence number of the last record, 0 for empty log.
func (l *Log) LastSeq() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.first + uint64(len(l.records)) - 1
}

// After returns records with sequence number greater than seq which are
// still held in memory.
func (l *Log) After(seq uint64) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if seq >= l.first {
		start = int(seq - l.first + 1)
	}
	if start >= len(l.records) {
		return nil
	}
	return append([]Record(nil), l.records[start:]...)
}

// Buffer collects events of a single operation until it's known whether
// the operation succeeded.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(e Event) {
	b.events = append(b.events, e)
}

func (b *Buffer) Events() []Event {
	return b.events
}

func (b *Buffer) Reset() {
	b.events = nil
}
