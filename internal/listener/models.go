package listener

import (
	"sync"
	"time"
)

const (
	defaultReadTimeout = 500 * time.Millisecond
	// максимальный размер UDP датаграммы
	maxDatagramSize = 65535
)

// Registry receives presence updates from Hello frames.
type Registry interface {
	Upsert(address, nickname string)
}

// Display shows a chat message tagged with the sender address.
type Display interface {
	ShowDatagram(from, payload string)
}

// AckSink is notified of every received Ack. It reports whether a sender was waiting for it.
type AckSink interface {
	Resolve(id uint64) bool
}

// PeerObserver is an optional hook called on every Hello after the registry update.
type PeerObserver interface {
	Observe(address, nickname string)
}

// AckLog is the append-only set of ack ids ever observed. It is kept for
// diagnostics only and never gates delivery.
type AckLog struct {
	mu  sync.Mutex
	ids map[uint64]struct{}
}

func NewAckLog() *AckLog {
	return &AckLog{ids: make(map[uint64]struct{})}
}

func (a *AckLog) Add(id uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ids[id] = struct{}{}
}

func (a *AckLog) Contains(id uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.ids[id]
	return ok
}

func (a *AckLog) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ids)
}
