package watcher

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	events        atomic.Int64
	reloads       atomic.Int64
	errors        atomic.Int64
	lastReloadUTC atomic.Int64
}

func (m *Metrics) RecordEvent() {
	m.events.Add(1)
}

func (m *Metrics) RecordReload() {
	m.reloads.Add(1)
	m.lastReloadUTC.Store(time.Now().UnixNano())
}

func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

type MetricsSnapshot struct {
	Events     int64
	Reloads    int64
	Errors     int64
	LastReload time.Time
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Events:  m.events.Load(),
		Reloads: m.reloads.Load(),
		Errors:  m.errors.Load(),
	}
	if ns := m.lastReloadUTC.Load(); ns != 0 {
		s.LastReload = time.Unix(0, ns)
	}
	return s
}
