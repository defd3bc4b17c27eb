// Package peers keeps the table of peers heard on the broadcast domain.
//
// The table is only reachable through Registry methods; every call holds the
// registry lock for its whole duration, so concurrent upserts for the same
// address are last-write-wins.
package peers

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

var ErrPeerNotFound = errors.New("peer not found")

// Record describes one peer, keyed by its address.
type Record struct {
	Address  string
	Nickname string
	LastSeen time.Time
}

type Registry struct {
	mu    sync.Mutex
	clock clock.Clock
	peers map[string]Record
}

func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		clock: clk,
		peers: make(map[string]Record),
	}
}

// Upsert refreshes the record for address, creating it if absent.
func (r *Registry) Upsert(address, nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.peers[address] = Record{
		Address:  address,
		Nickname: nickname,
		LastSeen: r.clock.Now(),
	}
}

// Purge removes every record not refreshed within timeout and returns them.
func (r *Registry) Purge(timeout time.Duration) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var removed []Record
	for addr, rec := range r.peers {
		if now.Sub(rec.LastSeen) >= timeout {
			removed = append(removed, rec)
			delete(r.peers, addr)
		}
	}
	return removed
}

// Snapshot returns a copy of all records except excludeAddress, ordered by nickname.
func (r *Registry) Snapshot(excludeAddress string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]Record, 0, len(r.peers))
	for addr, rec := range r.peers {
		if addr == excludeAddress {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Nickname != records[j].Nickname {
			return records[i].Nickname < records[j].Nickname
		}
		return records[i].Address < records[j].Address
	})
	return records
}

// Lookup resolves nickname to a record. When several addresses announce the
// same nickname the most recently seen one wins.
func (r *Registry) Lookup(nickname, excludeAddress string) (Record, error) {
	var (
		found Record
		ok    bool
	)
	for _, rec := range r.Snapshot(excludeAddress) {
		if rec.Nickname != nickname {
			continue
		}
		if !ok || rec.LastSeen.After(found.LastSeen) {
			found, ok = rec, true
		}
	}
	if !ok {
		return Record{}, ErrPeerNotFound
	}
	return found, nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.peers)
}

// Now exposes the registry's time source so callers can compute record ages.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}
