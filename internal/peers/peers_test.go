package peers

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsert_Idempotent(t *testing.T) {
	clk := clock.NewMock()
	r := NewRegistry(clk)

	r.Upsert("10.0.0.2", "alice")
	clk.Add(time.Second)
	r.Upsert("10.0.0.2", "alice")
	clk.Add(time.Second)
	r.Upsert("10.0.0.2", "alice2")

	snap := r.Snapshot("")
	require.Len(t, snap, 1)
	assert.Equal(t, "alice2", snap[0].Nickname)
	assert.Equal(t, clk.Now(), snap[0].LastSeen)
	assert.Equal(t, 1, r.Len())
}

func TestPurge(t *testing.T) {
	const timeout = 10 * time.Second

	tests := []struct {
		name    string
		silence time.Duration
		present bool
	}{
		{name: "fresh", silence: 0, present: true},
		{name: "within timeout", silence: 9 * time.Second, present: true},
		{name: "exactly timeout", silence: timeout, present: false},
		{name: "older than timeout", silence: 11 * time.Second, present: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewMock()
			r := NewRegistry(clk)

			r.Upsert("10.0.0.2", "alice")
			clk.Add(tt.silence)
			removed := r.Purge(timeout)

			snap := r.Snapshot("")
			if tt.present {
				assert.Len(t, snap, 1)
				assert.Empty(t, removed)
			} else {
				assert.Empty(t, snap)
				require.Len(t, removed, 1)
				assert.Equal(t, "alice", removed[0].Nickname)
			}
		})
	}
}

func TestPurge_HeartbeatKeepsPeer(t *testing.T) {
	clk := clock.NewMock()
	r := NewRegistry(clk)

	r.Upsert("10.0.0.2", "alice")
	r.Upsert("10.0.0.3", "bob")

	// alice heartbeats every 3s, bob stays silent
	for i := 0; i < 4; i++ {
		clk.Add(3 * time.Second)
		r.Upsert("10.0.0.2", "alice")
		r.Purge(10 * time.Second)
	}

	snap := r.Snapshot("")
	require.Len(t, snap, 1)
	assert.Equal(t, "alice", snap[0].Nickname)
}

func TestSnapshot_ExcludesOwnAddress(t *testing.T) {
	r := NewRegistry(clock.NewMock())
	r.Upsert("10.0.0.1", "me")
	r.Upsert("10.0.0.3", "carol")
	r.Upsert("10.0.0.2", "bob")

	snap := r.Snapshot("10.0.0.1")
	require.Len(t, snap, 2)
	assert.Equal(t, "bob", snap[0].Nickname)
	assert.Equal(t, "carol", snap[1].Nickname)
}

func TestSnapshot_IsCopy(t *testing.T) {
	r := NewRegistry(clock.NewMock())
	r.Upsert("10.0.0.2", "bob")

	snap := r.Snapshot("")
	snap[0].Nickname = "mallory"

	assert.Equal(t, "bob", r.Snapshot("")[0].Nickname)
}

func TestLookup(t *testing.T) {
	clk := clock.NewMock()
	r := NewRegistry(clk)
	r.Upsert("10.0.0.1", "me")
	r.Upsert("10.0.0.2", "bob")
	clk.Add(time.Second)
	r.Upsert("10.0.0.5", "bob")

	rec, err := r.Lookup("bob", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", rec.Address)

	_, err = r.Lookup("ghost", "10.0.0.1")
	assert.ErrorIs(t, err, ErrPeerNotFound)

	_, err = r.Lookup("me", "10.0.0.1")
	assert.ErrorIs(t, err, ErrPeerNotFound)
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Upsert(fmt.Sprintf("10.0.0.%d", j%10), fmt.Sprintf("peer-%d", i))
				r.Snapshot("")
				r.Purge(time.Hour)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, r.Len())
}
