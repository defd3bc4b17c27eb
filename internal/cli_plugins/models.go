package cliplugins

import (
	"context"
	"time"

	"lanchat/internal/peers"
	"lanchat/internal/storage/peerbook"
	"lanchat/internal/watcher"
)

// UserLister is the live peer registry as seen by /users.
type UserLister interface {
	Snapshot(excludeAddress string) []peers.Record
	Now() time.Time
}

// SessionOpener opens a private session with a peer by nickname.
type SessionOpener interface {
	OpenSession(ctx context.Context, nickname string) error
}

type PeerHistory interface {
	List() ([]peerbook.Entry, error)
}

type AckCounter interface {
	Len() int
}

type SendStats interface {
	LastID() uint64
	Pending() int
}

type Nicknamer interface {
	Nickname() string
	SetNickname(nickname string)
}

type PeerCounter interface {
	Len() int
}

type ReloadStats interface {
	Metrics() watcher.MetricsSnapshot
}

type DropCounter interface {
	Dropped() uint64
}
