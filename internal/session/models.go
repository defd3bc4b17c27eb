package session

import (
	"errors"
	"time"

	"lanchat/internal/peers"
)

// ExitCommand typed locally closes the session without sending anything further.
const ExitCommand = "/exit"

const (
	defaultDialTimeout = 10 * time.Second
	acceptPoll         = 500 * time.Millisecond
	// максимальное число одновременных входящих сессий
	maxConnections = 100
)

var (
	ErrPeerNotFound = peers.ErrPeerNotFound
	ErrDialFailed   = errors.New("tcp connection failed")
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Display renders session traffic.
type Display interface {
	ShowSession(peer, text string)
	Notice(format string, args ...any)
}

// Resolver maps a nickname to a peer record, skipping excludeAddress.
type Resolver interface {
	Lookup(nickname, excludeAddress string) (peers.Record, error)
}
