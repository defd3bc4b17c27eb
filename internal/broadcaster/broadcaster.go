// Package broadcaster delivers chat messages to the broadcast group with
// at-least-once semantics: each message is resent until an Ack carrying its id
// arrives or the retry budget is exhausted.
package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"lanchat/internal/frame"
	"lanchat/internal/util/logger/sl"

	"github.com/benbjohnson/clock"
)

var ErrNotDelivered = errors.New("message was not acknowledged")

// Sender is the datagram socket side used for sending.
type Sender interface {
	WriteTo(p []byte, addr net.Addr) (int, error)
}

type Config struct {
	// MaxRetry is the total number of send attempts per message.
	MaxRetry int
	// AckTimeout is how long each attempt waits for the Ack.
	AckTimeout time.Duration
}

// Result describes the outcome of one Send.
type Result struct {
	ID        uint64
	Attempts  int
	Delivered bool
}

type Broadcaster struct {
	conn   Sender
	target net.Addr
	config Config
	clock  clock.Clock
	log    *slog.Logger

	// последний выданный id, первый Send получает 1
	lastID atomic.Uint64

	mu      sync.Mutex
	waiters map[uint64]chan struct{}
}

type Option func(*Broadcaster)

func WithClock(clk clock.Clock) Option {
	return func(b *Broadcaster) {
		b.clock = clk
	}
}

func New(conn Sender, target net.Addr, config Config, log *slog.Logger, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		conn:    conn,
		target:  target,
		config:  config,
		clock:   clock.New(),
		log:     log.With(slog.String("component", "broadcaster")),
		waiters: make(map[uint64]chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Send broadcasts payload and blocks until it is acknowledged, the attempts
// run out (ErrNotDelivered) or ctx is done. Concurrent calls are safe: every
// message waits on its own id.
func (b *Broadcaster) Send(ctx context.Context, payload string) (Result, error) {
	const op = "broadcaster.Send"

	id := b.lastID.Add(1)
	log := b.log.With(slog.String("op", op), slog.Uint64("id", id))

	acked := b.register(id)
	defer b.unregister(id)

	data := frame.Message(id, payload).Encode()
	res := Result{ID: id}

	for attempt := 1; attempt <= b.config.MaxRetry; attempt++ {
		res.Attempts = attempt

		if _, err := b.conn.WriteTo(data, b.target); err != nil {
			log.Error("Failed to send message", slog.Int("attempt", attempt), sl.Err(err))
		} else {
			log.Debug("Message sent", slog.Int("attempt", attempt))
		}

		timer := b.clock.Timer(b.config.AckTimeout)
		select {
		case <-acked:
			timer.Stop()
			res.Delivered = true
			log.Debug("Message acknowledged", slog.Int("attempt", attempt))
			return res, nil
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return res, ctx.Err()
		}
	}

	log.Warn("Message not acknowledged", slog.Int("attempts", res.Attempts))
	return res, fmt.Errorf("%w after %d attempts", ErrNotDelivered, res.Attempts)
}

// Resolve wakes the sender waiting for id. It reports false when nobody waits,
// e.g. for a late or duplicate Ack.
func (b *Broadcaster) Resolve(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.waiters[id]
	if !ok {
		return false
	}
	delete(b.waiters, id)
	close(ch)
	return true
}

// LastID returns the most recently issued message id, 0 before the first Send.
func (b *Broadcaster) LastID() uint64 {
	return b.lastID.Load()
}

// Pending returns the number of sends currently waiting for an Ack.
func (b *Broadcaster) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.waiters)
}

func (b *Broadcaster) register(id uint64) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan struct{})
	b.waiters[id] = ch
	return ch
}

func (b *Broadcaster) unregister(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.waiters, id)
}
