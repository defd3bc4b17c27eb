// Package discover announces this node on the broadcast domain and expires
// peers that stopped announcing themselves.
package discover

import (
	"context"
	"log/slog"
	"net"
	"time"

	"lanchat/internal/frame"
	"lanchat/internal/peers"
	"lanchat/internal/util/logger/sl"

	"github.com/benbjohnson/clock"
)

type Sender interface {
	WriteTo(p []byte, addr net.Addr) (int, error)
}

type Pruner interface {
	Purge(timeout time.Duration) []peers.Record
}

type Config struct {
	// Interval between two Hello frames.
	Interval time.Duration
	// Timeout after which a silent peer is purged, independent of Interval.
	Timeout time.Duration
}

type Beacon struct {
	conn     Sender
	target   net.Addr
	identity *Identity
	registry Pruner
	config   Config
	clock    clock.Clock
	log      *slog.Logger
}

type Option func(*Beacon)

func WithClock(clk clock.Clock) Option {
	return func(b *Beacon) {
		b.clock = clk
	}
}

func NewBeacon(
	conn Sender,
	target net.Addr,
	identity *Identity,
	registry Pruner,
	config Config,
	log *slog.Logger,
	opts ...Option,
) *Beacon {
	b := &Beacon{
		conn:     conn,
		target:   target,
		identity: identity,
		registry: registry,
		config:   config,
		clock:    clock.New(),
		log:      log.With(slog.String("component", "beacon")),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run announces immediately and then on every interval until ctx is done.
// Send failures are logged, the loop keeps going.
func (b *Beacon) Run(ctx context.Context) error {
	const op = "discover.Beacon.Run"
	log := b.log.With(slog.String("op", op))

	ticker := b.clock.Ticker(b.config.Interval)
	defer ticker.Stop()

	log.Info("Presence beacon started",
		slog.String("target", b.target.String()),
		slog.Duration("interval", b.config.Interval),
		slog.Duration("timeout", b.config.Timeout),
	)

	b.tick()
	for {
		select {
		case <-ctx.Done():
			log.Info("Context canceled, stopping beacon")
			return nil
		case <-ticker.C:
			b.tick()
		}
	}
}

func (b *Beacon) tick() {
	const op = "discover.Beacon.tick"
	log := b.log.With(slog.String("op", op))

	nickname := b.identity.Nickname()
	if _, err := b.conn.WriteTo(frame.Hello(nickname).Encode(), b.target); err != nil {
		log.Error("Hello send failed", sl.Err(err))
	}

	for _, rec := range b.registry.Purge(b.config.Timeout) {
		log.Info("Peer timed out",
			slog.String("address", rec.Address),
			slog.String("nickname", rec.Nickname),
		)
	}
}
