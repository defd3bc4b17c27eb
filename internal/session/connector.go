package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"
)

type Connector struct {
	resolver Resolver
	self     string
	port     int
	timeout  time.Duration
	display  Display
	log      *slog.Logger
}

// NewConnector dials peers on port. self is the local address, never resolved as a target.
func NewConnector(resolver Resolver, self string, port int, display Display, log *slog.Logger) *Connector {
	return &Connector{
		resolver: resolver,
		self:     self,
		port:     port,
		timeout:  defaultDialTimeout,
		display:  display,
		log:      log.With(slog.String("component", "session_connector")),
	}
}

// Connect resolves nickname through the peer registry and opens a session to
// it. An unknown nickname fails with ErrPeerNotFound before any dial.
func (c *Connector) Connect(ctx context.Context, nickname string) (*Session, error) {
	const op = "session.Connector.Connect"
	log := c.log.With(slog.String("op", op), slog.String("nickname", nickname))

	rec, err := c.resolver.Lookup(nickname, c.self)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", nickname, err)
	}

	s := newSession(c.display, c.log, false)
	s.state.Store(int32(StateConnecting))

	addr := net.JoinHostPort(rec.Address, strconv.Itoa(c.port))
	dialer := net.Dialer{Timeout: c.timeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrDialFailed, addr, err)
	}
	s.attach(conn)

	log.Info("TCP session established", slog.String("address", addr))
	return s, nil
}
