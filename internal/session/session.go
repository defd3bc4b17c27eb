// Package session implements the private one-to-one text channel: a TCP
// connection carrying raw newline-terminated lines in both directions.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"lanchat/internal/util/logger/sl"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Session moves Idle -> Connecting -> Open -> Closed. Accepted sessions start Open.
// Closed is terminal; a new conversation needs a new Session.
type Session struct {
	id      uuid.UUID
	inbound bool
	state   atomic.Int32
	peer    string
	conn    net.Conn
	display Display
	log     *slog.Logger

	closedLocally atomic.Bool
	closeOnce     sync.Once
	done          chan struct{}
}

func newSession(display Display, log *slog.Logger, inbound bool) *Session {
	s := &Session{
		id:      uuid.New(),
		inbound: inbound,
		display: display,
		done:    make(chan struct{}),
	}
	s.log = log.With(slog.String("session", s.id.String()))
	return s
}

func (s *Session) attach(conn net.Conn) {
	s.conn = conn
	s.peer = conn.RemoteAddr().String()
	s.log = s.log.With(slog.String("peer", s.peer))
	s.state.Store(int32(StateOpen))
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Peer is the remote address of the session.
func (s *Session) Peer() string {
	return s.peer
}

func (s *Session) Inbound() bool {
	return s.inbound
}

func (s *Session) State() State {
	return State(s.state.Load())
}

// Done is closed once the session reaches Closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close moves the session to Closed and releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		if s.conn != nil {
			err = s.conn.Close()
		}
		close(s.done)
		s.log.Info("Session closed")
	})
	return err
}

// Run pumps lines in both directions until either side ends the session, the
// input channel is closed or ctx is done. input carries local console lines;
// ExitCommand closes the session.
func (s *Session) Run(ctx context.Context, input <-chan string) error {
	const op = "session.Run"
	log := s.log.With(slog.String("op", op))

	if s.State() != StateOpen {
		return fmt.Errorf("session %s is %s", s.id, s.State())
	}
	log.Info("Session open", slog.Bool("inbound", s.inbound))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(s.readPump)
	g.Go(func() error {
		return s.writePump(gctx, input)
	})

	err := g.Wait()
	if err != nil {
		log.Warn("Session ended with error", sl.Err(err))
	}
	return err
}

func (s *Session) readPump() error {
	defer s.Close()

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		s.display.ShowSession(s.peer, text)
	}

	err := scanner.Err()
	if s.closedLocally.Load() || errors.Is(err, net.ErrClosed) {
		return nil
	}
	if err != nil {
		s.display.Notice("[Error reading from %s: %v]", s.peer, err)
		return fmt.Errorf("read from %s: %w", s.peer, err)
	}
	s.display.Notice("[Connection closed by %s]", s.peer)
	return nil
}

func (s *Session) writePump(ctx context.Context, input <-chan string) error {
	defer s.Close()

	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			s.closedLocally.Store(true)
			return nil
		case line, ok := <-input:
			if !ok {
				s.closedLocally.Store(true)
				return nil
			}
			if line == ExitCommand {
				s.closedLocally.Store(true)
				s.display.Notice("[Closing session with %s]", s.peer)
				return nil
			}
			if line == "" {
				continue
			}
			if _, err := io.WriteString(s.conn, line+"\n"); err != nil {
				if s.State() == StateClosed {
					return nil
				}
				s.display.Notice("[Error sending to %s: %v]", s.peer, err)
				return fmt.Errorf("write to %s: %w", s.peer, err)
			}
		}
	}
}
