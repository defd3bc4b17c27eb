package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"lanchat/internal/util/logger/sl"

	"golang.org/x/time/rate"
)

// Handler owns an accepted, already open session and returns when it is done with it.
type Handler func(ctx context.Context, s *Session)

type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

type Acceptor struct {
	listener deadlineListener
	display  Display
	handler  Handler
	log      *slog.Logger

	maxConns   int
	errLimiter *rate.Limiter
}

type AcceptorOption func(*Acceptor)

func WithMaxConnections(n int) AcceptorOption {
	return func(a *Acceptor) {
		a.maxConns = n
	}
}

func NewAcceptor(listener deadlineListener, display Display, handler Handler, log *slog.Logger, opts ...AcceptorOption) *Acceptor {
	a := &Acceptor{
		listener:   listener,
		display:    display,
		handler:    handler,
		log:        log.With(slog.String("component", "session_acceptor")),
		maxConns:   maxConnections,
		errLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run accepts connections until ctx is done, then waits for running handlers.
func (a *Acceptor) Run(ctx context.Context) error {
	const op = "session.Acceptor.Run"
	log := a.log.With(slog.String("op", op))

	log.Info("Session acceptor started", slog.String("address", a.listener.Addr().String()))

	var wg sync.WaitGroup
	connLimiter := make(chan struct{}, a.maxConns)

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down acceptor")
			wg.Wait()
			return nil
		default:
		}

		if err := a.listener.SetDeadline(time.Now().Add(acceptPoll)); err != nil {
			log.Warn("Failed to set deadline", sl.Err(err))
		}

		conn, err := a.listener.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue // продолжаем слушать, если это ошибка таймаута
			}
			if errors.Is(err, net.ErrClosed) {
				log.Info("Listener closed")
				wg.Wait()
				return nil
			}
			log.Warn("Error accepting connection", sl.Err(err))
			_ = a.errLimiter.Wait(ctx)
			continue
		}

		select {
		case connLimiter <- struct{}{}:
			wg.Add(1)
			go func() {
				defer func() {
					<-connLimiter
					wg.Done()
				}()
				a.serve(ctx, conn)
			}()
		default:
			log.Warn("Too many sessions, rejecting new connection", slog.String("RemoteAddr", conn.RemoteAddr().String()))
			conn.Close()
		}
	}
}

func (a *Acceptor) serve(ctx context.Context, conn net.Conn) {
	s := newSession(a.display, a.log, true)
	s.attach(conn)
	defer s.Close()

	a.display.Notice("[Connected TCP from %s]", s.Peer())
	a.handler(ctx, s)
}
