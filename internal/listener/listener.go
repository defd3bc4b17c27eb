// Package listener runs the single datagram receive loop and dispatches
// Hello, Message and Ack frames.
package listener

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"lanchat/internal/frame"
	"lanchat/internal/netutil"
	"lanchat/internal/util/logger/sl"

	"golang.org/x/time/rate"
)

type Listener struct {
	conn     net.PacketConn
	registry Registry
	display  Display
	acks     AckSink
	seen     *AckLog
	observer PeerObserver
	self     string
	log      *slog.Logger

	readTimeout time.Duration
	errLimiter  *rate.Limiter
}

type Option func(*Listener)

// WithSelf makes the listener ignore Message and Ack frames sent from its own
// address, which otherwise come back through the broadcast loop.
func WithSelf(addr string) Option {
	return func(l *Listener) {
		l.self = addr
	}
}

func WithObserver(o PeerObserver) Option {
	return func(l *Listener) {
		l.observer = o
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(l *Listener) {
		l.readTimeout = d
	}
}

func New(
	conn net.PacketConn,
	registry Registry,
	display Display,
	acks AckSink,
	log *slog.Logger,
	opts ...Option,
) *Listener {
	l := &Listener{
		conn:        conn,
		registry:    registry,
		display:     display,
		acks:        acks,
		seen:        NewAckLog(),
		log:         log.With(slog.String("component", "datagram_listener")),
		readTimeout: defaultReadTimeout,
		// не больше 10 сообщений об ошибках чтения в секунду
		errLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SeenAcks returns the diagnostic set of every ack id observed.
func (l *Listener) SeenAcks() *AckLog {
	return l.seen
}

// Run receives datagrams until ctx is cancelled. Receive errors are logged and never stop the loop.
func (l *Listener) Run(ctx context.Context) error {
	const op = "listener.Run"
	log := l.log.With(slog.String("op", op))

	log.Info("Datagram listener started", slog.String("addr", l.conn.LocalAddr().String()))

	buffer := make([]byte, maxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			log.Info("Datagram listener stopped")
			return nil
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(l.readTimeout)); err != nil {
			log.Warn("Failed to set read deadline", sl.Err(err))
		}

		n, src, err := l.conn.ReadFrom(buffer)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue // продолжаем слушать, если это ошибка таймаута
			}
			if errors.Is(err, net.ErrClosed) {
				log.Info("Datagram socket closed")
				return nil
			}
			log.Error("ReadFrom failed", sl.Err(err))
			if err := l.errLimiter.Wait(ctx); err != nil {
				return nil
			}
			continue
		}

		l.handle(buffer[:n], src)
	}
}

func (l *Listener) handle(data []byte, src net.Addr) {
	const op = "listener.handle"
	log := l.log.With(slog.String("op", op), slog.String("from", src.String()))

	f, err := frame.Parse(data)
	if err != nil {
		log.Debug("Discarding frame", sl.Err(err))
		return
	}

	switch f.Kind {
	case frame.KindHello:
		host := netutil.HostOf(src.String())
		l.registry.Upsert(host, f.Nickname)
		if l.observer != nil {
			l.observer.Observe(host, f.Nickname)
		}

	case frame.KindMessage:
		if l.isSelf(src) {
			return
		}
		l.display.ShowDatagram(src.String(), f.Payload)

		// ack на каждую копию, дубликаты не подавляются
		if _, err := l.conn.WriteTo(frame.Ack(f.ID).Encode(), src); err != nil {
			log.Error("Failed to send ack", slog.Uint64("id", f.ID), sl.Err(err))
		}

	case frame.KindAck:
		if l.isSelf(src) {
			return
		}
		l.seen.Add(f.ID)
		if !l.acks.Resolve(f.ID) {
			log.Debug("Ack with no waiting sender", slog.Uint64("id", f.ID))
		}
	}
}

func (l *Listener) isSelf(src net.Addr) bool {
	return l.self != "" && src.String() == l.self
}
