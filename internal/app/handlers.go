package app

import (
	"context"
	"errors"
	"log/slog"

	"lanchat/internal/broadcaster"
	"lanchat/internal/config"
	"lanchat/internal/session"
	"lanchat/internal/util/logger/sl"

	"go.uber.org/multierr"
)

// sendChat broadcasts one chat line and blocks until it is acknowledged or given up.
func (a *App) sendChat(ctx context.Context, text string) {
	const op = "app.sendChat"
	log := a.log.With(slog.String("op", op))

	res, err := a.broadcaster.Send(ctx, text)
	switch {
	case err == nil:
		a.console.Notice("[UDP] Message delivered (attempt %d)", res.Attempts)
	case errors.Is(err, broadcaster.ErrNotDelivered):
		a.console.Error("[UDP] Message not acknowledged after %d attempts", res.Attempts)
	case errors.Is(err, context.Canceled):
		return
	default:
		log.Error("Send failed", sl.Err(err))
		a.console.Error("[UDP] Send failed: %v", err)
	}
}

// OpenSession dials the peer known as nickname and makes the session
// foreground once no older session is open.
func (a *App) OpenSession(ctx context.Context, nickname string) error {
	s, err := a.connector.Connect(ctx, nickname)
	if err != nil {
		return err
	}
	a.console.Notice("Connected to %s via TCP. Type messages, %s to close.", s.Peer(), session.ExitCommand)

	r := a.sessions.push(s)
	a.sessionsWG.Add(1)
	go func() {
		defer a.sessionsWG.Done()
		defer a.sessions.remove(r)
		_ = s.Run(ctx, r.input)
	}()
	return nil
}

// runSession is the acceptor handler for inbound sessions.
func (a *App) runSession(ctx context.Context, s *session.Session) {
	r := a.sessions.push(s)
	defer a.sessions.remove(r)

	a.console.Prompt(true)
	_ = s.Run(ctx, r.input)
}

// applyConfig takes the settings that may change at runtime from a reloaded config.
func (a *App) applyConfig(cfg *config.Config) {
	const op = "app.applyConfig"

	if cfg.Nickname == "" || cfg.Nickname == a.identity.Nickname() {
		return
	}
	a.log.Info("Nickname changed",
		slog.String("op", op),
		slog.String("old", a.identity.Nickname()),
		slog.String("new", cfg.Nickname),
	)
	a.identity.SetNickname(cfg.Nickname)
	a.console.Notice("Nickname is now %s", cfg.Nickname)
}

// Close releases sockets and storage. Run must have returned.
func (a *App) Close() error {
	var err error
	if a.watcher != nil {
		err = multierr.Append(err, a.watcher.Close())
	}
	if a.tcpListener != nil {
		err = multierr.Append(err, ignoreClosed(a.tcpListener.Close()))
	}
	if a.udpConn != nil {
		err = multierr.Append(err, ignoreClosed(a.udpConn.Close()))
	}
	if a.book != nil {
		err = multierr.Append(err, a.book.Close())
	}
	return err
}
