// Package app wires the datagram side (beacon, listener, broadcaster), the
// private sessions and the interactive console into one running node.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"lanchat/internal/broadcaster"
	cliplugins "lanchat/internal/cli_plugins"
	"lanchat/internal/config"
	"lanchat/internal/console"
	"lanchat/internal/discover"
	"lanchat/internal/listener"
	"lanchat/internal/netutil"
	"lanchat/internal/peers"
	"lanchat/internal/session"
	"lanchat/internal/storage/peerbook"
	"lanchat/internal/util/logger/sl"
	"lanchat/internal/watcher"
	"lanchat/pkg/cli"

	"golang.org/x/sync/errgroup"
)

var ErrBind = errors.New("failed to bind socket")

type Options struct {
	LocalIP net.IP
	// Broadcast overrides the subnet broadcast address derived from LocalIP.
	Broadcast *net.UDPAddr
	In        io.Reader
	Out       io.Writer
}

type App struct {
	cfg     *config.Config
	log     *slog.Logger
	localIP net.IP
	self    string

	console  *console.Console
	identity *discover.Identity
	registry *peers.Registry
	book     *peerbook.PeerBook

	udpConn     *net.UDPConn
	tcpListener *net.TCPListener

	listener    *listener.Listener
	broadcaster *broadcaster.Broadcaster
	beacon      *discover.Beacon
	acceptor    *session.Acceptor
	connector   *session.Connector
	watcher     *watcher.ConfigWatcher
	commands    *cli.CLI

	sessions   foreground
	sessionsWG sync.WaitGroup

	mu   sync.Mutex
	quit context.CancelFunc
}

// New binds both sockets. A bind failure is returned wrapped in ErrBind and
// nothing is left open.
func New(cfg *config.Config, opts Options, log *slog.Logger) (*App, error) {
	const op = "app.New"

	if opts.LocalIP == nil {
		return nil, fmt.Errorf("%s: %w", op, netutil.ErrLocalAddress)
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		localIP:  opts.LocalIP,
		console:  console.New(opts.In, opts.Out),
		identity: discover.NewIdentity(cfg.Nickname),
		registry: peers.NewRegistry(nil),
	}

	udpConn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.UDPPort})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: udp port %d: %v", op, ErrBind, cfg.UDPPort, err)
	}
	a.udpConn = udpConn

	tcpListener, err := net.ListenTCP("tcp4", &net.TCPAddr{Port: cfg.TCPPort})
	if err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("%s: %w: tcp port %d: %v", op, ErrBind, cfg.TCPPort, err)
	}
	a.tcpListener = tcpListener

	udpPort := udpConn.LocalAddr().(*net.UDPAddr).Port
	a.self = net.JoinHostPort(a.localIP.String(), strconv.Itoa(udpPort))

	target := opts.Broadcast
	if target == nil {
		target, err = netutil.BroadcastAddr(a.localIP, udpPort)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if cfg.PeerBookPath != "" {
		a.book, err = peerbook.Open(peerbook.Config{Path: cfg.PeerBookPath}, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	a.broadcaster = broadcaster.New(udpConn, target, broadcaster.Config{
		MaxRetry:   cfg.MaxRetry,
		AckTimeout: cfg.AckTimeout,
	}, log)

	listenerOpts := []listener.Option{listener.WithSelf(a.self)}
	if a.book != nil {
		listenerOpts = append(listenerOpts, listener.WithObserver(a.book))
	}
	a.listener = listener.New(udpConn, a.registry, a.console, a.broadcaster, log, listenerOpts...)

	a.beacon = discover.NewBeacon(udpConn, target, a.identity, a.registry, discover.Config{
		Interval: cfg.HelloInterval,
		Timeout:  cfg.UserTimeout,
	}, log)

	a.acceptor = session.NewAcceptor(tcpListener, a.console, a.runSession, log)
	a.connector = session.NewConnector(a.registry, a.localIP.String(), cfg.TCPPort, a.console, log)

	if cfg.WatchConfig && cfg.Path != "" {
		a.watcher, err = watcher.NewConfigWatcher(cfg.Path, a.applyConfig, log, watcher.Config{})
		if err != nil {
			// без hot reload можно работать
			log.Warn("Config watcher disabled", slog.String("op", op), sl.Err(err))
		}
	}

	a.commands = a.buildCommands()
	return a, nil
}

func (a *App) buildCommands() *cli.CLI {
	c := cli.NewCLI("lanchat", a.console.Writer())

	var (
		history cliplugins.PeerHistory
		drops   cliplugins.DropCounter
		reloads cliplugins.ReloadStats
	)
	if a.book != nil {
		history = a.book
		drops = a.book
	}
	if a.watcher != nil {
		reloads = a.watcher
	}

	c.RegisterPlugin(cliplugins.NewUsersCommand(a.registry, a.localIP.String()))
	c.RegisterPlugin(cliplugins.NewConnectCommand(a))
	c.RegisterPlugin(cliplugins.NewSeenCommand(history))
	c.RegisterPlugin(cliplugins.NewAcksCommand(a.listener.SeenAcks(), a.broadcaster))
	c.RegisterPlugin(cliplugins.NewNickCommand(a.identity))
	c.RegisterPlugin(cliplugins.NewStatsCommand(a.registry, reloads, drops))
	c.RegisterPlugin(cliplugins.NewQuitCommand(a.stop))
	return c
}

// UDPAddr is the bound datagram address.
func (a *App) UDPAddr() *net.UDPAddr {
	return a.udpConn.LocalAddr().(*net.UDPAddr)
}

func (a *App) TCPAddr() *net.TCPAddr {
	return a.tcpListener.Addr().(*net.TCPAddr)
}

func (a *App) Registry() *peers.Registry {
	return a.registry
}

func (a *App) Identity() *discover.Identity {
	return a.identity
}

// Run starts every loop and blocks until ctx is done, /quit is typed or the
// console input ends.
func (a *App) Run(ctx context.Context) error {
	const op = "app.Run"
	log := a.log.With(slog.String("op", op))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.quit = cancel
	a.mu.Unlock()

	a.console.Notice("Running as %q (%s)", a.identity.Nickname(), a.localIP)
	a.console.Println("Commands:")
	for _, p := range a.commands.Plugins() {
		meta := p.Meta()
		a.console.Println(fmt.Sprintf("  %s%-20s %s", cli.CommandPrefix, meta.Use, meta.Short))
	}
	a.console.Println(fmt.Sprintf("  %-21s %s", session.ExitCommand, "Close the current private chat"))

	log.Info("Node started",
		slog.String("nickname", a.identity.Nickname()),
		slog.String("udp", a.UDPAddr().String()),
		slog.String("tcp", a.TCPAddr().String()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.beacon.Run(gctx) })
	g.Go(func() error { return a.listener.Run(gctx) })
	g.Go(func() error { return a.acceptor.Run(gctx) })
	if a.watcher != nil {
		g.Go(func() error { return a.watcher.Run(gctx) })
	}
	if a.book != nil {
		g.Go(func() error { return a.book.Run(gctx) })
	}
	g.Go(func() error {
		defer cancel()
		return a.commandLoop(gctx)
	})

	err := g.Wait()
	a.sessionsWG.Wait()

	log.Info("Node stopped")
	return err
}

func (a *App) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quit != nil {
		a.quit()
	}
}

func (a *App) commandLoop(ctx context.Context) error {
	lines := a.console.Lines(ctx)
	a.console.Prompt(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			a.handleLine(ctx, line)
			a.console.Prompt(a.sessions.len() > 0)
		}
	}
}

func (a *App) handleLine(ctx context.Context, line string) {
	for r := a.sessions.current(); r != nil; r = a.sessions.current() {
		select {
		case r.input <- line:
			return
		case <-r.session.Done():
			a.sessions.remove(r)
		case <-ctx.Done():
			return
		}
	}

	switch {
	case line == "":
		return
	case line == session.ExitCommand:
		a.console.Notice("No private chat is open.")
	case cli.IsCommand(line):
		if err := a.commands.Exec(ctx, line); err != nil {
			a.console.Error("Error: %v", err)
		}
	default:
		a.sendChat(ctx, line)
	}
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
