package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"lanchat/internal/app"
	"lanchat/internal/config"
	"lanchat/internal/netutil"
	"lanchat/internal/util/logger/handlers/slogpretty"
	"lanchat/internal/util/logger/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.MustLoad()

	logOut, closeLog := openLogFile(cfg.LogFile)
	defer closeLog()

	// Настраиваем логгер
	log := setupLogger(cfg.Env, logOut)

	// Создаем контекст с отменой для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)
	if cfg.Nickname == "" {
		nickname, err := askNickname(in, os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, "cannot read nickname:", err)
			os.Exit(1)
		}
		cfg.Nickname = nickname
	}

	localIP, err := netutil.LocalIPv4()
	if err != nil {
		log.Error("Local address detection failed", sl.Err(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Detected local IP: %s\n", localIP)

	log.Info("starting application",
		slog.String("env", cfg.Env),
		slog.String("nickname", cfg.Nickname),
		slog.Int("udp_port", cfg.UDPPort),
		slog.Int("tcp_port", cfg.TCPPort),
	)

	a, err := app.New(cfg, app.Options{
		LocalIP: localIP,
		In:      in,
		Out:     os.Stdout,
	}, log)
	if err != nil {
		log.Error("Startup failed", sl.Err(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runErr := a.Run(ctx)
	if err := a.Close(); err != nil {
		log.Warn("Close failed", sl.Err(err))
	}
	if runErr != nil {
		log.Error("Application stopped with error", sl.Err(runErr))
		os.Exit(1)
	}
	log.Info("Application shutting down gracefully")
}

func askNickname(in *bufio.Reader, out io.Writer) (string, error) {
	for {
		fmt.Fprint(out, "Enter your nickname: ")
		line, err := in.ReadString('\n')
		nickname := strings.TrimSpace(line)
		if nickname != "" {
			return nickname, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// openLogFile keeps logs off the interactive console. Falls back to stderr.
func openLogFile(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stderr, func() {}
	}
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot open log file %s: %v, logging to stderr\n", path, err)
		return os.Stderr, func() {}
	}
	return f, func() { f.Close() }
}

func setupLogger(env string, out io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog(out)
	case envDev:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return log
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(out)

	return slog.New(handler)
}
