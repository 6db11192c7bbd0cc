// Command toy-lsp runs the toylsp language server. It speaks LSP over
// stdin/stdout by default; logs go to stderr and, optionally, a file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/gossip-lsp/toylsp"
	"github.com/gossip-lsp/toylsp/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "toy-lsp:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("toy-lsp", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a TOML config file (reloaded on change)")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn or error")
	logFile := flags.String("log-file", "", "also write logs to this file, rotated by size")
	replyErrors := flags.Bool("reply-errors", false, "answer unknown or malformed requests with JSON-RPC errors")
	flags.Bool("stdio", true, "communicate over stdin/stdout")
	tcpAddr := flags.String("tcp", "", "listen for one client on this TCP address")
	socketPath := flags.String("socket", "", "listen for one client on this Unix socket")
	wsAddr := flags.String("ws", "", "listen for one WebSocket client on this address")
	showVersion := flags.Bool("version", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	override := func(s *config.Settings) {
		if flags.Changed("log-level") {
			s.LogLevel = *logLevel
		}
		if flags.Changed("log-file") {
			s.LogFile = *logFile
		}
		if flags.Changed("reply-errors") {
			s.ReplyErrors = *replyErrors
		}
	}

	settings, err := toylsp.LoadSettings(*configPath, override)
	if err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(settings.Name, settings.Version)
		return nil
	}

	store := config.NewStore(settings)
	logger, logCloser := toylsp.NewLogger(os.Stderr, store)
	defer logCloser.Close()

	if *configPath != "" {
		watcher, err := toylsp.WatchSettings(store, *configPath, override, logger)
		if err != nil {
			logger.Warn("config hot reload disabled", "path", *configPath, "error", err)
		} else {
			defer watcher.Close()
		}
	}

	var serveOpt toylsp.ServeOption
	switch {
	case *tcpAddr != "":
		serveOpt = toylsp.WithTCP(*tcpAddr)
	case *socketPath != "":
		serveOpt = toylsp.WithSocket(*socketPath)
	case *wsAddr != "":
		serveOpt = toylsp.WithWebSocket(*wsAddr)
	default:
		serveOpt = toylsp.WithStdio()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := toylsp.NewServer(
		toylsp.WithLogger(logger),
		toylsp.WithSettings(store),
	)
	return toylsp.ServeContext(ctx, s, serveOpt)
}
