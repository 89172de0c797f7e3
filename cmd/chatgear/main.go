package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/chatgear/internal/app"
	"github.com/vk/chatgear/internal/bus"
	"github.com/vk/chatgear/internal/cdppage"
	"github.com/vk/chatgear/internal/cli"
)

// main is the entrypoint for the chatgear application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) error {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(outW, "A critical startup error occurred: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := cdppage.Attach(ctx, appConfig.CDPURL)
	if err != nil {
		return fmt.Errorf("failed to attach to browser: %w", err)
	}
	defer pg.Detach()

	var relay bus.Bus
	if appConfig.RelayURL != "" {
		sio, err := bus.DialSocketIO(ctx, bus.SocketIOOptions{URL: appConfig.RelayURL})
		if err != nil {
			return fmt.Errorf("failed to connect to relay: %w", err)
		}
		defer sio.Close()
		relay = sio
	} else {
		relay = bus.NewLoopback()
	}

	chatgearApp := app.NewApp(outW, appConfig, pg, relay)
	return chatgearApp.Run(ctx)
}
